package alert

import (
	"context"
	"errors"
	"fmt"
)

// Fanout 将告警广播给多个 Publisher。
type Fanout struct {
	publishers []Publisher
}

// NewFanout 创建广播器，忽略空的 Publisher。
func NewFanout(publishers ...Publisher) *Fanout {
	set := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			set = append(set, p)
		}
	}
	return &Fanout{publishers: set}
}

// Publish 将告警投递到所有 Publisher，汇总全部失败。
func (f *Fanout) Publish(ctx context.Context, a Alert) error {
	if f == nil {
		return nil
	}
	prepare(&a)
	var errs []error
	for i, p := range f.publishers {
		if err := p.Publish(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("publisher %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Close 关闭所有 Publisher。
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var err error
	for _, p := range f.publishers {
		err = errors.Join(err, p.Close())
	}
	return err
}

var _ Publisher = (*Fanout)(nil)
