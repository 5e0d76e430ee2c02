// Package incident 记录被识别为诈骗特征的指标（钱包、IBAN、URL、帖子），
// 供后续调查使用。这里只保存指标本身，不保存对话内容。
package incident

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Incident 表示一条可疑指标记录。
type Incident struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Indicator string `json:"indicator"`
	Note      string `json:"note"`
	Source    string `json:"source"`
	CreatedAt int64  `json:"created_at"`
}

// Store 抽象指标记录的持久化接口。
type Store interface {
	Save(ctx context.Context, inc *Incident) error
	ListLatest(ctx context.Context, limit int) ([]Incident, error)
	Close() error
}

// ErrUnsupportedDriver 表示配置了未知的存储驱动。
var ErrUnsupportedDriver = errors.New("暂不支持的存储驱动")

// Prepare 为缺省字段补齐 ID 与创建时间。
func Prepare(inc *Incident) {
	if inc.ID == "" {
		inc.ID = uuid.NewString()
	}
	if inc.CreatedAt == 0 {
		inc.CreatedAt = time.Now().Unix()
	}
}

const defaultMemoryCapacity = 512

// MemoryStore 在进程内保存最近的记录，按时间倒序。
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	records  []Incident
}

// NewMemoryStore 创建内存存储，capacity<=0 时使用默认容量。
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// Save 保存一条记录。
func (m *MemoryStore) Save(_ context.Context, inc *Incident) error {
	if inc == nil {
		return errors.New("incident 不能为空")
	}
	Prepare(inc)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append([]Incident{*inc}, m.records...)
	if len(m.records) > m.capacity {
		m.records = m.records[:m.capacity]
	}
	return nil
}

// ListLatest 返回最近的记录。
func (m *MemoryStore) ListLatest(_ context.Context, limit int) ([]Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	results := make([]Incident, limit)
	copy(results, m.records[:limit])
	return results, nil
}

// Close 实现 Store。
func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
