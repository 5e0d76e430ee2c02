// Package enrich 为归类后的输入补充查询结果，供提示词引用。
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"CyberGuard/internal/classify"
	xerrors "CyberGuard/internal/errors"
	"CyberGuard/internal/ledger"
)

const (
	walletNoData = "No wallet data found."
	walletError  = "Error checking wallet."

	ibanPayrnet    = "IBAN tied to UAB PAYRNET (Lithuania)—often used in scams."
	ibanUnknown    = "IBAN format valid but bank not identified."
	payrnetBank    = "35500"
	ibanCountry    = "LT"
	ibanLength     = 20
	suspiciousTLD  = ".vip"
	urlVIPFormat   = "URL %s uses a .vip domain—frequently tied to scams."
	urlPlainFormat = "URL %s—no specific scam data available yet."
)

// Result 是一次补充查询的结果。Text 为空表示没有可补充的信息，
// Flagged 表示结果本身指向已知的诈骗特征。
type Result struct {
	Kind    classify.Kind
	Text    string
	Flagged bool
}

// String 返回补充信息文本。
func (r Result) String() string {
	return r.Text
}

// Enricher 对单条输入执行补充查询，实现不得返回错误。
type Enricher interface {
	Enrich(ctx context.Context, in classify.Input) Result
}

// EnricherFunc 让普通函数满足 Enricher 接口。
type EnricherFunc func(ctx context.Context, in classify.Input) Result

// Enrich 实现 Enricher。
func (f EnricherFunc) Enrich(ctx context.Context, in classify.Input) Result {
	return f(ctx, in)
}

// Dispatcher 按输入类别分派到对应的 Enricher，未注册的类别返回空结果。
type Dispatcher struct {
	enrichers map[classify.Kind]Enricher
}

// Option 定义 Dispatcher 的可选配置。
type Option func(*Dispatcher)

// WithEnricher 为指定类别注册 Enricher。
func WithEnricher(kind classify.Kind, e Enricher) Option {
	return func(d *Dispatcher) {
		if e == nil {
			delete(d.enrichers, kind)
			return
		}
		d.enrichers[kind] = e
	}
}

// NewDispatcher 创建分派器。
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{enrichers: make(map[classify.Kind]Enricher)}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Default 创建包含钱包、IBAN 与 URL 三类查询的分派器。
func Default(counter ledger.Counter, logger *slog.Logger) *Dispatcher {
	return NewDispatcher(
		WithEnricher(classify.WalletAddress, NewWallet(counter, logger)),
		WithEnricher(classify.IBAN, EnricherFunc(IBAN)),
		WithEnricher(classify.URL, EnricherFunc(URL)),
	)
}

// Enrich 实现 Enricher。
func (d *Dispatcher) Enrich(ctx context.Context, in classify.Input) Result {
	if d == nil {
		return Result{Kind: in.Kind}
	}
	e, ok := d.enrichers[in.Kind]
	if !ok {
		return Result{Kind: in.Kind}
	}
	res := e.Enrich(ctx, in)
	res.Kind = in.Kind
	return res
}

// Wallet 通过区块浏览器查询钱包的交易数量，只尝试一次。
type Wallet struct {
	counter ledger.Counter
	logger  *slog.Logger
}

// NewWallet 创建钱包查询器，logger 为空时不输出诊断日志。
func NewWallet(counter ledger.Counter, logger *slog.Logger) *Wallet {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Wallet{counter: counter, logger: logger}
}

// Enrich 实现 Enricher。任何失败都会被转换为固定的提示文本。
func (w *Wallet) Enrich(ctx context.Context, in classify.Input) (res Result) {
	res = Result{Kind: classify.WalletAddress}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("wallet lookup panicked", slog.String("address", in.Raw), slog.Any("panic", r))
			res.Text = walletError
		}
	}()

	if w.counter == nil {
		res.Text = walletError
		return res
	}

	count, err := w.counter.TransactionCount(ctx, in.Raw)
	switch {
	case err == nil:
		res.Text = fmt.Sprintf("Wallet %s has %d transactions.", in.Raw, count)
	case errors.Is(err, ledger.ErrNoData):
		w.logger.Info("wallet lookup returned no data", slog.String("address", in.Raw), slog.Any("error", err))
		res.Text = walletNoData
	default:
		err = xerrors.Wrap(xerrors.CodeLookupFailure, err, "查询钱包交易失败", xerrors.WithMetadata("address", in.Raw))
		w.logger.Warn("wallet lookup failed",
			slog.String("address", in.Raw),
			slog.String("code", string(xerrors.CodeOf(err))),
			slog.String("severity", string(xerrors.SeverityOf(err))),
			slog.Any("error", err),
		)
		res.Text = walletError
	}
	return res
}

// IBAN 在本地检查银行代码，字符位置 4 至 8 为 35500 时判定为 UAB PAYRNET。
func IBAN(_ context.Context, in classify.Input) Result {
	res := Result{Kind: classify.IBAN, Text: ibanUnknown}
	runes := []rune(in.Raw)
	if strings.HasPrefix(in.Raw, ibanCountry) && len(runes) == ibanLength && string(runes[4:9]) == payrnetBank {
		res.Text = ibanPayrnet
		res.Flagged = true
	}
	return res
}

// URL 在本地检查 .vip 域名特征。
func URL(_ context.Context, in classify.Input) Result {
	if strings.Contains(in.Raw, suspiciousTLD) {
		return Result{Kind: classify.URL, Text: fmt.Sprintf(urlVIPFormat, in.Raw), Flagged: true}
	}
	return Result{Kind: classify.URL, Text: fmt.Sprintf(urlPlainFormat, in.Raw)}
}

var _ Enricher = (*Dispatcher)(nil)
