package analyzer

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"
	"time"

	"CyberGuard/internal/alert"
	"CyberGuard/internal/classify"
	"CyberGuard/internal/enrich"
	xerrors "CyberGuard/internal/errors"
	"CyberGuard/internal/incident"
	"CyberGuard/internal/llm"
	"CyberGuard/internal/persona"
)

const (
	// SourceConsole 标记来自控制台的输入。
	SourceConsole = "console"
	// SourceSocial 标记来自社交帖子的输入。
	SourceSocial = "social"

	suspiciousMarker = "suspicious"
)

// Report 汇总一次分析的全部中间结果。
type Report struct {
	Input      classify.Input `json:"input"`
	Author     string         `json:"author,omitempty"`
	Enrichment enrich.Result  `json:"enrichment"`
	Prompt     string         `json:"prompt"`
	Reply      string         `json:"reply"`
	Suspicious bool           `json:"suspicious"`
	Source     string         `json:"source"`
	CreatedAt  int64          `json:"created_at"`
}

// Flagged 判断报告是否需要记录线索并告警。
func (r *Report) Flagged(p persona.Persona) bool {
	return r.Enrichment.Flagged || (p.WarnOnSuspicious && r.Suspicious)
}

// Analyzer 协调分类、补充查询与大模型调用，是系统的业务核心。
type Analyzer struct {
	llmClient  llm.Client
	enricher   enrich.Enricher
	persona    persona.Persona
	incidents  incident.Store
	alerts     alert.Publisher
	logger     *slog.Logger
	audit      *slog.Logger
	llmTimeout time.Duration
}

// Option 定义可选的 Analyzer 配置。
type Option func(*Analyzer)

// WithIncidentStore 配置诈骗线索存储。
func WithIncidentStore(store incident.Store) Option {
	return func(a *Analyzer) {
		a.incidents = store
	}
}

// WithAlertPublisher 配置告警投递。
func WithAlertPublisher(p alert.Publisher) Option {
	return func(a *Analyzer) {
		a.alerts = p
	}
}

// WithLogger 设置诊断日志。
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAuditLogger 设置记录线索与告警的审计日志。
func WithAuditLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.audit = logger
		}
	}
}

// WithLLMTimeout 设置调用大模型的超时时间。
func WithLLMTimeout(timeout time.Duration) Option {
	return func(a *Analyzer) {
		if timeout <= 0 {
			a.llmTimeout = 0
			return
		}
		a.llmTimeout = timeout
	}
}

// New 创建一个 Analyzer。enricher 为空时不做任何补充查询。
func New(llmClient llm.Client, enricher enrich.Enricher, p persona.Persona, opts ...Option) *Analyzer {
	discard := slog.New(slog.DiscardHandler)
	a := &Analyzer{
		llmClient: llmClient,
		enricher:  enricher,
		persona:   p,
		logger:    discard,
		audit:     discard,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Persona 返回当前使用的人设。
func (a *Analyzer) Persona() persona.Persona {
	return a.persona
}

// Analyze 分析控制台输入的一行文本。
func (a *Analyzer) Analyze(ctx context.Context, raw string) (*Report, error) {
	return a.run(ctx, raw, "", SourceConsole)
}

// AnalyzePost 分析一条社交帖子。
func (a *Analyzer) AnalyzePost(ctx context.Context, author, text string) (*Report, error) {
	return a.run(ctx, text, author, SourceSocial)
}

func (a *Analyzer) run(ctx context.Context, raw, author, source string) (*Report, error) {
	if a.llmClient == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置大模型客户端")
	}

	in := classify.Classify(raw)
	enrichment := a.enrich(ctx, in)

	subject := in.Raw
	if in.Kind == classify.WalletAddress && a.persona.WalletSubject != "" && a.persona.Allows(classify.WalletAddress) {
		subject = a.persona.WalletSubject
	}
	prompt := a.persona.Render(subject, enrichment.Text)

	llmCtx := ctx
	if a.llmTimeout > 0 {
		var cancel context.CancelFunc
		llmCtx, cancel = context.WithTimeout(ctx, a.llmTimeout)
		defer cancel()
	}

	resp, err := a.llmClient.Complete(llmCtx, llm.Request{
		Instruction: a.persona.Instruction,
		Content:     prompt,
		MaxTokens:   a.persona.MaxTokens,
	})
	if err != nil {
		if stdErrors.Is(err, context.DeadlineExceeded) {
			return nil, xerrors.Wrap(xerrors.CodeTimeout, err, "大模型推理超时")
		}
		return nil, xerrors.Wrap(xerrors.CodeCompletionFailure, err, "大模型推理失败")
	}
	if resp == nil {
		return nil, xerrors.New(xerrors.CodeCompletionFailure, "大模型返回空响应")
	}

	report := &Report{
		Input:      in,
		Author:     author,
		Enrichment: enrichment,
		Prompt:     prompt,
		Reply:      resp.Reply,
		Suspicious: strings.Contains(strings.ToLower(resp.Reply), suspiciousMarker),
		Source:     source,
		CreatedAt:  time.Now().Unix(),
	}

	if report.Flagged(a.persona) {
		a.record(ctx, report)
	}
	return report, nil
}

// enrich 只执行人设允许的补充查询。
func (a *Analyzer) enrich(ctx context.Context, in classify.Input) enrich.Result {
	if a.enricher == nil || !a.persona.Allows(in.Kind) {
		return enrich.Result{Kind: in.Kind}
	}
	res := a.enricher.Enrich(ctx, in)
	a.logger.Debug("enrichment completed",
		slog.String("kind", in.Kind.String()),
		slog.Bool("flagged", res.Flagged),
	)
	return res
}

// record 保存线索并投递告警，失败只记录日志。
func (a *Analyzer) record(ctx context.Context, r *Report) {
	kind, indicator, note := r.Input.Kind.String(), r.Input.Raw, r.Enrichment.Text
	if !r.Enrichment.Flagged {
		kind, note = "reply", r.Reply
	}
	if r.Author != "" {
		indicator = "@" + r.Author
	}

	inc := &incident.Incident{
		Kind:      kind,
		Indicator: indicator,
		Note:      note,
		Source:    r.Source,
		CreatedAt: r.CreatedAt,
	}
	if a.incidents != nil {
		if err := a.incidents.Save(ctx, inc); err != nil {
			err = xerrors.Wrap(xerrors.CodeStorageFailure, err, "保存诈骗线索失败")
			a.logger.Warn("incident not saved", slog.String("indicator", indicator), slog.Any("error", err))
		} else {
			a.audit.Info("incident recorded",
				slog.String("incident_id", inc.ID),
				slog.String("kind", kind),
				slog.String("indicator", indicator),
			)
		}
	}

	if a.alerts != nil {
		al := alert.Alert{
			ID:        inc.ID,
			Kind:      kind,
			Indicator: indicator,
			Summary:   note,
			Source:    r.Source,
			CreatedAt: r.CreatedAt,
		}
		if err := a.alerts.Publish(ctx, al); err != nil {
			err = xerrors.Wrap(xerrors.CodeAlertFailure, err, "投递告警失败")
			a.logger.Warn("alert not delivered", slog.String("indicator", indicator), slog.Any("error", err))
		} else {
			a.audit.Info("alert published", slog.String("kind", kind), slog.String("indicator", indicator))
		}
	}
}
