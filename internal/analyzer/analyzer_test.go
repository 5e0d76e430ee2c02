package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"CyberGuard/internal/alert"
	"CyberGuard/internal/classify"
	"CyberGuard/internal/enrich"
	xerrors "CyberGuard/internal/errors"
	"CyberGuard/internal/incident"
	"CyberGuard/internal/ledger"
	"CyberGuard/internal/llm"
	"CyberGuard/internal/persona"
)

type stubLLM struct {
	resp  *llm.Response
	err   error
	wait  time.Duration
	calls []llm.Request
}

func (s *stubLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.calls = append(s.calls, req)
	if s.wait > 0 {
		select {
		case <-time.After(s.wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type recordingPublisher struct {
	alerts []alert.Alert
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, a alert.Alert) error {
	r.alerts = append(r.alerts, a)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

type failingStore struct{}

func (failingStore) Save(context.Context, *incident.Incident) error {
	return errors.New("disk full")
}

func (failingStore) ListLatest(context.Context, int) ([]incident.Incident, error) { return nil, nil }

func (failingStore) Close() error { return nil }

func mustPersona(t *testing.T, name string) persona.Persona {
	t.Helper()
	p, err := persona.Builtin().Lookup(name)
	if err != nil {
		t.Fatalf("lookup persona: %v", err)
	}
	return p
}

func walletCounter(count int, err error) ledger.Counter {
	return ledger.CounterFunc(func(context.Context, string) (int, error) {
		return count, err
	})
}

const wallet = "0x1234567890abcdef1234567890abcdef12345678"

func TestAnalyzeWallet(t *testing.T) {
	stub := &stubLLM{resp: &llm.Response{Reply: "Risk: Low"}}
	a := New(stub, enrich.Default(walletCounter(2, nil), nil), mustPersona(t, "cyberguard_v3"))

	report, err := a.Analyze(context.Background(), wallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Analyze: '" + wallet + "'. Extra info: Wallet " + wallet + " has 2 transactions."
	if report.Prompt != want {
		t.Fatalf("unexpected prompt:\n got %q\nwant %q", report.Prompt, want)
	}
	if len(stub.calls) != 1 || stub.calls[0].MaxTokens != 200 || stub.calls[0].Content != want {
		t.Fatalf("unexpected completion request: %+v", stub.calls)
	}
	if report.Input.Kind != classify.WalletAddress || report.Source != SourceConsole || report.Reply != "Risk: Low" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestAnalyzeWalletSubject(t *testing.T) {
	stub := &stubLLM{resp: &llm.Response{Reply: "ok"}}
	a := New(stub, enrich.Default(walletCounter(0, ledger.ErrNoData), nil), mustPersona(t, "cyberguard_wallet"))

	report, err := a.Analyze(context.Background(), wallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Analyze this: 'Check this wallet for scam activity.'. Blockchain info: No wallet data found."
	if report.Prompt != want {
		t.Fatalf("unexpected prompt %q", report.Prompt)
	}

	report, err = a.Analyze(context.Background(), "LT783550020000012861")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Prompt != "Analyze this: 'LT783550020000012861'. Blockchain info: " {
		t.Fatalf("iban must not be enriched by the wallet persona: %q", report.Prompt)
	}
}

func TestAnalyzePlainPersonaSkipsLookups(t *testing.T) {
	called := false
	counter := ledger.CounterFunc(func(context.Context, string) (int, error) {
		called = true
		return 1, nil
	})
	stub := &stubLLM{resp: &llm.Response{Reply: "ok"}}
	a := New(stub, enrich.Default(counter, nil), mustPersona(t, "cyberguard"))

	report, err := a.Analyze(context.Background(), wallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("ledger must not be queried by a persona without the wallet enricher")
	}
	if report.Prompt != "Analyze this text: '"+wallet+"'" {
		t.Fatalf("unexpected prompt %q", report.Prompt)
	}
}

func TestAnalyzeFlaggedRecordsIncident(t *testing.T) {
	store := incident.NewMemoryStore(4)
	pub := &recordingPublisher{}
	stub := &stubLLM{resp: &llm.Response{Reply: "High risk"}}
	a := New(stub, enrich.Default(nil, nil), mustPersona(t, "cyberguard_v3"),
		WithIncidentStore(store), WithAlertPublisher(pub))

	report, err := a.Analyze(context.Background(), "https://masscoin.vip/#/user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Enrichment.Flagged {
		t.Fatalf("expected .vip url to be flagged")
	}

	list, _ := store.ListLatest(context.Background(), 10)
	if len(list) != 1 || list[0].Kind != "url" || list[0].Indicator != "https://masscoin.vip/#/user" {
		t.Fatalf("unexpected incidents: %+v", list)
	}
	if len(pub.alerts) != 1 || pub.alerts[0].ID != list[0].ID {
		t.Fatalf("expected alert sharing the incident id: %+v", pub.alerts)
	}
}

func TestAnalyzeUnflaggedRecordsNothing(t *testing.T) {
	store := incident.NewMemoryStore(4)
	pub := &recordingPublisher{}
	stub := &stubLLM{resp: &llm.Response{Reply: "This looks suspicious"}}
	a := New(stub, enrich.Default(nil, nil), mustPersona(t, "cyberguard_v3"),
		WithIncidentStore(store), WithAlertPublisher(pub))

	report, err := a.Analyze(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Suspicious {
		t.Fatalf("expected suspicious scan to match")
	}
	if list, _ := store.ListLatest(context.Background(), 10); len(list) != 0 || len(pub.alerts) != 0 {
		t.Fatalf("persona without suspicious warnings must not record: %+v %+v", list, pub.alerts)
	}
}

func TestAnalyzePostSuspicious(t *testing.T) {
	store := incident.NewMemoryStore(4)
	pub := &recordingPublisher{err: errors.New("broker down")}
	stub := &stubLLM{resp: &llm.Response{Reply: "This post is SUSPICIOUS."}}
	a := New(stub, nil, mustPersona(t, "cyberguard_social"),
		WithIncidentStore(store), WithAlertPublisher(pub))

	report, err := a.AnalyzePost(context.Background(), "QuickRich123", "Invest $50 with me and get $500 in a week—DM me!")
	if err != nil {
		t.Fatalf("alert failures must not abort: %v", err)
	}
	if !report.Suspicious || report.Source != SourceSocial || report.Author != "QuickRich123" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Prompt != "Analyze this: 'Invest $50 with me and get $500 in a week—DM me!'" {
		t.Fatalf("unexpected prompt %q", report.Prompt)
	}
	list, _ := store.ListLatest(context.Background(), 10)
	if len(list) != 1 || list[0].Indicator != "@QuickRich123" || list[0].Kind != "reply" {
		t.Fatalf("unexpected incidents: %+v", list)
	}
}

func TestAnalyzeStorageFailureIsNotFatal(t *testing.T) {
	stub := &stubLLM{resp: &llm.Response{Reply: "ok"}}
	a := New(stub, enrich.Default(nil, nil), mustPersona(t, "cyberguard_v3"), WithIncidentStore(failingStore{}))

	if _, err := a.Analyze(context.Background(), "LT783550020000012861"); err != nil {
		t.Fatalf("storage failures must not abort: %v", err)
	}
}

func TestAnalyzeCompletionFailureIsFatal(t *testing.T) {
	stub := &stubLLM{err: errors.New("401 unauthorized")}
	a := New(stub, nil, mustPersona(t, "decision_buddy"))

	_, err := a.Analyze(context.Background(), "Should I lend money to a stranger?")
	if err == nil {
		t.Fatalf("expected completion error")
	}
	if xerrors.CodeOf(err) != xerrors.CodeCompletionFailure || !xerrors.IsFatal(err) {
		t.Fatalf("unexpected error classification: %v", err)
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	stub := &stubLLM{wait: 50 * time.Millisecond}
	a := New(stub, nil, mustPersona(t, "decision_buddy"), WithLLMTimeout(10*time.Millisecond))

	_, err := a.Analyze(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) || xerrors.CodeOf(err) != xerrors.CodeTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestAnalyzeRequiresClient(t *testing.T) {
	a := New(nil, nil, mustPersona(t, "cyberguard"))
	if _, err := a.Analyze(context.Background(), "hi"); xerrors.CodeOf(err) != xerrors.CodeInitializationFailure {
		t.Fatalf("expected initialization failure, got %v", err)
	}
}
