package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/templates"
)

type entryStoreFake struct {
	hits    []domain.EntryHit
	entries []domain.Entry
	err     error

	mu          sync.Mutex
	searchLimit int
	listLimit   int
}

func (f *entryStoreFake) SearchText(_ context.Context, _ string, limit int) ([]domain.EntryHit, error) {
	f.mu.Lock()
	f.searchLimit = limit
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.hits[:min(limit, len(f.hits))], nil
}

func (f *entryStoreFake) ListEntries(_ context.Context, limit int, _ string) ([]domain.Entry, string, error) {
	f.mu.Lock()
	f.listLimit = limit
	f.mu.Unlock()
	if f.err != nil {
		return nil, "", f.err
	}
	return f.entries[:min(limit, len(f.entries))], "", nil
}

// embedderFake returns vectors by exact text. Unknown texts get fallback,
// texts in fail return an error and texts in hang (or every text when
// hangAll is set) block until the context ends.
type embedderFake struct {
	vectors  map[string][]float32
	fallback []float32
	fail     map[string]bool
	hang     map[string]bool
	hangAll  bool
	err      error

	mu    sync.Mutex
	calls int
	hints []string
}

func (f *embedderFake) Embed(ctx context.Context, text, modelHint string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.hints = append(f.hints, modelHint)
	f.mu.Unlock()
	if f.hangAll || f.hang[text] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.fail[text] {
		return nil, domain.ErrProviderUnavailable
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.fallback, nil
}

type completerFake struct {
	answer string
	err    error
	block  bool

	mu       sync.Mutex
	requests []domain.CompletionRequest
}

func (f *completerFake) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *completerFake) lastRequest() domain.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return domain.CompletionRequest{}
	}
	return f.requests[len(f.requests)-1]
}

type publisherFake struct {
	events []domain.AnsweredEvent
	err    error
}

func (f *publisherFake) PublishAnswered(_ context.Context, event domain.AnsweredEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func scorePtr(v float64) *float64 { return &v }

func defaultTemplates() domain.AnswerTemplates { return templates.Default() }
