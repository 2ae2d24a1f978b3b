package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/Thiht/transactor"

	"github.com/benjamonnguyen/daybook"
)

// NopTransactor runs the callback directly.
type NopTransactor struct{}

var _ transactor.Transactor = NopTransactor{}

func (NopTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FakeExtractor answers prompts with canned responses.
type FakeExtractor struct {
	mu sync.Mutex

	// Respond computes the answer. When nil, Response and Err are returned.
	Respond  func(ctx context.Context, prompt string) (string, error)
	Response string
	Err      error

	Prompts []string
}

var _ daybook.Extractor = (*FakeExtractor)(nil)

func (f *FakeExtractor) Extract(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.Prompts = append(f.Prompts, prompt)
	respond := f.Respond
	f.mu.Unlock()

	if respond != nil {
		return respond(ctx, prompt)
	}
	return f.Response, f.Err
}

func (f *FakeExtractor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}
