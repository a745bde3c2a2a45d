// Package autocomplete requests suggestions for the text before the cursor
// and hands them back to the session that asked.
package autocomplete

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rivo/uniseg"

	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/state"
	"github.com/GoatWang/BopomofoLLM/internal/suggest"
)

// Defaults.
const (
	// ContextLength is how many characters before the cursor are sent.
	ContextLength = 10
	// Timeout bounds one suggestion request.
	Timeout = 5 * time.Second
)

// Poster runs a function on the session's goroutine.
type Poster interface {
	Post(fn func())
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(fn func())

// Post calls f.
func (f PosterFunc) Post(fn func()) { f(fn) }

// Config configures a Coordinator.
type Config struct {
	Provider suggest.Provider
	Poster   Poster
	// Timeout defaults to Timeout.
	Timeout time.Duration
	Logger  *logging.Logger
	// Crash records panics of the request goroutine. Optional.
	Crash *logging.CrashHandler
}

// Coordinator runs suggestion requests. Requests are never retried or
// queued; a newer request makes every older one stale, and stale results are
// dropped when they arrive.
type Coordinator struct {
	provider suggest.Provider
	poster   Poster
	timeout  time.Duration
	log      *logging.Logger
	crash    *logging.CrashHandler

	latest atomic.Uint64
	closed atomic.Bool
	wg     sync.WaitGroup
}

// New creates a Coordinator.
func New(cfg Config) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = Timeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Coordinator{
		provider: cfg.Provider,
		poster:   cfg.Poster,
		timeout:  cfg.Timeout,
		log:      cfg.Logger.WithComponent("autocomplete"),
		crash:    cfg.Crash,
	}
}

// Request asks for a suggestion continuing text, of which only the last
// ContextLength characters are used. When the request succeeds with a
// non-empty suggestion and no newer request was made meanwhile, deliver is
// posted with the Autocomplete state to enter. Request reports whether a request was
// started; it is not for an empty text.
func (c *Coordinator) Request(text string, deliver func(state.Autocomplete)) bool {
	text = lastCharacters(text, ContextLength)
	if text == "" || c.provider == nil || c.closed.Load() {
		return false
	}

	seq := c.latest.Add(1)
	c.wg.Add(1)
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		suggestion, err := c.provider.Complete(ctx, text)
		if err != nil {
			c.log.Debug("suggestion failed", "error", err)
			return
		}
		if suggestion == "" {
			return
		}
		c.post(func() {
			if c.closed.Load() || c.latest.Load() != seq {
				c.log.Debug("dropping stale suggestion", "seq", seq)
				return
			}
			deliver(state.Autocomplete{Suggestion: suggestion, PreviousText: text})
		})
	}

	go func() {
		defer c.wg.Done()
		if c.crash != nil {
			c.crash.Recover(map[string]any{"op": "autocomplete"}, run)
			return
		}
		run()
	}()
	return true
}

func (c *Coordinator) post(fn func()) {
	if c.poster == nil {
		fn()
		return
	}
	c.poster.Post(fn)
}

// Invalidate makes every pending request stale.
func (c *Coordinator) Invalidate() {
	c.latest.Add(1)
}

// Wait blocks until every started request has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close drops every pending result and refuses new requests.
func (c *Coordinator) Close() {
	c.closed.Store(true)
}

// lastCharacters returns the last n grapheme clusters of s.
func lastCharacters(s string, n int) string {
	var starts []int
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		from, _ := g.Positions()
		starts = append(starts, from)
	}
	if len(starts) <= n {
		return s
	}
	return s[starts[len(starts)-n]:]
}
