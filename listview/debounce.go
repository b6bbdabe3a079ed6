package listview

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ckarsten/watchdeck/models"
)

// searchDebounceDelay is how long typing must pause before a search fires.
const searchDebounceDelay = 300 * time.Millisecond

// Searcher debounces search-as-you-type input. Each keystroke resets the
// delay timer; only the latest query after a pause reaches the network. A
// newer query cancels any in-flight request for an older one, so results
// always correspond to the most recent input.
type Searcher struct {
	client  *Client
	delay   time.Duration
	results func(query string, results []models.SearchResult, err error)

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	gen     uint64
	closed  bool
	pending string
}

// NewSearcher builds a debounced searcher. The results callback receives the
// outcome of each completed search; it is never called for superseded
// queries. Cancelled requests are swallowed, not reported as errors.
func NewSearcher(client *Client, results func(query string, results []models.SearchResult, err error)) *Searcher {
	return &Searcher{
		client:  client,
		delay:   searchDebounceDelay,
		results: results,
	}
}

// SetQuery records a keystroke. A blank query cancels everything outstanding
// and immediately reports an empty result set.
func (s *Searcher) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		s.pending = ""
		go s.results("", []models.SearchResult{}, nil)
		return
	}

	s.pending = trimmed
	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() {
		s.fire(gen)
	})
}

// fire runs the network search for the generation that armed the timer. If a
// newer keystroke arrived meanwhile the call is abandoned before any request
// is made.
func (s *Searcher) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	query := s.pending
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	results, err := s.client.Search(ctx, query)

	s.mu.Lock()
	stale := s.closed || gen != s.gen
	if s.cancel != nil && gen == s.gen {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel()

	if stale || ctx.Err() != nil {
		return
	}
	s.results(query, results, err)
}

// Close cancels any pending timer and in-flight request. The searcher makes
// no further callbacks after Close returns.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
