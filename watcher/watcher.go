package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jongio/autoattach/attach"
	"github.com/jongio/autoattach/logutil"
	"github.com/jongio/autoattach/matcher"
	"github.com/jongio/autoattach/procutil"
	"github.com/jongio/autoattach/tracker"
	"github.com/sony/gobreaker"
)

const (
	// DefaultInterval is the period between discovery passes.
	DefaultInterval = 1500 * time.Millisecond

	// DefaultBreakerFailures is the number of consecutive enumeration
	// failures that open the circuit breaker.
	DefaultBreakerFailures = 5

	// DefaultBreakerTimeout is how long the breaker stays open.
	DefaultBreakerTimeout = 30 * time.Second
)

// Options configures a Watcher.
type Options struct {
	Interval time.Duration
	Platform procutil.Platform
	Attacher attach.Attacher
	Base     attach.DebugConfig
	Filter   matcher.Filter

	// ProbeRate limits liveness probes per second. Zero means unlimited.
	ProbeRate float64

	// BreakerFailures opens the enumeration breaker after this many
	// consecutive failures. A negative value disables the breaker; zero
	// selects DefaultBreakerFailures.
	BreakerFailures int
	BreakerTimeout  time.Duration

	EnableMetrics bool
}

// Session is the state of one watch session. It is created by Start and
// discarded by Stop; nothing carries over to the next session.
type Session struct {
	ID      uint64
	RootPID int
	Started time.Time
	Tracker *tracker.Tracker

	ctx     context.Context
	cancel  context.CancelFunc
	breaker *gobreaker.CircuitBreaker
	done    chan struct{}
	passes  sync.WaitGroup
}

// Active reports whether the session has not been stopped.
func (s *Session) Active() bool {
	return s.ctx.Err() == nil
}

// PassResult summarizes one discovery pass.
type PassResult struct {
	Records    int
	Candidates []tracker.Candidate
	Outcomes   map[int]attach.Outcome
	// Deferred lists candidates that will be retried on a later pass.
	Deferred []int
	Err      error
}

// Watcher schedules discovery passes for at most one session at a time.
type Watcher struct {
	opts       Options
	dispatcher *attach.Dispatcher
	log        *logutil.ComponentLogger

	mu      sync.Mutex
	session *Session
	nextID  uint64
}

// New creates a stopped Watcher.
func New(opts Options) (*Watcher, error) {
	if opts.Platform == nil {
		return nil, errors.New("watcher: platform is required")
	}
	if opts.Attacher == nil {
		return nil, errors.New("watcher: attacher is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = DefaultBreakerFailures
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = DefaultBreakerTimeout
	}
	metricsEnabled.Store(opts.EnableMetrics)

	return &Watcher{
		opts: opts,
		dispatcher: attach.NewDispatcher(attach.Options{
			Base:      opts.Base,
			Checker:   opts.Platform,
			Attacher:  opts.Attacher,
			ProbeRate: opts.ProbeRate,
		}),
		log: logutil.NewLogger("watcher"),
	}, nil
}

// Start begins watching the tree rooted at rootPID. A rootPID <= 0 lets the
// tracker infer the root. It returns false, changing nothing, when a session
// is already running.
func (w *Watcher) Start(rootPID int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.log.Info("starting autoattach", "root", rootPID, "interval", w.opts.Interval, "platform", w.opts.Platform.Name())
	if w.session != nil {
		w.log.Debug("autoattach already running", "session", w.session.ID)
		return false
	}

	w.nextID++
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:      w.nextID,
		RootPID: rootPID,
		Started: time.Now(),
		Tracker: tracker.New(rootPID),
		ctx:     ctx,
		cancel:  cancel,
		breaker: w.newBreaker(),
		done:    make(chan struct{}),
	}
	w.session = s
	recordSession(true)

	go w.loop(s)
	return true
}

// Stop ends the current session. Passes still in flight finish in the
// background and their results are discarded. It returns false when no
// session is running.
func (w *Watcher) Stop() bool {
	w.mu.Lock()
	s := w.session
	w.session = nil
	w.mu.Unlock()

	w.log.Info("stopping autoattach")
	if s == nil {
		return false
	}

	s.cancel()
	<-s.done
	recordSession(false)
	return true
}

// SetEnabled applies the configuration toggle: true starts a session for
// rootPID, false stops it. Repeating the current state is a no-op.
func (w *Watcher) SetEnabled(enabled bool, rootPID int) {
	if enabled {
		w.Start(rootPID)
	} else {
		w.Stop()
	}
}

// Running reports whether a session is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session != nil
}

// Session returns the active session, or nil.
func (w *Watcher) Session() *Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

// Wait blocks until every pass started by s has returned.
func (s *Session) Wait() {
	s.passes.Wait()
}

// RunOnce runs one discovery pass for the active session and waits for it.
func (w *Watcher) RunOnce() (PassResult, error) {
	s := w.Session()
	if s == nil {
		return PassResult{}, errors.New("watcher: no active session")
	}
	s.passes.Add(1)
	defer s.passes.Done()
	return w.pass(s), nil
}

// loop fires a pass every interval until the session is canceled. The first
// pass runs after one full interval.
func (w *Watcher) loop(s *Session) {
	defer close(s.done)

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.passes.Add(1)
			go func() {
				defer s.passes.Done()
				w.pass(s)
			}()
		}
	}
}

// pass runs enumerate -> track -> filter -> dispatch for session s.
func (w *Watcher) pass(s *Session) PassResult {
	start := time.Now()
	log := w.log.WithSession(s.ID)
	result := PassResult{Outcomes: make(map[int]attach.Outcome)}

	records, err := w.enumerate(s)
	if !s.Active() {
		recordPass(resultCanceled, time.Since(start), 0)
		result.Err = context.Canceled
		return result
	}
	if err != nil {
		result.Err = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Debug("process enumeration skipped", "reason", err)
			recordPass(resultSkipped, time.Since(start), 0)
		} else {
			log.Warn("process enumeration failed", "error", err)
			recordPass(resultFailed, time.Since(start), 0)
		}
		return result
	}

	result.Records = len(records)
	result.Candidates = s.Tracker.Update(records)

	for _, c := range result.Candidates {
		if !w.opts.Filter.Allows(c.CommandLine) {
			log.Debug("candidate filtered", "pid", c.PID, "filter", w.opts.Filter.Contains)
			continue
		}
		outcome := w.dispatcher.Dispatch(s.ctx, s.Tracker, c.PID, c.CommandLine)
		result.Outcomes[c.PID] = outcome
		recordDispatch(outcome)
		if outcome.Deferred() {
			result.Deferred = append(result.Deferred, c.PID)
			log.Debug("dispatch deferred", "pid", c.PID, "outcome", string(outcome))
		}
		if outcome == attach.OutcomeCanceled {
			break
		}
	}

	log.Debug("discovery pass complete",
		"records", result.Records,
		"candidates", len(result.Candidates),
		"deferred", len(result.Deferred),
		"elapsed", time.Since(start))
	recordPass(resultOK, time.Since(start), len(s.Tracker.Tracked()))
	return result
}

// enumerate lists processes through the session's circuit breaker.
func (w *Watcher) enumerate(s *Session) ([]procutil.ProcessRecord, error) {
	if s.breaker == nil {
		return w.opts.Platform.ListProcesses(s.ctx)
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return w.opts.Platform.ListProcesses(s.ctx)
	})
	if err != nil {
		return nil, err
	}
	records, ok := out.([]procutil.ProcessRecord)
	if !ok {
		return nil, fmt.Errorf("watcher: unexpected enumeration result %T", out)
	}
	return records, nil
}

func (w *Watcher) newBreaker() *gobreaker.CircuitBreaker {
	if w.opts.BreakerFailures < 0 {
		return nil
	}
	failures := uint32(w.opts.BreakerFailures)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "process-enumeration",
		MaxRequests: 1,
		Timeout:     w.opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			w.log.Info("enumeration breaker state changed", "from", from.String(), "to", to.String())
			recordBreakerState(to)
		},
	})
}
