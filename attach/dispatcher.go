package attach

import (
	"context"

	"github.com/jongio/autoattach/logutil"
	"golang.org/x/time/rate"
)

// ListenChecker reports whether pid holds a listening TCP socket on port.
// procutil.Platform satisfies it.
type ListenChecker interface {
	IsListening(ctx context.Context, pid, port int) (bool, error)
}

// Claimer records dispatched pids. Claim returns true for exactly one caller
// per pid. tracker.Tracker satisfies it.
type Claimer interface {
	Claim(pid int) bool
}

// Outcome describes what Dispatch did with a candidate.
type Outcome string

const (
	// OutcomeAttached means the host accepted the attach request.
	OutcomeAttached Outcome = "attached"
	// OutcomeAttachFailed means the request was issued but the host rejected it.
	OutcomeAttachFailed Outcome = "attach_failed"
	// OutcomeNotListening means the debug port is not bound yet; retry next tick.
	OutcomeNotListening Outcome = "not_listening"
	// OutcomeProbeFailed means the liveness check could not run; retry next tick.
	OutcomeProbeFailed Outcome = "probe_failed"
	// OutcomeThrottled means the probe rate limit deferred the check to a later tick.
	OutcomeThrottled Outcome = "throttled"
	// OutcomeDuplicate means another pass already dispatched the pid.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeCanceled means the session stopped before the request was issued.
	OutcomeCanceled Outcome = "canceled"
)

// Deferred reports whether the candidate stays eligible for a later tick.
func (o Outcome) Deferred() bool {
	switch o {
	case OutcomeNotListening, OutcomeProbeFailed, OutcomeThrottled:
		return true
	}
	return false
}

// Options configures a Dispatcher.
type Options struct {
	Base     DebugConfig
	Checker  ListenChecker
	Attacher Attacher
	// ProbeRate limits liveness checks per second. Zero means unlimited.
	ProbeRate float64
}

// Dispatcher verifies that a candidate's debug port is live and then issues
// exactly one attach request for it.
type Dispatcher struct {
	base     DebugConfig
	checker  ListenChecker
	attacher Attacher
	limiter  *rate.Limiter
	log      *logutil.ComponentLogger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{
		base:     opts.Base,
		checker:  opts.Checker,
		attacher: opts.Attacher,
		log:      logutil.NewLogger("attach"),
	}
	if opts.ProbeRate > 0 {
		burst := int(opts.ProbeRate * 2)
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(opts.ProbeRate), burst)
	}
	return d
}

// Dispatch handles one candidate. ctx belongs to the watch session: once it
// is canceled, results that arrive late are discarded. The pid is claimed
// only after liveness is confirmed, and from then on it is never attempted
// again, whatever the attach result.
func (d *Dispatcher) Dispatch(ctx context.Context, claims Claimer, pid int, cmdline string) Outcome {
	req := BuildRequest(pid, cmdline, d.base)
	log := d.log.WithPID(pid).WithFields("port", req.DebugServer)

	if d.limiter != nil && !d.limiter.Allow() {
		log.Debug("liveness probe throttled")
		return OutcomeThrottled
	}

	listening, err := d.checker.IsListening(ctx, pid, req.DebugServer)
	if ctx.Err() != nil {
		return OutcomeCanceled
	}
	if err != nil {
		log.Debug("liveness probe failed", "error", err)
		return OutcomeProbeFailed
	}
	if !listening {
		log.Debug("debug port not listening yet")
		return OutcomeNotListening
	}

	if !claims.Claim(pid) {
		return OutcomeDuplicate
	}

	log.Info("attach", "name", req.Name)
	ok, err := d.attacher.Attach(ctx, req)
	if err != nil || !ok {
		if err != nil {
			log.Warn("attach failed", "error", err)
		} else {
			log.Warn("attach failed")
		}
		return OutcomeAttachFailed
	}
	log.Info("attach succeeded")
	return OutcomeAttached
}
