package fraud

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Throttle rules for one (link, hashed IP) pair.
const (
	DefaultThrottleWindow = 60 * time.Minute
	MaxClicksPerWindow    = 3
	MinClickSpacing       = 30 * time.Second
)

// Throttle rejection reasons.
const (
	ReasonTooManyClicks = "too many clicks from same IP"
	ReasonTooSoon       = "click too soon after previous click"
)

// ClickHistory is the storage the throttle gate reads from.
type ClickHistory interface {
	// RecentClickTimes returns click timestamps for the pair at or after
	// since, newest first.
	RecentClickTimes(ctx context.Context, linkID uuid.UUID, ipHash string, since time.Time) ([]time.Time, error)
}

// ThrottleDecision is the gate's verdict.
type ThrottleDecision struct {
	Allowed bool
	Reason  string
}

// ThrottleGate applies short-window per-IP rules to a link.
//
// FAILURE POLICY: fail open. A storage error admits the click, so an
// outage never blocks legitimate visitors. Changing this to fail closed
// is a policy change, not a bug fix.
type ThrottleGate struct {
	history ClickHistory
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewThrottleGate creates a throttle gate over the click history.
func NewThrottleGate(history ClickHistory, log logrus.FieldLogger) *ThrottleGate {
	return &ThrottleGate{history: history, log: log, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (g *ThrottleGate) WithClock(now func() time.Time) *ThrottleGate {
	g.now = now
	return g
}

// CheckIPThrottle decides whether another click from ipHash on linkID is
// admitted. A non-positive window uses DefaultThrottleWindow.
func (g *ThrottleGate) CheckIPThrottle(ctx context.Context, ipHash string, linkID uuid.UUID, window time.Duration) ThrottleDecision {
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	now := g.now()

	recent, err := g.history.RecentClickTimes(ctx, linkID, ipHash, now.Add(-window))
	if err != nil {
		g.log.WithError(err).WithField("link_id", linkID).Warn("IP throttle check failed, allowing click")
		return ThrottleDecision{Allowed: true}
	}

	if len(recent) == 0 {
		return ThrottleDecision{Allowed: true}
	}
	if len(recent) >= MaxClicksPerWindow {
		return ThrottleDecision{Allowed: false, Reason: ReasonTooManyClicks}
	}
	if now.Sub(recent[0]) < MinClickSpacing {
		return ThrottleDecision{Allowed: false, Reason: ReasonTooSoon}
	}

	return ThrottleDecision{Allowed: true}
}
