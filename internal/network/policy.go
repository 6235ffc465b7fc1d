package network

import (
	"math/rand"
	"time"
)

// Rule is one entry of the ordered classification table. Earlier rules
// win, so narrower status sets (502 as proxy) must precede broader ones
// (5xx as server).
type Rule struct {
	Type        ErrorType
	Enabled     bool
	StatusCodes []int
	Keywords    []string // matched case-insensitively against message and body
	MaxRetries  int      // zero marks the type non-retryable
	Delays      []time.Duration
	MaxDelay    time.Duration
	Message     string // user-facing message for this failure mode
}

// Policy holds the rule table plus the jitter and backoff parameters
// shared by every type.
type Policy struct {
	rules []Rule

	// JitterPercent perturbs each computed delay by ±p% to avoid
	// synchronized retry storms.
	JitterPercent int
	// Multiplier extends the configured schedule exponentially for
	// attempts past its end.
	Multiplier float64
	// MinDelay is the floor after jitter so a retry never fires in a
	// tight loop.
	MinDelay time.Duration

	// randFloat returns a value in [0,1); replaceable in tests.
	randFloat func() float64
}

// DefaultPolicy returns the production rule table. Rate limiting backs
// off over tens of seconds; transient proxy and origin failures retry
// within seconds; auth failures never retry.
func DefaultPolicy() *Policy {
	return &Policy{
		rules: []Rule{
			{
				Type:        TypeRateLimit,
				Enabled:     true,
				StatusCodes: []int{429},
				Keywords:    []string{"too many requests", "rate limit", "throttle"},
				MaxRetries:  5,
				Delays:      []time.Duration{15 * time.Second, 30 * time.Second, 60 * time.Second},
				MaxDelay:    120 * time.Second,
				Message:     "The service is receiving too many requests. Retrying with a longer delay.",
			},
			{
				Type:        TypeProxy,
				Enabled:     true,
				StatusCodes: []int{502},
				Keywords:    []string{"bad gateway", "proxy error"},
				MaxRetries:  3,
				Delays:      []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second},
				MaxDelay:    5 * time.Second,
				Message:     "A gateway between you and the service failed. Retrying.",
			},
			{
				Type:        TypeCloudflare,
				Enabled:     true,
				StatusCodes: []int{520, 521, 522, 523, 524},
				Keywords:    []string{"cloudflare"},
				MaxRetries:  3,
				Delays:      []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
				MaxDelay:    10 * time.Second,
				Message:     "The service edge is having trouble. Retrying.",
			},
			{
				Type:        TypeServer,
				Enabled:     true,
				StatusCodes: []int{500, 503, 504},
				Keywords:    []string{"internal server error", "service unavailable"},
				MaxRetries:  3,
				Delays:      []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
				MaxDelay:    8 * time.Second,
				Message:     "The service hit an internal error. Retrying.",
			},
			{
				Type:        TypeTimeout,
				Enabled:     true,
				StatusCodes: []int{408},
				Keywords:    []string{"timeout", "timed out", "deadline exceeded"},
				MaxRetries:  3,
				Delays:      []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second},
				MaxDelay:    16 * time.Second,
				Message:     "The request timed out. Retrying.",
			},
			{
				Type:        TypeAuth,
				Enabled:     true,
				StatusCodes: []int{401, 403},
				Keywords:    []string{"unauthorized", "forbidden", "invalid token"},
				MaxRetries:  0,
				Message:     "Your session has expired. Please sign in again.",
			},
			{
				Type:       TypeOffline,
				Enabled:    true,
				Keywords:   []string{"no such host", "connection refused", "network is unreachable", "offline"},
				MaxRetries: 4,
				Delays:     []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
				MaxDelay:   30 * time.Second,
				Message:    "You appear to be offline. Check your connection.",
			},
			{
				Type:       TypeUnknown,
				Enabled:    true,
				MaxRetries: 0,
				Message:    "Something went wrong talking to the service.",
			},
		},
		JitterPercent: 20,
		Multiplier:    2.0,
		MinDelay:      100 * time.Millisecond,
		randFloat:     rand.Float64,
	}
}

// NewPolicy builds a policy from a custom rule table, keeping the
// default jitter/backoff parameters.
func NewPolicy(rules []Rule) *Policy {
	p := DefaultPolicy()
	p.rules = rules
	return p
}

// SetRandom overrides the jitter randomness source, for tests.
func (p *Policy) SetRandom(f func() float64) {
	p.randFloat = f
}

// rule returns the table entry for t, or an empty non-retryable rule.
func (p *Policy) rule(t ErrorType) Rule {
	for _, r := range p.rules {
		if r.Type == t {
			return r
		}
	}
	return Rule{Type: t}
}

// MaxRetries returns the retry budget for the given type. The budget
// resets on every logical call; it is not carried across calls.
func (p *Policy) MaxRetries(t ErrorType) int {
	return p.rule(t).MaxRetries
}

// UserMessage returns the user-facing message for the given type.
func (p *Policy) UserMessage(t ErrorType) string {
	return p.message(t)
}

func (p *Policy) message(t ErrorType) string {
	if msg := p.rule(t).Message; msg != "" {
		return msg
	}
	return "Something went wrong talking to the service."
}

// Delay computes the backoff before retry attempt number attempt
// (1-based). Within the configured schedule the table entry is used
// directly; past its end the last entry grows by Multiplier per extra
// attempt, capped at the type's MaxDelay. Jitter of ±JitterPercent is
// applied afterwards, then the result is clamped to MinDelay.
func (p *Policy) Delay(t ErrorType, attempt int) time.Duration {
	r := p.rule(t)
	if attempt < 1 {
		attempt = 1
	}

	base := p.baseDelay(r, attempt)
	jittered := p.jitter(base)

	if jittered < p.MinDelay {
		return p.MinDelay
	}
	return jittered
}

func (p *Policy) baseDelay(r Rule, attempt int) time.Duration {
	if len(r.Delays) == 0 {
		return p.MinDelay
	}

	if attempt <= len(r.Delays) {
		return r.Delays[attempt-1]
	}

	// Exponential extension of the last configured delay.
	base := float64(r.Delays[len(r.Delays)-1])
	for i := len(r.Delays); i < attempt; i++ {
		base *= p.Multiplier
		if r.MaxDelay > 0 && base >= float64(r.MaxDelay) {
			return r.MaxDelay
		}
	}
	d := time.Duration(base)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		return r.MaxDelay
	}
	return d
}

func (p *Policy) jitter(d time.Duration) time.Duration {
	if p.JitterPercent <= 0 {
		return d
	}
	span := float64(d) * float64(p.JitterPercent) / 100
	offset := (p.randFloat()*2 - 1) * span
	return time.Duration(float64(d) + offset)
}
