package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_DelayWithinJitterBounds(t *testing.T) {
	p := DefaultPolicy()

	r := p.rule(TypeRateLimit)
	require.NotEmpty(t, r.Delays)

	for attempt := 1; attempt <= len(r.Delays); attempt++ {
		configured := r.Delays[attempt-1]
		lo := time.Duration(float64(configured) * (1 - float64(p.JitterPercent)/100))
		hi := time.Duration(float64(configured) * (1 + float64(p.JitterPercent)/100))
		if lo < p.MinDelay {
			lo = p.MinDelay
		}

		for i := 0; i < 50; i++ {
			d := p.Delay(TypeRateLimit, attempt)
			assert.GreaterOrEqual(t, d, lo, "attempt %d", attempt)
			assert.LessOrEqual(t, d, hi, "attempt %d", attempt)
		}
	}
}

func TestPolicy_DelayFloor(t *testing.T) {
	p := NewPolicy([]Rule{
		{
			Type:       TypeProxy,
			Enabled:    true,
			MaxRetries: 3,
			Delays:     []time.Duration{10 * time.Millisecond},
			MaxDelay:   time.Second,
		},
	})

	// A tiny configured delay must still be clamped to the floor so a
	// retry never fires in a tight loop.
	d := p.Delay(TypeProxy, 1)
	assert.GreaterOrEqual(t, d, p.MinDelay)
}

func TestPolicy_DelayGrowsBeyondSchedule(t *testing.T) {
	p := DefaultPolicy()
	p.JitterPercent = 0 // deterministic growth check

	r := p.rule(TypeRateLimit)
	last := p.Delay(TypeRateLimit, len(r.Delays))

	for attempt := len(r.Delays) + 1; attempt < len(r.Delays)+6; attempt++ {
		d := p.Delay(TypeRateLimit, attempt)
		assert.GreaterOrEqual(t, d, last, "delay must grow monotonically past the schedule")
		assert.LessOrEqual(t, d, r.MaxDelay, "delay must respect the max-delay cap")
		last = d
	}

	// Far past the schedule the cap holds exactly.
	assert.Equal(t, r.MaxDelay, p.Delay(TypeRateLimit, 50))
}

func TestPolicy_RateLimitBacksOffLongerThanProxy(t *testing.T) {
	p := DefaultPolicy()
	p.JitterPercent = 0

	assert.Greater(t, p.Delay(TypeRateLimit, 1), p.Delay(TypeProxy, 1),
		"rate limits must back off far longer than transient proxy errors")
}

func TestPolicy_UserMessage(t *testing.T) {
	p := DefaultPolicy()

	for _, typ := range []ErrorType{
		TypeOffline, TypeTimeout, TypeRateLimit, TypeProxy,
		TypeCloudflare, TypeServer, TypeAuth, TypeUnknown,
	} {
		assert.NotEmpty(t, p.UserMessage(typ), "type %s needs a user message", typ)
	}
}
