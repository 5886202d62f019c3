package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	Register()

	before := testutil.ToFloat64(apiRequests.WithLabelValues("POST", "200"))
	IncRequest("POST", "200")
	assert.Equal(t, before+1, testutil.ToFloat64(apiRequests.WithLabelValues("POST", "200")))

	before = testutil.ToFloat64(lifecycleTransitions.WithLabelValues("active"))
	IncTransition("active")
	assert.Equal(t, before+1, testutil.ToFloat64(lifecycleTransitions.WithLabelValues("active")))
}
