package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil, "format_error"))
	assert.Equal(t, "error", Outcome(errors.New("x"), ""))
	assert.Equal(t, "capacity_error", Outcome(errors.New("x"), "capacity_error"))
}

func TestOperationsCounter(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(Operations.WithLabelValues("encode", "ok"))
	Operations.WithLabelValues("encode", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Operations.WithLabelValues("encode", "ok")))
}
