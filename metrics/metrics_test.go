package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SweepCycles.Inc()
	m.Revocations.WithLabelValues("below_threshold").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepCycles))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Revocations.WithLabelValues("below_threshold")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	// a second set on a separate registry must not collide
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}
