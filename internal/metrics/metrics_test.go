package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnCallerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ActionsApplied.WithLabelValues("users", "update").Inc()
	m.Conflicts.WithLabelValues("ACTION_PENDING").Inc()
	m.ObserveSettlement("users", "committed", time.Now().Add(-10*time.Millisecond))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActionsApplied.WithLabelValues("users", "update")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Conflicts.WithLabelValues("ACTION_PENDING")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Settlements.WithLabelValues("users", "committed")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["backline_settle_duration_seconds"])
}

func TestNew_TwoRegistriesDoNotCollide(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.ActionsApplied.WithLabelValues("orders", "update").Inc()
	assert.Equal(t, float64(0), testutil.ToFloat64(b.ActionsApplied.WithLabelValues("orders", "update")))
}
