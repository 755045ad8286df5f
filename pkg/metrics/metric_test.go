package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/lintang-b-s/brouter-client/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetric(reg)
	require.NoError(t, err)

	m.Observe("remote", "route", nil, 120*time.Millisecond)
	m.Observe("remote", "route", util.NewErrorf(util.ErrEmptyRoute, "no points"), time.Second)
	m.Observe("remote", "route", util.NewErrorf(util.ErrEmptyRoute, "no points"), time.Second)
	m.Observe("local", "route", errors.New("boom"), time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("remote", "route", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("remote", "route", "empty_route")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("local", "route", "internal")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))

	_, err = NewMetric(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestNilMetric(t *testing.T) {
	var m *Metric
	assert.NotPanics(t, func() {
		m.Observe("remote", "route", nil, time.Second)
	})
}
