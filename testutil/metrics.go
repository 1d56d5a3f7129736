/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tHelper interface {
	Helper()
}

// GatherMetric registers the collector in a new pedantic registry and returns
// the metric of the family with the given name whose labels include all passed labels.
func GatherMetric(c prometheus.Collector, name string, labels prometheus.Labels) (*dto.Metric, error) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabels(m, labels) {
				return m, nil
			}
		}
	}
	return nil, fmt.Errorf("metric %q with labels %v not found", name, labels)
}

func hasLabels(m *dto.Metric, labels prometheus.Labels) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

// AssertHistogramBucket asserts that the histogram series has the wanted cumulative count at the upper bound.
func AssertHistogramBucket(
	t assert.TestingT, c prometheus.Collector, name string, labels prometheus.Labels, upperBound float64, wantCount int,
) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	m, err := GatherMetric(c, name, labels)
	if !assert.NoError(t, err) {
		return false
	}
	if !assert.NotNil(t, m.GetHistogram(), "metric %q is not a histogram", name) {
		return false
	}
	for _, b := range m.GetHistogram().GetBucket() {
		if math.Abs(b.GetUpperBound()-upperBound) < 1e-9 {
			return assert.Equal(t, wantCount, int(b.GetCumulativeCount()), "bucket %v of %q", upperBound, name)
		}
	}
	return assert.Fail(t, fmt.Sprintf("bucket %v of %q not found", upperBound, name))
}

// RequireHistogramBucket calls AssertHistogramBucket and fail test immediately in case of error.
func RequireHistogramBucket(
	t require.TestingT, c prometheus.Collector, name string, labels prometheus.Labels, upperBound float64, wantCount int,
) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertHistogramBucket(t, c, name, labels, upperBound, wantCount) {
		return
	}
	t.FailNow()
}

// AssertSamplesCountInHistogram asserts that the histogram series contains the specified number of samples.
func AssertSamplesCountInHistogram(
	t assert.TestingT, c prometheus.Collector, name string, labels prometheus.Labels, wantSamplesCount int,
) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	m, err := GatherMetric(c, name, labels)
	if !assert.NoError(t, err) {
		return false
	}
	return assert.Equal(t, wantSamplesCount, int(m.GetHistogram().GetSampleCount()))
}

// RequireSamplesCountInHistogram calls AssertSamplesCountInHistogram and fail test immediately in case of error.
func RequireSamplesCountInHistogram(
	t require.TestingT, c prometheus.Collector, name string, labels prometheus.Labels, wantSamplesCount int,
) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertSamplesCountInHistogram(t, c, name, labels, wantSamplesCount) {
		return
	}
	t.FailNow()
}

// AssertMetricValue asserts that the counter or gauge series has the wanted value.
func AssertMetricValue(t assert.TestingT, c prometheus.Collector, name string, labels prometheus.Labels, want float64) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	m, err := GatherMetric(c, name, labels)
	if !assert.NoError(t, err) {
		return false
	}
	switch {
	case m.GetCounter() != nil:
		return assert.Equal(t, want, m.GetCounter().GetValue())
	case m.GetGauge() != nil:
		return assert.Equal(t, want, m.GetGauge().GetValue())
	}
	return assert.Fail(t, fmt.Sprintf("metric %q is neither a counter nor a gauge", name))
}

// RequireMetricValue calls AssertMetricValue and fail test immediately in case of error.
func RequireMetricValue(t require.TestingT, c prometheus.Collector, name string, labels prometheus.Labels, want float64) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertMetricValue(t, c, name, labels, want) {
		return
	}
	t.FailNow()
}
