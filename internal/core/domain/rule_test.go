package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConditionMatches(t *testing.T) {
	tests := []struct {
		operator string
		value    float64
		observed float64
		want     bool
	}{
		{"gt", 2.0, 2.5, true},
		{"gt", 2.0, 2.0, false},
		{">", 2.0, 2.5, true},
		{"gte", 2.0, 2.0, true},
		{">=", 2.0, 1.9, false},
		{"lt", 2.0, 1.5, true},
		{"<", 2.0, 2.0, false},
		{"lte", 2.0, 2.0, true},
		{"<=", 2.0, 2.1, false},
		{"eq", 2.0, 2.0, true},
		{"==", 2.0, 2.1, false},
		{"between", 2.0, 2.0, false},
	}
	for _, tt := range tests {
		c := Condition{Metric: "roas", Operator: tt.operator, Value: tt.value}
		assert.Equal(t, tt.want, c.Matches(tt.observed),
			"operator %q value %v observed %v", tt.operator, tt.value, tt.observed)
	}
}

func TestConditionValidate(t *testing.T) {
	assert.NoError(t, Condition{Metric: "roas", Operator: "lt", Value: 2}.Validate())
	assert.Error(t, Condition{Metric: "roas", Operator: "near", Value: 2}.Validate())
	assert.Error(t, Condition{Operator: "lt", Value: 2}.Validate())
}

func TestEvaluationWindow(t *testing.T) {
	r := Rule{CheckInterval: 6 * time.Hour}
	at := time.Date(2026, 8, 29, 14, 37, 12, 0, time.UTC)

	window := r.EvaluationWindow(at)
	assert.Equal(t, time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), window)

	// Any instant inside the same window maps to the same start.
	assert.Equal(t, window, r.EvaluationWindow(at.Add(3*time.Hour)))
	assert.NotEqual(t, window, r.EvaluationWindow(at.Add(4*time.Hour)))
}

func TestPerformanceMetric(t *testing.T) {
	p := AdsetPerformance{
		Spend: 1000, Revenue: 3000, Impressions: 2000, Clicks: 100,
		Conversions: 10, ROAS: 3.0, CPA: 100,
	}

	ctr, ok := p.Metric("ctr")
	assert.True(t, ok)
	assert.InDelta(t, 0.05, ctr, 1e-9)

	roas, ok := p.Metric("roas")
	assert.True(t, ok)
	assert.Equal(t, 3.0, roas)

	_, ok = p.Metric("vibes")
	assert.False(t, ok)
}
