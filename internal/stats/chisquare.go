// Package stats holds the statistical routines used by the A/B test
// manager.
package stats

import (
	"errors"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerateTable is returned when the contingency table has an empty
// row or column, which makes expected counts zero and the test undefined.
var ErrDegenerateTable = errors.New("stats: degenerate contingency table")

// ChiSquareIndependence runs a chi-square test of independence on a 2×N
// contingency table of (conversions, non-conversions) per variant.
// successes[i] must not exceed totals[i]. It returns the chi-square
// statistic and the p-value under N-1 degrees of freedom.
func ChiSquareIndependence(successes, totals []int64) (chi2, p float64, err error) {
	n := len(successes)
	if n < 2 || len(totals) != n {
		return 0, 0, errors.New("stats: need at least two variants with matching totals")
	}

	var sumSuccess, sumTotal int64
	for i := 0; i < n; i++ {
		if totals[i] < successes[i] || totals[i] <= 0 {
			return 0, 0, ErrDegenerateTable
		}
		sumSuccess += successes[i]
		sumTotal += totals[i]
	}
	sumFailure := sumTotal - sumSuccess
	if sumSuccess == 0 || sumFailure == 0 {
		// Every observation falls in one row; no independence to test.
		return 0, 1, nil
	}

	for i := 0; i < n; i++ {
		expSuccess := float64(totals[i]) * float64(sumSuccess) / float64(sumTotal)
		expFailure := float64(totals[i]) * float64(sumFailure) / float64(sumTotal)
		dS := float64(successes[i]) - expSuccess
		dF := float64(totals[i]-successes[i]) - expFailure
		chi2 += dS * dS / expSuccess
		chi2 += dF * dF / expFailure
	}

	dist := distuv.ChiSquared{K: float64(n - 1)}
	return chi2, dist.Survival(chi2), nil
}
