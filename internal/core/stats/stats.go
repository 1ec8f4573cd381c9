// Package stats computes the descriptive statistics and the nonparametric
// tests used to compare water models and tunnel-opening epochs.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary describes one sample.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe summarises values. Std is the sample standard deviation and is NaN
// for fewer than two values; every field but N is NaN for an empty sample.
func Describe(values []float64) Summary {
	s := Summary{N: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Median, s.Min, s.Max = nan, nan, nan, nan, nan
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	} else {
		s.Std = math.NaN()
	}
	s.Median = median(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	return s
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Ints converts integer samples.
func Ints(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// ErrIdentical is returned when every observation has the same value and the
// rank tests are undefined.
var ErrIdentical = errors.New("all numbers are identical")

// ranking holds the pooled ranks of several samples.
type ranking struct {
	n       int
	sums    []float64
	sizes   []int
	tieTerm float64 // sum of t^3 - t over tie groups
}

func rank(samples [][]float64) ranking {
	type obs struct {
		v     float64
		group int
	}
	var all []obs
	r := ranking{sums: make([]float64, len(samples)), sizes: make([]int, len(samples))}
	for g, s := range samples {
		r.sizes[g] = len(s)
		for _, v := range s {
			all = append(all, obs{v, g})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].v < all[j].v })
	r.n = len(all)

	for i := 0; i < len(all); {
		j := i
		for j < len(all) && all[j].v == all[i].v {
			j++
		}
		// positions i..j-1 share the average of ranks i+1..j
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			r.sums[all[k].group] += avg
		}
		t := float64(j - i)
		r.tieTerm += t*t*t - t
		i = j
	}
	return r
}

// KruskalResult is the outcome of a Kruskal-Wallis H test.
type KruskalResult struct {
	H      float64 `json:"h"`
	DF     int     `json:"df"`
	PValue float64 `json:"p_value"`
}

// KruskalWallis tests whether the samples come from the same distribution.
// Ties are corrected for and p comes from a chi-squared distribution with
// k-1 degrees of freedom.
func KruskalWallis(samples ...[]float64) (KruskalResult, error) {
	if len(samples) < 2 {
		return KruskalResult{}, fmt.Errorf("need at least two samples, got %d", len(samples))
	}
	for i, s := range samples {
		if len(s) == 0 {
			return KruskalResult{}, fmt.Errorf("sample %d is empty", i)
		}
	}

	r := rank(samples)
	n := float64(r.n)

	h := 0.0
	for g, sum := range r.sums {
		h += sum * sum / float64(r.sizes[g])
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	correction := 1 - r.tieTerm/(n*n*n-n)
	if correction == 0 {
		return KruskalResult{}, ErrIdentical
	}
	h /= correction

	df := len(samples) - 1
	p := distuv.ChiSquared{K: float64(df)}.Survival(h)
	return KruskalResult{H: h, DF: df, PValue: p}, nil
}

// Comparison is one pair of Dunn's test.
type Comparison struct {
	A      int     `json:"a"`
	B      int     `json:"b"`
	Z      float64 `json:"z"`
	PValue float64 `json:"p_value"`
	// Adjusted is the Bonferroni adjusted p value.
	Adjusted float64 `json:"p_adjusted"`
}

// Dunn runs Dunn's post-hoc test over every pair of samples, using pooled
// ranks with tie correction and a Bonferroni adjustment over all pairs.
func Dunn(samples ...[]float64) ([]Comparison, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("need at least two samples, got %d", len(samples))
	}
	for i, s := range samples {
		if len(s) == 0 {
			return nil, fmt.Errorf("sample %d is empty", i)
		}
	}

	r := rank(samples)
	n := float64(r.n)
	variance := n*(n+1)/12 - r.tieTerm/(12*(n-1))
	if variance <= 0 {
		return nil, ErrIdentical
	}

	k := len(samples)
	m := float64(k * (k - 1) / 2)
	norm := distuv.UnitNormal

	var out []Comparison
	for a := 0; a < k; a++ {
		for b := a + 1; b < k; b++ {
			meanA := r.sums[a] / float64(r.sizes[a])
			meanB := r.sums[b] / float64(r.sizes[b])
			se := math.Sqrt(variance * (1/float64(r.sizes[a]) + 1/float64(r.sizes[b])))
			z := math.Abs(meanA-meanB) / se
			p := 2 * norm.Survival(z)
			out = append(out, Comparison{
				A:        a,
				B:        b,
				Z:        z,
				PValue:   p,
				Adjusted: math.Min(1, p*m),
			})
		}
	}
	return out, nil
}

// Fraction returns part/whole, or 0 when whole is not positive.
func Fraction(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
