package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s := Describe([]float64{4, 1, 3, 2})
	assert.Equal(t, 4, s.N)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 1.2909944, s.Std, 1e-6)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)

	s = Describe([]float64{5, 1, 9})
	assert.Equal(t, 5.0, s.Median)

	s = Describe([]float64{7})
	assert.Equal(t, 7.0, s.Median)
	assert.True(t, math.IsNaN(s.Std))

	s = Describe(nil)
	assert.Zero(t, s.N)
	assert.True(t, math.IsNaN(s.Mean))
}

func TestDescribeDoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Describe(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestKruskalWallis(t *testing.T) {
	res, err := KruskalWallis([]float64{1, 2, 3}, []float64{4, 5, 6})
	require.NoError(t, err)
	assert.InDelta(t, 3.857142857, res.H, 1e-6)
	assert.Equal(t, 1, res.DF)
	assert.InDelta(t, 0.0495346, res.PValue, 1e-5)
}

func TestKruskalWallisTies(t *testing.T) {
	res, err := KruskalWallis([]float64{1, 1, 2}, []float64{2, 3, 3})
	require.NoError(t, err)
	assert.InDelta(t, 10.0/3.0, res.H, 1e-9)
}

func TestKruskalWallisErrors(t *testing.T) {
	_, err := KruskalWallis([]float64{1})
	assert.Error(t, err)

	_, err = KruskalWallis([]float64{1}, nil)
	assert.Error(t, err)

	_, err = KruskalWallis([]float64{2, 2}, []float64{2})
	assert.ErrorIs(t, err, ErrIdentical)
}

func TestDunnMatchesKruskalForTwoSamples(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}

	kw, err := KruskalWallis(a, b)
	require.NoError(t, err)
	pairs, err := Dunn(a, b)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	assert.InDelta(t, kw.H, pairs[0].Z*pairs[0].Z, 1e-9)
	assert.InDelta(t, kw.PValue, pairs[0].PValue, 1e-9)
	assert.Equal(t, pairs[0].PValue, pairs[0].Adjusted)
}

func TestDunnBonferroni(t *testing.T) {
	pairs, err := Dunn(
		[]float64{1, 2, 3, 4},
		[]float64{5, 6, 7, 8},
		[]float64{9, 10, 11, 12},
	)
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	for _, c := range pairs {
		assert.Less(t, c.A, c.B)
		assert.InDelta(t, math.Min(1, 3*c.PValue), c.Adjusted, 1e-12)
		assert.LessOrEqual(t, c.Adjusted, 1.0)
	}
	// the outer pair differs most
	assert.Equal(t, 0, pairs[1].A)
	assert.Equal(t, 2, pairs[1].B)
	assert.Greater(t, pairs[1].Z, pairs[0].Z)
	assert.InDelta(t, pairs[0].Z, pairs[2].Z, 1e-12)
}

func TestDunnIdentical(t *testing.T) {
	_, err := Dunn([]float64{1, 1}, []float64{1})
	assert.ErrorIs(t, err, ErrIdentical)
}

func TestFraction(t *testing.T) {
	assert.Equal(t, 0.25, Fraction(5, 20))
	assert.Equal(t, 0.0, Fraction(5, 0))
	assert.Equal(t, []float64{1, 2}, Ints([]int{1, 2}))
}
