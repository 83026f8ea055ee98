package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifference(t *testing.T) {
	a, err := FromRows([][]float64{{10, 20}, {30, 40}}, NewNorthUp(0, 2, 1, 1), rd)
	require.NoError(t, err)
	b, err := FromRows([][]float64{{1, 2}, {-9999, 4}}, NewNorthUp(0, 2, 1, 1), rd)
	require.NoError(t, err)
	b.NoData, b.HasNoData = -9999, true

	d, err := Difference(a, b)
	require.NoError(t, err)
	assert.Equal(t, 9.0, d.Data[0])
	assert.Equal(t, 18.0, d.Data[1])
	assert.True(t, math.IsNaN(d.Data[2]))
	assert.Equal(t, 36.0, d.Data[3])
}

func TestDifferenceShapeMismatch(t *testing.T) {
	a, err := FromRows([][]float64{{1, 2}}, NewNorthUp(0, 1, 1, 1), rd)
	require.NoError(t, err)
	b, err := FromRows([][]float64{{1}, {2}}, NewNorthUp(0, 2, 1, 1), rd)
	require.NoError(t, err)

	_, err = Difference(a, b)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	shifted, err := FromRows([][]float64{{1, 2}}, NewNorthUp(5, 1, 1, 1), rd)
	require.NoError(t, err)
	_, err = Difference(a, shifted)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
