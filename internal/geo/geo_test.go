package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceMeters(t *testing.T) {
	// Cùng một điểm thì khoảng cách bằng 0.
	require.InDelta(t, 0, DistanceMeters(28.70, 77.10, 28.70, 77.10), 0.001)

	// Hai điểm cách nhau ~0.001 độ ở Delhi: cỡ 150m, chắc chắn dưới 8km.
	d := DistanceMeters(28.700, 77.100, 28.701, 77.101)
	require.Greater(t, d, 100.0)
	require.Less(t, d, 200.0)

	// Một độ vĩ tuyến xấp xỉ 111km.
	d = DistanceMeters(28.0, 77.0, 29.0, 77.0)
	require.InDelta(t, 111195, d, 500)
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	d1 := DistanceMeters(28.70, 77.10, 28.75, 77.20)
	d2 := DistanceMeters(28.75, 77.20, 28.70, 77.10)
	require.InDelta(t, d1, d2, 0.0001)
}

func TestValidCoordinate(t *testing.T) {
	require.True(t, ValidCoordinate(28.70, 77.10))
	require.True(t, ValidCoordinate(0, 0))
	require.True(t, ValidCoordinate(-90, 180))

	require.False(t, ValidCoordinate(math.NaN(), 77.10))
	require.False(t, ValidCoordinate(28.70, math.NaN()))
	require.False(t, ValidCoordinate(math.Inf(1), 0))
	require.False(t, ValidCoordinate(0, math.Inf(-1)))
	require.False(t, ValidCoordinate(91, 0))
	require.False(t, ValidCoordinate(0, -181))
}
