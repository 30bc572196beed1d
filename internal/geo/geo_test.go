package geo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKnownPoints(t *testing.T) {
	// Plaza Mayor to San Francisco church in Lima, roughly 270 m apart.
	a := Point{Lat: -12.0464, Lng: -77.0300}
	b := Point{Lat: -12.0463, Lng: -77.0275}

	d := Distance(a, b)
	assert.InDelta(t, 272, d, 10)
}

func TestDistanceZero(t *testing.T) {
	p := Point{Lat: 8.75, Lng: -75.88}
	assert.Equal(t, float64(0), Distance(p, p))
}

func TestDistanceSymmetric(t *testing.T) {
	a := Point{Lat: 8.75, Lng: -75.88}
	b := Point{Lat: 8.7503, Lng: -75.8804}
	assert.Equal(t, Distance(a, b), Distance(b, a))
}

func TestCheckFenceAcceptsInsideRadius(t *testing.T) {
	target := Point{Lat: 8.75, Lng: -75.88}
	// ~30 m north of the target.
	player := Point{Lat: 8.75027, Lng: -75.88}

	prox, err := CheckFence(target, 50, player)
	require.NoError(t, err)
	assert.True(t, prox.InRange)
	assert.LessOrEqual(t, prox.DistanceM, float64(50))
}

func TestCheckFenceRejectsOutsideRadius(t *testing.T) {
	target := Point{Lat: 8.75, Lng: -75.88}
	// ~110 m north of the target.
	player := Point{Lat: 8.751, Lng: -75.88}

	prox, err := CheckFence(target, 50, player)
	require.Error(t, err)

	var rangeErr *RangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.False(t, prox.InRange)
	assert.Greater(t, prox.DistanceM, float64(50))
	assert.Contains(t, err.Error(), "short")
}

// Acceptance is monotonic in distance: anything closer than an accepted
// point is also accepted.
func TestCheckFenceMonotonic(t *testing.T) {
	target := Point{Lat: 8.75, Lng: -75.88}
	far := Point{Lat: 8.75035, Lng: -75.88}
	near := Point{Lat: 8.75010, Lng: -75.88}

	require.Greater(t, Distance(target, far), Distance(target, near))

	if _, err := CheckFence(target, 50, far); err == nil {
		_, nearErr := CheckFence(target, 50, near)
		assert.NoError(t, nearErr)
	}
}

func TestCheckFenceInvalidInputs(t *testing.T) {
	ok := Point{Lat: 8.75, Lng: -75.88}

	tests := []struct {
		name    string
		target  Point
		radius  float64
		player  Point
	}{
		{"zero radius", ok, 0, ok},
		{"negative radius", ok, -10, ok},
		{"target latitude out of range", Point{Lat: 91, Lng: 0}, 50, ok},
		{"player longitude out of range", ok, 50, Point{Lat: 0, Lng: 181}},
		{"player latitude out of range", ok, 50, Point{Lat: -90.1, Lng: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckFence(tt.target, tt.radius, tt.player)
			assert.Error(t, err)
		})
	}
}
