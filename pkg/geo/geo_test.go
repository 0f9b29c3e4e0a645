package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(lat, lng, half float64) []Point {
	return []Point{
		{Lat: lat - half, Lng: lng - half},
		{Lat: lat - half, Lng: lng + half},
		{Lat: lat + half, Lng: lng + half},
		{Lat: lat + half, Lng: lng - half},
		{Lat: lat - half, Lng: lng - half},
	}
}

func TestHaversine(t *testing.T) {
	// one degree of latitude is ~111.19 km on a 6371 km sphere
	d := Haversine(Point{Lat: 0, Lng: 0}, Point{Lat: 1, Lng: 0})
	assert.InDelta(t, 111194.9, d, 1)

	assert.Equal(t, 0.0, Haversine(Point{Lat: 10, Lng: 10}, Point{Lat: 10, Lng: 10}))
}

func TestValidateRing(t *testing.T) {
	require.NoError(t, ValidateRing(square(1, 1, 0.01)))

	open := square(1, 1, 0.01)
	open[len(open)-1] = Point{Lat: 5, Lng: 5}
	assert.ErrorContains(t, ValidateRing(open), "not closed")

	assert.ErrorContains(t, ValidateRing([]Point{{1, 1}, {1, 2}, {1, 1}}), "at least 4")

	bad := square(1, 1, 0.01)
	bad[1] = Point{Lat: 91, Lng: 0}
	assert.ErrorContains(t, ValidateRing(bad), "out of range")
}

func TestValidateRing_Degenerate(t *testing.T) {
	zero := []Point{{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}}
	assert.ErrorContains(t, ValidateRing(zero), "zero area")

	collinear := []Point{{1, 1}, {1, 2}, {1, 3}, {1, 1}}
	assert.ErrorContains(t, ValidateRing(collinear), "zero area")

	spike := []Point{{1, 1}, {2, 2}, {1, 1}, {2, 2}, {1, 1}}
	assert.ErrorContains(t, ValidateRing(spike), "zero area")

	require.NoError(t, ValidateRing([]Point{{0, 0}, {0, 1}, {1, 0}, {0, 0}}))
}

func TestCenterAndRadius(t *testing.T) {
	ring := square(48.85, 2.35, 0.01)
	center, radius := CenterAndRadius(ring)

	assert.InDelta(t, 48.85, center.Lat, 1e-9)
	assert.InDelta(t, 2.35, center.Lng, 1e-9)
	assert.Greater(t, radius, 1000.0)

	center2, radius2 := CenterAndRadius(ring)
	assert.Equal(t, center, center2)
	assert.Equal(t, radius, radius2)
}

func TestCenterAndRadius_Floor(t *testing.T) {
	ring := square(10, 10, 0.000001)
	_, radius := CenterAndRadius(ring)
	assert.Equal(t, MinRadiusMeters, radius)
}

func TestContainsPoint(t *testing.T) {
	rings := [][]Point{
		square(0, 0, 0.5),
		square(-33.86, 151.2, 0.02),
		{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2}, {Lat: 2, Lng: 1}, {Lat: 0, Lng: 0}},
	}

	for _, ring := range rings {
		center, radius := CenterAndRadius(ring)
		assert.True(t, ContainsPoint(ring, center), "center should be inside %v", ring)

		// well beyond the radius along the meridian
		far := Point{Lat: center.Lat + 3*radius/EarthRadiusMeters*180/3.141592653589793, Lng: center.Lng}
		assert.False(t, ContainsPoint(ring, far), "far point should be outside %v", ring)
	}
}

func TestContainsPoint_Concave(t *testing.T) {
	// U shape opening north; the notch is outside
	ring := []Point{
		{Lat: 0, Lng: 0}, {Lat: 0, Lng: 3}, {Lat: 3, Lng: 3}, {Lat: 3, Lng: 2},
		{Lat: 1, Lng: 2}, {Lat: 1, Lng: 1}, {Lat: 3, Lng: 1}, {Lat: 3, Lng: 0}, {Lat: 0, Lng: 0},
	}
	assert.True(t, ContainsPoint(ring, Point{Lat: 0.5, Lng: 1.5}))
	assert.True(t, ContainsPoint(ring, Point{Lat: 2, Lng: 0.5}))
	assert.False(t, ContainsPoint(ring, Point{Lat: 2, Lng: 1.5}))
}

func TestBoundingBox(t *testing.T) {
	c := Point{Lat: 40, Lng: -74}
	minLat, maxLat, minLng, maxLng := BoundingBox(c, 5000)

	north := Point{Lat: maxLat, Lng: c.Lng}
	east := Point{Lat: c.Lat, Lng: maxLng}
	assert.InDelta(t, 5000, Haversine(c, north), 1)
	assert.InDelta(t, 5000, Haversine(c, east), 20)
	assert.Less(t, minLat, c.Lat)
	assert.Less(t, minLng, c.Lng)
}

func TestIsActive(t *testing.T) {
	// 2024-06-05 is a Wednesday
	wed1030 := time.Date(2024, 6, 5, 10, 30, 0, 0, time.UTC)

	assert.True(t, IsActive(true, nil, wed1030))
	assert.False(t, IsActive(false, nil, wed1030))

	weekdays := &Schedule{Days: []int{1, 2, 3, 4, 5}, Start: "09:00", End: "17:00"}
	assert.True(t, IsActive(true, weekdays, wed1030))
	assert.True(t, IsActive(true, weekdays, time.Date(2024, 6, 5, 17, 0, 0, 0, time.UTC)))
	assert.True(t, IsActive(true, weekdays, time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC)))
	assert.False(t, IsActive(true, weekdays, time.Date(2024, 6, 5, 17, 1, 0, 0, time.UTC)))
	assert.False(t, IsActive(true, weekdays, time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC)))

	dayOnly := &Schedule{Days: []int{3}}
	assert.True(t, IsActive(true, dayOnly, wed1030))
	assert.False(t, IsActive(false, dayOnly, wed1030))

	overnight := &Schedule{Days: []int{3}, Start: "22:00", End: "06:00"}
	assert.True(t, IsActive(true, overnight, time.Date(2024, 6, 5, 23, 15, 0, 0, time.UTC)))
	assert.False(t, IsActive(true, overnight, wed1030))
}

func TestIsActive_WindowWithoutDays(t *testing.T) {
	everyDay := &Schedule{Start: "09:00", End: "17:00"}
	assert.True(t, IsActive(true, everyDay, time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC)))
	assert.False(t, IsActive(true, everyDay, time.Date(2024, 6, 8, 3, 0, 0, 0, time.UTC)))
	assert.False(t, IsActive(true, everyDay, time.Date(2024, 6, 5, 17, 30, 0, 0, time.UTC)))
	assert.False(t, IsActive(false, everyDay, time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC)))

	assert.True(t, IsActive(true, &Schedule{}, time.Date(2024, 6, 8, 3, 0, 0, 0, time.UTC)))
}

func TestIsActive_Location(t *testing.T) {
	// 02:00 UTC Thursday is 22:00 Wednesday in New York (EDT)
	s := &Schedule{Days: []int{3}, Start: "21:00", End: "23:00", Location: "America/New_York"}
	assert.True(t, IsActive(true, s, time.Date(2024, 6, 6, 2, 0, 0, 0, time.UTC)))
}

func TestScheduleValidate(t *testing.T) {
	assert.NoError(t, (*Schedule)(nil).Validate())
	assert.NoError(t, (&Schedule{Days: []int{0, 6}, Start: "00:00", End: "23:59"}).Validate())
	assert.Error(t, (&Schedule{Days: []int{7}}).Validate())
	assert.Error(t, (&Schedule{Days: []int{1}, Start: "09:00"}).Validate())
	assert.Error(t, (&Schedule{Days: []int{1}, Start: "25:00", End: "26:00"}).Validate())
	assert.Error(t, (&Schedule{Days: []int{1}, Location: "Mars/Olympus"}).Validate())
}
