package geo

import (
	"fmt"
	"math"
)

const (
	EarthRadiusMeters = 6371000.0
	MinRadiusMeters   = 10.0
	MinRingVertices   = 4
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func ValidPoint(p Point) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

// ValidateRing checks the closed-ring invariant: at least MinRingVertices points, first == last,
// every vertex a valid coordinate and a non-zero enclosed area.
func ValidateRing(ring []Point) error {
	if len(ring) < MinRingVertices {
		return fmt.Errorf("polygon ring needs at least %d points, got %d", MinRingVertices, len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		return fmt.Errorf("polygon ring is not closed: first %v != last %v", ring[0], ring[len(ring)-1])
	}
	for i, p := range ring {
		if !ValidPoint(p) {
			return fmt.Errorf("polygon vertex %d out of range: %v", i, p)
		}
	}
	if ringArea(ring) < minRingArea {
		return fmt.Errorf("polygon ring has zero area")
	}
	return nil
}

// roughly one square centimetre at the equator, in squared degrees
const minRingArea = 1e-14

// ringArea is the absolute shoelace area of a closed ring in squared degrees.
func ringArea(ring []Point) float64 {
	var sum float64
	for i := 0; i < len(ring)-1; i++ {
		sum += ring[i].Lng*ring[i+1].Lat - ring[i+1].Lng*ring[i].Lat
	}
	return math.Abs(sum) / 2
}

// CenterAndRadius returns the vertex mean (closing vertex excluded) and the max haversine distance
// from it to any vertex, floored at MinRadiusMeters. ring must already be valid.
func CenterAndRadius(ring []Point) (Point, float64) {
	open := ring[:len(ring)-1]

	var center Point
	for _, p := range open {
		center.Lat += p.Lat
		center.Lng += p.Lng
	}
	center.Lat /= float64(len(open))
	center.Lng /= float64(len(open))

	radius := MinRadiusMeters
	for _, p := range ring {
		if d := Haversine(center, p); d > radius {
			radius = d
		}
	}
	return center, radius
}

// ContainsPoint applies the even-odd rule with latitude as y and longitude as x.
func ContainsPoint(ring []Point, p Point) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			crossLng := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < crossLng {
				inside = !inside
			}
		}
	}
	return inside
}

// BoundingBox returns the lat/lng box enclosing every point within radius meters of center.
func BoundingBox(center Point, radius float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := radius / EarthRadiusMeters * 180 / math.Pi
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	dLng := 180.0
	if cosLat > 1e-9 {
		dLng = math.Min(180, dLat/cosLat)
	}
	return center.Lat - dLat, center.Lat + dLat, center.Lng - dLng, center.Lng + dLng
}
