// Package geo has the distance math behind vendor discovery and geofencing.
package geo

import (
	"math"
	"sort"

	"fsanano/food-market/internal/model"
)

const earthRadiusKM = 6371.0

type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceKM is the great-circle distance between a and b.
func DistanceKM(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Within reports whether p lies inside the circle of radiusKM around center.
func Within(center, p Point, radiusKM float64) bool {
	return DistanceKM(center, p) <= radiusKM
}

// Nearby returns the vendors within radiusKM of origin, closest first.
func Nearby(origin Point, vendors []model.VendorProfile, radiusKM float64) []model.NearbyVendor {
	out := make([]model.NearbyVendor, 0)
	for _, v := range vendors {
		d := DistanceKM(origin, Point{Lat: v.Latitude, Lng: v.Longitude})
		if d <= radiusKM {
			out = append(out, model.NearbyVendor{VendorProfile: v, DistanceKM: math.Round(d*100) / 100})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKM < out[j].DistanceKM
	})
	return out
}

// Box is a latitude/longitude rectangle. When MinLng > MaxLng the box
// crosses the antimeridian and covers [MinLng, 180] plus [-180, MaxLng].
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// CrossesAntimeridian reports whether the longitude range wraps around ±180.
func (b Box) CrossesAntimeridian() bool {
	return b.MinLng > b.MaxLng
}

func (b Box) Contains(p Point) bool {
	if p.Lat < b.MinLat || p.Lat > b.MaxLat {
		return false
	}
	if b.CrossesAntimeridian() {
		return p.Lng >= b.MinLng || p.Lng <= b.MaxLng
	}
	return p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// BoundingBox returns a rectangle containing every point within radiusKM of
// center, for coarse prefiltering before exact distance checks.
func BoundingBox(center Point, radiusKM float64) Box {
	dLat := radiusKM / earthRadiusKM * 180 / math.Pi
	box := Box{
		MinLat: math.Max(-90, center.Lat-dLat),
		MaxLat: math.Min(90, center.Lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}
	// A circle reaching a pole spans every longitude.
	if box.MinLat == -90 || box.MaxLat == 90 {
		return box
	}
	dLng := math.Asin(math.Min(1, math.Sin(radians(dLat))/math.Cos(radians(center.Lat)))) * 180 / math.Pi
	if dLng >= 180 {
		return box
	}
	box.MinLng = wrapLng(center.Lng - dLng)
	box.MaxLng = wrapLng(center.Lng + dLng)
	return box
}

func wrapLng(lng float64) float64 {
	switch {
	case lng < -180:
		return lng + 360
	case lng > 180:
		return lng - 360
	}
	return lng
}
