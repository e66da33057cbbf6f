package geo

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64 // meters
		tolerance              float64
	}{
		{
			name: "zero distance",
			lat1: 48.8566, lon1: 2.3522,
			lat2: 48.8566, lon2: 2.3522,
			want: 0, tolerance: 0.001,
		},
		{
			name: "one degree of latitude",
			lat1: 45, lon1: 6,
			lat2: 46, lon2: 6,
			want: 111195, tolerance: 100,
		},
		{
			name: "paris to london",
			lat1: 48.8566, lon1: 2.3522,
			lat2: 51.5074, lon2: -0.1278,
			want: 343500, tolerance: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineDistance() = %.1f, want %.1f ± %.1f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name string
		a, b Location
		want float64
	}{
		{"due north", Location{50, 8}, Location{51, 8}, 0},
		{"due south", Location{51, 8}, Location{50, 8}, 180},
		{"due east at equator", Location{0, 10}, Location{0, 11}, 90},
		{"due west at equator", Location{0, 11}, Location{0, 10}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.a, tt.b)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Bearing() = %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestLocationValid(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want bool
	}{
		{"origin", Location{0, 0}, true},
		{"extremes", Location{90, 180}, true},
		{"latitude too large", Location{90.1, 0}, false},
		{"longitude too small", Location{0, -180.1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoundingBoxExtend(t *testing.T) {
	box := NewBoundingBox()
	box.Extend(Location{47.5, 8.2})
	box.Extend(Location{47.9, 8.6})
	box.Extend(Location{47.7, 8.0})

	if box.MinLat != 47.5 || box.MaxLat != 47.9 {
		t.Errorf("latitude bounds = [%v, %v], want [47.5, 47.9]", box.MinLat, box.MaxLat)
	}
	if box.MinLon != 8.0 || box.MaxLon != 8.6 {
		t.Errorf("longitude bounds = [%v, %v], want [8.0, 8.6]", box.MinLon, box.MaxLon)
	}

	center := box.Center()
	if math.Abs(center.Latitude-47.7) > 1e-9 || math.Abs(center.Longitude-8.3) > 1e-9 {
		t.Errorf("Center() = %+v, want {47.7 8.3}", center)
	}
}

func TestBoundingBoxBuffered(t *testing.T) {
	box := BoundingBox{MinLat: 47.0, MinLon: 8.0, MaxLat: 47.5, MaxLon: 8.5}
	buffered := box.Buffered(1110)

	// 1110 m is about 0.01 degrees of latitude.
	if got := box.MinLat - buffered.MinLat; math.Abs(got-0.01) > 0.001 {
		t.Errorf("latitude buffer = %.5f degrees, want ~0.01", got)
	}
	// Longitude degrees are shorter at 47°N, so the buffer is wider.
	lonBuffer := box.MinLon - buffered.MinLon
	latBuffer := box.MinLat - buffered.MinLat
	if lonBuffer <= latBuffer {
		t.Errorf("longitude buffer %.5f should exceed latitude buffer %.5f at 47°N", lonBuffer, latBuffer)
	}
}

func TestBoundsOf(t *testing.T) {
	if _, err := BoundsOf(nil); err == nil {
		t.Error("BoundsOf(nil) should return an error")
	}

	box, err := BoundsOf([]Location{{47.1, 8.3}, {47.2, 8.1}})
	if err != nil {
		t.Fatalf("BoundsOf() error: %v", err)
	}
	if box.MinLat != 47.1 || box.MaxLat != 47.2 || box.MinLon != 8.1 || box.MaxLon != 8.3 {
		t.Errorf("BoundsOf() = %+v", box)
	}
}

func TestValidateTrack(t *testing.T) {
	tests := []struct {
		name    string
		locs    []Location
		wantErr bool
	}{
		{
			name: "valid alpine track",
			locs: []Location{{46.5, 8.0}, {46.6, 8.1}, {46.7, 8.2}},
		},
		{
			name:    "point in polar band",
			locs:    []Location{{84.0, 10.0}, {85.5, 10.0}},
			wantErr: true,
		},
		{
			name:    "southern polar band",
			locs:    []Location{{-86.0, 10.0}, {-84.0, 10.0}},
			wantErr: true,
		},
		{
			name:    "antimeridian crossing",
			locs:    []Location{{10.0, 179.9}, {10.0, -179.9}},
			wantErr: true,
		},
		{
			name: "near but not across the antimeridian",
			locs: []Location{{10.0, 179.0}, {10.0, 179.9}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTrack(tt.locs)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTrack() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
