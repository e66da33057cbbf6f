package brunnel

import "testing"

func TestNewSpan(t *testing.T) {
	s := NewSpan(1500, 2500)
	if s.StartKm != 1.5 || s.EndKm != 2.5 {
		t.Errorf("NewSpan(1500, 2500) = %+v", s)
	}

	// Reversed inputs normalize; a candidate traced opposite to the track
	// direction still yields start <= end.
	r := NewSpan(2500, 1500)
	if r != s {
		t.Errorf("NewSpan(2500, 1500) = %+v, want %+v", r, s)
	}

	if got := s.LengthKm(); got != 1.0 {
		t.Errorf("LengthKm() = %v, want 1.0", got)
	}
}

func TestSpanOverlaps(t *testing.T) {
	base := Span{StartKm: 2, EndKm: 4}
	tests := []struct {
		name  string
		other Span
		want  bool
	}{
		{"disjoint before", Span{StartKm: 0, EndKm: 1.9}, false},
		{"disjoint after", Span{StartKm: 4.1, EndKm: 5}, false},
		{"partial overlap", Span{StartKm: 3, EndKm: 5}, true},
		{"contained", Span{StartKm: 2.5, EndKm: 3.5}, true},
		{"touching endpoints", Span{StartKm: 4, EndKm: 6}, true},
		{"identical", base, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps(%+v) = %v, want %v", tt.other, got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.other.Overlaps(base); got != tt.want {
				t.Errorf("reverse Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpanString(t *testing.T) {
	s := Span{StartKm: 1.234, EndKm: 5.678}
	if got := s.String(); got != "1.23-5.68 km (length: 4.44 km)" {
		t.Errorf("String() = %q", got)
	}
}
