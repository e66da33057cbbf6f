package brunnel

import "fmt"

// Reason is the closed set of exclusion reasons. An entity carries exactly
// one; ReasonNone means the entity is included. Reasons are assigned in a
// fixed priority order: tag relevance, containment, alignment, overlap.
type Reason string

const (
	ReasonNone         Reason = "none"
	ReasonNotRelevant  Reason = "not-relevant-tag"
	ReasonNotContained Reason = "not-contained"
	ReasonMisaligned   Reason = "misaligned"
	ReasonAlternative  Reason = "alternative"
)

// Span is the arc-length interval along the track covered by a contained
// entity, in kilometers from the track start. StartKm <= EndKm always.
type Span struct {
	StartKm float64
	EndKm   float64
}

// NewSpan builds a span from two arc lengths in meters, normalizing the
// order. A candidate's own point ordering may run opposite to the track's.
func NewSpan(startMeters, endMeters float64) Span {
	if endMeters < startMeters {
		startMeters, endMeters = endMeters, startMeters
	}
	return Span{StartKm: startMeters / 1000, EndKm: endMeters / 1000}
}

// LengthKm returns the span length in kilometers.
func (s Span) LengthKm() float64 { return s.EndKm - s.StartKm }

// Overlaps reports whether the two spans have a non-empty intersection.
func (s Span) Overlaps(o Span) bool {
	return s.StartKm <= o.EndKm && o.StartKm <= s.EndKm
}

func (s Span) String() string {
	return fmt.Sprintf("%.2f-%.2f km (length: %.2f km)", s.StartKm, s.EndKm, s.LengthKm())
}

// Decision records the outcome of the pipeline for one entity. It is
// attached exactly once and never revised.
type Decision struct {
	Span     *Span
	Included bool
	Reason   Reason

	// Detail carries the specific rule behind ReasonNotRelevant for logs
	// and popups, e.g. "bicycle=no".
	Detail string
}
