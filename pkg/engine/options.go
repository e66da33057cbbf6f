// Package engine drives the decision pipeline: tag relevance, merging,
// containment, alignment and overlap resolution, producing one Decision per
// candidate entity.
package engine

// Options holds the tunable thresholds of the decision pipeline.
type Options struct {
	// ContainmentBuffer is the corridor half-width around the track in
	// meters. An entity is contained only when every point of its geometry
	// lies within this distance of the track.
	ContainmentBuffer float64

	// AlignmentTolerance is the maximum angular deviation in degrees
	// between a candidate segment and a track segment for the pair to
	// count as aligned.
	AlignmentTolerance float64

	// EnableTagFiltering re-checks OSM tag relevance client-side before
	// merging.
	EnableTagFiltering bool

	// EnableOverlapResolution picks a single winner among included
	// entities whose spans overlap.
	EnableOverlapResolution bool
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		ContainmentBuffer:       3.0,
		AlignmentTolerance:      20.0,
		EnableTagFiltering:      true,
		EnableOverlapResolution: true,
	}
}
