package engine

import (
	"log/slog"
	"sort"

	"github.com/trailscan/brunnels/pkg/brunnel"
	"github.com/trailscan/brunnels/pkg/track"
)

// resolveOverlaps groups included entities whose spans overlap and keeps one
// winner per group: the entity with the smallest mean perpendicular distance
// to the track. The rest are excluded as alternatives. Groups are transitive
// closures: A overlapping B and B overlapping C puts all three in one group
// even when A and C do not touch.
func resolveOverlaps(entities []*Entity, trk *track.Track, logger *slog.Logger) {
	included := make([]*Entity, 0, len(entities))
	for _, e := range entities {
		if e.Decision.Included && e.Decision.Span != nil {
			included = append(included, e)
		}
	}
	if len(included) < 2 {
		return
	}

	sort.Slice(included, func(i, j int) bool {
		si, sj := included[i].Decision.Span, included[j].Decision.Span
		if si.StartKm != sj.StartKm {
			return si.StartKm < sj.StartKm
		}
		return included[i].ID() < included[j].ID()
	})

	// Sweep: after sorting by span start, a group extends while the next
	// span starts before the group's running end.
	group := []*Entity{included[0]}
	groupEnd := included[0].Decision.Span.EndKm
	for _, e := range included[1:] {
		if e.Decision.Span.StartKm <= groupEnd {
			group = append(group, e)
			if e.Decision.Span.EndKm > groupEnd {
				groupEnd = e.Decision.Span.EndKm
			}
			continue
		}
		resolveGroup(group, trk, logger)
		group = []*Entity{e}
		groupEnd = e.Decision.Span.EndKm
	}
	resolveGroup(group, trk, logger)
}

// resolveGroup picks the winner of one overlap group and excludes the rest.
func resolveGroup(group []*Entity, trk *track.Track, logger *slog.Logger) {
	if len(group) < 2 {
		return
	}

	winner := group[0]
	winnerDist := meanDistance(winner, trk)
	for _, e := range group[1:] {
		d := meanDistance(e, trk)
		if d < winnerDist || (d == winnerDist && e.ID() < winner.ID()) {
			winner = e
			winnerDist = d
		}
	}

	ids := make([]string, 0, len(group)-1)
	for _, e := range group {
		if e == winner {
			continue
		}
		e.exclude(brunnel.ReasonAlternative, "")
		ids = append(ids, e.ID())
	}
	logger.Debug("resolved overlapping spans",
		"winner", winner.ID(),
		"winner_mean_distance_m", winnerDist,
		"alternatives", ids)
}

// meanDistance is the arithmetic mean over the entity's points of the
// perpendicular distance to the track.
func meanDistance(e *Entity, trk *track.Track) float64 {
	if len(e.Line) == 0 {
		return 0
	}
	var sum float64
	for _, pt := range e.Line {
		sum += trk.DistanceTo(pt)
	}
	return sum / float64(len(e.Line))
}
