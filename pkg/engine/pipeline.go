package engine

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/trailscan/brunnels/pkg/brunnel"
	"github.com/trailscan/brunnels/pkg/monitoring"
	"github.com/trailscan/brunnels/pkg/track"
	"github.com/trailscan/brunnels/pkg/tracing"
)

// Result is the outcome of a pipeline run: every entity with its decision,
// in output order, plus the merge conflicts encountered.
type Result struct {
	Entities  []*Entity
	Conflicts []brunnel.NodeConflict

	// Counts holds per-reason entity counts; ReasonNone counts the
	// included entities.
	Counts map[brunnel.Reason]int
}

// Included returns the included entities in span order.
func (r *Result) Included() []*Entity {
	out := make([]*Entity, 0, r.Counts[brunnel.ReasonNone])
	for _, e := range r.Entities {
		if e.Decision.Included {
			out = append(out, e)
		}
	}
	return out
}

// Pipeline runs candidate ways through the decision stages against one
// track. Stages are pure with respect to the track; each run produces fresh
// entities.
type Pipeline struct {
	trk    *track.Track
	opts   Options
	logger *slog.Logger
}

// New creates a pipeline for the given track.
func New(trk *track.Track, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{trk: trk, opts: opts, logger: logger.With("component", "engine")}
}

// Run evaluates the candidate ways and attaches exactly one decision to each
// resulting entity. Stage order is fixed: tag relevance, merge, containment,
// alignment, overlap. An entity excluded by an earlier stage never reaches a
// later one, so the recorded reason is always the first failure.
func (p *Pipeline) Run(ctx context.Context, ways []*brunnel.Way) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "engine.run",
		trace.WithAttributes(attribute.Int("engine.candidate_count", len(ways))),
	)
	defer span.End()

	if len(ways) == 0 {
		p.logger.Warn("no bridge or tunnel candidates in the area")
	}

	var entities []*Entity

	// Tag relevance. Ways failing the relevance rules become singleton
	// entities and skip the merge graph entirely.
	kept := ways
	if p.opts.EnableTagFiltering {
		start := time.Now()
		kept = kept[:0:0]
		for _, w := range ways {
			if rule := brunnel.Irrelevant(w); rule != "" {
				e := newEntity(brunnel.Singleton(w), p.trk)
				e.exclude(brunnel.ReasonNotRelevant, rule)
				entities = append(entities, e)
				continue
			}
			kept = append(kept, w)
		}
		monitoring.RecordStageDuration("tag_filter", time.Since(start))
	}

	// Merge adjacent same-type ways into compounds.
	mergeStart := time.Now()
	merged := brunnel.Merge(kept, p.logger)
	monitoring.RecordStageDuration("merge", time.Since(mergeStart))

	candidates := make([]*Entity, 0, len(merged.Compounds))
	for _, c := range merged.Compounds {
		candidates = append(candidates, newEntity(c, p.trk))
	}

	// Containment, per entity in parallel.
	if err := p.runParallel(ctx, "containment", candidates, func(e *Entity) {
		evaluateContainment(e, p.trk, p.opts.ContainmentBuffer)
	}); err != nil {
		return nil, err
	}

	// Alignment, only for contained entities.
	if err := p.runParallel(ctx, "alignment", candidates, func(e *Entity) {
		if e.Decision.Reason != brunnel.ReasonNotContained {
			evaluateAlignment(e, p.trk, p.opts.AlignmentTolerance)
		}
	}); err != nil {
		return nil, err
	}

	// Overlap resolution is a single serial pass over the included set.
	if p.opts.EnableOverlapResolution {
		start := time.Now()
		resolveOverlaps(candidates, p.trk, p.logger)
		monitoring.RecordStageDuration("overlap", time.Since(start))
	}

	entities = append(entities, candidates...)
	orderEntities(entities)

	counts := make(map[brunnel.Reason]int)
	for _, e := range entities {
		counts[e.Decision.Reason]++
		if e.Decision.Included {
			monitoring.RecordIncluded(string(e.Type))
		} else {
			monitoring.RecordExclusion(string(e.Type), string(e.Decision.Reason))
		}
	}

	span.SetAttributes(
		attribute.Int("engine.entity_count", len(entities)),
		attribute.Int("engine.included_count", counts[brunnel.ReasonNone]),
	)
	p.logger.Info("pipeline complete",
		"candidates", len(ways),
		"entities", len(entities),
		"included", counts[brunnel.ReasonNone])

	return &Result{
		Entities:  entities,
		Conflicts: merged.Conflicts,
		Counts:    counts,
	}, nil
}

// runParallel applies fn to every entity using a bounded worker group.
func (p *Pipeline) runParallel(ctx context.Context, stage string, entities []*Entity, fn func(*Entity)) error {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "engine."+stage,
		trace.WithAttributes(attribute.Int("engine.entity_count", len(entities))),
	)
	defer span.End()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, e := range entities {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(e)
			return nil
		})
	}
	err := g.Wait()
	monitoring.RecordStageDuration(stage, time.Since(start))
	return err
}

// orderEntities sorts by span start, then identity. Entities without a span
// sort after all spanned ones.
func orderEntities(entities []*Entity) {
	sort.Slice(entities, func(i, j int) bool {
		si, sj := entities[i].Decision.Span, entities[j].Decision.Span
		switch {
		case si == nil && sj == nil:
			return entities[i].ID() < entities[j].ID()
		case si == nil:
			return false
		case sj == nil:
			return true
		case si.StartKm != sj.StartKm:
			return si.StartKm < sj.StartKm
		default:
			return entities[i].ID() < entities[j].ID()
		}
	})
}
