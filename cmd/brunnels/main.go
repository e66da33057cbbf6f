// Command brunnels finds the bridges and tunnels a GPS route actually
// crosses. It loads a GPX track, fetches bridge and tunnel ways from the
// Overpass API around the route, runs them through the decision pipeline and
// renders the result as an interactive map, GeoJSON or KML.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trailscan/brunnels/pkg/brunnel"
	"github.com/trailscan/brunnels/pkg/engine"
	"github.com/trailscan/brunnels/pkg/geo"
	"github.com/trailscan/brunnels/pkg/gpx"
	"github.com/trailscan/brunnels/pkg/monitoring"
	"github.com/trailscan/brunnels/pkg/overpass"
	"github.com/trailscan/brunnels/pkg/render"
	"github.com/trailscan/brunnels/pkg/track"
	"github.com/trailscan/brunnels/pkg/tracing"
	ver "github.com/trailscan/brunnels/pkg/version"
)

var (
	showVersionFlag bool
	debug           bool
	showMetrics     bool

	output string
	format string

	bboxBuffer       float64
	routeBuffer      float64
	bearingTolerance float64
	noOverlapFilter  bool
	noTagFilter      bool

	// Overpass flags
	userAgent     string
	overpassRPS   float64
	overpassBurst int
	queryTimeout  int

	// Monitoring flags
	enableMonitoring bool
	monitoringAddr   string
)

func init() {
	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&showMetrics, "metrics", false, "Print a decision summary after the run")

	flag.StringVar(&output, "output", "", "Output file path (derived from the input name if empty)")
	flag.StringVar(&format, "format", "html", "Output format: html, geojson or kml")

	flag.Float64Var(&bboxBuffer, "bbox-buffer", 10, "Overpass bounding box buffer around the route in meters")
	flag.Float64Var(&routeBuffer, "route-buffer", 3.0, "Containment corridor half-width in meters")
	flag.Float64Var(&bearingTolerance, "bearing-tolerance", 20, "Maximum bearing deviation in degrees for alignment")
	flag.BoolVar(&noOverlapFilter, "no-overlap-filtering", false, "Keep all overlapping candidates instead of picking one")
	flag.BoolVar(&noTagFilter, "no-tag-filtering", false, "Skip the client-side OSM tag relevance filter")

	flag.StringVar(&userAgent, "user-agent", overpass.DefaultUserAgent, "User-Agent string for Overpass API requests")
	flag.Float64Var(&overpassRPS, "overpass-rps", 1.0, "Overpass rate limit in requests per second")
	flag.IntVar(&overpassBurst, "overpass-burst", 1, "Overpass rate limit burst size")
	flag.IntVar(&queryTimeout, "query-timeout", overpass.DefaultQueryTimeout, "Overpass server-side query timeout in seconds")

	flag.BoolVar(&enableMonitoring, "enable-monitoring", false, "Serve Prometheus metrics and health endpoints during the run")
	flag.StringVar(&monitoringAddr, "monitoring-addr", ":9090", "Monitoring server address")
}

func main() {
	flag.Parse()

	// Configure logging
	var logLevel slog.Level
	if debug {
		logLevel = slog.LevelDebug
	} else {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if showVersionFlag {
		fmt.Printf("brunnels %s\n", ver.String())
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] route.gpx\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	gpxPath := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry tracing
	shutdownTracing, err := tracing.InitTracing(ctx, ver.Version)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		// Continue without tracing - it's not critical
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()
		if endpoint := os.Getenv("OTLP_ENDPOINT"); endpoint != "" {
			logger.Info("OpenTelemetry tracing enabled", "endpoint", endpoint)
		}
	}

	if err := run(ctx, logger, gpxPath); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, gpxPath string) error {
	logger.Info("starting analysis",
		"gpx", gpxPath,
		"format", format,
		"route_buffer_m", routeBuffer,
		"bearing_tolerance_deg", bearingTolerance,
		"overpass_rps", overpassRPS,
		"overpass_burst", overpassBurst)

	client := overpass.NewClient(overpass.ClientOptions{
		UserAgent:    userAgent,
		QueryTimeout: queryTimeout,
		RatePerSec:   overpassRPS,
		Burst:        overpassBurst,
		Logger:       logger,
	})

	// Monitoring endpoints stay up for the duration of the run. Long
	// Overpass fetches make this worth having for batch jobs.
	if enableMonitoring {
		stopMonitoring := startMonitoringServer(ctx, logger, client)
		defer stopMonitoring()
	}

	trk, err := gpx.Load(gpxPath)
	if err != nil {
		return err
	}
	locs := trk.Locations()
	first, last := locs[0], locs[len(locs)-1]
	logger.Info("track loaded",
		"points", trk.Len(),
		"length_km", trk.Length()/1000,
		"direct_km", geo.HaversineDistance(first.Latitude, first.Longitude, last.Latitude, last.Longitude)/1000,
		"bearing_deg", geo.Bearing(first, last))

	elements, err := client.FetchBrunnels(ctx, trk.Bounds(bboxBuffer))
	if err != nil {
		return err
	}

	ways := make([]*brunnel.Way, 0, len(elements))
	for _, el := range elements {
		w, err := brunnel.FromElement(el)
		if err != nil {
			logger.Warn("skipping malformed element", "error", err)
			continue
		}
		ways = append(ways, w)
	}
	byType := map[brunnel.Type]int{}
	for _, w := range ways {
		byType[w.Type]++
	}
	for typ, n := range byType {
		monitoring.RecordCandidatesFetched(string(typ), n)
	}
	logger.Info("candidates fetched",
		"bridges", byType[brunnel.Bridge],
		"tunnels", byType[brunnel.Tunnel])

	opts := engine.Options{
		ContainmentBuffer:       routeBuffer,
		AlignmentTolerance:      bearingTolerance,
		EnableTagFiltering:      !noTagFilter,
		EnableOverlapResolution: !noOverlapFilter,
	}
	result, err := engine.New(trk, opts, logger).Run(ctx, ways)
	if err != nil {
		return err
	}

	outPath, err := writeOutput(trk, result, gpxPath)
	if err != nil {
		return err
	}
	logger.Info("output written", "path", outPath)

	if showMetrics {
		printSummary(trk, result)
	}
	return nil
}

// writeOutput renders the result in the selected format and returns the
// path written.
func writeOutput(trk *track.Track, result *engine.Result, gpxPath string) (string, error) {
	ext, ok := map[string]string{
		"html":    ".html",
		"geojson": ".geojson",
		"kml":     ".kml",
	}[format]
	if !ok {
		return "", fmt.Errorf("unknown output format %q (want html, geojson or kml)", format)
	}

	outPath := output
	if outPath == "" {
		outPath = strings.TrimSuffix(gpxPath, filepath.Ext(gpxPath)) + ext
	}

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer f.Close()

	switch format {
	case "html":
		err = render.HTML(f, trk, result)
	case "geojson":
		var data []byte
		data, err = render.GeoJSON(trk, result)
		if err == nil {
			_, err = f.Write(data)
		}
	case "kml":
		err = render.KML(f, trk, result)
	}
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", outPath, err)
	}
	return outPath, nil
}

// printSummary writes the decision summary to stdout, mirroring what the
// Prometheus counters record.
func printSummary(trk *track.Track, result *engine.Result) {
	fmt.Printf("Route: %.2f km, %d points\n", trk.Length()/1000, trk.Len())
	fmt.Printf("Entities: %d total, %d included\n",
		len(result.Entities), result.Counts[brunnel.ReasonNone])
	for _, reason := range []brunnel.Reason{
		brunnel.ReasonNotRelevant,
		brunnel.ReasonNotContained,
		brunnel.ReasonMisaligned,
		brunnel.ReasonAlternative,
	} {
		if n := result.Counts[reason]; n > 0 {
			fmt.Printf("  excluded %s: %d\n", reason, n)
		}
	}
	if len(result.Conflicts) > 0 {
		fmt.Printf("Merge conflicts at %d nodes\n", len(result.Conflicts))
	}
	for _, e := range result.Included() {
		fmt.Printf("  %-6s %s at %s\n", e.Type, e.Name(), e.Decision.Span)
	}
}

// startMonitoringServer serves /metrics and the health endpoints until the
// context is done. The returned function blocks until shutdown completes.
func startMonitoringServer(ctx context.Context, logger *slog.Logger, client *overpass.Client) func() {
	healthChecker := monitoring.NewHealthChecker(monitoring.ServiceName, ver.Version)

	overpassMonitor := monitoring.NewConnectionMonitor("overpass", healthChecker,
		client.CheckHealth, 60*time.Second)
	overpassMonitor.Start()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthChecker.HealthHandler())
	mux.HandleFunc("/ready", healthChecker.ReadinessHandler())
	mux.HandleFunc("/live", healthChecker.LivenessHandler())

	srv := &http.Server{
		Addr:              monitoringAddr,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting monitoring server", "addr", monitoringAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("monitoring server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown monitoring server", "error", err)
		}
	}()

	return func() {
		overpassMonitor.Stop()
		healthChecker.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Debug("monitoring server shutdown", "error", err)
		}
	}
}
