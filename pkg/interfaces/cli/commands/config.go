package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vsinha/shelfwatch/pkg/application/dto"
	"github.com/vsinha/shelfwatch/pkg/application/services/monitor"
	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/infrastructure/config"
	"github.com/vsinha/shelfwatch/pkg/infrastructure/events"
	"github.com/vsinha/shelfwatch/pkg/infrastructure/ingest"
	"github.com/vsinha/shelfwatch/pkg/infrastructure/logging"
	"github.com/vsinha/shelfwatch/pkg/interfaces/cli/output"
)

// Config holds configuration shared by every shelfwatch command
type Config struct {
	ScenarioDir string
	ConfigFile  string
	EnvFile     string
	OutputDir   string
	Format      string
	Verbose     bool
	// AsOf is the evaluation date as YYYY-MM-DD; empty means today
	AsOf string
	// Exclude replaces the configured excluded categories when non-nil.
	// An empty slice or "none" excludes nothing.
	Exclude []string
	// IncludeExcluded lists excluded timeline entries instead of hiding them
	IncludeExcluded bool

	// Writer receives report output, os.Stdout when nil
	Writer io.Writer
	// Registerer receives cache metrics, none when nil
	Registerer prometheus.Registerer
}

// session is a loaded snapshot with the monitor that analyses it
type session struct {
	config   Config
	monitor  *monitor.Monitor
	snap     *snapshot.Snapshot
	events   *events.InMemoryEventStore
	progress *progressPrinter
	logger   *zap.Logger
	start    time.Time
}

// progressPrinter echoes pipeline events as they are journaled
type progressPrinter struct {
	w io.Writer
}

func (p *progressPrinter) Handle(event events.Event) error {
	_, err := fmt.Fprintf(p.w, "📣 %s (v%d)\n", event.Type(), event.Version())
	return err
}

func (p *progressPrinter) CanHandle(string) bool {
	return true
}

// validateInputs validates the command configuration
func (c Config) validateInputs() error {
	if c.ScenarioDir == "" {
		return fmt.Errorf("must specify a scenario directory")
	}
	if info, err := os.Stat(c.ScenarioDir); err != nil || !info.IsDir() {
		return fmt.Errorf("scenario directory not found: %s", c.ScenarioDir)
	}
	for _, format := range output.Formats() {
		if c.Format == "" || c.Format == format {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format: %s", c.Format)
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// excludedCategories parses the exclusion override, nil when none was given
func (c Config) excludedCategories() (entities.CategorySet, error) {
	if c.Exclude == nil {
		return nil, nil
	}
	set := entities.NewCategorySet()
	for _, name := range c.Exclude {
		name = strings.TrimSpace(name)
		if name == "" || strings.EqualFold(name, "none") {
			continue
		}
		category, err := entities.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		set[category] = struct{}{}
	}
	return set, nil
}

// open loads configuration, builds the monitor and ingests the scenario
func (c Config) open() (*session, error) {
	if err := c.validateInputs(); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	cfg, err := config.Load(c.ConfigFile, c.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.Verbose && cfg.Log.Level != "debug" {
		cfg.Log.Level = "info"
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return nil, err
	}

	options, err := cfg.MonitorOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	excluded, err := c.excludedCategories()
	if err != nil {
		return nil, fmt.Errorf("invalid exclusion: %w", err)
	}
	if excluded != nil {
		options.ExcludedCategories = excluded
	}

	store := events.NewInMemoryEventStore(logger)
	w := c.writer()
	var progress *progressPrinter
	if c.Verbose {
		progress = &progressPrinter{w: w}
		if err := store.Subscribe(events.PipelineEventTypes(), progress); err != nil {
			return nil, err
		}
	}
	opts := []monitor.Option{
		monitor.WithLogger(logger),
		monitor.WithEventStore(store),
		monitor.WithRegisterer(c.Registerer),
	}
	if c.AsOf != "" {
		asOf, err := time.Parse(entities.DateLayout, c.AsOf)
		if err != nil {
			return nil, fmt.Errorf("invalid as-of date %q: %w", c.AsOf, err)
		}
		opts = append(opts, monitor.WithClock(func() time.Time { return asOf }))
	}

	m, err := monitor.NewMonitor(options, opts...)
	if err != nil {
		return nil, err
	}

	if c.Verbose {
		fmt.Fprintf(w, "🚀 shelfwatch\n")
		fmt.Fprintf(w, "Scenario: %s\n", c.ScenarioDir)
		fmt.Fprintf(w, "Output format: %s\n", c.Format)
		if c.OutputDir != "" {
			fmt.Fprintf(w, "Output directory: %s\n", c.OutputDir)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "📂 Loading source tables...")
	}

	tables, err := ingest.NewLoader(logger).LoadDir(c.ScenarioDir)
	if err != nil {
		return nil, fmt.Errorf("error loading scenario: %w", err)
	}
	snap, err := m.LoadSnapshot(tables)
	if err != nil {
		return nil, fmt.Errorf("error validating snapshot: %w", err)
	}

	if c.Verbose {
		fmt.Fprintf(w, "✅ Snapshot %s loaded:\n", snap.ID)
		fmt.Fprintf(w, "  Movements: %d\n", snap.Counts.Movements)
		fmt.Fprintf(w, "  Validity: %d\n", snap.Counts.Validity)
		fmt.Fprintf(w, "  Suppliers: %d\n", snap.Counts.Suppliers)
		fmt.Fprintf(w, "  Timeline extract: %d\n", snap.Counts.Timeline)
		fmt.Fprintf(w, "  Material records: %d\n", snap.Counts.Records)
		fmt.Fprintln(w)
	}

	return &session{
		config:   c,
		monitor:  m,
		snap:     snap,
		events:   store,
		progress: progress,
		logger:   logger,
		start:    time.Now(),
	}, nil
}

// analyze returns the cached analysis of the session snapshot
func (s *session) analyze(ctx context.Context) (*monitor.Analysis, error) {
	return s.monitor.Analyze(ctx, s.snap)
}

// finish writes the report and detaches the verbose progress printer
func (s *session) finish(report *dto.Report) error {
	w := s.config.writer()
	defer func() { _ = s.logger.Sync() }()

	err := output.Generate(report, output.Config{
		Format:    s.config.Format,
		OutputDir: s.config.OutputDir,
		Writer:    w,
		Verbose:   s.config.Verbose,
		Elapsed:   time.Since(s.start),
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if s.progress != nil {
		if err := s.events.Unsubscribe(s.progress); err != nil {
			return err
		}
	}
	if s.config.Verbose {
		trail, err := s.events.ReadEvents(s.snap.ID, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "🏁 Analysis complete! %d pipeline events for snapshot %s\n", len(trail), s.snap.ID)
	}
	return nil
}
