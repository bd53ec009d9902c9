package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hovden/spanlane/internal/adapters/server"
	"github.com/hovden/spanlane/internal/adapters/storage/sqlite"
	"github.com/hovden/spanlane/internal/app"
	"github.com/hovden/spanlane/internal/config"
	"github.com/hovden/spanlane/internal/platform"
	"github.com/hovden/spanlane/internal/timeline"
	"github.com/hovden/spanlane/internal/tui"
)

// version is overridden at release build time.
var version = "dev"

// program abstracts the TUI program loop for tests.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the program that runs the timeline view.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("spanlane", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		dbPath     string
		appName    string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("SPANLANE_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("SPANLANE_APP_NAME")); envApp != "" {
		appName = envApp
	} else {
		appName = "spanlane"
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&dbPath, "db", "", "path to sqlite database")
	fs.StringVar(&appName, "app", appName, "application name for config/data path resolution")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "spanlane %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "app: %s\n", appName)
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
		return nil
	case "", "export", "import", "report", "estimate", "serve":
		// Continue.
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	dbOverridden := strings.TrimSpace(dbPath) != ""
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("SPANLANE_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("SPANLANE_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	defaultCfg := config.Default(dbPath)
	cfg, err := config.Load(configPath, defaultCfg)
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(stderr, appName, devMode, cfg.Logging, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "" {
		// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the chart is active.
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", appName, "dev_mode", devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", dbPath)
	logger.Info("configuration loaded", "config_path", configPath, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	if command == "estimate" {
		// Estimation is pure compute; no repository needed.
		logger.Info("command flow start", "command", "estimate")
		if err := runEstimate(fs.Args()[1:], stdout); err != nil {
			logger.Error("command flow failed", "command", "estimate", "err", err)
			return fmt.Errorf("run estimate command: %w", err)
		}
		logger.Info("command flow complete", "command", "estimate")
		return nil
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
		}
	}()
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")

	svc := app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		DefaultDeleteMode: app.DeleteMode(cfg.Delete.DefaultMode),
	})
	logger.Debug("application service initialized", "default_delete_mode", cfg.Delete.DefaultMode)

	switch command {
	case "":
		logger.Info("command flow start", "command", "tui")
	case "export":
		logger.Info("command flow start", "command", "export")
		if err := runExport(ctx, svc, fs.Args()[1:], stdout); err != nil {
			logger.Error("command flow failed", "command", "export", "err", err)
			return fmt.Errorf("run export command: %w", err)
		}
		logger.Info("command flow complete", "command", "export")
		return nil
	case "import":
		logger.Info("command flow start", "command", "import")
		if err := runImport(ctx, svc, fs.Args()[1:]); err != nil {
			logger.Error("command flow failed", "command", "import", "err", err)
			return fmt.Errorf("run import command: %w", err)
		}
		logger.Info("command flow complete", "command", "import")
		return nil
	case "report":
		logger.Info("command flow start", "command", "report")
		if err := runReport(ctx, svc, cfg, stdout); err != nil {
			logger.Error("command flow failed", "command", "report", "err", err)
			return fmt.Errorf("run report command: %w", err)
		}
		logger.Info("command flow complete", "command", "report")
		return nil
	case "serve":
		logger.Info("command flow start", "command", "serve", "addr", cfg.Serve.Addr, "endpoint", cfg.Serve.EndpointPath)
		if err := server.Run(ctx, server.Config{
			HTTPBind:      cfg.Serve.Addr,
			MCPEndpoint:   cfg.Serve.EndpointPath,
			ServerName:    appName,
			ServerVersion: version,
		}, server.Dependencies{Plan: svc}); err != nil {
			logger.Error("command flow failed", "command", "serve", "err", err)
			return fmt.Errorf("run mcp server: %w", err)
		}
		logger.Info("command flow complete", "command", "serve")
		return nil
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	m := tui.NewModel(
		svc,
		tui.WithDefaultDeleteMode(app.DeleteMode(cfg.Delete.DefaultMode)),
		tui.WithActivityFieldConfig(tui.ActivityFieldConfig{
			ShowAssignees: cfg.ActivityFields.ShowAssignees,
			ShowProgress:  cfg.ActivityFields.ShowProgress,
			ShowTags:      cfg.ActivityFields.ShowTags,
			ShowNotes:     cfg.ActivityFields.ShowNotes,
		}),
		tui.WithRowMetrics(timeline.RowMetrics{
			RowHeight: float64(cfg.Timeline.RowHeight),
			TopOffset: float64(cfg.Timeline.TopOffset),
		}),
	)
	logger.Info("starting tui program loop")
	_, err = programFactory(m).Run()
	if err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// runExport writes the plan as a snapshot JSON document.
func runExport(ctx context.Context, svc *app.Service, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("spanlane export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		outPath         string
		includeArchived bool
	)
	fs.StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	fs.BoolVar(&includeArchived, "include-archived", true, "include archived activities")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse export flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected export arguments: %v", fs.Args())
	}

	snap, err := svc.ExportSnapshot(ctx, includeArchived)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// runImport merges a snapshot JSON document into the plan.
func runImport(ctx context.Context, svc *app.Service, args []string) error {
	fs := flag.NewFlagSet("spanlane import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var inPath string
	fs.StringVar(&inPath, "in", "", "input snapshot JSON file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse import flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected import arguments: %v", fs.Args())
	}
	if inPath == "" {
		return fmt.Errorf("--in is required")
	}

	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return fmt.Errorf("decode snapshot json: %w", err)
	}
	if err := svc.ImportSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return nil
}

// spanDateLayout renders report dates.
const spanDateLayout = "2006-01-02"

// runReport prints the computed layout as a plain-terminal schedule table.
func runReport(ctx context.Context, svc *app.Service, cfg config.Config, stdout io.Writer) error {
	layout, err := svc.ComputeLayout(ctx, timeline.RowMetrics{
		RowHeight: float64(cfg.Timeline.RowHeight),
		TopOffset: float64(cfg.Timeline.TopOffset),
	})
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	activities, err := svc.ListActivities(ctx, false)
	if err != nil {
		return fmt.Errorf("list activities: %w", err)
	}
	if layout.Empty() {
		_, _ = fmt.Fprintln(stdout, "no activities scheduled")
		return nil
	}

	byID := make(map[string]string, len(activities))
	for _, a := range activities {
		byID[a.ID] = a.Name
	}
	conflicted := map[int]bool{}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("Activity", "Kind", "Status", "Start", "End", "Row", "Progress", "Conflicts").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == 0 {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
			}
			if conflicted[row] {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
			}
			return lipgloss.NewStyle()
		})

	row := 0
	for _, a := range activities {
		placement, ok := placementFor(layout, a.ID)
		if !ok {
			continue
		}
		row++
		if len(placement.ConflictIDs) > 0 {
			conflicted[row] = true
		}
		conflicts := make([]string, 0, len(placement.ConflictIDs))
		for _, id := range placement.ConflictIDs {
			name := byID[id]
			if name == "" {
				name = id
			}
			conflicts = append(conflicts, name)
		}
		t.Row(
			a.Name,
			a.Kind.Label(),
			a.Status.Label(),
			a.Start.Format(spanDateLayout),
			a.End.Format(spanDateLayout),
			strconv.Itoa(placement.Row+1),
			fmt.Sprintf("%d%%", placement.ProgressPercent),
			strings.Join(conflicts, ", "),
		)
	}

	_, _ = fmt.Fprintf(stdout, "%s → %s • %d activities • %d rows • %d dependency links\n",
		layout.Bounds.EarliestStart.Format(spanDateLayout),
		layout.Bounds.LatestEnd.Format(spanDateLayout),
		len(layout.Placed), layout.Rows, len(layout.Connectors))
	_, _ = fmt.Fprintln(stdout, t.Render())
	return nil
}

// placementFor finds one activity's placement in a computed layout.
func placementFor(layout timeline.Layout, id string) (timeline.PlacedActivity, bool) {
	for _, p := range layout.Placed {
		if p.ID == id {
			return p, true
		}
	}
	return timeline.PlacedActivity{}, false
}

// runEstimate sizes a migration workload and prints the task breakdown.
func runEstimate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("spanlane estimate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		vmCount   int
		hostCount int
		infra     string
		compat    bool
	)
	fs.IntVar(&vmCount, "vms", 0, "number of virtual machines to migrate")
	fs.IntVar(&hostCount, "hosts", 0, "number of target hosts")
	fs.StringVar(&infra, "infra", string(app.InfraTraditional), "target infrastructure (traditional, hci_s2d, azure_local)")
	fs.BoolVar(&compat, "compat-issues", false, "known compatibility issues in the estate")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse estimate flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected estimate arguments: %v", fs.Args())
	}
	if vmCount <= 0 {
		return fmt.Errorf("--vms must be a positive count")
	}
	infraType := app.InfrastructureType(strings.ToLower(strings.TrimSpace(infra)))
	if !infraType.Valid() {
		return fmt.Errorf("unknown infrastructure type: %q", infra)
	}

	result := app.EstimateTimeline(app.EstimationRequest{
		VMCount:             vmCount,
		HostCount:           hostCount,
		Infrastructure:      infraType,
		CompatibilityIssues: compat,
	})

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("Task", "Days", "Critical Path").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == 0 {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
			}
			return lipgloss.NewStyle()
		})
	for _, task := range result.Tasks {
		critical := ""
		if task.CriticalPath {
			critical = "yes"
		}
		t.Row(task.Name, strconv.Itoa(task.DurationDays), critical)
	}

	_, _ = fmt.Fprintf(stdout, "estimated duration: %d days (confidence: %s)\n", result.EstimatedDays, result.Confidence)
	_, _ = fmt.Fprintln(stdout, t.Render())
	if len(result.CriticalPath) > 0 {
		_, _ = fmt.Fprintf(stdout, "critical path: %s\n", strings.Join(result.CriticalPath, " → "))
	}
	return nil
}

// firstArg returns the leading positional argument, if any.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}

	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevFile.Enabled {
		return logger, nil
	}

	devLogPath, err := devLogFilePath(cfg.DevFile.Dir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil {
		return false
	}
	if sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Debug(msg, keyvals...)
	}
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Info(msg, keyvals...)
	}
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Warn(msg, keyvals...)
	}
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Error(msg, keyvals...)
	}
}

// devLogFilePath resolves a workspace-local dev log file path for the current run day.
func devLogFilePath(configDir, appName string, now time.Time) (string, error) {
	baseDir := strings.TrimSpace(configDir)
	if baseDir == "" {
		baseDir = ".spanlane/log"
	}
	if !filepath.IsAbs(baseDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		baseDir = filepath.Join(workspaceRootFrom(cwd), baseDir)
	}
	fileStem := sanitizeLogFileStem(appName)
	fileName := fmt.Sprintf("%s-%s.log", fileStem, now.Format("20060102"))
	return filepath.Join(filepath.Clean(baseDir), fileName), nil
}

// workspaceRootFrom resolves the nearest ancestor workspace marker for stable local log placement.
func workspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	if start == "" {
		return "."
	}
	dir := start
	for {
		if hasWorkspaceMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// hasWorkspaceMarker reports whether a directory looks like a project workspace root.
func hasWorkspaceMarker(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	return false
}

// sanitizeLogFileStem normalizes app names into safe file-name segments.
func sanitizeLogFileStem(appName string) string {
	stem := strings.TrimSpace(appName)
	if stem == "" {
		return "spanlane"
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem = strings.Trim(replacer.Replace(stem), "-")
	if stem == "" {
		return "spanlane"
	}
	return stem
}
