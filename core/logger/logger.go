package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/promobot/core/buildinfo"
	coreconfig "github.com/m3rciful/promobot/core/config"
)

var (
	initOnce   sync.Once
	shutdownMu sync.Mutex
	shutdowned bool

	logWriter  *asyncWriter
	logClosers []io.Closer

	levelVar slog.LevelVar

	debugSampler  = newRatioSampler(1, 50)
	traceOverride bool

	// L is the process-wide logger. Context-scoped loggers derive from it.
	L *slog.Logger

	// DB is L scoped to the database component.
	DB *slog.Logger
	// TG is L scoped to the Telegram transport.
	TG *slog.Logger
	// MIG is L scoped to schema migrations.
	MIG *slog.Logger
	// TWire is L scoped to route and command wiring.
	TWire *slog.Logger
)

// InitLogger configures the global structured logger. Repeated calls are no-ops.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() { err = setup(cfg) })
	return err
}

func setup(cfg *coreconfig.Config) error {
	levelVar.Set(selectLevel(cfg))
	num, den := debugSampleSpec(cfg)
	debugSampler.Set(num, den)
	traceOverride = detectTraceFlag()

	writers, closers := outputSinks(cfg)
	logClosers = closers
	logWriter = newAsyncWriter(writers, 64*1024)

	handler := newStructuredHandler(handlerConfig{
		level:    &levelVar,
		writer:   logWriter,
		format:   selectFormat(cfg),
		keyOrder: selectKeyOrder(cfg),
		stacks:   stacksEnabled(cfg),
	})

	L = slog.New(handler)
	slog.SetDefault(L)

	DB = L.With("component", "db")
	TG = L.With("component", "tg")
	MIG = L.With("component", "db.migrate")
	TWire = L.With("component", "tg.wire")

	logStartup(cfg)
	return nil
}

func logStartup(cfg *coreconfig.Config) {
	if L == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("component", "app"),
		slog.String("event", "startup"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
	}
	if cfg != nil {
		attrs = append(attrs, slog.String("cfg_profile", selectProfile(cfg)))
	}
	L.LogAttrs(context.Background(), slog.LevelInfo, "startup", attrs...)
}

// Shutdown flushes buffered log output and closes opened sinks. Safe to call
// more than once.
func Shutdown() error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if shutdowned {
		return nil
	}
	shutdowned = true

	var errs []error
	if logWriter != nil {
		errs = append(errs, logWriter.Flush(), logWriter.Close())
	}
	for _, c := range logClosers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func selectFormat(cfg *coreconfig.Config) logFormat {
	if cfg == nil {
		return formatJSON
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	// With no explicit format, dev profiles read better in kv.
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Profile)) {
	case "debug", "dev":
		return formatKV
	}
	return formatJSON
}

func selectKeyOrder(cfg *coreconfig.Config) []string {
	raw := ""
	if cfg != nil {
		raw = strings.TrimSpace(cfg.Logging.KeysOrder)
	}
	if raw == "" || raw == "default" {
		return append([]string(nil), defaultKeyOrder...)
	}
	var order []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			order = append(order, p)
		}
	}
	if len(order) == 0 {
		return append([]string(nil), defaultKeyOrder...)
	}
	return order
}

func selectLevel(cfg *coreconfig.Config) slog.Level {
	if cfg == nil {
		return slog.LevelInfo
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func stacksEnabled(cfg *coreconfig.Config) bool {
	if cfg == nil {
		return false
	}
	v := strings.ToLower(strings.TrimSpace(cfg.Logging.Stacks))
	return v == "errors" || isTruthy(v)
}

// outputSinks always includes stdout. A file sink is added when both dir and
// file name are configured; file errors degrade to stdout-only logging.
func outputSinks(cfg *coreconfig.Config) ([]io.Writer, []io.Closer) {
	writers := []io.Writer{os.Stdout}
	if cfg == nil {
		return writers, nil
	}
	dir := strings.TrimSpace(cfg.Logging.Dir)
	name := strings.TrimSpace(cfg.Logging.BotFile)
	if dir == "" || name == "" {
		return writers, nil
	}
	f, err := openLogFile(dir, name)
	if err != nil {
		log.Printf("logger: %v", err)
		return writers, nil
	}
	return append(writers, f), []io.Closer{f}
}

func openLogFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

func selectProfile(cfg *coreconfig.Config) string {
	if cfg == nil {
		return ""
	}
	if profile := strings.TrimSpace(cfg.Logging.Profile); profile != "" {
		return strings.ToLower(profile)
	}
	return "prod"
}

// Background returns the base context handlers start from.
func Background() context.Context {
	return context.Background()
}

// LogEvent emits a record with the event attribute first. The target is logg
// when given, then the context logger, then the process logger.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	target := firstLogger(logg, FromContext(ctx), L)
	if target == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	target.LogAttrs(ctx, level, "", attrs...)
}

func firstLogger(candidates ...*slog.Logger) *slog.Logger {
	for _, l := range candidates {
		if l != nil {
			return l
		}
	}
	return nil
}

// Component returns the process logger scoped by a component attribute.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Event routes a component-scoped record through LogEvent. Before the process
// logger is initialized it falls back to the context logger.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	logg := Component(component)
	if logg == nil {
		if logg = FromContext(ctx); logg != nil {
			if name := strings.TrimSpace(component); name != "" {
				logg = logg.With("component", name)
			}
		}
	}
	LogEvent(ctx, logg, level, event, attrs...)
}

// Debug logs a component event at debug level.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs a component event at info level.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a component event at warn level.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs a component event at error level.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

func debugSampleSpec(cfg *coreconfig.Config) (int, int) {
	spec := ""
	if cfg != nil {
		spec = strings.TrimSpace(cfg.Logging.DebugSample)
	}
	if spec == "" {
		return 1, 50
	}
	num, den := parseRatioSpec(spec)
	switch {
	case num == 0 && den == 0:
		return 0, 0
	case num <= 0 || den <= 0:
		return 1, 50
	}
	return num, den
}

func detectTraceFlag() bool {
	return isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE"))
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether debug-level details should be logged for high-volume events.
func ShouldSampleDebug() bool {
	if traceOverride {
		return true
	}
	return debugSampler.Allow()
}

// TraceEnabled indicates whether trace override is forcing full debug output.
func TraceEnabled() bool {
	return traceOverride
}
