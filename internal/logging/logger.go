// Package logging provides config-driven categorized logging for staticstore.
// Logs go to <workspace>/.staticstore/logs/staticstore.log through a rotating
// file sink. Logging is controlled by debug_mode: when false, nothing is written.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot  Category = "boot"  // Activation and configuration
	CategoryStore Category = "store" // In-memory store and image decoding
	CategoryIO    Category = "io"    // I/O controller state machine
	CategorySave  Category = "save"  // Save coordination and debouncing
	CategoryHost  Category = "host"  // Host accessors and owner resolution
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	DebugMode  bool
	Level      string
	JSONFormat bool
	Categories map[string]bool
	MaxSizeMB  int
	MaxBackups int
}

// Logger is a category-scoped printf-style logger. A Logger with no backing
// zap logger discards everything.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	opts    Options
	base    = zap.NewNop()
	sink    *lumberjack.Logger
	loggers = make(map[Category]*Logger)
	logsDir string
)

// Initialize sets up the log file under the workspace and applies options.
// Should be called once at startup.
func Initialize(workspace string, o Options) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	mu.Lock()
	closeLocked()
	opts = o
	loggers = make(map[Category]*Logger)
	if !o.DebugMode {
		mu.Unlock()
		return nil
	}

	logsDir = filepath.Join(workspace, ".staticstore", "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		mu.Unlock()
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	maxSize := o.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	sink = &lumberjack.Logger{
		Filename:   filepath.Join(logsDir, "staticstore.log"),
		MaxSize:    maxSize,
		MaxBackups: o.MaxBackups,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if o.JSONFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	base = zap.New(zapcore.NewCore(enc, zapcore.AddSync(sink), parseLevel(o.Level)))
	mu.Unlock()

	Boot("logging initialized: dir=%s level=%s json=%v", logsDir, o.Level, o.JSONFormat)
	return nil
}

func parseLevel(s string) zapcore.Level {
	if s == "warning" {
		return zapcore.WarnLevel
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Redirect swaps the backing core and enables every category. It returns a
// function restoring the previous setup. Intended for tests.
func Redirect(core zapcore.Core) (restore func()) {
	mu.Lock()
	prevBase, prevOpts, prevLoggers := base, opts, loggers
	base = zap.New(core)
	opts = Options{DebugMode: true, Level: "debug"}
	loggers = make(map[Category]*Logger)
	mu.Unlock()

	return func() {
		mu.Lock()
		base, opts, loggers = prevBase, prevOpts, prevLoggers
		mu.Unlock()
	}
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return opts.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if !opts.DebugMode {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{category: category}
	if categoryEnabledLocked(category) {
		l.sugar = base.Named(string(category)).Sugar()
	}
	loggers[category] = l
	return l
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	if l.sugar == nil {
		return l
	}
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// WithActivation scopes a category logger to one plugin activation.
func WithActivation(category Category, activationID string) *Logger {
	return Get(category).With("activation", activationID)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar != nil {
		l.sugar.Debugf(format, args...)
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar != nil {
		l.sugar.Infof(format, args...)
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar != nil {
		l.sugar.Warnf(format, args...)
	}
}

// Error logs an error message (always logged if the category is enabled)
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar != nil {
		l.sugar.Errorf(format, args...)
	}
}

// CloseAll flushes and closes the log file (call at shutdown)
func CloseAll() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	loggers = make(map[Category]*Logger)
}

func closeLocked() {
	_ = base.Sync()
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
	base = zap.NewNop()
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warn(format, args...) }
func BootError(format string, args ...interface{}) { Get(CategoryBoot).Error(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func StoreWarn(format string, args ...interface{})  { Get(CategoryStore).Warn(format, args...) }
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

func IO(format string, args ...interface{})      { Get(CategoryIO).Info(format, args...) }
func IODebug(format string, args ...interface{}) { Get(CategoryIO).Debug(format, args...) }
func IOWarn(format string, args ...interface{})  { Get(CategoryIO).Warn(format, args...) }
func IOError(format string, args ...interface{}) { Get(CategoryIO).Error(format, args...) }

func Save(format string, args ...interface{})      { Get(CategorySave).Info(format, args...) }
func SaveDebug(format string, args ...interface{}) { Get(CategorySave).Debug(format, args...) }

func Host(format string, args ...interface{})      { Get(CategoryHost).Info(format, args...) }
func HostDebug(format string, args ...interface{}) { Get(CategoryHost).Debug(format, args...) }
func HostWarn(format string, args ...interface{})  { Get(CategoryHost).Warn(format, args...) }

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
