// Package logging provides config-driven categorized logging for plantkeeper.
// Every category shares one zap logger; the category is attached as a field so
// output can be filtered per subsystem. Until Initialize is called all loggers
// are no-ops, which keeps library consumers silent by default.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // Boot/initialization
	CategoryScope      Category = "scope"      // Identity resolution, namespace transitions
	CategoryStore      Category = "store"      // Local cache reads/writes
	CategorySync       Category = "sync"       // Record store read/write paths
	CategoryRemote     Category = "remote"     // Backend gateway calls
	CategoryPerception Category = "perception" // AI gateway calls
	CategoryNormalize  Category = "normalize"  // AI payload normalization
	CategoryCore       Category = "core"       // Identify/analyze orchestration
)

// Config mirrors config.LoggingConfig to avoid an import cycle.
type Config struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	File       string          // optional output path; stderr when empty
	Categories map[string]bool // nil enables every category
}

// Logger wraps a sugared zap logger bound to one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	loggers    = make(map[Category]*Logger)
	loggersMu  sync.RWMutex
	base       = zap.NewNop()
	categories map[string]bool
	configMu   sync.RWMutex
)

// Initialize builds the shared zap logger from cfg.
// Safe to call more than once; previously handed out loggers keep the old core.
func Initialize(cfg Config) error {
	zcfg := zap.NewProductionConfig()
	if strings.EqualFold(cfg.Format, "console") || strings.EqualFold(cfg.Format, "text") {
		zcfg = zap.NewDevelopmentConfig()
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.File != "" {
		zcfg.OutputPaths = []string{cfg.File}
	}

	l, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	swap(l, cfg.Categories)
	Get(CategoryBoot).Debug("logging initialized (level=%s format=%s)", level, zcfg.Encoding)
	return nil
}

// ReplaceLogger installs l as the shared logger with every category enabled and
// returns a func that restores the previous state. Intended for tests.
func ReplaceLogger(l *zap.Logger) func() {
	configMu.RLock()
	prevBase, prevCats := base, categories
	configMu.RUnlock()

	swap(l, nil)
	return func() { swap(prevBase, prevCats) }
}

func swap(l *zap.Logger, cats map[string]bool) {
	configMu.Lock()
	base = l
	categories = cats
	configMu.Unlock()

	loggersMu.Lock()
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	configMu.RLock()
	zl := base
	configMu.RUnlock()

	l := &Logger{
		category: category,
		sugar:    zl.With(zap.String("category", string(category))).Sugar(),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With returns a child logger carrying structured key/value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Sync flushes buffered output (call at shutdown)
func Sync() {
	configMu.RLock()
	l := base
	configMu.RUnlock()
	_ = l.Sync()
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// Scope logs to the scope category
func Scope(format string, args ...interface{}) {
	Get(CategoryScope).Info(format, args...)
}

// ScopeWarn logs warning to the scope category
func ScopeWarn(format string, args ...interface{}) {
	Get(CategoryScope).Warn(format, args...)
}

// Store logs to the store category
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// StoreWarn logs warning to the store category
func StoreWarn(format string, args ...interface{}) {
	Get(CategoryStore).Warn(format, args...)
}

// SyncInfo logs to the sync category
func SyncInfo(format string, args ...interface{}) {
	Get(CategorySync).Info(format, args...)
}

// SyncDebug logs debug to the sync category
func SyncDebug(format string, args ...interface{}) {
	Get(CategorySync).Debug(format, args...)
}

// SyncWarn logs warning to the sync category
func SyncWarn(format string, args ...interface{}) {
	Get(CategorySync).Warn(format, args...)
}

// RemoteDebug logs debug to the remote category
func RemoteDebug(format string, args ...interface{}) {
	Get(CategoryRemote).Debug(format, args...)
}

// Perception logs to the perception category
func Perception(format string, args ...interface{}) {
	Get(CategoryPerception).Info(format, args...)
}

// PerceptionDebug logs debug to the perception category
func PerceptionDebug(format string, args ...interface{}) {
	Get(CategoryPerception).Debug(format, args...)
}

// NormalizeDebug logs debug to the normalize category
func NormalizeDebug(format string, args ...interface{}) {
	Get(CategoryNormalize).Debug(format, args...)
}

// NormalizeWarn logs warning to the normalize category
func NormalizeWarn(format string, args ...interface{}) {
	Get(CategoryNormalize).Warn(format, args...)
}

// Core logs to the core category
func Core(format string, args ...interface{}) {
	Get(CategoryCore).Info(format, args...)
}

// CoreError logs error to the core category
func CoreError(format string, args ...interface{}) {
	Get(CategoryCore).Error(format, args...)
}

// =============================================================================
// TIMING
// =============================================================================

// Timer measures an operation and logs its duration on Stop.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer starts timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
