// Package log provides category-aware logging for scrollfx.
package log

import (
	"fmt"
	"io"
	"regexp"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with a per-message category, so that noisy
// subsystems (cdp, viewport, counter ticks) can be filtered out with a
// regular expression without silencing the rest.
type Logger struct {
	*logrus.Logger

	categoryFilter *regexp.Regexp
}

// New returns a Logger writing to w at the given level.
func New(w io.Writer, level logrus.Level) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	return &Logger{Logger: l}
}

// NewNullLogger returns a Logger that discards everything. Useful in tests.
func NewNullLogger() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}

// SetCategoryFilter compiles pattern and drops log entries whose category
// does not match it. An empty pattern clears the filter.
func (l *Logger) SetCategoryFilter(pattern string) error {
	if pattern == "" {
		l.categoryFilter = nil
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compiling category filter %q: %w", pattern, err)
	}
	l.categoryFilter = re
	return nil
}

// DebugMode returns true if the logger level is set to Debug or higher.
func (l *Logger) DebugMode() bool {
	return l.Logger.GetLevel() >= logrus.DebugLevel
}

// Debugf logs a debug message under the given category.
func (l *Logger) Debugf(category, msg string, args ...any) {
	l.logf(logrus.DebugLevel, category, msg, args...)
}

// Infof logs an info message under the given category.
func (l *Logger) Infof(category, msg string, args ...any) {
	l.logf(logrus.InfoLevel, category, msg, args...)
}

// Warnf logs a warning under the given category.
func (l *Logger) Warnf(category, msg string, args ...any) {
	l.logf(logrus.WarnLevel, category, msg, args...)
}

// Errorf logs an error under the given category.
func (l *Logger) Errorf(category, msg string, args ...any) {
	l.logf(logrus.ErrorLevel, category, msg, args...)
}

func (l *Logger) logf(level logrus.Level, category, msg string, args ...any) {
	if l.categoryFilter != nil && !l.categoryFilter.MatchString(category) {
		return
	}
	l.Logger.WithField("category", category).Logf(level, msg, args...)
}
