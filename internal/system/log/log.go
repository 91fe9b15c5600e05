/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package log provides the structured logger used across the service.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// LoggerKeyComponentName is the field key carrying the emitting component.
	LoggerKeyComponentName = "component"
	// LoggerKeyCorrelationID is the field key carrying the request correlation ID.
	LoggerKeyCorrelationID = "correlation_id"
)

type contextKey string

// CorrelationIDContextKey is the request context key holding the correlation ID.
const CorrelationIDContextKey contextKey = "correlation_id"

// Field is a single structured log attribute.
type Field struct {
	Key   string
	Value interface{}
}

// Logger wraps a logrus entry with a fixed set of fields.
type Logger struct {
	entry *logrus.Entry
}

var (
	root     *logrus.Logger
	rootOnce sync.Once
	rootMu   sync.RWMutex
)

func base() *logrus.Logger {
	rootOnce.Do(func() {
		root = logrus.New()
		root.SetFormatter(&logrus.JSONFormatter{})
		root.SetOutput(os.Stdout)
		root.SetLevel(logrus.InfoLevel)
	})
	return root
}

// Configure applies level, format and output settings to the shared logger.
func Configure(level, format string, out io.Writer) error {
	l := base()
	rootMu.Lock()
	defer rootMu.Unlock()

	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		l.SetLevel(parsed)
	}

	switch strings.ToLower(format) {
	case "", "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unsupported log format: %s", format)
	}

	if out != nil {
		l.SetOutput(out)
	}
	return nil
}

// GetLogger returns a logger backed by the shared logrus instance.
func GetLogger() *Logger {
	return &Logger{entry: logrus.NewEntry(base())}
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{entry: l.entry.WithFields(toLogrus(fields))}
}

// WithContext attaches the correlation ID found in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if id, ok := ctx.Value(CorrelationIDContextKey).(string); ok && id != "" {
		return l.With(String(LoggerKeyCorrelationID, id))
	}
	return l
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toLogrus(fields)).Debug(msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toLogrus(fields)).Info(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toLogrus(fields)).Warn(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) {
	l.entry.WithFields(toLogrus(fields)).Error(msg)
}

// Fatal logs at fatal level and exits.
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.entry.WithFields(toLogrus(fields)).Fatal(msg)
}

// IsDebugEnabled reports whether debug messages are emitted.
func (l *Logger) IsDebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}

func toLogrus(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field holding an arbitrary value.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Error creates the standard error field.
func Error(err error) Field {
	if err == nil {
		return Field{Key: logrus.ErrorKey, Value: nil}
	}
	return Field{Key: logrus.ErrorKey, Value: err.Error()}
}
