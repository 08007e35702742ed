package gcp

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/andywolf/speclinear/internal/security"
)

// Severity levels for structured logs
type Severity string

const (
	SeverityDefault  Severity = "DEFAULT"
	SeverityDebug    Severity = "DEBUG"
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) rank() int {
	switch s {
	case SeverityDebug:
		return 1
	case SeverityInfo:
		return 2
	case SeverityWarning:
		return 3
	case SeverityError:
		return 4
	case SeverityCritical:
		return 5
	default:
		return 0
	}
}

// LogEntry is one line of structured output, in the shape Cloud Logging's
// agent understands when it reads JSON from stderr.
type LogEntry struct {
	Severity  Severity               `json:"severity"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Labels    map[string]string      `json:"labels,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LoggerInterface is what the Linear client and CLI log through.
type LoggerInterface interface {
	Log(severity Severity, message string, fields map[string]interface{})
	Flush() error
	Close() error
}

// CloudLogger writes sanitized structured JSON log entries.
type CloudLogger struct {
	writer      io.Writer
	labels      map[string]string
	minSeverity Severity
	sanitizer   *security.LogSanitizer
	mu          sync.Mutex
	closed      bool
}

// CloudLoggerOption configures a CloudLogger
type CloudLoggerOption func(*CloudLogger)

// WithLabels adds custom labels to all log entries
func WithLabels(labels map[string]string) CloudLoggerOption {
	return func(cl *CloudLogger) {
		for k, v := range labels {
			cl.labels[k] = v
		}
	}
}

// WithWriter sets a custom writer for log output
func WithWriter(w io.Writer) CloudLoggerOption {
	return func(cl *CloudLogger) {
		cl.writer = w
	}
}

// WithMinSeverity drops entries below the given severity.
func WithMinSeverity(s Severity) CloudLoggerOption {
	return func(cl *CloudLogger) {
		cl.minSeverity = s
	}
}

// WithSecret redacts an exact credential value from every entry.
func WithSecret(secret string) CloudLoggerOption {
	return func(cl *CloudLogger) {
		cl.sanitizer.AddSecret(secret)
	}
}

// NewCloudLogger creates a logger writing to stderr at INFO and above.
func NewCloudLogger(opts ...CloudLoggerOption) *CloudLogger {
	cl := &CloudLogger{
		writer:      os.Stderr,
		minSeverity: SeverityInfo,
		sanitizer:   security.NewLogSanitizer(),
		labels: map[string]string{
			"component": "speclinear",
		},
	}

	for _, opt := range opts {
		opt(cl)
	}

	return cl
}

// Log writes a structured log entry
func (cl *CloudLogger) Log(severity Severity, message string, fields map[string]interface{}) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.closed || severity.rank() < cl.minSeverity.rank() {
		return
	}

	entry := LogEntry{
		Severity:  severity,
		Message:   cl.sanitizer.Sanitize(message),
		Timestamp: time.Now().UTC(),
		Labels:    cl.sanitizer.SanitizeMap(cl.labels),
		Fields:    cl.sanitizer.SanitizeFields(fields),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(cl.writer, `{"severity":"ERROR","message":"failed to marshal log entry: %v"}`+"\n", err)
		return
	}
	fmt.Fprintf(cl.writer, "%s\n", data)
}

// Debugf logs a formatted message at DEBUG severity
func (cl *CloudLogger) Debugf(format string, args ...interface{}) {
	cl.Log(SeverityDebug, fmt.Sprintf(format, args...), nil)
}

// Infof logs a formatted message at INFO severity
func (cl *CloudLogger) Infof(format string, args ...interface{}) {
	cl.Log(SeverityInfo, fmt.Sprintf(format, args...), nil)
}

// Flush syncs the writer when it supports Sync, as *os.File does.
func (cl *CloudLogger) Flush() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.closed {
		return nil
	}

	if syncer, ok := cl.writer.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}

	return nil
}

// Close marks the logger as closed; later entries are dropped.
func (cl *CloudLogger) Close() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.closed = true
	return nil
}

// Ensure CloudLogger implements LoggerInterface
var _ LoggerInterface = (*CloudLogger)(nil)
