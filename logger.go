package mealbudget

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Step names recorded by the session around each component call.
const (
	StepGenerate = "generate"
	StepPrice    = "price"
	StepCompare  = "compare"
	StepRevise   = "revise"
)

// SessionLogger is the observer interface invoked around recipe generation,
// pricing, and each revision. It is never consulted for decisions.
type SessionLogger interface {
	LogStep(step StepLog) error
}

// NewSessionLogFilePath returns a file path based on a cleaned up model name or id to make it easier to identify specific logs produced with various models.
func NewSessionLogFilePath(model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(model), ":", "_"),
	)
}

// StepLog represents a single observed step in a planning session.
type StepLog struct {
	Step      string         `json:"step"`
	Attempt   int            `json:"attempt"`
	Timestamp time.Time      `json:"timestamp"`
	Detail    map[string]any `json:"detail,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// FileSessionLogger logs to a file, accumulating steps and flushing at the end.
type FileSessionLogger struct {
	steps  []StepLog
	writer io.Writer
}

// NewFileSessionLogger creates a new file-based session logger.
func NewFileSessionLogger(writer io.Writer) *FileSessionLogger {
	return &FileSessionLogger{
		steps:  make([]StepLog, 0),
		writer: writer,
	}
}

// LogStep logs a step to the buffer (does not flush immediately).
func (fsl *FileSessionLogger) LogStep(step StepLog) error {
	fsl.steps = append(fsl.steps, step)
	return nil
}

// Flush flushes all accumulated steps to the writer.
func (fsl *FileSessionLogger) Flush() error {
	if fsl.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"planning_session": map[string]any{
			"timestamp": time.Now(),
			"steps":     fsl.steps,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session log: %w", err)
	}

	if _, err := fsl.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}

	// Clear the buffer after successful write
	fsl.steps = fsl.steps[:0]
	return nil
}

// NoOpSessionLogger is a logger that discards all log entries.
type NoOpSessionLogger struct{}

// NewNoOpSessionLogger creates a new no-op session logger.
func NewNoOpSessionLogger() *NoOpSessionLogger {
	return &NoOpSessionLogger{}
}

// LogStep discards the step log (no-op).
func (nop *NoOpSessionLogger) LogStep(step StepLog) error {
	return nil
}

// StdoutSessionLogger logs each step as a JSON line to stdout (for Lambda/CloudWatch).
type StdoutSessionLogger struct{}

// NewStdoutSessionLogger creates a new stdout-based session logger.
func NewStdoutSessionLogger() *StdoutSessionLogger {
	return &StdoutSessionLogger{}
}

// LogStep writes the step as a JSON line to os.Stdout.
func (l *StdoutSessionLogger) LogStep(step StepLog) error {
	data, err := json.Marshal(step)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
