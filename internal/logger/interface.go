// Package logger provides the structured logger used by the batch pipeline.
package logger

// Logger provides structured logging with context
type Logger interface {
	Info(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Debug(component, message string, fields map[string]interface{})

	// Skipped records a scan that will not get a mask. reason is one of
	// load, shape, model or save.
	Skipped(component, file, reason string, err error)
}

// Nop discards everything
type Nop struct{}

func (Nop) Info(string, string, map[string]interface{})    {}
func (Nop) Error(string, error, map[string]interface{})    {}
func (Nop) Warning(string, string, map[string]interface{}) {}
func (Nop) Debug(string, string, map[string]interface{})   {}
func (Nop) Skipped(string, string, string, error)          {}
