package logger

// NopLogger discards everything. Used in tests and as a safe default.
type NopLogger struct{}

var _ ILogger = NopLogger{}

func NewNopLogger() NopLogger {
	return NopLogger{}
}

func (NopLogger) Debug(string, string, map[string]interface{}) {}
func (NopLogger) Info(string, string, map[string]interface{})  {}
func (NopLogger) Warn(string, string, map[string]interface{})  {}
func (NopLogger) Error(string, string, map[string]interface{}) {}
func (NopLogger) Sync() error                                  { return nil }
