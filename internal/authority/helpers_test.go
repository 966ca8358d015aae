package authority

type nopLogger struct{}

func (nopLogger) Error(format string, v ...interface{}) {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Debug(format string, v ...interface{}) {}
