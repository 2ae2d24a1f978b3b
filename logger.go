package daybook

// Logger is the structured logger every component writes to. Messages take
// alternating key/value pairs: l.Info("task created", "id", id).
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
	Fatal(msg interface{}, keyvals ...interface{})
}
