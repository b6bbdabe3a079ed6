package listview

import "log/slog"

// Notifier receives user-facing notices from the view: transient fetch
// failures, mutation outcomes, validation problems. UIs plug in their toast
// layer; the default logs through slog.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

type slogNotifier struct{}

func (slogNotifier) Info(msg string)  { slog.Info(msg) }
func (slogNotifier) Error(msg string) { slog.Warn(msg) }
