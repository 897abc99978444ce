// Package notify delivers faucet notifications to logs, chat and fan-outs.
package notify

import (
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

// Log writes notifications to logrus. Errors log at Error, the rest at Info.
type Log struct {
	log *logrus.Entry
}

func NewLog(log *logrus.Entry) *Log {
	return &Log{log: log.WithField("component", "notify")}
}

func (l *Log) Notify(title, body string, sev faucetcore.Severity) {
	e := l.log.WithFields(logrus.Fields{"severity": sev.String(), "body": body})
	if sev == faucetcore.SeverityError {
		e.Error(title)
		return
	}
	e.Info(title)
}

// Multi fans a notification out to every non-nil sink in order.
type Multi []faucetcore.Notifier

func (m Multi) Notify(title, body string, sev faucetcore.Severity) {
	for _, n := range m {
		if n != nil {
			n.Notify(title, body, sev)
		}
	}
}

// Func adapts a plain function, handy for UI toasts.
type Func func(title, body string, sev faucetcore.Severity)

func (f Func) Notify(title, body string, sev faucetcore.Severity) { f(title, body, sev) }
