package main

import (
	"image/color"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

const maxLogLines = 500

// logView mirrors log entries into a window. Lines are kept even while
// the window is closed.
type logView struct {
	app fyne.App

	mu     sync.Mutex
	lines  []string
	win    fyne.Window
	box    *widget.Entry
	scroll *container.Scroll
	fmt    logrus.Formatter
}

func newLogView(a fyne.App) *logView {
	return &logView{app: a, fmt: &logrus.TextFormatter{DisableColors: true, TimestampFormat: "15:04:05", FullTimestamp: true}}
}

func (l *logView) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel, logrus.InfoLevel}
}

func (l *logView) Fire(e *logrus.Entry) error {
	b, err := l.fmt.Format(e)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.lines = append(l.lines, strings.TrimRight(string(b), "\n"))
	if len(l.lines) > maxLogLines {
		l.lines = l.lines[len(l.lines)-maxLogLines:]
	}
	box, scroll, text := l.box, l.scroll, strings.Join(l.lines, "\n")
	l.mu.Unlock()
	if box != nil {
		box.SetText(text)
		scroll.ScrollToBottom()
	}
	return nil
}

// show creates or focuses the log window.
func (l *logView) show() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.win != nil {
		l.win.RequestFocus()
		return
	}
	l.win = l.app.NewWindow("Logs")
	l.win.SetOnClosed(func() {
		l.mu.Lock()
		l.win, l.box, l.scroll = nil, nil, nil
		l.mu.Unlock()
	})
	bg := canvas.NewLinearGradient(color.NRGBA{12, 16, 24, 255}, color.NRGBA{20, 28, 40, 255}, 90)
	l.box = widget.NewMultiLineEntry()
	l.box.Disable()
	l.box.Wrapping = fyne.TextWrapWord
	l.box.SetText(strings.Join(l.lines, "\n"))
	l.scroll = container.NewVScroll(l.box)
	l.scroll.SetMinSize(fyne.NewSize(800, 180))
	l.win.SetContent(container.NewStack(bg, l.scroll))
	l.win.Resize(fyne.NewSize(1000, 600))
	l.win.Show()
	l.scroll.ScrollToBottom()
}

func (l *logView) close() {
	l.mu.Lock()
	w := l.win
	l.mu.Unlock()
	if w != nil {
		w.Close()
	}
}
