package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ligun0805/x-faucet/internal/faucetcore"
	"github.com/ligun0805/x-faucet/internal/journal"
)

const historyLimit = 100

func showHistory(a fyne.App, store *journal.Store) {
	w := a.NewWindow("History")
	list, err := store.List(historyLimit)
	if err != nil {
		a.SendNotification(fyne.NewNotification("History", err.Error()))
	}
	rows := widget.NewList(
		func() int { return len(list) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(historyLine(list[i])) },
	)
	exportBtn := widget.NewButtonWithIcon("Export JSON", theme.DocumentSaveIcon(), func() {
		path, err := saveHistoryJSON(list)
		if err != nil {
			a.SendNotification(fyne.NewNotification("Save error", err.Error()))
			return
		}
		a.SendNotification(fyne.NewNotification("Saved", path))
	})
	w.SetContent(container.NewBorder(container.NewHBox(widget.NewLabel(fmt.Sprintf("%d transactions", len(list))), exportBtn), nil, nil, nil, rows))
	w.Resize(fyne.NewSize(900, 500))
	w.Show()
}

func historyLine(t faucetcore.Ticket) string {
	s := fmt.Sprintf("%s  %-6s  %-9s  %s", t.Updated.Local().Format(time.DateTime), t.Kind, t.Status, short(t.Hash.Hex()))
	if t.Kind == faucetcore.KindDonate {
		s += "  " + faucetcore.ToDisplayAmount(t.Amount)
	}
	if t.Reason != "" {
		s += "  " + t.Reason
	}
	return s
}

// saveHistoryJSON writes tickets to a timestamped file next to the executable.
func saveHistoryJSON(list []faucetcore.Ticket) (string, error) {
	ts := time.Now().Format("20060102_150405")
	exe, _ := os.Executable()
	dir := filepath.Join(filepath.Dir(exe), "log_data")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "history_"+ts+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	err = enc.Encode(map[string]any{
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
		"tickets":     list,
	})
	return path, err
}
