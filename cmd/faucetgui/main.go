package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/x-faucet/internal/chain"
	"github.com/ligun0805/x-faucet/internal/config"
	"github.com/ligun0805/x-faucet/internal/faucetcore"
	"github.com/ligun0805/x-faucet/internal/journal"
	"github.com/ligun0805/x-faucet/internal/metrics"
	"github.com/ligun0805/x-faucet/internal/notify"
)

func main() {
	hideConsole()

	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	a := app.NewWithID("xyz.monad.faucet")
	curTheme := makeTheme("dark", false)
	a.Settings().SetTheme(curTheme)
	w := a.NewWindow("MON Faucet")
	w.Resize(fyne.NewSize(520, 720))

	logs := newLogView(a)
	logger := cfg.Logger()
	logger.AddHook(logs)
	log := logrus.NewEntry(logger).WithField("app", "faucetgui")
	for _, p := range cfg.Placeholders() {
		log.Warnf("%s is not configured", p)
	}

	ec, err := chain.Dial(cfg.RPCURL)
	if err != nil {
		log.WithError(err).Fatal("dial RPC")
	}
	defer ec.Close()
	opts := cfg.CoreOptions()
	reader := chain.NewFaucet(ec, opts.FaucetAddress, opts.BindingAddress)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wallet := newSwapWallet()
	connect := func(keyHex string) error {
		wopts := cfg.WalletOptions(log)
		wopts.Confirm = confirmInDialog(w, opts.Symbol)
		kw, err := chain.NewKeyWallet(ctx, ec, keyHex, wopts)
		if err != nil {
			return err
		}
		wallet.set(kw)
		addr, _ := kw.Address()
		log.WithField("address", addr.Hex()).Info("wallet connected")
		return nil
	}
	if cfg.WalletKeyHex != "" {
		if err := connect(cfg.WalletKeyHex); err != nil {
			log.WithError(err).Error("wallet from env")
		}
	}

	rec := metrics.New("faucet")
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", rec.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
		defer srv.Close()
	}

	var jr faucetcore.Journal
	store, err := journal.Open(cfg.JournalPath, log)
	if err != nil {
		log.WithError(err).Warn("journal disabled")
	} else {
		defer store.Close()
		jr = store
	}

	slack := notify.NewSlack(cfg.AlertWebhookURL, cfg.InfoWebhookURL, log)
	notifier := notify.Multi{
		notify.NewLog(log),
		notify.Func(func(title, body string, _ faucetcore.Severity) {
			a.SendNotification(fyne.NewNotification(title, body))
		}),
	}
	if slack.Enabled() {
		notifier = append(notifier, slack)
	}

	loop := faucetcore.NewLoop(log)
	ui := newPanelUI(nil, nil)
	var panel *faucetcore.Panel
	loop.Do(func() {
		panel = faucetcore.NewPanel(loop, reader, wallet, nil, faucetcore.Sinks{
			Notifier: notifier, Journal: jr, Recorder: rec,
		}, opts, log)
	})

	ui.claimBtn.OnTapped = func() {
		loop.Post(func() {
			if _, err := panel.Claim(); err != nil {
				log.WithError(err).Info("claim not sent")
			}
		})
	}
	ui.donateBtn.OnTapped = func() { loop.Post(panel.OpenDonation) }
	ui.donation = newDonationUI(w, opts.Presets, opts.Symbol, donationActions{
		setText: func(s string) { loop.Post(func() { panel.SetDonationText(s) }) },
		preset:  func(i int) { loop.Post(func() { _, _ = panel.DonationPreset(i) }) },
		submit: func() {
			loop.Post(func() {
				if _, err := panel.Donate(); err != nil && !errors.Is(err, faucetcore.ErrInvalidAmount) {
					log.WithError(err).Info("donation not sent")
				}
			})
		},
		close: func() { loop.Post(func() { panel.CloseDonation() }) },
	})

	keyEntry := widget.NewPasswordEntry()
	keyEntry.SetPlaceHolder("private key (hex)")
	connectBtn := widget.NewButton("Connect", func() {
		if err := connect(keyEntry.Text); err != nil {
			dialog.ShowError(err, w)
			return
		}
		keyEntry.SetText("")
		loop.Post(panel.Refresh)
	})
	disconnectBtn := widget.NewButton("Disconnect", func() {
		wallet.set(nil)
		loop.Post(panel.Refresh)
	})
	walletCard := widget.NewCard("Wallet", "", container.NewBorder(nil, nil, nil,
		container.NewHBox(connectBtn, disconnectBtn), keyEntry))

	themeSelect := widget.NewSelect([]string{"Dark", "Light"}, func(s string) {
		mode := "dark"
		if s == "Light" {
			mode = "light"
		}
		curTheme = makeTheme(mode, curTheme.(*appTheme).compact)
		a.Settings().SetTheme(curTheme)
	})
	themeSelect.SetSelected("Dark")
	compactCheck := widget.NewCheck("Compact", func(b bool) {
		curTheme = makeTheme(curTheme.(*appTheme).mode, b)
		a.Settings().SetTheme(curTheme)
	})
	logsBtn := widget.NewButton("Logs", logs.show)
	historyBtn := widget.NewButton("History", func() {
		if store == nil {
			dialog.ShowInformation("History", "journal is disabled", w)
			return
		}
		showHistory(a, store)
	})
	bar := container.NewHBox(themeSelect, compactCheck, logsBtn, historyBtn)

	w.SetContent(container.NewBorder(bar, nil, nil, nil,
		container.NewVScroll(container.NewVBox(walletCard, ui.content()))))
	w.SetOnClosed(func() {
		loop.Do(panel.Close)
		loop.Close()
		slack.Wait()
		logs.close()
	})

	loop.Do(func() {
		panel.OnChange(ui.render)
		panel.Start()
		ui.render(panel.View())
	})
	w.ShowAndRun()
}
