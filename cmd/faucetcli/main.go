package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/x-faucet/internal/chain"
	"github.com/ligun0805/x-faucet/internal/config"
	"github.com/ligun0805/x-faucet/internal/faucetcore"
	"github.com/ligun0805/x-faucet/internal/journal"
	"github.com/ligun0805/x-faucet/internal/metrics"
	"github.com/ligun0805/x-faucet/internal/notify"
)

type confirmReq struct {
	preview chain.TxPreview
	reply   chan bool
}

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")
	cfg := config.Load()

	flag.StringVar(&cfg.RPCURL, "rpc", cfg.RPCURL, "RPC endpoint URL")
	flag.StringVar(&cfg.FaucetAddress, "faucet", cfg.FaucetAddress, "faucet contract address")
	flag.StringVar(&cfg.BindingAddress, "binding", cfg.BindingAddress, "identity binding registry address")
	flag.StringVar(&cfg.Locale, "locale", cfg.Locale, "zh or en")
	autoYes := flag.Bool("yes", false, "sign without asking")
	flag.Parse()
	must(cfg.Validate(), "config")

	logger := cfg.Logger()
	logger.SetOutput(os.Stderr)
	log := logrus.NewEntry(logger).WithField("app", "faucetcli")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ec, err := chain.Dial(cfg.RPCURL)
	must(err, "dial RPC")
	defer ec.Close()

	opts := cfg.CoreOptions()
	reader := chain.NewFaucet(ec, opts.FaucetAddress, opts.BindingAddress)

	keyHex := cfg.WalletKeyHex
	if keyHex == "" {
		keyHex = readPassword("Wallet private key (empty = read-only): ")
	}
	confirms := make(chan confirmReq)
	var wallet faucetcore.Wallet = faucetcore.NoWallet
	if keyHex != "" {
		wopts := cfg.WalletOptions(log)
		if !*autoYes {
			wopts.Confirm = func(p chain.TxPreview) bool {
				req := confirmReq{preview: p, reply: make(chan bool, 1)}
				select {
				case confirms <- req:
					return <-req.reply
				case <-ctx.Done():
					return false
				}
			}
		}
		kw, err := chain.NewKeyWallet(ctx, ec, keyHex, wopts)
		must(err, "wallet")
		wallet = kw
	}

	fmt.Println("=== CONFIG (.env) ===")
	fmt.Println("RPC_URL                  :", cfg.RPCURL)
	fmt.Println("FAUCET_CONTRACT_ADDRESS  :", cfg.FaucetAddress)
	fmt.Println("BINDING_CONTRACT_ADDRESS :", cfg.BindingAddress)
	fmt.Println("WALLET_PRIVATE_KEY       :", config.MaskKey(keyHex))
	if addr, ok := wallet.Address(); ok {
		fmt.Println("  -> address             :", addr.Hex())
	}
	fmt.Println("JOURNAL_PATH             :", cfg.JournalPath)
	fmt.Println("=====================")
	for _, p := range cfg.Placeholders() {
		log.Warnf("%s is not configured", p)
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
	defer slack.Wait()
	notifier := notify.Multi{
		notify.NewLog(log),
		notify.Func(func(title, body string, _ faucetcore.Severity) {
			if body != "" {
				title += ": " + body
			}
			fmt.Println("[*]", title)
		}),
	}
	if slack.Enabled() {
		notifier = append(notifier, slack)
	}

	loop := faucetcore.NewLoop(log)
	defer loop.Close()
	var panel *faucetcore.Panel
	loop.Do(func() {
		panel = faucetcore.NewPanel(loop, reader, wallet, nil, faucetcore.Sinks{
			Notifier: notifier, Journal: jr, Recorder: rec,
		}, opts, log)
		var lastID string
		var lastStatus faucetcore.Status
		panel.OnChange(func(v faucetcore.View) {
			if v.Ticket.ID != lastID || v.Ticket.Status != lastStatus {
				lastID, lastStatus = v.Ticket.ID, v.Ticket.Status
				if v.Busy {
					fmt.Printf("[*] %s: %s %s\n", v.Ticket.Kind, v.BusyLabel, shortHash(v.Ticket))
				}
			}
		})
		panel.Start()
	})
	defer loop.Do(panel.Close)

	fmt.Println(help)
	in := lines(bufio.NewReader(os.Stdin))
	for {
		fmt.Print("> ")
		var line string
		select {
		case <-ctx.Done():
			return
		case req := <-confirms:
			printPreview(os.Stdout, req.preview, opts.Symbol)
			fmt.Print("Sign and send? [y/N]: ")
			ans, ok := <-in
			req.reply <- ok && yes(ans)
			continue
		case l, ok := <-in:
			if !ok {
				return
			}
			line = l
		}
		if !run(loop, panel, store, line) {
			return
		}
	}
}

// run executes one REPL command; false means quit.
func run(loop *faucetcore.Loop, panel *faucetcore.Panel, store *journal.Store, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	switch strings.ToLower(fields[0]) {
	case "status", "s":
		var v faucetcore.View
		loop.Do(func() { v = panel.View() })
		printView(os.Stdout, v)
		if v.Donation.Hint != "" {
			fmt.Println("donation presets:", strings.Join(v.Donation.Presets, " "), "|", v.Donation.Hint)
		}
	case "claim", "c":
		var err error
		loop.Do(func() { _, err = panel.Claim() })
		report(err)
	case "donate", "d":
		if arg == "" {
			fmt.Println("  [!] usage: donate <amount>")
			return true
		}
		var err error
		loop.Do(func() {
			panel.OpenDonation()
			panel.SetDonationText(arg)
			_, err = panel.Donate()
		})
		report(err)
	case "preset", "p":
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Println("  [!] usage: preset <n>")
			return true
		}
		loop.Do(func() {
			panel.OpenDonation()
			if _, err = panel.DonationPreset(n - 1); err == nil {
				_, err = panel.Donate()
			}
		})
		report(err)
	case "refresh", "r":
		loop.Do(panel.Refresh)
	case "history", "h":
		if store == nil {
			fmt.Println("  [!] journal is disabled")
			return true
		}
		n, _ := strconv.Atoi(arg)
		if n <= 0 {
			n = 10
		}
		list, err := store.List(n)
		if err != nil {
			report(err)
			return true
		}
		for _, t := range list {
			fmt.Println(" ", ticketLine(t))
		}
	case "help", "?":
		fmt.Println(help)
	case "quit", "exit", "q":
		return false
	default:
		fmt.Println("  [!] unknown command, try help")
	}
	return true
}

func report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, faucetcore.ErrBusy):
		fmt.Println("  [!] a transaction is already in flight")
	case errors.Is(err, faucetcore.ErrInvalidAmount):
		// the panel already raised a notification
	default:
		fmt.Println("  [!]", err)
	}
}
