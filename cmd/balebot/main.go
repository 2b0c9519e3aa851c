// Command balebot runs a small Bale bot that exercises balego: commands,
// inline buttons and a WaitFor conversation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/python-bale-bot/balego"
	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/cmd/balebot/config"
	"github.com/python-bale-bot/balego/cmd/balebot/logging"
)

var (
	envFile    = flag.String("env", ".env", "Path to a .env file")
	dumpFlag   = flag.Bool("dump", false, "Print every update to stdout")
	storeToken = flag.Bool("store-token", false, "Save BALE_BOT_TOKEN to the OS keyring and exit")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	// Missing files are fine; existing env vars win.
	if err := config.LoadDotEnv(*envFile, "cmd/balebot/.env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *storeToken {
		token := os.Getenv("BALE_BOT_TOKEN")
		if token == "" {
			fmt.Fprintln(os.Stderr, "BALE_BOT_TOKEN is empty")
			return 1
		}
		if err := config.StoreToken(token); err != nil {
			fmt.Fprintln(os.Stderr, "store token:", err)
			return 1
		}
		fmt.Println("token saved to keyring")
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logs := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer logs.Close()
	log := logs.Zap

	log.Info("balebot starting",
		zap.String("mode", string(cfg.Bot.Receiver.Mode)),
		zap.String("token_source", cfg.TokenSource),
		zap.String("state_file", cfg.Bot.StateFile),
	)

	bot, err := balego.New("",
		balego.WithConfig(cfg.Bot),
		balego.WithLogger(logs.Slog),
		balego.WithReadyHook(func(_ context.Context, me *bale.User) {
			log.Info("bot ready", zap.String("username", me.Username), zap.Int64("id", me.ID))
		}),
		balego.WithErrorHook(func(_ context.Context, u *bale.Update, err error) {
			log.Error("handler failed", zap.Int64("update_id", u.UpdateID), zap.Error(err))
		}),
	)
	if err != nil {
		log.Error("failed to create bot", zap.Error(err))
		return 1
	}

	a := &app{bot: bot, log: log, askTimeout: cfg.AskTimeout}
	if *dumpFlag {
		a.dumpTo = os.Stdout
	}
	if err := a.register(); err != nil {
		log.Error("failed to register handlers", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go rotateOnHangup(ctx, logs, log)

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("bot stopped", zap.Error(err))
		return 1
	}
	log.Info("balebot stopped")
	return 0
}

func rotateOnHangup(ctx context.Context, logs *logging.Loggers, log *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := logs.Rotate(); err != nil {
				log.Warn("log rotation failed", zap.Error(err))
			}
		}
	}
}
