package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/unowned-ai/readlater/pkg/bot"
	"github.com/unowned-ai/readlater/pkg/logger"
	"github.com/unowned-ai/readlater/pkg/metrics"
	"github.com/unowned-ai/readlater/pkg/ops"
	"github.com/unowned-ai/readlater/pkg/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Polls the Telegram Bot API for updates and answers them until interrupted.

The bot token comes from BOT_TOKEN or telegram.token in the config file. When
ops.addr is set, /healthz (and /metrics with ops.metrics) are served there.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireTelegram(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, dbConn, err := openStore()
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		sessions, sessionsCheck, releaseSessions, err := openSessions()
		if err != nil {
			return err
		}
		defer releaseSessions()

		m := metrics.New()
		dispatcher := bot.New(store, sessions,
			bot.WithLogger(log),
			bot.WithRecorder(m),
			bot.WithPageSize(cfg.Pagination.PageSize),
		)

		api, err := telegram.NewAPI(cfg.Telegram.Token, cfg.Telegram.Debug)
		if err != nil {
			return err
		}
		log.Info("Authorized on Telegram", logger.String("bot", api.Self.UserName))

		poller := telegram.NewPoller(api, dispatcher, telegram.Config{
			PollTimeout: cfg.Telegram.PollTimeout,
			Workers:     cfg.Telegram.Workers,
			SendRate:    cfg.Telegram.SendRate,
			SendBurst:   cfg.Telegram.SendBurst,
		}, telegram.WithLogger(log), telegram.WithRecorder(m))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return poller.Run(gctx) })

		if cfg.Ops.Addr != "" {
			checks := map[string]ops.Check{
				"database": dbConn.PingContext,
				"telegram": poller.Check,
			}
			if sessionsCheck != nil {
				checks["sessions"] = sessionsCheck
			}
			var metricsHandler http.Handler
			if cfg.Ops.Metrics {
				metricsHandler = m.Handler()
			}
			srv := ops.NewServer(metricsHandler, checks, log)
			g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Ops.Addr) })
		}

		log.Info("Bot started", logger.String("sessions", cfg.Sessions.Backend), logger.Int("page_size", cfg.Pagination.PageSize))
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info("Bot stopped")
		return nil
	},
}
