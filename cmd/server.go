package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/viktsys/stockfolio/api"
	"github.com/viktsys/stockfolio/database"
	"github.com/viktsys/stockfolio/metrics"
	"github.com/viktsys/stockfolio/portfolio"
	"github.com/viktsys/stockfolio/report"
	"github.com/viktsys/stockfolio/scheduler"
	"golang.org/x/sync/errgroup"
)

var serverAddr string

var serverCMD = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long:  `Start the HTTP API server to look up quotes, record trades and value the portfolio.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logCloser, err := bootstrap()
		if err != nil {
			return err
		}
		defer logCloser.Close()

		if serverAddr != "" {
			cfg.HTTP.Addr = serverAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("Initializing database...")
		db, err := database.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer database.Close(db)

		m := metrics.New()
		quotes, err := newQuoteStack(ctx, cfg, m)
		if err != nil {
			return err
		}
		defer quotes.close()

		svc := portfolio.NewService(portfolio.NewLotRepository(db), quotes.provider)
		h := api.NewHandler(svc, report.NewXLSXGenerator(), m)

		srv := &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      api.SetupRoutes(h, cfg.HTTP, m),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}

		g, gctx := errgroup.WithContext(ctx)

		if quotes.cache != nil && cfg.Jobs.WarmCacheInterval > 0 {
			sched, err := scheduler.New()
			if err != nil {
				return err
			}
			err = sched.NewIntervalJob("warm-quote-cache", scheduler.WarmQuoteCache(svc, quotes.cache), cfg.Jobs.WarmCacheInterval, true)
			if err != nil {
				return err
			}

			g.Go(func() error {
				sched.Start()
				<-gctx.Done()
				slog.Info("stopping scheduler...")
				return sched.Stop()
			})
		}

		g.Go(func() error {
			slog.Info("HTTP server starting", slog.String("addr", cfg.HTTP.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			slog.Info("shutting down HTTP server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			slog.Error("server exited with error", slog.String("err", err.Error()))
			return err
		}
		slog.Info("server stopped")
		return nil
	},
}

func init() {
	serverCMD.Flags().StringVar(&serverAddr, "addr", "", "listen address, overrides HTTP_ADDR")
}
