package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rl1809/voice-pos/internal/adapter/handler"
	"github.com/rl1809/voice-pos/internal/app"
	"github.com/rl1809/voice-pos/internal/core/domain"
	"github.com/rl1809/voice-pos/internal/core/service"
)

const queueSize = 1000

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves POST /api/command, GET /api/cart, GET /api/inventory, /health and /metrics.
Confirmation text is rendered by background workers and logged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// events are only drained by workers; without one the queue fills and Handle blocks
		workers, _ := cmd.Flags().GetInt("workers")
		if workers < 1 {
			return fmt.Errorf("--workers must be at least 1, got %d", workers)
		}

		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Address = addr
		}

		queue := service.NewEventQueue(queueSize)
		opts := []app.Option{app.WithEventSink(queue)}
		if cfg.Checkpoint.Backend == "redis" {
			opts = append(opts, app.WithIdempotency())
		}

		a, err := app.New(cmd.Context(), cfg, log, opts...)
		if err != nil {
			return err
		}
		defer a.Close()

		// Start narrator workers
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				a.Narrator.Run(context.Background(), queue.Events(), func(ev domain.Event, text string) {
					log.Info("confirmation", map[string]interface{}{
						"worker":  id,
						"eventId": ev.ID,
						"type":    ev.Type,
						"text":    text,
					})
				})
			}(i)
		}
		log.Info("started narrator workers", map[string]interface{}{"count": workers})

		srv := &http.Server{
			Addr:    cfg.HTTP.Address,
			Handler: handler.NewHTTPHandler(a.Engine).Routes(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.Info("HTTP server listening", map[string]interface{}{"address": srv.Addr})
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

		var serveErr error
		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				serveErr = err
			}
		case sig := <-shutdown:
			log.Info("shutting down", map[string]interface{}{"signal": sig.String()})

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn("graceful shutdown did not complete", map[string]interface{}{"error": err.Error()})
				srv.Close()
			}
			log.Info("HTTP server stopped", nil)
		}

		// Close event queue and wait for workers
		queue.Close()
		wg.Wait()
		log.Info("workers stopped", nil)

		return serveErr
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address, overrides http.address")
	serveCmd.Flags().Int("workers", 1, "Confirmation text workers; more than one may reorder confirmations")
}
