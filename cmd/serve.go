package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"askpdf/internal/httpapi"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		srv, err := httpapi.NewServer(a.store, a.pipeline, a.extractor, a.generator, a.logger, &httpapi.Config{
			Host:      a.cfg.Server.Host,
			Port:      a.cfg.Server.Port,
			UploadDir: a.cfg.Storage.UploadDir,
			ChunkSize: a.cfg.Chunking.ChunkSize,
			Overlap:   a.cfg.Chunking.Overlap,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("shutdown failed", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
