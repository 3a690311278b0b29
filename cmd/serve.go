package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/john/gcodetime/config"
	"github.com/john/gcodetime/files"
	"github.com/john/gcodetime/history"
	"github.com/john/gcodetime/server"
	"github.com/john/gcodetime/store"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP/WebSocket estimate service",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.DefaultConfig()
		if serveConfigPath != "" {
			loaded, err := config.LoadConfig(serveConfigPath)
			if err != nil {
				logrus.Fatalf("loading config: %v", err)
			}
			cfg = loaded
		}

		fm, err := files.NewManager(cfg.Files.GCodeDir)
		if err != nil {
			logrus.Fatalf("creating file manager: %v", err)
		}

		dataDir := filepath.Join(filepath.Dir(cfg.Files.GCodeDir), "data")
		st, err := store.New(dataDir)
		if err != nil {
			logrus.Fatalf("creating store: %v", err)
		}

		hist, err := history.NewManager(dataDir, nil)
		if err != nil {
			logrus.Fatalf("creating history manager: %v", err)
		}

		srv := server.New(cfg, fm, st, hist, logrus.StandardLogger())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			if err := srv.Start(); err != nil {
				logrus.WithError(err).Error("estimate server stopped")
			}
		}()

		<-ctx.Done()
		logrus.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("graceful shutdown failed")
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a YAML config file")
	rootCmd.AddCommand(serveCmd)
}
