package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a standalone queue worker",
	Long: `Runs only the queue worker loop. Multiple replicas can share one
valkey-backed queue; the per-publication claim keeps duplicate
deliveries harmless.`,
	Run: workerServer,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func workerServer(_ *cobra.Command, _ []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queueWorker.Start(ctx)
	logrus.Info("[WORKER] Queue worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logrus.Info("[WORKER] Reception of termination signal, shutting down gracefully...")
	cancel()
	StopApp()
}
