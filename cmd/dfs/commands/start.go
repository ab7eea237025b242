package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// startCmd runs the full daemon: scheduler, run feed and HTTP API
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the scheduler and API server",
	Long: `Starts the contest automation daemon.

Runs in one process:
- the scheduler with all pipeline jobs
- the HTTP API for status and control
- the websocket run feed

Stop with Ctrl+C; in-flight jobs finish before exit.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.hub.Run(ctx)
	a.scheduler.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Start()
	}()

	fmt.Println("Daemon started. Registered jobs:")
	for _, name := range a.scheduler.JobNames() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		cancel()
		a.scheduler.Stop()
		return err
	case <-quit:
	}

	fmt.Println("\nShutting down...")
	cancel()
	a.scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	fmt.Println("Stopped")
	return nil
}
