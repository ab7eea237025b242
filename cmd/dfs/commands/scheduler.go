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

// schedulerCmd groups scheduler management subcommands
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Scheduler management",
	Long: `Start the scheduler or inspect its jobs.

Subcommands:
  start   - run the scheduler without the API server
  list    - registered job names
  run     - fire one job immediately
  status  - job run statistics

Example:
  go run ./cmd/dfs scheduler start
  go run ./cmd/dfs scheduler run submit_lineups`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runSchedulerDaemon,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Fire one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job run statistics",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runSchedulerDaemon(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.scheduler.Start(ctx)

	fmt.Println("Scheduler started. Registered jobs:")
	for _, name := range a.scheduler.JobNames() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	cancel()
	a.scheduler.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Println("Registered jobs:")
	for _, name := range a.scheduler.JobNames() {
		fmt.Printf("  - %s\n", name)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("Running job: %s\n", jobName)
	if err := a.scheduler.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// Block until the run lands in the in-memory history
	for {
		time.Sleep(200 * time.Millisecond)
		runs, err := a.scheduler.JobHistory(jobName, 1)
		if err != nil {
			return err
		}
		if len(runs) > 0 {
			run := runs[0]
			fmt.Printf("Outcome: %s (attempts %d, items %d)\n", run.Outcome, run.Attempts, run.ItemsProcessed)
			if run.Error != "" {
				fmt.Printf("Error: %s\n", run.Error)
			}
			return nil
		}
	}
}

func showStatus(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	// In-process stats are empty here; show the persisted ledger instead
	runs, err := a.ledger.ListRecent(context.Background(), "", 20)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	fmt.Println("Recent job runs:")
	fmt.Println()
	for _, run := range runs {
		fmt.Printf("%-20s %-8s attempts=%d items=%d %s\n",
			run.JobName, run.Outcome, run.Attempts, run.ItemsProcessed,
			run.StartedAt.Format("2006-01-02 15:04:05"))
		if run.Error != "" {
			fmt.Printf("  error: %s\n", run.Error)
		}
	}

	return nil
}
