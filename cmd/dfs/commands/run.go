package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/dfs/backend/internal/contracts"
)

var runSport string

// runCmd executes one pipeline stage directly, outside the scheduler
var runCmd = &cobra.Command{
	Use:   "run [stage]",
	Short: "Run one pipeline stage once",
	Long: `Runs a single pipeline stage and exits.

Stages:
  contests     - sync contest listing
  pools        - sync player pools for eligible contests
  projections  - fetch current projections
  generate     - build draft lineups
  submit       - submit lineups that are due
  swap         - check submitted lineups for ruled-out players

Example:
  go run ./cmd/dfs run contests --sport NFL`,
	Args: cobra.ExactArgs(1),
	RunE: runStage,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runSport, "sport", "NFL", "sport code (NFL|NBA|MLB|NHL)")
}

func runStage(cmd *cobra.Command, args []string) error {
	sport, err := contracts.ParseSport(runSport)
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	switch args[0] {
	case "contests":
		result, err := a.service.SyncContests(ctx, sport)
		if err != nil {
			return err
		}
		fmt.Printf("Fetched %d contests, %d eligible\n", result.Fetched, len(result.Eligible))

	case "pools":
		n, err := a.service.SyncPlayerPools(ctx, sport)
		if err != nil {
			return err
		}
		fmt.Printf("Synced %d player pools\n", n)

	case "projections":
		n, err := a.service.SyncProjections(ctx, sport)
		if err != nil {
			return err
		}
		fmt.Printf("Inserted %d projections\n", n)

	case "generate":
		result, err := a.service.GenerateLineups(ctx, sport)
		if err != nil {
			return err
		}
		fmt.Printf("Generated %d lineups across %d contests\n", result.Generated, result.Contests)
		for _, id := range result.NoLineup {
			fmt.Printf("  no valid lineup: %s\n", id)
		}

	case "submit":
		result, err := a.service.SubmitDue(ctx, sport)
		if err != nil {
			return err
		}
		fmt.Printf("Submitted %d, rejected %d, waiting %d\n", result.Submitted, result.Rejected, result.Waiting)

	case "swap":
		result, err := a.service.MonitorAndSwap(ctx, sport)
		if err != nil {
			return err
		}
		fmt.Printf("Checked %d lineups, swapped %d players\n", result.Lineups, result.Swapped)

	default:
		return fmt.Errorf("unknown stage %q", args[0])
	}

	return nil
}
