package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crossroute/pkg/engine"
	"crossroute/pkg/history"
	"crossroute/pkg/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tracking-id>",
	Short: "Check the status of a bridge transfer",
	Long: `Check the progress of a submitted bridge transfer by its tracking id.
The tracking id is printed by the swap command and is namespaced by the
provider that executed the transfer (e.g. "meson_0x1234...").

Examples:
  crossroute status intents_0x1234...abcd
  crossroute status meson_0x1234...abcd --watch
  crossroute status butter_0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	trackingID := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	eng, err := buildEngine(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer eng.Close()

	if watchStatus {
		watchSwapStatus(eng, trackingID, jsonOutput)
	} else {
		checkSwapStatus(eng, trackingID, jsonOutput)
	}
}

func checkSwapStatus(eng *engine.Engine, trackingID string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transfer status..."
		s.Start()
	}

	status, record, err := pollStatus(eng, trackingID)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"tracking_id": trackingID,
			"status":      status,
		}
		if record != nil {
			output["swap"] = record
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	displayStatus(trackingID, status, record)
}

func watchSwapStatus(eng *engine.Engine, trackingID string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transfer status (Tracking ID: %s)\n", color.CyanString(trackingID))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	if checkAndDisplayStatus(eng, trackingID) {
		return
	}
	for range ticker.C {
		if checkAndDisplayStatus(eng, trackingID) {
			return
		}
	}
}

// checkAndDisplayStatus polls once and reports whether the transfer has
// reached a terminal state.
func checkAndDisplayStatus(eng *engine.Engine, trackingID string) bool {
	status, record, err := pollStatus(eng, trackingID)
	if err != nil {
		color.Red("Error: %v", err)
		return false
	}

	displayStatus(trackingID, status, record)
	return status.Terminal()
}

// pollStatus asks the originating provider for the transfer state and,
// when the swap is in the local history, refreshes the stored plan too.
func pollStatus(eng *engine.Engine, trackingID string) (types.BridgeTxStatus, *history.Record, error) {
	ctx := context.Background()

	store, storeErr := history.NewStore("")
	if storeErr == nil {
		if record, err := store.Get(trackingID); err == nil && record.Result != nil && record.Result.BridgeResult != nil {
			if err := eng.Tracker.TrackCrossChainSwap(ctx, record.Result); err != nil {
				return "", nil, err
			}
			_ = store.Update(record)
			return record.Result.BridgeResult.Status, record, nil
		}
	}

	status, err := eng.Tracker.TrackBridgeStatus(ctx, trackingID)
	if err != nil {
		return "", nil, err
	}
	return status, nil, nil
}

func displayStatus(trackingID string, status types.BridgeTxStatus, record *history.Record) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                       TRANSFER STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Tracking ID:  %s\n", color.CyanString(trackingID))
	fmt.Printf("  Status:       %s\n", coloredBridgeStatus(status))

	if record != nil {
		fmt.Printf("  Swap:         %s %s (chain %d) -> %s (chain %d)\n",
			record.AmountIn, record.TokenIn, record.FromChain, record.TokenOut, record.ToChain)
		fmt.Printf("  Recipient:    %s\n", record.Recipient)
		fmt.Printf("  Submitted:    %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))

		if record.Result != nil {
			fmt.Println("\n  Steps:")
			for _, step := range record.Result.Steps {
				line := fmt.Sprintf("    %d. %-6s via %-12s %s", step.StepNumber, step.Action, step.Protocol, coloredStepStatus(step.Status))
				if step.TxHash != "" {
					line += "  " + color.HiBlackString(step.TxHash)
				}
				fmt.Println(line)
			}
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredBridgeStatus(status types.BridgeTxStatus) string {
	switch status {
	case types.BridgeCompleted:
		return color.GreenString(string(status))
	case types.BridgeFailed:
		return color.RedString(string(status))
	case types.BridgeRefunded:
		return color.MagentaString(string(status))
	default:
		return color.YellowString(string(status))
	}
}
