package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crossroute/pkg/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously executed swaps",
	Run:   runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := history.NewStore("")
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	records := store.List()

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(records) == 0 {
		fmt.Println("\nNo swaps recorded yet.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                         SWAP HISTORY")
	fmt.Println(strings.Repeat("=", 70))

	for _, record := range records {
		status := ""
		if record.Result != nil && record.Result.BridgeResult != nil {
			status = string(record.Result.BridgeResult.Status)
		}
		fmt.Printf("\n  %s  %s %s (chain %d) -> %s (chain %d)  %s\n",
			record.CreatedAt.Format("2006-01-02 15:04"),
			record.AmountIn, record.TokenIn, record.FromChain,
			record.TokenOut, record.ToChain, status)
		fmt.Printf("    Tracking ID: %s\n", color.CyanString(record.TrackingID))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
