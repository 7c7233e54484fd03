package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List the configured chains, tokens and venues",
	Run:   runChains,
}

func init() {
	rootCmd.AddCommand(chainsCmd)
}

func runChains(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	eng, err := buildEngine(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer eng.Close()

	if jsonOutput {
		output := map[string]interface{}{
			"chains": eng.Chains(),
			"tokens": eng.Tokens(),
			"venues": eng.Venues(),
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                  SUPPORTED CHAINS")
	fmt.Println(strings.Repeat("=", 60))

	for _, chain := range eng.Chains() {
		fmt.Printf("\n  %s (chain id %d)\n", color.CyanString(chain.Name), chain.ChainID)

		if tokens, ok := eng.Tokens()[chain.ChainID]; ok {
			fmt.Print("    Tokens: ")
			symbols := make([]string, 0, len(tokens))
			for symbol := range tokens {
				symbols = append(symbols, symbol)
			}
			sort.Strings(symbols)
			fmt.Println(strings.Join(symbols, ", "))
		}

		var venues []string
		for _, venue := range eng.Venues() {
			if venue.ChainID == chain.ChainID {
				venues = append(venues, venue.Name)
			}
		}
		if len(venues) > 0 {
			fmt.Printf("    Venues: %s\n", strings.Join(venues, ", "))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
