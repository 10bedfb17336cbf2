package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"calorie-scan/internal/models"
)

type historyOutput struct {
	Entries            []models.FoodItem `json:"entries"`
	TotalCaloriesToday int               `json:"total_calories_today"`
}

// NewHistoryCmd creates the 'history' command for listing or clearing history.
func NewHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	var clearAll bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent analyses and today's calorie total",
		Example: `  calorie-scan history
  calorie-scan history --limit 5 --json
  calorie-scan history --clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			hist, kv, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer kv.Close()

			out := cmd.OutOrStdout()
			if clearAll {
				hist.Clear()
				fmt.Fprintln(out, "History cleared.")
				return nil
			}

			result := historyOutput{
				Entries:            hist.Recent(limit),
				TotalCaloriesToday: hist.TotalCaloriesToday(),
			}
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printHistory(out, result)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most N entries (0 shows all)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove all history entries")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func printHistory(out io.Writer, result historyOutput) error {
	if len(result.Entries) == 0 {
		fmt.Fprintln(out, "No analyses yet.")
		fmt.Fprintln(out, "Run 'calorie-scan analyze <image> --save' to add one.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tFOOD\tKCAL\tCONFIDENCE\tPORTION")
	for _, e := range result.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.0f%% (%s)\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Name,
			e.Calories,
			e.Confidence*100,
			models.ConfidenceBand(e.Confidence),
			e.Portion,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nToday: %d kcal\n", result.TotalCaloriesToday)
	return nil
}
