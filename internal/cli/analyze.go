package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"calorie-scan/internal/capture"
	"calorie-scan/internal/models"
	"calorie-scan/internal/server"
	"calorie-scan/internal/session"
)

type analyzeOutput struct {
	models.AnalysisSummary
	Saved              bool `json:"saved"`
	TotalCaloriesToday int  `json:"total_calories_today"`
}

// NewAnalyzeCmd creates the 'analyze' command for a one-off estimate.
func NewAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Estimate calories for a food photo",
		Long: `Read an image file, run one analysis and print the result as JSON.
With --save the result is also added to history.`,
		Example: `  calorie-scan analyze lunch.jpg
  calorie-scan analyze lunch.jpg --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			imageRef, err := capture.FromFile(args[0])
			if err != nil {
				return err
			}

			hist, kv, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer kv.Close()

			ctrl := session.NewController(server.NewAnalyzer(cfg.Analysis))
			defer ctrl.Close()

			if err := ctrl.SelectImage(imageRef); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Analyzing...")
			item, err := ctrl.Analyze(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to analyze image: %w", err)
			}

			if save {
				hist.Add(*item)
			}

			// The data URI is the whole file; echoing it back is noise.
			item.ImageRef = args[0]
			out := analyzeOutput{
				AnalysisSummary:    models.Summarize(*item),
				Saved:              save,
				TotalCaloriesToday: hist.TotalCaloriesToday(),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().BoolVarP(&save, "save", "s", false, "Add the result to history")

	return cmd
}
