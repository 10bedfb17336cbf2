/*
Package cli implements the calorie-scan commands.

Every command resolves its settings through config.Load, so the YAML file,
.env and CALORIE_SCAN_* variables apply the same way to serve, analyze and
history.
*/
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"calorie-scan/internal/config"
	"calorie-scan/internal/history"
	"calorie-scan/internal/storage"
)

// BuildInfo is stamped into the binary via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// NewRootCmd creates the calorie-scan command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "calorie-scan",
		Short: "Estimate calories from food photos",
		Long: `calorie-scan runs a simulated food-photo analysis and keeps a short,
persisted history of results with a running total for today.

The analysis picks from a small table of known foods and perturbs its values,
so estimates vary from run to run.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to YAML config (default $CALORIE_SCAN_CONFIG)")

	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewAnalyzeCmd(opts))
	cmd.AddCommand(NewHistoryCmd(opts))
	cmd.AddCommand(NewVersionCmd(info))

	return cmd
}

// openHistory opens the configured store. The caller closes the returned KV.
func openHistory(cfg *config.Config) (*history.Store, storage.KV, error) {
	kv, err := storage.NewByEngine(cfg.Storage.Engine, cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	st := history.NewStore(kv,
		history.WithKey(cfg.History.Key),
		history.WithCapacity(cfg.History.Capacity),
	)
	return st, kv, nil
}
