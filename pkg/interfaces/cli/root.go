// Package cli defines the product-trailer command-line interface.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ProfilesDir string
	Verbose     bool
}

// Logger builds the logger matching the verbosity flag.
func (o *RootOptions) Logger() (*zap.Logger, error) {
	if o.Verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "product-trailer",
		Short: "Track product units through inventory movement ledgers",
		Long: "product-trailer reconstructs the route of individual product units\n" +
			"from raw inventory-movement extracts, run after run, and reports where\n" +
			"every unit ended up.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ProfilesDir, "profiles-dir", "profiles",
		"directory holding user profiles")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"verbose output")

	cmd.AddCommand(NewTrackCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}
