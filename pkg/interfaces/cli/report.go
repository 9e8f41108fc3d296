package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emmanuel-ch/Product-Trailer/pkg/infrastructure/profile"
	"github.com/emmanuel-ch/Product-Trailer/pkg/infrastructure/repositories/sqlite"
	"github.com/emmanuel-ch/Product-Trailer/pkg/interfaces/report"
)

// ReportOptions holds flags of the report command.
type ReportOptions struct {
	Excel      bool
	ActiveOnly bool
}

// NewReportCommand creates the report command: render the profile's current
// item database without processing new input.
func NewReportCommand(root *RootOptions) *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report <profile>",
		Short: "Render the tracked items of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Excel, "excel", false,
		"write the Excel report instead of printing to stdout")
	cmd.Flags().BoolVar(&opts.ActiveOnly, "active", false,
		"only include items still being tracked")

	return cmd
}

func runReport(cmd *cobra.Command, root *RootOptions, opts *ReportOptions, profileName string) error {
	p, err := profile.Load(root.ProfilesDir, profileName)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(p.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	items := sqlite.NewItemRepository(store)
	runs := sqlite.NewRunStateRepository(store)

	ctx := cmd.Context()
	fetch := items.FetchAll
	if opts.ActiveOnly {
		fetch = items.FetchActive
	}
	all, err := fetch(ctx)
	if err != nil {
		return err
	}

	if opts.Excel {
		runCount, err := runs.RunCount(ctx)
		if err != nil {
			return err
		}
		path, err := report.WriteExcel(p.OutputDir(), runCount, all)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", path)
		return nil
	}
	return report.WriteText(cmd.OutOrStdout(), all)
}
