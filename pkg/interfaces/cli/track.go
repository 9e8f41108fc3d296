package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emmanuel-ch/Product-Trailer/pkg/application/services"
	"github.com/emmanuel-ch/Product-Trailer/pkg/infrastructure/profile"
	"github.com/emmanuel-ch/Product-Trailer/pkg/infrastructure/repositories/movements"
	"github.com/emmanuel-ch/Product-Trailer/pkg/infrastructure/repositories/sqlite"
	"github.com/emmanuel-ch/Product-Trailer/pkg/interfaces/report"
	"github.com/emmanuel-ch/Product-Trailer/pkg/tracking"
)

// TrackOptions holds flags of the track command.
type TrackOptions struct {
	RawDir        string
	RawPrefix     string
	NoExcelReport bool
}

// NewTrackCommand creates the track command: consume new input files for a
// profile and update its item database.
func NewTrackCommand(root *RootOptions) *cobra.Command {
	opts := &TrackOptions{}

	cmd := &cobra.Command{
		Use:   "track <profile>",
		Short: "Process new movement extracts for a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.RawDir, "raw-dir", "rawdata",
		"directory holding raw movement extracts")
	cmd.Flags().StringVar(&opts.RawPrefix, "raw-prefix", "",
		"override the profile's input file prefix")
	cmd.Flags().BoolVar(&opts.NoExcelReport, "no-excel-report", false,
		"skip the post-run Excel report")

	return cmd
}

func runTrack(cmd *cobra.Command, root *RootOptions, opts *TrackOptions, profileName string) error {
	logger, err := root.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	p, err := profile.Load(root.ProfilesDir, profileName)
	if err != nil {
		return err
	}
	if opts.RawPrefix != "" {
		p.Config.Input.FilePrefix = opts.RawPrefix
	}

	store, err := sqlite.Open(p.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	items := sqlite.NewItemRepository(store)
	runs := sqlite.NewRunStateRepository(store)
	service := services.NewTrackingService(
		p,
		movements.NewLoader(p.Config.Input.MaterialTypes),
		items,
		runs,
		tracking.NewScheduler(logger),
		logger,
	)

	ctx := cmd.Context()
	summaries, err := service.ProcessDirectory(ctx, opts.RawDir)
	for _, s := range summaries {
		fmt.Fprintf(cmd.OutOrStdout(),
			"%s: %d new items, %d total (%d open, %d closed, %d pending)\n",
			s.InputFile, s.ItemsNew, s.ItemsTotal,
			s.ItemsOpen, s.ItemsClosed, s.ItemsPending)
	}
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No new input files.")
		return nil
	}

	if p.Config.Output.ExcelReport && !opts.NoExcelReport {
		all, err := items.FetchAll(ctx)
		if err != nil {
			return err
		}
		runCount, err := runs.RunCount(ctx)
		if err != nil {
			return err
		}
		path, err := report.WriteExcel(p.OutputDir(), runCount, all)
		if err != nil {
			return err
		}
		logger.Info("report written", zap.String("path", path))
		fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", path)
	}
	return nil
}
