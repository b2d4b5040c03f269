/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/infrastructure/config"
	"github.com/eslsoft/hanguru/internal/infrastructure/logging"
	"github.com/eslsoft/hanguru/internal/infrastructure/probe"
	"github.com/eslsoft/hanguru/internal/usecase/integrity"
	"github.com/eslsoft/hanguru/pkg/filterexpr"
)

const (
	checkDatasetKey   = "check.dataset"
	checkBaselineKey  = "check.baseline"
	checkNoRefreshKey = "check.no_refresh_baseline"
	checkWorkersKey   = "check.workers"
	checkFilterKey    = "check.filter"
	checkScheduleKey  = "check.schedule"
)

var checkIssueSchema = filterexpr.Schema{
	"type": {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpIN}},
	"file": {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpSW}},
}

var checkCmd = &cobra.Command{
	Use:   "check <asset-root>",
	Short: "Verify media assets against the checksum baseline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		assetRoot := args[0]

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err := logging.NewLogger(cfg)
		if err != nil {
			return err
		}

		matcher, err := filterexpr.Compile(viper.GetString(checkFilterKey), checkIssueSchema)
		if err != nil {
			return fmt.Errorf("parse filter: %w", err)
		}

		var referenced []string
		if datasetPath := viper.GetString(checkDatasetKey); datasetPath != "" {
			ds, err := loadDataset(datasetPath)
			if err != nil {
				return err
			}
			referenced = ds.ReferencedAssets()
		}

		workers := cfg.Assets.Workers
		if n := viper.GetInt(checkWorkersKey); n > 0 {
			workers = n
		}
		tools := probe.New(logger,
			probe.WithBinary(cfg.Assets.ProbeBinary),
			probe.WithTimeout(cfg.Assets.ProbeTimeout),
		)
		service := integrity.NewService(logger, tools,
			integrity.WithWorkers(workers),
			integrity.WithBaselineFilename(cfg.Assets.BaselineFile),
		)

		req := integrity.CheckRequest{
			AssetRoot:           assetRoot,
			Referenced:          referenced,
			BaselinePath:        viper.GetString(checkBaselineKey),
			SkipBaselineRefresh: viper.GetBool(checkNoRefreshKey),
		}

		runOnce := func(ctx context.Context) error {
			report, err := service.Check(ctx, req)
			if err != nil {
				return err
			}
			printReport(cmd, report, matcher)
			if report.HasBlockingIssues() {
				return fmt.Errorf("integrity check found %d blocking issues", len(report.Issues))
			}
			return nil
		}

		spec := viper.GetString(checkScheduleKey)
		if spec == "" {
			return runOnce(cmd.Context())
		}
		return runScheduled(cmd.Context(), logger, spec, runOnce)
	},
}

// runScheduled runs fn on the cron schedule until interrupted. Scheduling
// errors surface immediately; per-run failures are logged and retried on
// the next tick.
func runScheduled(ctx context.Context, logger *logrus.Logger, spec string, fn func(context.Context) error) error {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(spec, func() {
		if err := fn(ctx); err != nil {
			logger.Errorf("scheduled integrity check: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case <-quit:
	}
	return nil
}

func printReport(cmd *cobra.Command, report *entity.IntegrityReport, matcher *filterexpr.Matcher) {
	cmd.Printf("checked %d files: %d valid, %d corrupt, %d mismatched, %d missing, %d orphaned\n",
		report.TotalFiles, report.ValidFiles, report.CorruptFiles,
		report.ChecksumMismatches, report.MissingFiles, report.OrphanedFiles)
	for _, issue := range report.Issues {
		if !matcher.Match(issueRecord(issue)) {
			continue
		}
		cmd.Printf("issue [%s] %s: %s\n", issue.Type, issue.File, issue.Message)
	}
	for _, advisory := range report.Warnings {
		if !matcher.Match(issueRecord(advisory)) {
			continue
		}
		cmd.Printf("advisory [%s] %s: %s\n", advisory.Type, advisory.File, advisory.Message)
	}
}

func issueRecord(issue entity.IntegrityIssue) map[string]any {
	return map[string]any{
		"type": issue.Type,
		"file": issue.File,
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("dataset", "d", "", "dataset file whose asset references drive the check")
	checkCmd.Flags().String("baseline", "", "checksum baseline path (defaults to <asset-root>/.checksums.json)")
	checkCmd.Flags().Bool("no-refresh-baseline", false, "do not rewrite the baseline after checking")
	checkCmd.Flags().Int("workers", 0, "hash worker count (defaults to config)")
	checkCmd.Flags().String("filter", "", `issue filter, e.g. type == "checksum_mismatch" && file.startsWith("audio/")`)
	checkCmd.Flags().String("schedule", "", "cron expression to run the check periodically")

	bindFlagToViper(checkDatasetKey, checkCmd.Flags().Lookup("dataset"))
	bindFlagToViper(checkBaselineKey, checkCmd.Flags().Lookup("baseline"))
	bindFlagToViper(checkNoRefreshKey, checkCmd.Flags().Lookup("no-refresh-baseline"))
	bindFlagToViper(checkWorkersKey, checkCmd.Flags().Lookup("workers"))
	bindFlagToViper(checkFilterKey, checkCmd.Flags().Lookup("filter"))
	bindFlagToViper(checkScheduleKey, checkCmd.Flags().Lookup("schedule"))
}
