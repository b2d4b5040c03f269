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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/hanguru/internal/usecase/validation"
	"github.com/eslsoft/hanguru/pkg/filterexpr"
)

const (
	validateScoresKey = "validate.scores"
	validateFilterKey = "validate.filter"
)

var validateFindingSchema = filterexpr.Schema{
	"type":     {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpIN}},
	"path":     {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpSW}},
	"severity": {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpIN}},
}

var validateCmd = &cobra.Command{
	Use:   "validate <dataset.json>",
	Short: "Validate a lesson dataset against the content schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		matcher, err := filterexpr.Compile(viper.GetString(validateFilterKey), validateFindingSchema)
		if err != nil {
			return fmt.Errorf("parse filter: %w", err)
		}

		validator := validation.NewValidator()
		result := validator.ValidateDataset(ds)

		for _, e := range result.Errors {
			if !matcher.Match(map[string]any{"type": e.Type, "path": e.Path}) {
				continue
			}
			cmd.Printf("error [%s] %s: %s\n", e.Type, e.Path, e.Message)
		}
		for _, w := range result.Warnings {
			if !matcher.Match(map[string]any{"type": w.Type, "path": w.Path, "severity": string(w.Severity)}) {
				continue
			}
			cmd.Printf("warning [%s/%s] %s: %s\n", w.Severity, w.Type, w.Path, w.Message)
		}

		if viper.GetBool(validateScoresKey) && result.IsValid {
			for i := range ds.Lessons {
				lesson := &ds.Lessons[i]
				score := validation.ComputeQualityScore(lesson, nil, nil)
				cmd.Printf("score %s: %d\n", lesson.ID, score)
			}
		}

		if !result.IsValid {
			return fmt.Errorf("validation failed with %d errors", len(result.Errors))
		}
		cmd.Printf("dataset valid: %d lessons, %d modules, %d warnings\n",
			len(ds.Lessons), len(ds.Modules), len(result.Warnings))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("scores", false, "print the heuristic quality score per lesson")
	validateCmd.Flags().String("filter", "", `finding filter, e.g. type == "prerequisite" && path.startsWith("lessons[")`)

	bindFlagToViper(validateScoresKey, validateCmd.Flags().Lookup("scores"))
	bindFlagToViper(validateFilterKey, validateCmd.Flags().Lookup("filter"))
}
