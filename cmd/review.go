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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/hanguru/internal/app"
	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/repository"
	"github.com/eslsoft/hanguru/internal/usecase/review"
	"github.com/eslsoft/hanguru/pkg/filterexpr"
)

const (
	reviewSubmitDatasetKey   = "review.submit.dataset"
	reviewSubmitLessonKey    = "review.submit.lesson"
	reviewSubmitSubmitterKey = "review.submit.submitter"
	reviewSubmitTypeKey      = "review.submit.type"
	reviewSubmitAssetsKey    = "review.submit.assets"

	reviewFeedbackReviewerKey  = "review.feedback.reviewer"
	reviewFeedbackRecommendKey = "review.feedback.recommend"
	reviewFeedbackScoreKey     = "review.feedback.score"
	reviewFeedbackCommentKey   = "review.feedback.comment"

	reviewListStatusKey    = "review.list.status"
	reviewListSubmitterKey = "review.list.submitter"
	reviewListFilterKey    = "review.list.filter"
)

var reviewListSchema = filterexpr.Schema{
	"status":     {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpIN}},
	"reviewType": {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpIN}},
	"submitter":  {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpSW}},
	"lesson":     {Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpSW}},
	"cycle":      {Kind: filterexpr.KindNumber, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpGTE, filterexpr.OpLTE}},
	"score":      {Kind: filterexpr.KindNumber, Ops: []filterexpr.Op{filterexpr.OpGTE, filterexpr.OpLTE}},
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Drive lesson submissions through the review workflow",
}

var reviewSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a lesson for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := app.Initialize()
		if err != nil {
			return err
		}
		defer cleanup()

		ds, err := loadDataset(viper.GetString(reviewSubmitDatasetKey))
		if err != nil {
			return err
		}
		reviewType, err := entity.ParseReviewType(viper.GetString(reviewSubmitTypeKey))
		if err != nil {
			return err
		}

		sub, err := container.Review.Submit(cmd.Context(), review.SubmitRequest{
			Dataset:     ds,
			LessonID:    viper.GetString(reviewSubmitLessonKey),
			SubmitterID: viper.GetString(reviewSubmitSubmitterKey),
			ReviewType:  reviewType,
			AssetRoot:   viper.GetString(reviewSubmitAssetsKey),
		})
		if err != nil {
			return err
		}

		cmd.Printf("submission %s: %s\n", sub.ID, sub.Status)
		if !sub.Validation.IsValid {
			for _, e := range sub.Validation.Errors {
				cmd.Printf("error [%s] %s: %s\n", e.Type, e.Path, e.Message)
			}
			return fmt.Errorf("submission rejected by automated validation")
		}
		for _, assignment := range sub.Reviewers {
			cmd.Printf("assigned %s reviewer: %s\n", assignment.Type, assignment.ReviewerID)
		}
		return nil
	},
}

var reviewFeedbackCmd = &cobra.Command{
	Use:   "feedback <submission-id>",
	Short: "Record one reviewer's feedback on a submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := app.Initialize()
		if err != nil {
			return err
		}
		defer cleanup()

		feedback := entity.ReviewFeedback{
			Recommendation: entity.Recommendation(viper.GetString(reviewFeedbackRecommendKey)),
		}
		if feedback.Recommendation != entity.RecommendApprove && feedback.Recommendation != entity.RecommendReject {
			return fmt.Errorf("recommendation must be approve or reject")
		}
		if score := viper.GetInt(reviewFeedbackScoreKey); score >= 0 {
			feedback.QualityScore = &score
		}
		comments, err := parseComments(viper.GetStringSlice(reviewFeedbackCommentKey))
		if err != nil {
			return err
		}
		feedback.Comments = comments

		sub, err := container.Review.SubmitFeedback(cmd.Context(), args[0],
			viper.GetString(reviewFeedbackReviewerKey), feedback)
		if err != nil {
			return err
		}
		cmd.Printf("submission %s: %s (cycle %d)\n", sub.ID, sub.Status, sub.ReviewCycle)
		return nil
	},
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := app.Initialize()
		if err != nil {
			return err
		}
		defer cleanup()

		matcher, err := filterexpr.Compile(viper.GetString(reviewListFilterKey), reviewListSchema)
		if err != nil {
			return fmt.Errorf("parse filter: %w", err)
		}

		subs, err := container.Review.List(cmd.Context(), repository.ListSubmissionQuery{
			Status:      entity.SubmissionStatus(viper.GetString(reviewListStatusKey)),
			SubmitterID: viper.GetString(reviewListSubmitterKey),
		})
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if !matcher.Match(submissionRecord(sub)) {
				continue
			}
			score := "-"
			if sub.QualityScore != nil {
				score = fmt.Sprintf("%d", *sub.QualityScore)
			}
			cmd.Printf("%s  %-18s  lesson=%s  cycle=%d  score=%s  submitter=%s\n",
				sub.ID, sub.Status, sub.Lesson.ID, sub.ReviewCycle, score, sub.SubmitterID)
		}
		return nil
	},
}

var reviewShowCmd = &cobra.Command{
	Use:   "show <submission-id>",
	Short: "Print a submission, active or archived, as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := app.Initialize()
		if err != nil {
			return err
		}
		defer cleanup()

		sub, err := container.Review.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(sub, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	},
}

func submissionRecord(sub *entity.Submission) map[string]any {
	record := map[string]any{
		"status":     string(sub.Status),
		"reviewType": string(sub.ReviewType),
		"submitter":  sub.SubmitterID,
		"lesson":     sub.Lesson.ID,
		"cycle":      sub.ReviewCycle,
	}
	if sub.QualityScore != nil {
		record["score"] = *sub.QualityScore
	}
	return record
}

// parseComments decodes severity:text pairs from the CLI, e.g.
// "major:pronunciation guide missing".
func parseComments(raw []string) ([]entity.ReviewComment, error) {
	comments := make([]entity.ReviewComment, 0, len(raw))
	for _, item := range raw {
		severity, text, found := strings.Cut(item, ":")
		if !found || strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("comment %q must use severity:text form", item)
		}
		switch sev := entity.CommentSeverity(strings.TrimSpace(severity)); sev {
		case entity.CommentMinor, entity.CommentMajor, entity.CommentCritical:
			comments = append(comments, entity.ReviewComment{
				Severity: sev,
				Text:     strings.TrimSpace(text),
			})
		default:
			return nil, fmt.Errorf("unknown comment severity %q", severity)
		}
	}
	return comments, nil
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewSubmitCmd, reviewFeedbackCmd, reviewListCmd, reviewShowCmd)

	reviewSubmitCmd.Flags().StringP("dataset", "d", "", "dataset file containing the lesson")
	reviewSubmitCmd.Flags().StringP("lesson", "l", "", "lesson id to submit")
	reviewSubmitCmd.Flags().StringP("submitter", "s", "", "submitter id")
	reviewSubmitCmd.Flags().StringP("type", "t", "standard", "review type: quick, standard or full")
	reviewSubmitCmd.Flags().String("assets", "", "asset root to integrity-check during submission")
	cobra.CheckErr(reviewSubmitCmd.MarkFlagRequired("dataset"))
	cobra.CheckErr(reviewSubmitCmd.MarkFlagRequired("lesson"))
	cobra.CheckErr(reviewSubmitCmd.MarkFlagRequired("submitter"))
	bindFlagToViper(reviewSubmitDatasetKey, reviewSubmitCmd.Flags().Lookup("dataset"))
	bindFlagToViper(reviewSubmitLessonKey, reviewSubmitCmd.Flags().Lookup("lesson"))
	bindFlagToViper(reviewSubmitSubmitterKey, reviewSubmitCmd.Flags().Lookup("submitter"))
	bindFlagToViper(reviewSubmitTypeKey, reviewSubmitCmd.Flags().Lookup("type"))
	bindFlagToViper(reviewSubmitAssetsKey, reviewSubmitCmd.Flags().Lookup("assets"))

	reviewFeedbackCmd.Flags().StringP("reviewer", "r", "", "reviewer id recording feedback")
	reviewFeedbackCmd.Flags().String("recommend", "", "recommendation: approve or reject")
	reviewFeedbackCmd.Flags().Int("score", -1, "quality score 0-100")
	reviewFeedbackCmd.Flags().StringSlice("comment", nil, "comment as severity:text, repeatable")
	cobra.CheckErr(reviewFeedbackCmd.MarkFlagRequired("reviewer"))
	cobra.CheckErr(reviewFeedbackCmd.MarkFlagRequired("recommend"))
	bindFlagToViper(reviewFeedbackReviewerKey, reviewFeedbackCmd.Flags().Lookup("reviewer"))
	bindFlagToViper(reviewFeedbackRecommendKey, reviewFeedbackCmd.Flags().Lookup("recommend"))
	bindFlagToViper(reviewFeedbackScoreKey, reviewFeedbackCmd.Flags().Lookup("score"))
	bindFlagToViper(reviewFeedbackCommentKey, reviewFeedbackCmd.Flags().Lookup("comment"))

	reviewListCmd.Flags().String("status", "", "filter by status")
	reviewListCmd.Flags().String("submitter", "", "filter by submitter id")
	reviewListCmd.Flags().String("filter", "", `expression filter, e.g. status == "in_review" && cycle >= 2`)
	bindFlagToViper(reviewListStatusKey, reviewListCmd.Flags().Lookup("status"))
	bindFlagToViper(reviewListSubmitterKey, reviewListCmd.Flags().Lookup("submitter"))
	bindFlagToViper(reviewListFilterKey, reviewListCmd.Flags().Lookup("filter"))
}
