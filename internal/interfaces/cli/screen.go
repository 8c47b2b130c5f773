package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

func newScreenCmd(deps Dependencies) *cobra.Command {
	var (
		product string
		uid     string
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "screen NAME",
		Short: "Screen one candidate trademark and print the report",
		Long: "Runs every conflict check for NAME against the configured index and\n" +
			"model services. Failed checks are reported per check; use --strict to\n" +
			"exit non-zero when any check failed.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Engine == nil {
				return errors.New(errors.ErrCodeServiceUnavailable, "screening engine is not available")
			}
			cc, ctx, cancel, err := requireCLIContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			candidate, err := trademark.NewCandidate(strings.Join(args, " "), product, uid)
			if err != nil {
				return err
			}

			engine, recorder, cleanup, err := deps.Engine(cc)
			if err != nil {
				return fmt.Errorf("failed to build screening engine: %w", err)
			}
			defer cleanup()

			report, err := engine.Screen(ctx, candidate)
			if err != nil {
				return err
			}
			if recorder != nil {
				recorder.RecordReport(prometheus.TriggerCLI)
			}

			if err := PrintResult(cmd, reportView{report}); err != nil {
				return err
			}
			if failed := report.Results.Failures(); strict && len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(trademark.AllChecks))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&product, "product", "p", "", "product category of the candidate")
	cmd.Flags().StringVar(&uid, "uid", "", "requester id recorded on the report")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any check failed")
	return cmd
}

// reportView prints a report as JSON or as one table row per check. The
// embedded pointer keeps the JSON form identical to the API's.
type reportView struct {
	*trademark.Report
}

func (v reportView) String() string {
	return fmt.Sprintf("%s (%s): %d checks failed", v.Name, v.ID, len(v.Results.Failures()))
}

func (v reportView) TableHeaders() []string {
	return []string{"CHECK", "STATUS", "DETAIL"}
}

func (v reportView) TableRows() [][]string {
	r := v.Results
	failures := r.Failures()
	rows := make([][]string, 0, len(trademark.AllChecks))
	for _, check := range trademark.AllChecks {
		if err, ok := failures[check]; ok {
			rows = append(rows, []string{string(check), "error", string(err.Code) + " " + err.Message})
			continue
		}
		rows = append(rows, []string{string(check), "ok", checkDetail(r, check)})
	}
	return rows
}

func checkDetail(r trademark.Results, check trademark.CheckName) string {
	switch check {
	case trademark.CheckSameName:
		v, _ := r.SameName.Value()
		if v.IsConflict {
			return "conflict: " + v.MatchedTitle
		}
		return "no identical mark"
	case trademark.CheckSimilarName:
		v, _ := r.SimilarNames.Value()
		return fmt.Sprintf("%d similar marks", len(v.Matches))
	case trademark.CheckSimilarPronun:
		v, _ := r.SimilarPronun.Value()
		if len(v.Ranked) == 0 {
			return "no similar pronunciation"
		}
		top := v.Ranked[0]
		return fmt.Sprintf("%d hits, top %s (%.3f)", len(v.Ranked), top.DisplayTitle(), top.Score)
	case trademark.CheckTokenize:
		v, _ := r.Tokens.Value()
		return strings.Join(v.Tokens, " ")
	case trademark.CheckAcceptability:
		v, _ := r.Acceptability.Value()
		if !v.AnyNegative {
			return "acceptable"
		}
		names := make([]string, len(v.NegativeTokens))
		for i, t := range v.NegativeTokens {
			names[i] = t.Token
		}
		return "negative: " + strings.Join(names, ", ")
	case trademark.CheckDistinctiveness:
		v, _ := r.Distinctiveness.Value()
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
	return ""
}
