package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mini-lms/internal/app"
	"mini-lms/internal/domain"
)

// NewQuizCmd groups offline tools for quiz definition files.
func NewQuizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Validate and grade quiz definition files",
	}
	cmd.AddCommand(newQuizValidateCmd(), newQuizEvaluateCmd())
	return cmd
}

func newQuizValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a quiz definition before upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			def, err := app.ValidateDefinition(raw)
			if err != nil {
				var verr *domain.ValidationError
				if errors.As(err, &verr) {
					for _, f := range verr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", f.Field, f.Error)
					}
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d questions, passing score %d\n", len(def.Questions), def.PassingScore)
			return nil
		},
	}
}

func newQuizEvaluateCmd() *cobra.Command {
	var answers string
	cmd := &cobra.Command{
		Use:   "evaluate FILE",
		Short: "Grade answers against a quiz definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			def, ok := app.ParseDefinition(raw)
			if !ok {
				return fmt.Errorf("%s is not a quiz definition", args[0])
			}
			result := app.Grade(def, splitAnswers(answers))
			return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
		},
	}
	cmd.Flags().StringVar(&answers, "answers", "", "comma separated choice per question, e.g. 1,0,2 (blank skips a question)")
	return cmd
}

// splitAnswers turns "1,,2" into {0: "1", 2: "2"}.
func splitAnswers(raw string) domain.Answers {
	out := domain.Answers{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	for i, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out[i] = part
	}
	return out
}
