package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	analysis "github.com/zhouzirui/luma/backend/internal/analysis/emotion"
)

type resolution struct {
	Text string `json:"text"`
	analysis.Result
}

func newResolveCmd(opts *options) *cobra.Command {
	var (
		asJSON    bool
		last      string
		candidate string
	)

	cmd := &cobra.Command{
		Use:   "resolve [text]",
		Short: "Run prediction plus override rules, carrying context between lines",
		Long: `resolve treats every input line as the next message of one conversation.
With --candidate the classifier is skipped and only the override rules run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.overrideConfig()
			if err != nil {
				return err
			}

			ctxLabel, ok := analysis.ParseLabel(last)
			if !ok {
				return fmt.Errorf("invalid --last value %q (want one of %s)", last, labelList())
			}

			var detect func(text string, last analysis.Label) analysis.Result
			if cmd.Flags().Changed("candidate") {
				fixed, _ := analysis.ParseLabel(candidate)
				overrider := analysis.NewOverrider(cfg)
				detect = func(text string, last analysis.Label) analysis.Result {
					emotion, next := overrider.Resolve(text, fixed, last)
					return analysis.Result{Candidate: fixed, Emotion: emotion, LastEmotion: next}
				}
			} else {
				clf, err := opts.classifier()
				if err != nil {
					return err
				}
				detect = analysis.NewDetector(clf, cfg).Detect
			}

			return eachLine(cmd, args, func(text string) error {
				res := detect(text, ctxLabel)
				ctxLabel = res.LastEmotion

				if asJSON {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(resolution{Text: text, Result: res})
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\t(last=%s)\t%s\n",
					res.Candidate, res.Emotion, displayLabel(res.LastEmotion), text)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit one JSON object per line")
	cmd.Flags().StringVar(&last, "last", "", "initial context emotion: "+labelList())
	cmd.Flags().StringVar(&candidate, "candidate", "", "use this label instead of running the classifier")
	return cmd
}

func labelList() string {
	labels := analysis.Labels()
	names := make([]string, 0, len(labels)+1)
	for _, l := range labels {
		names = append(names, string(l))
	}
	names = append(names, string(analysis.Unknown))
	return strings.Join(names, ", ")
}

func displayLabel(l analysis.Label) string {
	if l == analysis.None {
		return "-"
	}
	return string(l)
}
