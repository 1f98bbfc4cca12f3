package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	analysis "github.com/zhouzirui/luma/backend/internal/analysis/emotion"
)

type prediction struct {
	Text   string             `json:"text"`
	Class  analysis.ClassID   `json:"class"`
	Label  analysis.Label     `json:"label"`
	Scores map[string]float64 `json:"scores,omitempty"`
}

func newPredictCmd(opts *options) *cobra.Command {
	var (
		asJSON     bool
		showScores bool
	)

	cmd := &cobra.Command{
		Use:   "predict [text]",
		Short: "Print the raw classifier label for each input line",
		RunE: func(cmd *cobra.Command, args []string) error {
			clf, err := opts.classifier()
			if err != nil {
				return err
			}

			return eachLine(cmd, args, func(text string) error {
				p := prediction{Text: text, Class: clf.Predict(text)}
				p.Label = analysis.LabelForClass(p.Class)
				if showScores {
					if scores, ok := clf.Scores(text); ok {
						p.Scores = make(map[string]float64, len(scores))
						for i, class := range clf.Classes() {
							p.Scores[string(analysis.LabelForClass(class))] = scores[i]
						}
					}
				}

				if asJSON {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(p)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Label, text)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit one JSON object per line")
	cmd.Flags().BoolVar(&showScores, "scores", false, "include per-class decision scores (JSON only)")
	return cmd
}

// eachLine feeds the joined args, or every non-empty stdin line, to fn.
func eachLine(cmd *cobra.Command, args []string, fn func(string) error) error {
	if len(args) > 0 {
		return fn(strings.Join(args, " "))
	}
	return scanLines(cmd.InOrStdin(), fn)
}

func scanLines(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
