package storyctl

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/canon"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/continuity"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/knowledge"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/promise"
	"github.com/spf13/cobra"
)

func newContinuityCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "continuity",
		Short: "Check dependencies, cycles and timestamp order of the document events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.document(cmd)
			if err != nil {
				return err
			}
			report := continuity.CheckContinuity(doc.Events)
			return ctx.finish(cmd, report.Empty(), report, func(w io.Writer) {
				writeVerdict(w, "continuity", report.Empty())
				renderContinuity(w, report)
			})
		},
	}
}

func renderContinuity(w io.Writer, report continuity.Report) {
	rows := [][]string{}
	for _, issue := range report.DependencyIssues {
		rows = append(rows, []string{"missing_dependency", issue.EventID, strings.Join(issue.MissingDependencies, ", ")})
	}
	for _, issue := range report.CycleIssues {
		start := ""
		if len(issue.Path) > 0 {
			start = issue.Path[0]
		}
		rows = append(rows, []string{"cycle", start, strings.Join(issue.Path, " -> ")})
	}
	for _, issue := range report.TimestampIssues {
		rows = append(rows, []string{"timestamp_order", issue.EventID, fmt.Sprintf("depends on %s at %s, after %s",
			issue.DependencyID, formatTime(issue.DependencyTimestamp), formatTime(issue.EventTimestamp))})
	}
	renderTable(w, "Continuity issues", []string{"Kind", "Event", "Detail"}, rows, nil)
}

func newKnowledgeCommand(ctx *commandContext) *cobra.Command {
	var character string
	var at string

	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Derive who knows what from the document events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.document(cmd)
			if err != nil {
				return err
			}
			result := knowledge.Derive(doc.Events)
			if character != "" {
				if at != "" {
					cutoff, err := time.Parse(time.RFC3339Nano, at)
					if err != nil {
						return fmt.Errorf("parse --at: %w", err)
					}
					result.Knowledge = knowledge.KnownBy(result, character, cutoff)
				} else {
					result.Knowledge = knownByCharacter(result.Knowledge, character)
				}
			} else if at != "" {
				return fmt.Errorf("--at requires --character")
			}
			passed := len(result.Issues) == 0
			return ctx.finish(cmd, passed, result, func(w io.Writer) {
				writeVerdict(w, "knowledge", passed)
				renderKnowledge(w, result)
			})
		},
	}

	cmd.Flags().StringVar(&character, "character", "", "Only show knowledge held by this character")
	cmd.Flags().StringVar(&at, "at", "", "Only show knowledge learned at or before this RFC3339 time")
	return cmd
}

func knownByCharacter(states []knowledge.State, character string) []knowledge.State {
	filtered := []knowledge.State{}
	for _, state := range states {
		if state.CharacterID == character {
			filtered = append(filtered, state)
		}
	}
	return filtered
}

func renderKnowledge(w io.Writer, result knowledge.Result) {
	rows := make([][]string, 0, len(result.Knowledge))
	for _, state := range result.Knowledge {
		rows = append(rows, []string{state.CharacterID, state.EventID, formatTime(state.LearnedAt), string(state.Certainty), string(state.Source)})
	}
	renderTable(w, "Knowledge", []string{"Character", "Event", "Learned at", "Certainty", "Source"}, rows, nil)
	renderKnowledgeIssues(w, "Knowledge issues", result.Issues)
}

func renderKnowledgeIssues(w io.Writer, title string, issues []knowledge.Issue) {
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{issue.Kind, issue.CharacterID, issue.EventID, formatTime(issue.LearnedAt), formatTime(issue.EventTimestamp)})
	}
	renderTable(w, title, []string{"Kind", "Character", "Event", "Learned at", "Event time"}, rows, nil)
}

func newGateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "gate",
		Short: "Run the canon gate over the document events and promises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.document(cmd)
			if err != nil {
				return err
			}
			report := canon.Validate(doc.Events, doc.Promises)
			return ctx.finish(cmd, report.Passed, report, func(w io.Writer) {
				renderGate(w, report)
			})
		},
	}
}

func renderGate(w io.Writer, report canon.GateReport) {
	writeVerdict(w, "canon gate", report.Passed)
	renderContinuity(w, report.Continuity)
	renderPromiseIssues(w, report.PromiseIssues)
	renderKnowledgeIssues(w, "Listener cognition issues", report.ListenerCognition)
}

func renderPromiseIssues(w io.Writer, issues []promise.Issue) {
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{issue.Kind, issue.PromiseID, issue.Message})
	}
	renderTable(w, "Promise issues", []string{"Kind", "Promise", "Message"}, rows, nil)
}
