package storyctl

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/marker"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/packet"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/voice"
	"github.com/spf13/cobra"
)

func newMarkersCommand(ctx *commandContext) *cobra.Command {
	var enforce bool

	cmd := &cobra.Command{
		Use:   "markers",
		Short: "Author the document beat markers and list every conflict resolution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.document(cmd)
			if err != nil {
				return err
			}
			gap := ctx.minGapMs
			result := marker.Author(doc.Markers, marker.Options{
				Timing:             doc.Timing,
				EnforceWithinScene: enforce,
				MinGapMs:           &gap,
			})
			return ctx.finish(cmd, true, result, func(w io.Writer) {
				renderMarkers(w, "Authored markers", result.Ordered)
				renderConflicts(w, result.Conflicts)
			})
		},
	}

	cmd.Flags().BoolVar(&enforce, "enforce-within-scene", false, "Keep markers inside the document timing window")
	return cmd
}

func renderMarkers(w io.Writer, title string, markers []marker.Marker) {
	rows := make([][]string, 0, len(markers))
	for _, m := range markers {
		rows = append(rows, []string{
			m.ID,
			string(m.Type),
			string(m.Channel),
			formatMs(m.OffsetMs),
			formatMs(m.DurationMs),
			strconv.Itoa(m.Priority),
			strconv.FormatFloat(m.Intensity, 'f', 2, 64),
		})
	}
	renderTable(w, title,
		[]string{"ID", "Type", "Channel", "Offset ms", "Duration ms", "Priority", "Intensity"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight})
}

func renderConflicts(w io.Writer, conflicts []marker.Conflict) {
	rows := make([][]string, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, []string{
			string(c.Kind),
			c.MarkerID,
			c.OtherID,
			fmt.Sprintf("%d+%d", c.FromOffsetMs, c.FromDurationMs),
			fmt.Sprintf("%d+%d", c.ToOffsetMs, c.ToDurationMs),
			c.Reason,
		})
	}
	renderTable(w, "Marker conflicts", []string{"Kind", "Marker", "Other", "From", "To", "Reason"}, rows, nil)
}

func newSceneCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Validate and package audio scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSceneValidateCommand(ctx))
	cmd.AddCommand(newScenePacketCommand(ctx))
	return cmd
}

func newSceneValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the document scene against its voice profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.document(cmd)
			if err != nil {
				return err
			}
			s, err := doc.sceneWithMarkers()
			if err != nil {
				return err
			}
			gap := ctx.minGapMs
			report := packet.ValidateAudioScene(s, doc.Profiles, packet.Options{MinGapMs: &gap})
			return ctx.finish(cmd, report.Passed, report, func(w io.Writer) {
				renderSceneReport(w, report)
			})
		},
	}
}

func renderSceneReport(w io.Writer, report packet.SceneReport) {
	writeVerdict(w, "scene", report.Passed)
	issueRows := make([][]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		issueRows = append(issueRows, []string{issue})
	}
	renderTable(w, "Scene issues", []string{"Issue"}, issueRows, nil)
	renderVoiceIssues(w, report.VoiceProfileIssues)

	cognitionRows := make([][]string, 0, len(report.CognitionReport.Issues))
	for i, issue := range report.CognitionReport.Issues {
		recommendation := ""
		if i < len(report.CognitionReport.Recommendations) {
			recommendation = report.CognitionReport.Recommendations[i]
		}
		cognitionRows = append(cognitionRows, []string{issue, recommendation})
	}
	fmt.Fprintf(w, "listener cognition score: %.2f\n", report.CognitionReport.Score)
	renderTable(w, "Listener cognition", []string{"Issue", "Recommendation"}, cognitionRows, nil)
	renderMarkers(w, "Authored markers", report.AuthoredMarkers)
	renderConflicts(w, report.BeatMarkerConflicts)
}

func renderVoiceIssues(w io.Writer, issues []voice.Issue) {
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{issue.Kind, issue.TrackID, issue.SpeakerID, issue.Message})
	}
	renderTable(w, "Voice profile issues", []string{"Kind", "Track", "Speaker", "Message"}, rows, nil)
}

func newScenePacketCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "packet",
		Short: "Generate the recording packet for the document scene",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.document(cmd)
			if err != nil {
				return err
			}
			s, err := doc.sceneWithMarkers()
			if err != nil {
				return err
			}
			gap := ctx.minGapMs
			p, err := packet.Generate(s, doc.Profiles, packet.Options{Now: time.Now, MinGapMs: &gap})
			var validationErr *packet.ValidationError
			if errors.As(err, &validationErr) {
				return ctx.finish(cmd, false, validationErr.Report, func(w io.Writer) {
					renderSceneReport(w, validationErr.Report)
				})
			}
			if err != nil {
				return err
			}
			return ctx.finish(cmd, true, p, func(w io.Writer) {
				renderPacket(w, p)
			})
		},
	}
}

func renderPacket(w io.Writer, p packet.Packet) {
	fmt.Fprintf(w, "packet %s for scene %s\n", p.PacketID, p.SceneID)
	fmt.Fprintf(w, "fingerprint: %s\n", p.Fingerprint)
	rows := make([][]string, 0, len(p.Tracks))
	for _, track := range p.Tracks {
		rows = append(rows, []string{track.TrackID, track.SpeakerLabel, string(track.Type), track.VoiceProfileID, track.Tone, track.Pace, strconv.Itoa(track.CadenceWpm)})
	}
	renderTable(w, "Tracks",
		[]string{"Track", "Speaker", "Type", "Voice profile", "Tone", "Pace", "WPM"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight})
	noteRows := make([][]string, 0, len(p.Context.SpeakerNotes))
	for _, note := range p.Context.SpeakerNotes {
		noteRows = append(noteRows, []string{note})
	}
	renderTable(w, "Speaker notes", []string{"Note"}, noteRows, nil)
	renderMarkers(w, "Beat markers", p.Context.BeatMarkers)
}
