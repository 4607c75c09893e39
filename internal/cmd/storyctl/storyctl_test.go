package storyctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/packet"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/knowledge"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/storage/sqlite"
)

const cleanEventsJSON = `{
  "events": [
    {"id": "e1", "timestamp": "2026-01-01T08:00:00Z", "type": "scene", "participants": ["mara"],
     "description": "Mara reaches dock nine", "canonStatus": "proposed",
     "knowledgeEffects": [{"characterId": "mara", "certainty": "known", "source": "witnessed"}]},
    {"id": "e2", "timestamp": "2026-01-01T09:00:00Z", "type": "reveal", "participants": ["mara", "ilo"],
     "description": "Ilo admits the sabotage", "dependencies": ["e1"], "canonStatus": "proposed",
     "knowledgeEffects": [{"characterId": "ilo", "certainty": "known", "source": "told"},
                          {"characterId": "mara", "certainty": "suspected", "source": "inferred"}]}
  ]
}`

const sceneYAML = `
scene:
  id: scene-1
  title: Dock Nine
  summary: Mara finds the relay sabotaged.
  timing:
    startMs: 0
    endMs: 30000
  tracks:
    - id: t-1
      speakerId: narrator
      type: narrator
      voiceProfileId: vp-narrator
      script: The dock was silent.
    - id: t-2
      speakerId: mara
      speakerLabel: Mara
      type: character
      voiceProfileId: vp-mara
      script: Someone cut it.
markers:
  - id: bm-1
    type: pause
    offsetMs: 600
    priority: 0
  - id: bm-2
    type: pause
    offsetMs: 600
    priority: -1
profiles:
  - id: vp-narrator
    speakerId: narrator
    displayName: Narrator
    role: narrator
    tone: warm
    pace: measured
    cadenceWpm: 150
    styleTags: [documentary]
  - id: vp-mara
    speakerId: mara
    displayName: Mara Quell
    role: character
    tone: clipped
    pace: quick
    cadenceWpm: 180
    styleTags: [tense]
`

func runStoryctl(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), Config{DBPath: filepath.Join(t.TempDir(), "missing.db"), MinGapMs: 200},
		args, strings.NewReader(input), &stdout, &stderr)
	return stdout.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}

func TestContinuityPasses(t *testing.T) {
	out, err := runStoryctl(t, cleanEventsJSON, "continuity")
	if err != nil {
		t.Fatalf("continuity: %v", err)
	}
	requireContains(t, out, "continuity: PASSED")
	requireContains(t, out, "Continuity issues: none")
}

func TestContinuityReportsMissingDependency(t *testing.T) {
	input := `
events:
  - id: e1
    timestamp: 2026-01-01T08:00:00Z
    type: scene
    participants: [mara]
    description: Mara waits
    dependencies: [ghost]
    canonStatus: draft
`
	out, err := runStoryctl(t, input, "continuity")
	if !errors.Is(err, ErrCheckFailed) {
		t.Fatalf("err = %v, want ErrCheckFailed", err)
	}
	requireContains(t, out, "continuity: FAILED")
	requireContains(t, out, "missing_dependency")
	requireContains(t, out, "ghost")
}

func TestKnowledgeFiltersByCharacterAsJSON(t *testing.T) {
	out, err := runStoryctl(t, cleanEventsJSON, "knowledge", "--character", "mara", "--json")
	if err != nil {
		t.Fatalf("knowledge: %v", err)
	}
	var result knowledge.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(result.Knowledge) != 2 {
		t.Fatalf("knowledge = %+v, want 2 states for mara", result.Knowledge)
	}
	for _, state := range result.Knowledge {
		if state.CharacterID != "mara" {
			t.Fatalf("character = %q, want mara", state.CharacterID)
		}
	}
}

func TestKnowledgeCutoff(t *testing.T) {
	out, err := runStoryctl(t, cleanEventsJSON, "knowledge", "--character", "mara", "--at", "2026-01-01T08:30:00Z", "--json")
	if err != nil {
		t.Fatalf("knowledge: %v", err)
	}
	var result knowledge.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(result.Knowledge) != 1 || result.Knowledge[0].EventID != "e1" {
		t.Fatalf("knowledge = %+v, want only e1", result.Knowledge)
	}
}

func TestKnowledgeAtRequiresCharacter(t *testing.T) {
	_, err := runStoryctl(t, cleanEventsJSON, "knowledge", "--at", "2026-01-01T08:30:00Z")
	if err == nil || errors.Is(err, ErrCheckFailed) {
		t.Fatalf("err = %v, want usage error", err)
	}
}

func TestGateReportsPromiseIssue(t *testing.T) {
	input := strings.Replace(cleanEventsJSON, `"events"`, `"promises": [
    {"id": "p1", "type": "mystery", "establishedIn": "e1", "description": "Who cut the relay", "status": "fulfilled"}
  ],
  "events"`, 1)
	out, err := runStoryctl(t, input, "gate")
	if !errors.Is(err, ErrCheckFailed) {
		t.Fatalf("err = %v, want ErrCheckFailed", err)
	}
	requireContains(t, out, "canon gate: FAILED")
	requireContains(t, out, "fulfilled_missing_event")
}

func TestGatePasses(t *testing.T) {
	out, err := runStoryctl(t, cleanEventsJSON, "gate")
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	requireContains(t, out, "canon gate: PASSED")
}

func TestMarkersListsConflicts(t *testing.T) {
	out, err := runStoryctl(t, sceneYAML, "markers")
	if err != nil {
		t.Fatalf("markers: %v", err)
	}
	requireContains(t, out, "bm-1")
	requireContains(t, out, "shift_current")
}

func TestSceneValidatePasses(t *testing.T) {
	out, err := runStoryctl(t, sceneYAML, "scene", "validate")
	if err != nil {
		t.Fatalf("scene validate: %v\n%s", err, out)
	}
	requireContains(t, out, "scene: PASSED")
	requireContains(t, out, "listener cognition score:")
}

func TestScenePacketAsJSON(t *testing.T) {
	out, err := runStoryctl(t, sceneYAML, "scene", "packet", "--json")
	if err != nil {
		t.Fatalf("scene packet: %v", err)
	}
	var p packet.Packet
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("decode packet: %v", err)
	}
	if !strings.HasPrefix(p.PacketID, "pkt_") {
		t.Fatalf("packet id = %q, want pkt_ prefix", p.PacketID)
	}
	if p.SceneID != "scene-1" || len(p.Tracks) != 2 {
		t.Fatalf("packet = %+v, want scene-1 with 2 tracks", p)
	}
}

func TestScenePacketRefusesMissingProfile(t *testing.T) {
	input := strings.Replace(sceneYAML, "voiceProfileId: vp-mara", "voiceProfileId: vp-ghost", 1)
	out, err := runStoryctl(t, input, "scene", "packet")
	if !errors.Is(err, ErrCheckFailed) {
		t.Fatalf("err = %v, want ErrCheckFailed", err)
	}
	requireContains(t, out, "scene: FAILED")
	requireContains(t, out, "missing_profile")
}

func TestSceneCommandsRequireScene(t *testing.T) {
	_, err := runStoryctl(t, cleanEventsJSON, "scene", "validate")
	if err == nil || !strings.Contains(err.Error(), "no scene") {
		t.Fatalf("err = %v, want missing scene error", err)
	}
}

func TestDocumentRejectsUnknownFields(t *testing.T) {
	_, err := runStoryctl(t, "chapters: []\n", "continuity")
	if err == nil || !strings.Contains(err.Error(), "decode document") {
		t.Fatalf("err = %v, want decode error", err)
	}
}

func TestDocumentRejectsEmptyInput(t *testing.T) {
	_, err := runStoryctl(t, "  \n", "gate")
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("err = %v, want empty input error", err)
	}
}

func TestDocumentReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte(cleanEventsJSON), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	out, err := runStoryctl(t, "", "continuity", "-f", path)
	if err != nil {
		t.Fatalf("continuity: %v", err)
	}
	requireContains(t, out, "continuity: PASSED")
}

func TestReportRequiresDatabase(t *testing.T) {
	_, err := runStoryctl(t, "", "report")
	if err == nil || !strings.Contains(err.Error(), "story database") {
		t.Fatalf("err = %v, want missing database error", err)
	}
}

func TestReportOverEmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.db")
	store, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	out, err := runStoryctl(t, "", "report", "--db", path)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	requireContains(t, out, "canon gate: PASSED")
}

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("USS_STORY_DB_PATH", "")
	t.Setenv("USS_BEAT_MIN_GAP_MS", "")
	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/story.db" || cfg.MinGapMs != 200 {
		t.Fatalf("config = %+v, want defaults", cfg)
	}
}

func TestRunReportsThroughTelemetryEntrypoint(t *testing.T) {
	t.Setenv("USS_OTEL_ENDPOINT", "")
	var stdout, stderr bytes.Buffer
	cfg := Config{DBPath: filepath.Join(t.TempDir(), "missing.db"), MinGapMs: 200}

	err := Run(context.Background(), cfg, []string{"continuity"}, strings.NewReader(cleanEventsJSON), &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, stdout.String(), "continuity: PASSED")

	err = Run(context.Background(), cfg, []string{"gate"}, strings.NewReader(`{"events": [{"id": "e1", "timestamp": "2026-01-01T08:00:00Z", "type": "scene", "participants": ["mara"], "description": "x", "dependencies": ["ghost"], "canonStatus": "proposed"}]}`), &stdout, &stderr)
	if !errors.Is(err, ErrCheckFailed) {
		t.Fatalf("err = %v, want %v", err, ErrCheckFailed)
	}
}

func TestRootCommandUsesServiceName(t *testing.T) {
	if got := NewRootCommand(Config{}).Name(); got != "storyctl" {
		t.Fatalf("name = %q, want storyctl", got)
	}
}
