package storyctl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/marker"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/scene"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/voice"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/promise"
	"gopkg.in/yaml.v3"
)

// document is the input shape shared by every command. Field names follow
// the JSON form of the domain records.
type document struct {
	Events   []event.Event    `json:"events"`
	Promises []promise.Record `json:"promises"`
	Profiles []voice.Profile  `json:"profiles"`
	Scene    *scene.Scene     `json:"scene"`
	Markers  []marker.Spec    `json:"markers"`
	Timing   *marker.Window   `json:"timing"`
}

// loadDocument reads path, or in when path is "-". YAML is decoded
// generically and re-read through the JSON tags so both formats share one
// schema.
func loadDocument(path string, in io.Reader) (document, error) {
	var data []byte
	var err error
	if strings.TrimSpace(path) == "" || path == "-" {
		if in == nil {
			return document{}, fmt.Errorf("no input document")
		}
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return document{}, fmt.Errorf("read document: %w", err)
	}
	return parseDocument(data)
}

func parseDocument(data []byte) (document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return document{}, fmt.Errorf("input document is empty")
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return document{}, fmt.Errorf("parse document: %w", err)
	}
	bridged, err := json.Marshal(generic)
	if err != nil {
		return document{}, fmt.Errorf("parse document: %w", err)
	}
	var doc document
	decoder := json.NewDecoder(bytes.NewReader(bridged))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// sceneWithMarkers returns the document scene with top-level marker specs
// normalized into its beat markers.
func (d document) sceneWithMarkers() (scene.Scene, error) {
	if d.Scene == nil {
		return scene.Scene{}, fmt.Errorf("document has no scene")
	}
	s := *d.Scene
	s.BeatMarkers = append([]marker.Marker{}, s.BeatMarkers...)
	for i, spec := range d.Markers {
		m, err := marker.Normalize(spec)
		if err != nil {
			return scene.Scene{}, fmt.Errorf("markers[%d]: %w", i, err)
		}
		s.BeatMarkers = append(s.BeatMarkers, m)
	}
	return s, nil
}
