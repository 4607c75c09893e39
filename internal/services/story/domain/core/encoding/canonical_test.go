package encoding

import (
	"testing"
)

func TestCanonicalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "simple object sorted keys",
			input: map[string]any{"z": 1, "a": 2, "m": 3},
			want:  `{"a":2,"m":3,"z":1}`,
		},
		{
			name:  "nested object sorted keys",
			input: map[string]any{"b": map[string]any{"d": 1, "c": 2}, "a": 3},
			want:  `{"a":3,"b":{"c":2,"d":1}}`,
		},
		{
			name:  "array preserved order",
			input: []any{3, 1, 2},
			want:  `[3,1,2]`,
		},
		{
			name:  "mixed types",
			input: map[string]any{"str": "hello", "num": 42, "bool": true, "null": nil},
			want:  `{"bool":true,"null":null,"num":42,"str":"hello"}`,
		},
		{
			name:  "html not escaped",
			input: map[string]any{"note": "<pause> & breathe"},
			want:  `{"note":"<pause> & breathe"}`,
		},
		{
			name:  "large integers keep precision",
			input: map[string]any{"offsetMs": int64(9007199254740993)},
			want:  `{"offsetMs":9007199254740993}`,
		},
		{
			name: "struct uses json tags",
			input: struct {
				SceneID string `json:"sceneId"`
				Title   string `json:"title"`
			}{SceneID: "scene-1", Title: "Arrival"},
			want: `{"sceneId":"scene-1","title":"Arrival"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalJSON(tt.input)
			if err != nil {
				t.Fatalf("CanonicalJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("CanonicalJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanonicalJSONNormalizesUnicode(t *testing.T) {
	composed := map[string]any{"script": "caf\u00e9"}
	decomposed := map[string]any{"script": "cafe\u0301"}

	first, err := CanonicalJSON(composed)
	if err != nil {
		t.Fatalf("canonical composed: %v", err)
	}
	second, err := CanonicalJSON(decomposed)
	if err != nil {
		t.Fatalf("canonical decomposed: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected NFC-equal output, got %s and %s", first, second)
	}
}

func TestCanonicalJSONRejectsUnsupportedValues(t *testing.T) {
	if _, err := CanonicalJSON(map[string]any{"fn": func() {}}); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestFingerprintIsDeterministic(t *testing.T) {
	a := map[string]any{"sceneId": "s-1", "tracks": []any{"t-1", "t-2"}}
	b := map[string]any{"tracks": []any{"t-1", "t-2"}, "sceneId": "s-1"}

	first, err := Fingerprint(a)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	second, err := Fingerprint(b)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if first != second {
		t.Fatalf("fingerprint mismatch: %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("fingerprint length = %d, want 64", len(first))
	}
}

func TestContentHashTruncatesFingerprint(t *testing.T) {
	value := map[string]any{"type": "pause", "offsetMs": 600}
	full, err := Fingerprint(value)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	short, err := ContentHash(value)
	if err != nil {
		t.Fatalf("content hash: %v", err)
	}
	if len(short) != 32 {
		t.Fatalf("content hash length = %d, want 32", len(short))
	}
	if full[:32] != short {
		t.Fatalf("content hash %s is not a prefix of %s", short, full)
	}
}
