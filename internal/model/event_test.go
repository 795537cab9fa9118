package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestScriptKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind ScriptKind
		want string
	}{
		{ScriptRemote, "remote"},
		{ScriptInline, "inline"},
		{ScriptKind(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScriptKindJSON(t *testing.T) {
	t.Parallel()

	t.Run("kind is encoded as text", func(t *testing.T) {
		t.Parallel()

		ev := ClassificationEvent{
			SourceURL:     "http://a.example/",
			ScriptLocator: "https://evil-miner.com/x.js",
			Kind:          ScriptRemote,
			Matched:       true,
			Signatures:    []string{"evil-miner.com"},
			Depth:         1,
		}
		data, err := json.Marshal(ev)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
		if !strings.Contains(string(data), `"kind":"remote"`) {
			t.Errorf("expected kind as text, got %s", data)
		}
	})

	t.Run("kind is decoded from text", func(t *testing.T) {
		t.Parallel()

		var ev ClassificationEvent
		if err := json.Unmarshal([]byte(`{"kind":"INLINE"}`), &ev); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if ev.Kind != ScriptInline {
			t.Errorf("expected inline, got %v", ev.Kind)
		}
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		t.Parallel()

		var ev ClassificationEvent
		if err := json.Unmarshal([]byte(`{"kind":"wasm"}`), &ev); err == nil {
			t.Error("expected error for unknown kind")
		}
	})
}
