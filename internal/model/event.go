package model

import (
	"fmt"
	"strings"
)

// ScriptKind tells where the classified script code came from.
type ScriptKind int

const (
	// ScriptRemote is a <script src="..."> reference.
	ScriptRemote ScriptKind = iota

	// ScriptInline is script text embedded in the page, or a fetched
	// resource without any <script> element that is scanned as a whole.
	ScriptInline
)

// String returns the lower-case name of the kind.
func (k ScriptKind) String() string {
	switch k {
	case ScriptRemote:
		return "remote"
	case ScriptInline:
		return "inline"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so kinds appear as
// "remote" and "inline" in JSON reports.
func (k ScriptKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ScriptKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "remote":
		*k = ScriptRemote
	case "inline":
		*k = ScriptInline
	default:
		return fmt.Errorf("unknown script kind %q", string(text))
	}
	return nil
}

// ClassificationEvent is the verdict for a single script found while crawling.
// Events are handed to a sink as soon as they are produced; the crawl engine
// does not keep them.
type ClassificationEvent struct {
	// SourceURL is the page on which the script was found.
	SourceURL string `json:"source_url"`

	// ScriptLocator identifies the script. For remote scripts it is the
	// resolved absolute src URL. For inline scripts it is the page URL
	// followed by "#script-N" (N counts from 1 in document order). For a
	// page without any <script> element it is the page URL itself.
	ScriptLocator string `json:"script_locator"`

	// Kind is remote or inline.
	Kind ScriptKind `json:"kind"`

	// Matched reports whether the script is related to a known mining domain.
	Matched bool `json:"matched"`

	// Signatures lists the signature domains that matched, sorted.
	// Empty when Matched is false.
	Signatures []string `json:"signatures,omitempty"`

	// Depth is the depth of the page on which the script was found.
	Depth int `json:"depth"`
}
