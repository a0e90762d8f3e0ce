package script

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleScript = `
title: "She never replied"
theme: suspense
intro_text: "The last message he ever sent"
narration: narration.mp3
characters:
  maya:
    side: left
    name: Maya
  narrator:
    side: right
    name: Me
dialogue:
  - sender: maya
    text: "hey, you up?"
  - sender: narrator
    text: "yeah, what's wrong?"
    reaction_delay: 2.0
  - sender: time_divider
    text: "3 hours later"
  - sender: maya
    media: photo_01.png
    camera_effect: zoom
`

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	s, err := Load(writeScript(t, sampleScript))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Title != "She never replied" || s.Theme != "suspense" {
		t.Errorf("header mismatch: %+v", s)
	}
	if len(s.Events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(s.Events))
	}

	if s.Events[1].ReactionDelay == nil || *s.Events[1].ReactionDelay != 2.0 {
		t.Errorf("explicit reaction delay lost: %+v", s.Events[1])
	}
	if !s.Events[2].IsDivider() {
		t.Error("expected a time divider")
	}
	if !s.Events[3].IsMedia() || s.Events[3].CameraEffect != "zoom" {
		t.Errorf("media event mismatch: %+v", s.Events[3])
	}

	if s.SenderSide("maya") != SideLeft || s.SenderSide("narrator") != SideRight {
		t.Error("roster sides resolved incorrectly")
	}
	if s.SenderSide("nobody") != SideLeft {
		t.Error("unknown senders default to the partner side")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		s    Script
	}{
		{"no title", Script{Roster: map[string]Character{"a": {Side: SideLeft}}}},
		{"no characters", Script{Title: "t"}},
		{"bad side", Script{Title: "t", Roster: map[string]Character{"a": {Side: "middle"}}}},
		{"unknown sender", Script{
			Title:  "t",
			Roster: map[string]Character{"a": {Side: SideLeft}},
			Events: []Event{{Sender: "b", Text: "hi"}},
		}},
		{"empty event", Script{
			Title:  "t",
			Roster: map[string]Character{"a": {Side: SideLeft}},
			Events: []Event{{Sender: "a"}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.s.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestEventLength(t *testing.T) {
	e := Event{Text: "привет"}
	if e.Length() != 6 {
		t.Errorf("length must count runes, got %d", e.Length())
	}
}
