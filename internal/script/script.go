package script

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SenderTimeDivider is the sentinel sender id for a "N hours later" style
// divider instead of a message.
const SenderTimeDivider = "time_divider"

// Side of the simulated phone screen a character occupies.
type Side string

const (
	SideLeft  Side = "left"  // conversational partner
	SideRight Side = "right" // narrator / self
)

// Character is one entry of the script roster.
type Character struct {
	Side   Side   `yaml:"side" json:"side"`
	Name   string `yaml:"name" json:"name"`
	Avatar string `yaml:"avatar,omitempty" json:"avatar,omitempty"`
}

// Event is a single dialogue event: a message, a media attachment or a
// time divider. Explicit delays override the computed pacing model.
type Event struct {
	Sender        string   `yaml:"sender" json:"sender"`
	Text          string   `yaml:"text,omitempty" json:"text,omitempty"`
	Media         string   `yaml:"media,omitempty" json:"media,omitempty"`
	ReactionDelay *float64 `yaml:"reaction_delay,omitempty" json:"reaction_delay,omitempty"`
	TypingDelay   *float64 `yaml:"typing_delay,omitempty" json:"typing_delay,omitempty"`
	CameraEffect  string   `yaml:"camera_effect,omitempty" json:"camera_effect,omitempty"`
}

// IsDivider reports whether the event is a time divider rather than a message.
func (e *Event) IsDivider() bool {
	return e.Sender == SenderTimeDivider
}

// IsMedia reports whether the event carries a media attachment.
func (e *Event) IsMedia() bool {
	return e.Media != ""
}

// Length returns the message length the typing model is based on.
func (e *Event) Length() int {
	return len([]rune(e.Text))
}

// Script is the validated, immutable representation of one conversation.
// It is loaded once per run and never mutated afterwards.
type Script struct {
	Title     string               `yaml:"title" json:"title"`
	Theme     string               `yaml:"theme" json:"theme"`
	IntroText string               `yaml:"intro_text" json:"intro_text"`
	Narration string               `yaml:"narration,omitempty" json:"narration,omitempty"`
	Roster    map[string]Character `yaml:"characters" json:"characters"`
	Events    []Event              `yaml:"dialogue" json:"dialogue"`
}

// SenderSide resolves the screen side of an event's sender. Dividers and
// unknown senders resolve to the partner side, which only matters for the
// typing affordance and is never shown for dividers anyway.
func (s *Script) SenderSide(sender string) Side {
	if c, ok := s.Roster[sender]; ok {
		return c.Side
	}
	return SideLeft
}

// Load reads and validates a script document.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks the minimum the timing computation depends on. Anything
// beyond that is the author's business.
func (s *Script) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("script has no title")
	}
	if len(s.Roster) == 0 {
		return fmt.Errorf("script has no characters")
	}
	for id, c := range s.Roster {
		if c.Side != SideLeft && c.Side != SideRight {
			return fmt.Errorf("character %q: side must be left or right, got %q", id, c.Side)
		}
	}
	for i, e := range s.Events {
		if e.IsDivider() {
			continue
		}
		if _, ok := s.Roster[e.Sender]; !ok {
			return fmt.Errorf("dialogue %d: unknown sender %q", i, e.Sender)
		}
		if e.Text == "" && e.Media == "" {
			return fmt.Errorf("dialogue %d: neither text nor media", i)
		}
	}
	return nil
}
