package timeline

import (
	"github.com/ivlev/chat2video/internal/script"
)

// Entry is the derived schedule of one dialogue event.
//
// TypingStart/TypingEnd bound the typing-indicator window; AppearTime is
// the moment the message becomes visible. The gap between TypingEnd and
// AppearTime models silent perceived latency between "stopped typing"
// and "message delivered".
type Entry struct {
	Index       int         `yaml:"index"`
	TypingStart float64     `yaml:"typing_start"`
	TypingEnd   float64     `yaml:"typing_end"`
	AppearTime  float64     `yaml:"appear_time"`
	Side        script.Side `yaml:"side"`
	Divider     bool        `yaml:"divider,omitempty"`
	Media       bool        `yaml:"media,omitempty"`
	Zoom        bool        `yaml:"zoom,omitempty"`
	Label       string      `yaml:"label,omitempty"` // divider caption, empty otherwise
}

// IntroTiming describes the title-card segment preceding the conversation.
// Total is always DelayBeforeReveal + Narration + HoldAfter and is positive
// for any valid configuration.
type IntroTiming struct {
	DelayBeforeReveal float64 `yaml:"delay_before_reveal"`
	FadeIn            float64 `yaml:"fade_in"`
	Narration         float64 `yaml:"narration"`
	HoldAfter         float64 `yaml:"hold_after"`
	Total             float64 `yaml:"total"`
}

// Timeline is the full precomputed schedule for one script. It is derived
// once per run and never mutated afterwards.
type Timeline struct {
	Entries       []Entry     `yaml:"entries"`
	Intro         IntroTiming `yaml:"intro"`
	TotalDuration float64     `yaml:"total_duration"`
}

// LastAppear returns the appear time of the final entry, or the end of the
// intro for an empty conversation.
func (t *Timeline) LastAppear() float64 {
	if len(t.Entries) == 0 {
		return t.Intro.Total
	}
	return t.Entries[len(t.Entries)-1].AppearTime
}
