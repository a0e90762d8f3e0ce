package scene

import (
	"github.com/ivlev/chat2video/internal/script"
	"github.com/ivlev/chat2video/internal/timeline"
)

// Phase of the video at a given time.
type Phase string

const (
	PhaseIntro        Phase = "intro"
	PhaseConversation Phase = "conversation"
)

// Message is one visible message with its local pop-in animation state.
// Pop values are derived purely from t - AppearTime, so a message animates
// the same way no matter when or in what order frames are requested.
type Message struct {
	Index      int
	AppearTime float64
	PopScale   float64 // 1.0 once settled
	PopOpacity float64 // 1.0 once settled
	PopOffset  float64 // vertical offset in px, 0 once settled
}

// Typing describes the typing-indicator affordance.
type Typing struct {
	Active bool
	Side   script.Side
}

// Scene is everything that must be visible at one moment. It is a pure
// function of (timeline, t): requerying the same t, or querying times out
// of order, yields an identical Scene.
type Scene struct {
	Phase        Phase
	IntroOpacity float64
	IntroScale   float64
	Visible      []Message
	Typing       Typing
	CameraZoomed bool
	OverlayText  string // time-divider caption, empty when none
}

// Evaluator resolves scenes against one computed timeline. It holds no
// mutable state; a single Evaluator may serve any number of queries.
type Evaluator struct {
	Timeline   *timeline.Timeline
	ZoomWindow float64 // camera hold after a zoom-tagged message
	PopIn      float64 // media pop-in animation window
}

// NewEvaluator creates an Evaluator for a timeline.
func NewEvaluator(tl *timeline.Timeline, zoomWindow, popIn float64) *Evaluator {
	return &Evaluator{Timeline: tl, ZoomWindow: zoomWindow, PopIn: popIn}
}

// At computes the scene for time t. Querying t beyond the timeline's total
// duration is not supported.
func (e *Evaluator) At(t float64) Scene {
	intro := e.Timeline.Intro
	if t < intro.Total {
		return e.introScene(t)
	}
	return e.conversationScene(t)
}

// introScene resolves the title-card sub-phases: black before the reveal,
// an eased fade/scale-up, then a hold until the conversation starts.
func (e *Evaluator) introScene(t float64) Scene {
	intro := e.Timeline.Intro
	s := Scene{Phase: PhaseIntro}

	switch {
	case t < intro.DelayBeforeReveal:
		// Still black.
	case t < intro.DelayBeforeReveal+intro.FadeIn:
		p := easeOutCubic((t - intro.DelayBeforeReveal) / intro.FadeIn)
		s.IntroOpacity = p
		s.IntroScale = lerp(0.9, 1.0, p)
	default:
		s.IntroOpacity = 1.0
		s.IntroScale = 1.0
	}
	return s
}

func (e *Evaluator) conversationScene(t float64) Scene {
	s := Scene{Phase: PhaseConversation, IntroOpacity: 0, IntroScale: 1.0}

	for i := range e.Timeline.Entries {
		en := &e.Timeline.Entries[i]

		if t >= en.AppearTime {
			s.Visible = append(s.Visible, e.message(en, t))
		}

		// The narrator's own side never shows a typing affordance, and a
		// divider is not typed by anyone.
		if !s.Typing.Active && !en.Divider && en.Side == script.SideLeft &&
			t >= en.TypingStart && t < en.TypingEnd {
			s.Typing = Typing{Active: true, Side: en.Side}
		}

		if en.Zoom && t >= en.AppearTime && t < en.AppearTime+e.ZoomWindow {
			s.CameraZoomed = true
		}

		if en.Divider && t >= en.TypingStart && t < en.AppearTime {
			s.OverlayText = en.Label
		}
	}
	return s
}

// message computes the local pop-in state of a visible message.
func (e *Evaluator) message(en *timeline.Entry, t float64) Message {
	m := Message{
		Index:      en.Index,
		AppearTime: en.AppearTime,
		PopScale:   1.0,
		PopOpacity: 1.0,
	}
	if !en.Media || e.PopIn <= 0 {
		return m
	}

	age := t - en.AppearTime
	if age >= e.PopIn {
		return m
	}

	p := easeOutCubic(age / e.PopIn)
	m.PopScale = lerp(0.85, 1.0, p)
	m.PopOpacity = p
	m.PopOffset = lerp(24, 0, p)
	return m
}
