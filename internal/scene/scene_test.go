package scene

import (
	"math"
	"reflect"
	"testing"

	"github.com/ivlev/chat2video/internal/script"
	"github.com/ivlev/chat2video/internal/timeline"
)

// testTimeline builds a fixed schedule: partner message, self reply, time
// divider, then a zoom-tagged media message.
func testTimeline() *timeline.Timeline {
	return &timeline.Timeline{
		Intro: timeline.IntroTiming{
			DelayBeforeReveal: 0.5,
			FadeIn:            0.8,
			Narration:         2.9,
			HoldAfter:         0.6,
			Total:             4.0,
		},
		Entries: []timeline.Entry{
			{Index: 0, TypingStart: 4.0, TypingEnd: 4.7, AppearTime: 5.0, Side: script.SideLeft},
			{Index: 1, TypingStart: 5.8, TypingEnd: 6.5, AppearTime: 6.8, Side: script.SideRight},
			{Index: 2, TypingStart: 7.6, TypingEnd: 8.9, AppearTime: 9.4, Side: script.SideLeft, Divider: true, Label: "2 hours later"},
			{Index: 3, TypingStart: 10.2, TypingEnd: 10.9, AppearTime: 11.2, Side: script.SideLeft, Media: true, Zoom: true},
		},
		TotalDuration: 13.2,
	}
}

func testEvaluator() *Evaluator {
	return NewEvaluator(testTimeline(), 2.5, 0.35)
}

func TestPhasePartition(t *testing.T) {
	e := testEvaluator()

	for _, tt := range []float64{0, 0.4, 1.0, 3.99} {
		if got := e.At(tt).Phase; got != PhaseIntro {
			t.Errorf("t=%.2f: expected intro, got %s", tt, got)
		}
	}
	for _, tt := range []float64{4.0, 4.01, 9.0, 13.1} {
		if got := e.At(tt).Phase; got != PhaseConversation {
			t.Errorf("t=%.2f: expected conversation, got %s", tt, got)
		}
	}
}

func TestIntroFade(t *testing.T) {
	e := testEvaluator()

	if s := e.At(0.2); s.IntroOpacity != 0 {
		t.Errorf("before reveal delay: expected opacity 0, got %f", s.IntroOpacity)
	}

	// Midpoint of the fade window: cubic ease-out of 0.5.
	s := e.At(0.9)
	wantOpacity := 1 - 0.5*0.5*0.5
	if math.Abs(s.IntroOpacity-wantOpacity) > 1e-9 {
		t.Errorf("mid fade: expected opacity %f, got %f", wantOpacity, s.IntroOpacity)
	}
	wantScale := 0.9 + 0.1*wantOpacity
	if math.Abs(s.IntroScale-wantScale) > 1e-9 {
		t.Errorf("mid fade: expected scale %f, got %f", wantScale, s.IntroScale)
	}

	s = e.At(2.0)
	if s.IntroOpacity != 1.0 || s.IntroScale != 1.0 {
		t.Errorf("after fade: expected fully visible card, got opacity %f scale %f",
			s.IntroOpacity, s.IntroScale)
	}

	if len(s.Visible) != 0 {
		t.Error("conversation content must be suppressed during intro")
	}
}

func TestIdempotence(t *testing.T) {
	e := testEvaluator()

	for _, tt := range []float64{0.9, 4.3, 5.0, 8.0, 11.3, 13.0} {
		a := e.At(tt)
		b := e.At(tt)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("t=%.2f: repeated query differs:\n%+v\n%+v", tt, a, b)
		}
	}

	// Out-of-order queries must not change earlier answers.
	late := e.At(13.0)
	early := e.At(5.0)
	if len(early.Visible) != 1 {
		t.Errorf("after querying t=13 first, t=5 sees %d messages, expected 1", len(early.Visible))
	}
	if len(late.Visible) != 4 {
		t.Errorf("t=13: expected all 4 messages, got %d", len(late.Visible))
	}
}

func TestVisibilityMonotonic(t *testing.T) {
	e := testEvaluator()

	var prev []int
	for tt := 4.0; tt <= 13.2; tt += 0.1 {
		var cur []int
		for _, m := range e.At(tt).Visible {
			cur = append(cur, m.Index)
		}
		if len(cur) < len(prev) {
			t.Fatalf("t=%.2f: visible set shrank from %v to %v", tt, prev, cur)
		}
		for i := range prev {
			if cur[i] != prev[i] {
				t.Fatalf("t=%.2f: visible set reordered: %v vs %v", tt, prev, cur)
			}
		}
		prev = cur
	}
}

func TestTypingIndicator(t *testing.T) {
	e := testEvaluator()

	s := e.At(4.3)
	if !s.Typing.Active || s.Typing.Side != script.SideLeft {
		t.Errorf("t=4.3: expected partner typing, got %+v", s.Typing)
	}

	if s := e.At(4.7); s.Typing.Active {
		t.Error("typing window is half-open: inactive at its end")
	}

	// The narrator's own reply never shows the affordance.
	if s := e.At(6.0); s.Typing.Active {
		t.Errorf("t=6.0: self side must not show typing, got %+v", s.Typing)
	}

	// A divider is not typed by anyone.
	if s := e.At(8.0); s.Typing.Active {
		t.Error("t=8.0: divider must not show typing")
	}
}

func TestCameraZoomWindow(t *testing.T) {
	e := testEvaluator()

	if e.At(11.0).CameraZoomed {
		t.Error("zoom must not start before the tagged message appears")
	}
	if !e.At(11.2).CameraZoomed {
		t.Error("zoom active at appear time")
	}
	if !e.At(13.0).CameraZoomed {
		t.Error("zoom active within the hold window")
	}
}

func TestOverlayCaption(t *testing.T) {
	e := testEvaluator()

	if got := e.At(8.0).OverlayText; got != "2 hours later" {
		t.Errorf("t=8.0: expected divider caption, got %q", got)
	}
	if got := e.At(7.0).OverlayText; got != "" {
		t.Errorf("t=7.0: caption shown before the divider window: %q", got)
	}
	if got := e.At(9.4).OverlayText; got != "" {
		t.Errorf("t=9.4: caption must clear once the divider appears: %q", got)
	}
}

func TestMediaPopIn(t *testing.T) {
	e := testEvaluator()

	find := func(s Scene, index int) *Message {
		for i := range s.Visible {
			if s.Visible[i].Index == index {
				return &s.Visible[i]
			}
		}
		return nil
	}

	m := find(e.At(11.2), 3)
	if m == nil {
		t.Fatal("media message missing at its appear time")
	}
	if m.PopOpacity != 0 || math.Abs(m.PopScale-0.85) > 1e-9 {
		t.Errorf("at appear: expected opacity 0 scale 0.85, got %+v", m)
	}

	m = find(e.At(11.2+0.35), 3)
	if m.PopOpacity != 1.0 || m.PopScale != 1.0 || m.PopOffset != 0 {
		t.Errorf("after the pop window: expected settled state, got %+v", m)
	}

	// Text messages have no pop animation.
	m = find(e.At(5.0), 0)
	if m == nil || m.PopOpacity != 1.0 || m.PopScale != 1.0 {
		t.Errorf("text message must appear settled immediately, got %+v", m)
	}
}
