package timeline

import (
	"fmt"
	"math"
	"testing"

	"github.com/ivlev/chat2video/internal/config"
	"github.com/ivlev/chat2video/internal/script"
)

func testScript(events ...script.Event) *script.Script {
	return &script.Script{
		Title:     "test",
		Theme:     "wholesome",
		IntroText: "The message that changed everything",
		Roster: map[string]script.Character{
			"alex": {Side: script.SideLeft, Name: "Alex"},
			"sam":  {Side: script.SideRight, Name: "Sam"},
		},
		Events: events,
	}
}

func msg(sender, text string) script.Event {
	return script.Event{Sender: sender, Text: text}
}

func TestAppearTimesNonDecreasing(t *testing.T) {
	s := testScript(
		msg("alex", "hey"),
		msg("sam", "what's up?"),
		script.Event{Sender: script.SenderTimeDivider, Text: "3 hours later"},
		msg("alex", "you still there? this is a much longer message"),
		msg("sam", "yes"),
	)

	calc := NewCalculator(config.Default().Timing, nil)
	tl := calc.Compute(s)

	if len(tl.Entries) != len(s.Events) {
		t.Fatalf("expected %d entries, got %d", len(s.Events), len(tl.Entries))
	}

	prev := tl.Intro.Total
	for _, e := range tl.Entries {
		if e.AppearTime < prev {
			t.Errorf("entry %d: appear %.3f before previous %.3f", e.Index, e.AppearTime, prev)
		}
		if e.AppearTime < tl.Intro.Total {
			t.Errorf("entry %d: appear %.3f inside intro (%.3f)", e.Index, e.AppearTime, tl.Intro.Total)
		}
		if e.TypingStart > e.TypingEnd || e.TypingEnd > e.AppearTime {
			t.Errorf("entry %d: typing window [%.3f, %.3f] not before appear %.3f",
				e.Index, e.TypingStart, e.TypingEnd, e.AppearTime)
		}
		prev = e.AppearTime
	}
}

func TestFirstEventSpecialCase(t *testing.T) {
	cfg := config.Default().Timing
	calc := NewCalculator(cfg, nil)

	// Opener from the partner: fixed constant regardless of length, and no
	// reaction delay.
	long := msg("alex", "an extremely long opener that would normally take many seconds to type out")
	delay := 9.9
	long.ReactionDelay = &delay

	tl := calc.Compute(testScript(long))
	e := tl.Entries[0]

	if got := e.AppearTime - tl.Intro.Total; math.Abs(got-cfg.FirstFromPartner) > 1e-9 {
		t.Errorf("partner opener: expected typing total %.2f, got %.2f", cfg.FirstFromPartner, got)
	}
	if e.TypingStart != tl.Intro.Total {
		t.Errorf("expected zero reaction for first event, typing starts at %.3f (intro %.3f)",
			e.TypingStart, tl.Intro.Total)
	}

	// Opener from the narrator side uses the shorter constant.
	tl = calc.Compute(testScript(msg("sam", "hi")))
	if got := tl.Entries[0].AppearTime - tl.Intro.Total; math.Abs(got-cfg.FirstFromSelf) > 1e-9 {
		t.Errorf("self opener: expected typing total %.2f, got %.2f", cfg.FirstFromSelf, got)
	}
}

func TestFirstEventOverrideDisabled(t *testing.T) {
	cfg := config.Default().Timing
	cfg.FirstEventOverride = false
	calc := NewCalculator(cfg, nil)

	text := "hello there"
	tl := calc.Compute(testScript(msg("alex", text)))

	want := cfg.TypingBase + cfg.TypingPerChar*float64(len(text))
	if got := tl.Entries[0].AppearTime - tl.Intro.Total; math.Abs(got-want) > 1e-9 {
		t.Errorf("expected length-based typing %.3f, got %.3f", want, got)
	}
}

func TestSinglePartnerDialogueScenario(t *testing.T) {
	calc := NewCalculator(config.Default().Timing, nil)
	tl := calc.Compute(testScript(msg("alex", "hey, are you awake?")))

	want := tl.Intro.Total + 0 + 1.0
	if math.Abs(tl.Entries[0].AppearTime-want) > 1e-9 {
		t.Errorf("expected appear at %.3f, got %.3f", want, tl.Entries[0].AppearTime)
	}
}

func TestEmptyDialogue(t *testing.T) {
	cfg := config.Default().Timing
	calc := NewCalculator(cfg, nil)
	tl := calc.Compute(testScript())

	if len(tl.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(tl.Entries))
	}
	want := tl.Intro.Total + cfg.TrailingBuffer
	if math.Abs(tl.TotalDuration-want) > 1e-9 {
		t.Errorf("expected duration %.3f, got %.3f", want, tl.TotalDuration)
	}
	if tl.TotalDuration <= 0 {
		t.Error("duration must be strictly positive")
	}
}

func TestExplicitDelayOverrides(t *testing.T) {
	cfg := config.Default().Timing
	calc := NewCalculator(cfg, nil)

	reaction := 2.5
	typing := 4.0
	second := msg("sam", "ok")
	second.ReactionDelay = &reaction
	second.TypingDelay = &typing

	tl := calc.Compute(testScript(msg("alex", "hi"), second))

	first := tl.Entries[0]
	e := tl.Entries[1]
	if got := e.TypingStart - first.AppearTime; math.Abs(got-reaction) > 1e-9 {
		t.Errorf("expected explicit reaction %.2f, got %.2f", reaction, got)
	}
	if got := e.AppearTime - first.AppearTime - reaction; math.Abs(got-typing) > 1e-9 {
		t.Errorf("expected explicit typing %.2f, got %.2f", typing, got)
	}
	if got := e.TypingEnd - e.TypingStart; math.Abs(got-typing*cfg.RevealRatio) > 1e-9 {
		t.Errorf("expected indicator window %.3f, got %.3f", typing*cfg.RevealRatio, got)
	}
}

func TestTimeDividerTiming(t *testing.T) {
	cfg := config.Default().Timing
	calc := NewCalculator(cfg, nil)

	tl := calc.Compute(testScript(
		msg("alex", "good night"),
		script.Event{Sender: script.SenderTimeDivider, Text: "The next morning"},
	))

	div := tl.Entries[1]
	if !div.Divider {
		t.Fatal("expected divider entry")
	}
	if div.Label != "The next morning" {
		t.Errorf("expected divider label, got %q", div.Label)
	}
	got := div.AppearTime - tl.Entries[0].AppearTime - cfg.ReactionDefault
	if math.Abs(got-cfg.TimeDivider) > 1e-9 {
		t.Errorf("expected divider duration %.2f, got %.2f", cfg.TimeDivider, got)
	}
}

func TestNarrationProbe(t *testing.T) {
	cfg := config.Default().Timing
	probed := false
	probe := func(path string) (float64, error) {
		probed = true
		if path != "narration.mp3" {
			t.Errorf("unexpected probe path %q", path)
		}
		return 6.4, nil
	}

	s := testScript(msg("alex", "hi"))
	s.Narration = "narration.mp3"

	tl := NewCalculator(cfg, probe).Compute(s)
	if !probed {
		t.Fatal("expected the narration asset to be probed")
	}

	want := cfg.IntroDelay + 6.4 + cfg.IntroHold
	if math.Abs(tl.Intro.Total-want) > 1e-9 {
		t.Errorf("expected intro total %.2f, got %.2f", want, tl.Intro.Total)
	}
}

func TestProbeFailureFallsBackToMinimum(t *testing.T) {
	cfg := config.Default().Timing
	probe := func(path string) (float64, error) {
		return 0, fmt.Errorf("ffprobe: file is corrupt")
	}

	s := testScript(msg("alex", "hi"))
	s.Narration = "broken.mp3"

	tl := NewCalculator(cfg, probe).Compute(s)
	want := cfg.IntroDelay + cfg.IntroMinNarration + cfg.IntroHold
	if math.Abs(tl.Intro.Total-want) > 1e-9 {
		t.Errorf("expected fallback intro total %.2f, got %.2f", want, tl.Intro.Total)
	}
}

func TestSuspenseThemeSkipsNarration(t *testing.T) {
	cfg := config.Default().Timing
	probe := func(path string) (float64, error) {
		t.Error("suspense theme must not probe narration")
		return 0, nil
	}

	s := testScript(msg("alex", "hi"))
	s.Theme = "suspense"
	s.Narration = "narration.mp3"

	tl := NewCalculator(cfg, probe).Compute(s)

	want := cfg.IntroDelay + cfg.IntroMinNarration + cfg.IntroHold
	if math.Abs(tl.Intro.Total-want) > 1e-9 {
		t.Errorf("expected minimal intro %.2f, got %.2f", want, tl.Intro.Total)
	}

	// Suspense also gets the long trailing buffer.
	wantTotal := tl.LastAppear() + cfg.TrailingBufferLong
	if math.Abs(tl.TotalDuration-wantTotal) > 1e-9 {
		t.Errorf("expected long buffer total %.2f, got %.2f", wantTotal, tl.TotalDuration)
	}
}

func TestDeterminism(t *testing.T) {
	s := testScript(
		msg("alex", "hey"),
		msg("sam", "hello"),
		msg("alex", "look at this"),
	)
	calc := NewCalculator(config.Default().Timing, nil)

	a := calc.Compute(s)
	b := calc.Compute(s)

	if len(a.Entries) != len(b.Entries) || a.TotalDuration != b.TotalDuration {
		t.Fatal("same script must produce the same timeline")
	}
	for i := range a.Entries {
		if a.Entries[i] != b.Entries[i] {
			t.Errorf("entry %d differs between runs: %+v vs %+v", i, a.Entries[i], b.Entries[i])
		}
	}
}
