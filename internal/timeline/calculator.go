package timeline

import (
	"log"
	"strings"

	"github.com/ivlev/chat2video/internal/config"
	"github.com/ivlev/chat2video/internal/script"
)

// ProbeFunc measures the duration of an audio asset in seconds.
type ProbeFunc func(path string) (float64, error)

// Calculator turns a script into a deterministic schedule. It is a pure
// function of the script and the timing configuration; the only external
// input is the narration duration probe.
type Calculator struct {
	Timing config.TimingConfig
	Probe  ProbeFunc
}

// NewCalculator creates a Calculator with the given pacing model. probe may
// be nil when no narration assets are expected.
func NewCalculator(timing config.TimingConfig, probe ProbeFunc) *Calculator {
	return &Calculator{Timing: timing, Probe: probe}
}

// Compute derives the full timeline for a script: intro timing, one entry
// per dialogue event and the total video duration.
func (c *Calculator) Compute(s *script.Script) *Timeline {
	intro := c.computeIntro(s)

	entries := make([]Entry, 0, len(s.Events))
	currentTime := intro.Total

	for i := range s.Events {
		ev := &s.Events[i]

		reaction := c.Timing.ReactionDefault
		if ev.ReactionDelay != nil {
			reaction = *ev.ReactionDelay
		}
		if i == 0 {
			// The video opens straight into the first message; there is
			// nobody on screen yet to "read" anything.
			reaction = 0
		}

		typingTotal := c.typingTotal(s, ev, i)

		typingStart := currentTime + reaction
		typingEnd := typingStart + typingTotal*c.Timing.RevealRatio
		appear := currentTime + reaction + typingTotal

		entries = append(entries, Entry{
			Index:       i,
			TypingStart: typingStart,
			TypingEnd:   typingEnd,
			AppearTime:  appear,
			Side:        s.SenderSide(ev.Sender),
			Divider:     ev.IsDivider(),
			Media:       ev.IsMedia(),
			Zoom:        ev.CameraEffect == "zoom",
			Label:       dividerLabel(ev),
		})

		currentTime += reaction + typingTotal
	}

	tl := &Timeline{
		Entries: entries,
		Intro:   intro,
	}
	tl.TotalDuration = tl.LastAppear() + c.trailingBuffer(s.Theme)
	return tl
}

// typingTotal resolves the modeled composition time of one event.
// Resolution order: first-event constant, explicit override, divider
// constant, length model.
func (c *Calculator) typingTotal(s *script.Script, ev *script.Event, index int) float64 {
	if index == 0 && c.Timing.FirstEventOverride {
		// Fixed opener pacing regardless of message length. Longer when the
		// partner opens (we watch them type), shorter for the narrator.
		if s.SenderSide(ev.Sender) == script.SideLeft {
			return c.Timing.FirstFromPartner
		}
		return c.Timing.FirstFromSelf
	}
	if ev.TypingDelay != nil {
		return *ev.TypingDelay
	}
	if ev.IsDivider() {
		return c.Timing.TimeDivider
	}
	return c.Timing.TypingBase + c.Timing.TypingPerChar*float64(ev.Length())
}

// computeIntro builds the title-card timing. Narration duration comes from
// the probe when an asset exists; suspense-style themes skip narration and
// run on the configured minimum.
func (c *Calculator) computeIntro(s *script.Script) IntroTiming {
	narration := c.Timing.IntroMinNarration

	if s.Narration != "" && !skipsNarration(s.Theme) {
		if c.Probe == nil {
			log.Printf("[timeline] no duration probe configured, narration %q uses minimum", s.Narration)
		} else if d, err := c.Probe(s.Narration); err != nil {
			log.Printf("[timeline] narration probe failed (%v), using minimum %.2fs", err, narration)
		} else if d > narration {
			narration = d
		}
	}

	it := IntroTiming{
		DelayBeforeReveal: c.Timing.IntroDelay,
		FadeIn:            c.Timing.IntroFadeIn,
		Narration:         narration,
		HoldAfter:         c.Timing.IntroHold,
	}
	it.Total = it.DelayBeforeReveal + it.Narration + it.HoldAfter
	return it
}

func (c *Calculator) trailingBuffer(theme string) float64 {
	if dramaticTheme(theme) {
		return c.Timing.TrailingBufferLong
	}
	return c.Timing.TrailingBuffer
}

// dividerLabel returns the overlay caption for a time divider.
func dividerLabel(ev *script.Event) string {
	if ev.IsDivider() {
		return ev.Text
	}
	return ""
}

// dramaticTheme reports whether a theme gets the long trailing buffer.
func dramaticTheme(theme string) bool {
	switch strings.ToLower(theme) {
	case "suspense", "horror", "dramatic", "drama":
		return true
	}
	return false
}

// skipsNarration reports whether a theme suppresses the intro narration,
// keeping only delay + minimum + hold.
func skipsNarration(theme string) bool {
	switch strings.ToLower(theme) {
	case "suspense", "horror":
		return true
	}
	return false
}
