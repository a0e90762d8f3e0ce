package audio

import (
	"log"

	"github.com/ivlev/chat2video/internal/timeline"
)

// Assets names the optional audio sources of one clip. An empty path means
// the corresponding track is simply omitted.
type Assets struct {
	Narration    string
	Sting        string
	BGM          string
	Notification string
}

// Composer builds the mix graph for a clip. Pure and stateless; safe to
// share across parallel clips.
type Composer struct {
	BGMGain      float64
	SFXGain      float64
	MaxSFXTracks int
}

// NewComposer creates a Composer with the given gain configuration.
func NewComposer(bgmGain, sfxGain float64, maxSFX int) *Composer {
	return &Composer{BGMGain: bgmGain, SFXGain: sfxGain, MaxSFXTracks: maxSFX}
}

// Compose positions every available track against the timeline:
//
//   - narration starts at the title-card reveal delay, full gain;
//   - the transition sting fires exactly at the intro→conversation boundary;
//   - background music starts there too, loops, and is trimmed to the total
//     duration regardless of its native length;
//   - each message gets a notification sound at its appear time, capped at
//     MaxSFXTracks.
//
// totalDuration is always the externally supplied video duration.
func (c *Composer) Compose(tl *timeline.Timeline, assets Assets, totalDuration float64) *MixGraph {
	g := &MixGraph{TotalDuration: totalDuration}

	if assets.Narration != "" {
		g.Tracks = append(g.Tracks, Track{
			Source:        assets.Narration,
			StartOffsetMs: toMs(tl.Intro.DelayBeforeReveal),
			Gain:          1.0,
			Name:          "narration",
		})
	}

	if assets.Sting != "" {
		g.Tracks = append(g.Tracks, Track{
			Source:        assets.Sting,
			StartOffsetMs: toMs(tl.Intro.Total),
			Gain:          1.0,
			Name:          "sting",
		})
	}

	if assets.BGM != "" {
		g.Tracks = append(g.Tracks, Track{
			Source:        assets.BGM,
			StartOffsetMs: toMs(tl.Intro.Total),
			Gain:          c.BGMGain,
			Loop:          true,
			Name:          "bgm",
		})
	}

	if assets.Notification != "" {
		added := 0
		for i := range tl.Entries {
			en := &tl.Entries[i]
			if en.Divider {
				continue
			}
			if c.MaxSFXTracks > 0 && added >= c.MaxSFXTracks {
				log.Printf("[audio] notification cap %d reached, remaining messages are silent", c.MaxSFXTracks)
				break
			}
			g.Tracks = append(g.Tracks, Track{
				Source:        assets.Notification,
				StartOffsetMs: toMs(en.AppearTime),
				Gain:          c.SFXGain,
				Name:          "sfx",
			})
			added++
		}
	}

	return g
}

func toMs(seconds float64) int {
	return int(seconds*1000.0 + 0.5)
}
