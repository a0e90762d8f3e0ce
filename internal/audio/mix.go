package audio

import (
	"fmt"
	"strings"
)

// Track is one positioned source in the mix.
type Track struct {
	Source        string
	StartOffsetMs int
	Gain          float64
	Loop          bool
	Name          string // narration | sting | bgm | sfx
}

// MixGraph is the ordered set of tracks ready for summation into one audio
// stream. TotalDuration is the hard cap: the mix is never extended to match
// a looping track and never truncated to the shortest one.
type MixGraph struct {
	Tracks        []Track
	TotalDuration float64
}

// Empty reports whether the graph has no tracks. A silent video is valid
// output.
func (g *MixGraph) Empty() bool {
	return len(g.Tracks) == 0
}

// FFmpegArgs renders the graph into ffmpeg input arguments and a
// filter_complex expression producing the [aout] stream. Tracks are summed
// (amix normalize=0), never averaged; clip headroom is the caller's
// responsibility via gains.
//
// inputOffset is the index of the first audio input in the final command
// line (video inputs come before the mix inputs).
func (g *MixGraph) FFmpegArgs(inputOffset int) (inputs []string, filter string) {
	if g.Empty() {
		return nil, ""
	}

	var chains []string
	var labels []string

	for i, tr := range g.Tracks {
		if tr.Loop {
			inputs = append(inputs, "-stream_loop", "-1")
		}
		inputs = append(inputs, "-i", tr.Source)

		label := fmt.Sprintf("[t%d]", i)
		chains = append(chains, fmt.Sprintf(
			"[%d:a]volume=%.4f,adelay=%d|%d%s",
			inputOffset+i, tr.Gain, tr.StartOffsetMs, tr.StartOffsetMs, label,
		))
		labels = append(labels, label)
	}

	trim := fmt.Sprintf("atrim=duration=%.3f,asetpts=PTS-STARTPTS", g.TotalDuration)

	if len(labels) == 1 {
		// Single track still goes through the trim so the duration cap holds.
		filter = fmt.Sprintf("%s;%s%s[aout]", chains[0], labels[0], trim)
		return inputs, filter
	}

	filter = fmt.Sprintf("%s;%samix=inputs=%d:duration=longest:dropout_transition=0:normalize=0,%s[aout]",
		strings.Join(chains, ";"), strings.Join(labels, ""), len(labels), trim)
	return inputs, filter
}
