// Package loudness normalizes a finished media file to a target integrated
// loudness (EBU R128) using ffmpeg's loudnorm filter in two passes: a
// measurement pass and a linear correction pass fed with the measured
// values. Normalization never blocks output delivery: every failure path
// degrades to a less precise mode or keeps the file as is.
package loudness

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ivlev/chat2video/internal/config"
)

// Measurement is the pass-1 loudness analysis of a file.
type Measurement struct {
	InputI      float64 // integrated loudness, LUFS
	InputTP     float64 // true peak, dBTP
	InputLRA    float64 // loudness range, LU
	InputThresh float64
	Offset      float64 // recommended gain offset
}

// Normalizer runs the two-pass algorithm against one target.
type Normalizer struct {
	Target config.LoudnormConfig
}

// New creates a Normalizer for the given target.
func New(target config.LoudnormConfig) *Normalizer {
	return &Normalizer{Target: target}
}

// Measure analyzes a file without modifying it.
func (n *Normalizer) Measure(ctx context.Context, path string) (*Measurement, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-nostats",
		"-i", path,
		"-af", n.measureFilter(),
		"-f", "null", "-",
	)
	// loudnorm prints its report to stderr.
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("loudnorm measure: %w", err)
	}
	return ParseMeasurement(string(out))
}

// Apply runs the correction pass. With a measurement it performs the exact
// linear two-pass correction; with m == nil it falls back to a blind
// single-pass normalization. The video stream passes through untouched.
func (n *Normalizer) Apply(ctx context.Context, in, out string, m *Measurement) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-hide_banner",
		"-i", in,
		"-c:v", "copy",
		"-af", n.applyFilter(m),
		"-c:a", "aac", "-b:a", "192k",
		out,
	)
	if msg, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("loudnorm apply: %w, output: %s", err, tail(string(msg)))
	}
	return nil
}

// Normalize measures and corrects a file in place (via a sibling temp
// file). Degradations are absorbed: a parse failure falls back to a blind
// pass, and if that also fails the original file is kept. The returned flag
// reports whether a correction was actually applied.
func (n *Normalizer) Normalize(ctx context.Context, path string) (bool, error) {
	if !n.Target.Enabled {
		return false, nil
	}

	tmp := path + ".loudnorm.mp4"
	defer os.Remove(tmp)

	m, err := n.Measure(ctx, path)
	if err != nil {
		fmt.Printf("[!] Измерение громкости не удалось (%v), пробуем одиночный проход\n", err)
		m = nil
	}

	if err := n.Apply(ctx, path, tmp, m); err != nil {
		if m == nil {
			// Both modes failed: the unnormalized file is still the result.
			return false, fmt.Errorf("нормализация пропущена: %w", err)
		}
		fmt.Printf("[!] Двухпроходная нормализация не удалась (%v), пробуем одиночный проход\n", err)
		if err := n.Apply(ctx, path, tmp, nil); err != nil {
			return false, fmt.Errorf("нормализация пропущена: %w", err)
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		return false, fmt.Errorf("замена файла после нормализации: %w", err)
	}
	return true, nil
}

// measureFilter is the pass-1 filter specification.
func (n *Normalizer) measureFilter() string {
	return fmt.Sprintf("loudnorm=I=%.1f:TP=%.1f:LRA=%.1f:print_format=json",
		n.Target.Integrated, n.Target.TruePeak, n.Target.LRA)
}

// applyFilter is the pass-2 filter specification. The measured values make
// the correction a single exact linear gain change instead of the blind
// dynamic mode.
func (n *Normalizer) applyFilter(m *Measurement) string {
	base := fmt.Sprintf("loudnorm=I=%.1f:TP=%.1f:LRA=%.1f",
		n.Target.Integrated, n.Target.TruePeak, n.Target.LRA)
	if m == nil {
		return base
	}
	return fmt.Sprintf("%s:measured_I=%.2f:measured_TP=%.2f:measured_LRA=%.2f:measured_thresh=%.2f:offset=%.2f:linear=true",
		base, m.InputI, m.InputTP, m.InputLRA, m.InputThresh, m.Offset)
}

// ParseMeasurement extracts the loudnorm JSON report from ffmpeg's
// diagnostic output. The report is the last {...} block on stderr.
func ParseMeasurement(out string) (*Measurement, error) {
	start := strings.LastIndex(out, "{")
	end := strings.LastIndex(out, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no loudnorm report in output")
	}

	// All loudnorm values are emitted as JSON strings.
	var raw map[string]string
	if err := json.Unmarshal([]byte(out[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("loudnorm report: %w", err)
	}

	m := &Measurement{}
	for key, dst := range map[string]*float64{
		"input_i":       &m.InputI,
		"input_tp":      &m.InputTP,
		"input_lra":     &m.InputLRA,
		"input_thresh":  &m.InputThresh,
		"target_offset": &m.Offset,
	} {
		v, ok := raw[key]
		if !ok {
			return nil, fmt.Errorf("loudnorm report: missing %s", key)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("loudnorm report: %s=%q: %w", key, v, err)
		}
		*dst = f
	}
	return m, nil
}

// PlannedGain returns the linear gain (dB) the two-pass correction will
// request, limited by the true-peak ceiling. With exact measurements the
// corrected integrated loudness is InputI + PlannedGain.
func (n *Normalizer) PlannedGain(m *Measurement) float64 {
	gain := n.Target.Integrated - m.InputI
	if m.InputTP+gain > n.Target.TruePeak {
		gain = n.Target.TruePeak - m.InputTP
	}
	return gain
}

func tail(s string) string {
	const max = 400
	if len(s) <= max {
		return s
	}
	return "…" + s[len(s)-max:]
}
