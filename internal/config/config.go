package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures timing, audio, loudness and encoding configuration
// for a render run.
type Config struct {
	Timing   TimingConfig   `yaml:"timing"`
	Audio    AudioConfig    `yaml:"audio"`
	Loudnorm LoudnormConfig `yaml:"loudnorm"`
	Video    VideoConfig    `yaml:"video"`
	Paths    PathsConfig    `yaml:"paths"`

	// Runtime fields, not read from YAML.
	Workers      int    `yaml:"-"`
	VideoEncoder string `yaml:"-"`
	Quality      int    `yaml:"-"`
	BuildVersion string `yaml:"-"`
	ShowStats    bool   `yaml:"-"`
}

// TimingConfig holds the conversation pacing model. All values are seconds
// unless noted otherwise.
type TimingConfig struct {
	ReactionDefault    float64 `yaml:"reaction_default"`     // read time before a reply starts
	TypingBase         float64 `yaml:"typing_base"`          // fixed part of typing time
	TypingPerChar      float64 `yaml:"typing_per_char"`      // length-dependent part
	RevealRatio        float64 `yaml:"reveal_ratio"`         // share of typing time shown as indicator
	FirstFromPartner   float64 `yaml:"first_from_partner"`   // fixed typing time when the partner opens
	FirstFromSelf      float64 `yaml:"first_from_self"`      // fixed typing time when the narrator opens
	FirstEventOverride bool    `yaml:"first_event_override"` // index 0 ignores explicit delays when true
	TimeDivider        float64 `yaml:"time_divider"`         // display + transition time of a divider
	IntroDelay         float64 `yaml:"intro_delay"`          // black before the title card reveals
	IntroFadeIn        float64 `yaml:"intro_fade_in"`
	IntroMinNarration  float64 `yaml:"intro_min_narration"`  // used when there is no narration asset
	IntroHold          float64 `yaml:"intro_hold"`           // hold after narration ends
	TrailingBuffer     float64 `yaml:"trailing_buffer"`      // after the last message
	TrailingBufferLong float64 `yaml:"trailing_buffer_long"` // suspense/dramatic themes
	CameraZoomWindow   float64 `yaml:"camera_zoom_window"`   // zoom hold after a tagged message
	PopInDuration      float64 `yaml:"pop_in_duration"`      // media pop-in animation
}

// AudioConfig describes mix gains and the asset duration probe.
type AudioConfig struct {
	BGMGain       float64 `yaml:"bgm_gain"`
	SFXGain       float64 `yaml:"sfx_gain"`
	MaxSFXTracks  int     `yaml:"max_sfx_tracks"`
	ProbeTimeout  float64 `yaml:"probe_timeout"`  // seconds before a probe is abandoned
	ProbeFallback float64 `yaml:"probe_fallback"` // substituted duration on probe failure
}

// LoudnormConfig controls EBU R128 loudness normalization of the finished file.
type LoudnormConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Integrated float64 `yaml:"integrated_lufs"`
	TruePeak   float64 `yaml:"true_peak_db"`
	LRA        float64 `yaml:"lra_db"`
}

// VideoConfig contains output sizing and framerate.
type VideoConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// PathsConfig holds input/output directories and optional shared assets.
type PathsConfig struct {
	Scripts    string `yaml:"scripts"`
	Assets     string `yaml:"assets"`
	Output     string `yaml:"output"`
	BGM        string `yaml:"bgm"`         // background music asset, optional
	Sting      string `yaml:"sting"`       // intro->conversation transition sting, optional
	SFXMessage string `yaml:"sfx_message"` // per-message notification sound, optional
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Timing: TimingConfig{
			ReactionDefault:    0.8,
			TypingBase:         0.6,
			TypingPerChar:      0.04,
			RevealRatio:        0.7,
			FirstFromPartner:   1.0,
			FirstFromSelf:      0.5,
			FirstEventOverride: true,
			TimeDivider:        1.8,
			IntroDelay:         0.5,
			IntroFadeIn:        0.8,
			IntroMinNarration:  2.0,
			IntroHold:          0.6,
			TrailingBuffer:     2.0,
			TrailingBufferLong: 3.5,
			CameraZoomWindow:   2.5,
			PopInDuration:      0.35,
		},
		Audio: AudioConfig{
			BGMGain:       0.18,
			SFXGain:       0.5,
			MaxSFXTracks:  64,
			ProbeTimeout:  5.0,
			ProbeFallback: 2.0,
		},
		Loudnorm: LoudnormConfig{
			Enabled:    true,
			Integrated: -14.0,
			TruePeak:   -1.5,
			LRA:        11.0,
		},
		Video: VideoConfig{
			Width:  1080,
			Height: 1920,
			FPS:    30,
		},
		Paths: PathsConfig{
			Scripts: "input/scripts",
			Assets:  "input/assets",
			Output:  "output",
		},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if cfg.Timing.RevealRatio <= 0 || cfg.Timing.RevealRatio >= 1.0 {
		return nil, fmt.Errorf("timing.reveal_ratio must be in (0,1), got %f", cfg.Timing.RevealRatio)
	}
	if cfg.Video.FPS <= 0 {
		return nil, fmt.Errorf("video.fps must be positive")
	}
	return cfg, nil
}
