package engine

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/chat2video/internal/audio"
	"github.com/ivlev/chat2video/internal/compositor"
	"github.com/ivlev/chat2video/internal/config"
	"github.com/ivlev/chat2video/internal/loudness"
	"github.com/ivlev/chat2video/internal/scene"
	"github.com/ivlev/chat2video/internal/script"
	"github.com/ivlev/chat2video/internal/system"
	"github.com/ivlev/chat2video/internal/timeline"
	"github.com/ivlev/chat2video/internal/video"
)

// RenderProject renders one script into one finished, normalized video.
// Instances share no mutable state, so independent projects may run in
// parallel.
type RenderProject struct {
	Config   *config.Config
	Script   *script.Script
	Encoder  video.Encoder
	Renderer compositor.Renderer
}

func NewRenderProject(cfg *config.Config, s *script.Script, enc video.Encoder, rend compositor.Renderer) *RenderProject {
	if rend == nil {
		rend = compositor.NewBasic(cfg.Video.Width, cfg.Video.Height, s)
	}
	return &RenderProject{
		Config:   cfg,
		Script:   s,
		Encoder:  enc,
		Renderer: rend,
	}
}

// Run computes the timeline, captures every frame in order, mixes the
// audio graph and normalizes the result. Timing/audio degradations are
// absorbed; a compositor or encoder failure aborts the run.
func (p *RenderProject) Run(ctx context.Context, outPath string) error {
	startTime := time.Now()
	cfg := p.Config

	// 1. Расписание
	calc := timeline.NewCalculator(cfg.Timing, p.probe(ctx))
	tl := calc.Compute(p.Script)

	fmt.Println("--- [PROJECT: CHAT ENGINE] ---")
	fmt.Printf("[*] Сценарий: %s | Сообщений: %d\n", p.Script.Title, len(tl.Entries))
	fmt.Printf("[*] Интро: %.2fs | Общая длительность: %.2fs | %dx%d @ %d FPS\n",
		tl.Intro.Total, tl.TotalDuration, cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS)
	fmt.Println("-----------------------------")

	if err := p.writeArtifact(tl, outPath); err != nil {
		log.Printf("[!] Не удалось сохранить расписание: %v", err)
	}

	// 2. Аудиограф
	composer := audio.NewComposer(cfg.Audio.BGMGain, cfg.Audio.SFXGain, cfg.Audio.MaxSFXTracks)
	mix := composer.Compose(tl, p.assets(), tl.TotalDuration)
	fmt.Printf("[*] Аудиодорожек: %d\n", len(mix.Tracks))

	// 3. Захват кадров + кодирование. Кадры запрашиваются строго по
	// возрастанию времени у единственной поверхности.
	eval := scene.NewEvaluator(tl, cfg.Timing.CameraZoomWindow, cfg.Timing.PopInDuration)
	render := func(t float64) (image.Image, error) {
		return p.Renderer.RenderFrame(eval.At(t), t)
	}

	encodeStart := time.Now()
	if err := p.Encoder.Encode(ctx, outPath, cfg.Video, mix, tl.TotalDuration, render); err != nil {
		return fmt.Errorf("кодирование: %w", err)
	}
	encodeTime := time.Since(encodeStart)

	// 4. Нормализация громкости — деградации не фатальны.
	normStart := time.Now()
	norm := loudness.New(cfg.Loudnorm)
	applied, err := norm.Normalize(ctx, outPath)
	if err != nil {
		log.Printf("[!] %v — файл оставлен без нормализации", err)
	}
	normTime := time.Since(normStart)

	if cfg.ShowStats {
		p.reportStats(tl, time.Since(startTime), encodeTime, normTime, applied)
	}

	return nil
}

// probe wraps the system ffprobe with the configured timeout and safe
// fallback, so a corrupt narration asset cannot stall the run.
func (p *RenderProject) probe(ctx context.Context) timeline.ProbeFunc {
	timeout := time.Duration(p.Config.Audio.ProbeTimeout * float64(time.Second))
	fallback := p.Config.Audio.ProbeFallback
	return func(path string) (float64, error) {
		d, err := system.ProbeDuration(ctx, p.assetPath(path), timeout)
		if err != nil {
			log.Printf("[!] Проба длительности %s: %v — подставляем %.2fs", path, err, fallback)
			return fallback, nil
		}
		return d, nil
	}
}

// assets resolves the optional audio sources. A missing asset is not an
// error: its track is simply omitted from the mix.
func (p *RenderProject) assets() audio.Assets {
	cfg := p.Config
	return audio.Assets{
		Narration:    p.existingAsset(p.Script.Narration),
		Sting:        p.existingAsset(cfg.Paths.Sting),
		BGM:          p.existingAsset(cfg.Paths.BGM),
		Notification: p.existingAsset(cfg.Paths.SFXMessage),
	}
}

func (p *RenderProject) existingAsset(path string) string {
	if path == "" {
		return ""
	}
	full := p.assetPath(path)
	if _, err := os.Stat(full); err != nil {
		log.Printf("[!] Аудио-ассет %s не найден, дорожка пропущена", path)
		return ""
	}
	return full
}

func (p *RenderProject) assetPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Config.Paths.Assets, path)
}

// writeArtifact dumps the computed schedule next to the video for
// debugging and fixtures.
func (p *RenderProject) writeArtifact(tl *timeline.Timeline, outPath string) error {
	artifactPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + "_timeline.yaml"
	return timeline.WriteArtifact(&timeline.Artifact{
		Version:  "1.0",
		Script:   p.Script.Title,
		Timeline: tl,
	}, artifactPath)
}

func (p *RenderProject) reportStats(tl *timeline.Timeline, total, encode, norm time.Duration, normalized bool) {
	frames := int(tl.TotalDuration * float64(p.Config.Video.FPS))
	fmt.Printf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Loudnorm: %.2fs (applied: %v)\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		p.Config.BuildVersion, frames, total.Seconds(), encode.Seconds(),
		norm.Seconds(), normalized, float64(frames)/total.Seconds(),
	)
}

// BatchResult summarizes one item of a batch run.
type BatchResult struct {
	ScriptPath string
	OutPath    string
	Err        error
}

// RunBatch renders several scripts as isolated projects with bounded
// parallelism. One item's failure does not stop the others.
func RunBatch(ctx context.Context, cfg *config.Config, scriptPaths []string, outDir string) []BatchResult {
	frameBytes := uint64(cfg.Video.Width * cfg.Video.Height * 4)
	workers := cfg.Workers
	if workers <= 0 {
		workers = system.BatchWorkers(frameBytes)
	}
	fmt.Printf("[*] Пакетный режим: %d сценариев, %d параллельно\n", len(scriptPaths), workers)

	results := make([]BatchResult, len(scriptPaths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range scriptPaths {
		i, path := i, path
		g.Go(func() error {
			results[i].ScriptPath = path
			err := runBatchItem(ctx, cfg, path, outDir, &results[i])
			if err != nil {
				log.Printf("[!] %s: %v — переходим к следующему", filepath.Base(path), err)
			}
			results[i].Err = err
			// Ошибка одного элемента не останавливает пакет.
			return nil
		})
	}

	g.Wait()
	return results
}

func runBatchItem(ctx context.Context, cfg *config.Config, scriptPath, outDir string, res *BatchResult) error {
	s, err := script.Load(scriptPath)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
	outPath := filepath.Join(outDir, fmt.Sprintf("%s.mp4", base))
	res.OutPath = outPath

	enc := &video.FFmpegEncoder{EncoderName: cfg.VideoEncoder, Quality: cfg.Quality}
	project := NewRenderProject(cfg, s, enc, nil)
	return project.Run(ctx, outPath)
}
