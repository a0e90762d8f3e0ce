package video

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"

	"github.com/ivlev/chat2video/internal/audio"
	"github.com/ivlev/chat2video/internal/config"
	"github.com/ivlev/chat2video/internal/system"
)

// RenderFunc produces the frame for time t (seconds). Frames are requested
// in strictly non-decreasing time order against a single encoder.
type RenderFunc func(t float64) (image.Image, error)

// Encoder accepts an ordered frame sequence plus a mix graph and emits one
// finished media file.
type Encoder interface {
	Encode(ctx context.Context, outPath string, vc config.VideoConfig, mix *audio.MixGraph, totalDuration float64, render RenderFunc) error
}

// FFmpegEncoder pipes raw RGBA frames into a single ffmpeg process that
// scales, encodes and mixes the audio graph in one pass.
type FFmpegEncoder struct {
	EncoderName string // h264_videotoolbox | h264_nvenc | libx264
	Quality     int
}

func (e *FFmpegEncoder) Encode(
	ctx context.Context,
	outPath string,
	vc config.VideoConfig,
	mix *audio.MixGraph,
	totalDuration float64,
	render RenderFunc,
) error {
	args := e.buildArgs(outPath, vc, mix, totalDuration)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	frames := int(totalDuration * float64(vc.FPS))
	writeErr := e.streamFrames(stdin, frames, vc.FPS, render)
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		if writeErr != nil {
			return fmt.Errorf("render error: %w", writeErr)
		}
		return fmt.Errorf("ffmpeg wait error: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("render error: %w", writeErr)
	}

	return nil
}

// streamFrames drives the capture loop: frame times are monotone and the
// compositor is queried exactly once per output frame. Written frames go
// back to the frame pool, so the renderer must not retain them.
func (e *FFmpegEncoder) streamFrames(w io.Writer, frames, fps int, render RenderFunc) error {
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(fps)
		img, err := render(t)
		if err != nil {
			return fmt.Errorf("frame %d (t=%.3f): %w", i, t, err)
		}
		if err := e.writeRawRGBA(w, img); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if rgba, ok := img.(*image.RGBA); ok {
			system.PutFrame(rgba)
		}
	}
	return nil
}

func (e *FFmpegEncoder) buildArgs(outPath string, vc config.VideoConfig, mix *audio.MixGraph, totalDuration float64) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", vc.Width, vc.Height),
		"-framerate", fmt.Sprintf("%d", vc.FPS),
		"-i", "-",
	}

	audioArgs, filter := mix.FFmpegArgs(1)
	args = append(args, audioArgs...)

	if filter != "" {
		args = append(args, "-filter_complex", filter)
		args = append(args, "-map", "0:v", "-map", "[aout]")
		args = append(args, "-c:a", "aac", "-b:a", "192k")
	} else {
		// Тишина — валидный результат: видео без аудиодорожки.
		args = append(args, "-map", "0:v", "-an")
	}

	args = append(args,
		"-t", fmt.Sprintf("%f", totalDuration),
		"-r", fmt.Sprintf("%d", vc.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", e.EncoderName,
	)

	// Качество в зависимости от энкодера
	switch e.EncoderName {
	case "h264_videotoolbox":
		bitrate := e.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	args = append(args, "-movflags", "+faststart", outPath)
	return args
}

func (e *FFmpegEncoder) writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
