package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ivlev/chat2video/internal/config"
	"github.com/ivlev/chat2video/internal/engine"
	"github.com/ivlev/chat2video/internal/script"
	"github.com/ivlev/chat2video/internal/system"
	"github.com/ivlev/chat2video/internal/video"
)

func main() {
	// .env — только для локальной разработки
	_ = godotenv.Load()

	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	configPtr := flag.String("config", "", "Путь к YAML-конфигу (если пусто, используются значения по умолчанию)")
	inputPtr := flag.String("input", "", "Путь к сценарию (по умолчанию: самый свежий файл в input/scripts/)")
	batchPtr := flag.Bool("batch", false, "Отрендерить все сценарии из папки input/scripts/")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	widthPtr := flag.Int("width", 0, "Ширина (0 — из конфига)")
	heightPtr := flag.Int("height", 0, "Высота (0 — из конфига)")
	fpsPtr := flag.Int("fps", 0, "FPS (0 — из конфига)")
	workersPtr := flag.Int("workers", 0, "Параллельных рендеров в пакетном режиме (0 — авто)")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")
	noNormPtr := flag.Bool("no-loudnorm", false, "Отключить нормализацию громкости")

	flag.Parse()

	cfg := loadConfig(*configPtr)

	// Создаем нужные директории, если их нет
	for _, d := range []string{cfg.Paths.Scripts, cfg.Paths.Assets, cfg.Paths.Output} {
		os.MkdirAll(d, 0755)
	}

	if *widthPtr > 0 {
		cfg.Video.Width = *widthPtr
	}
	if *heightPtr > 0 {
		cfg.Video.Height = *heightPtr
	}
	if *fpsPtr > 0 {
		cfg.Video.FPS = *fpsPtr
	}
	if *noNormPtr {
		cfg.Loudnorm.Enabled = false
	}
	cfg.Workers = *workersPtr
	cfg.ShowStats = *statsPtr

	encoderName, _ := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}
	cfg.VideoEncoder = encoderName
	cfg.Quality = *qualityPtr
	if cfg.Quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			cfg.Quality = 75
		case "h264_nvenc":
			cfg.Quality = 28
		default:
			cfg.Quality = 23
		}
	}

	ctx := context.Background()

	if *batchPtr {
		runBatch(ctx, cfg)
		return
	}

	inputPath := *inputPtr
	if inputPath == "" {
		latest, err := system.FindLatestScript(cfg.Paths.Scripts)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите сценарий в %s/", err, cfg.Paths.Scripts)
		}
		inputPath = latest
		fmt.Printf("[*] Выбран сценарий: %s\n", inputPath)
	}

	s, err := script.Load(inputPath)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения сценария: %v", err)
	}

	finalOutput := *outputPtr
	if finalOutput == "" {
		baseName := filepath.Base(inputPath)
		nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
		cleanName := strings.ReplaceAll(nameOnly, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		finalOutput = filepath.Join(cfg.Paths.Output, fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
	}

	enc := &video.FFmpegEncoder{EncoderName: cfg.VideoEncoder, Quality: cfg.Quality}
	project := engine.NewRenderProject(cfg, s, enc, nil)
	if err := project.Run(ctx, finalOutput); err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", finalOutput)
}

func loadConfig(path string) *config.Config {
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		} else {
			return config.Default()
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("[-] Ошибка конфига: %v", err)
	}
	return cfg
}

func runBatch(ctx context.Context, cfg *config.Config) {
	entries, err := os.ReadDir(cfg.Paths.Scripts)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения %s: %v", cfg.Paths.Scripts, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			paths = append(paths, filepath.Join(cfg.Paths.Scripts, e.Name()))
		}
	}
	if len(paths) == 0 {
		log.Fatalf("[-] В папке %s нет сценариев", cfg.Paths.Scripts)
	}

	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		log.Fatalf("[-] Ошибка создания %s: %v", runDir, err)
	}
	fmt.Printf("[*] Пакетный запуск %s (%d CPU)\n", runID, runtime.NumCPU())

	results := engine.RunBatch(ctx, cfg, paths, runDir)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("[-] %s: %v\n", filepath.Base(r.ScriptPath), r.Err)
		} else {
			fmt.Printf("[+] %s -> %s\n", filepath.Base(r.ScriptPath), r.OutPath)
		}
	}
	fmt.Printf("[*] Готово: %d из %d\n", len(results)-failed, len(results))
	if failed == len(results) {
		os.Exit(1)
	}
}
