package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/effects"
	"github.com/ivlev/kenburns/internal/engine"
	"github.com/ivlev/kenburns/internal/logging"
	"github.com/ivlev/kenburns/internal/metrics"
	"github.com/ivlev/kenburns/internal/source"
	"github.com/ivlev/kenburns/internal/system"
	"github.com/ivlev/kenburns/internal/video"
)

func main() {
	_ = config.Load() // .env is optional
	cfg := config.Default()

	flag.StringVar(&cfg.ScenarioPath, "scenario", "", "YAML-файл сценария (по умолчанию: самый свежий в scenarios/)")
	flag.StringVar(&cfg.OutputVideo, "output", "", "Путь к видео (если пусто, генерируется в output/)")
	flag.StringVar(&cfg.DiagnosticsPath, "diagnostics", "", "Записать расчёты по каждому клипу в YAML")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Адрес для /metrics (например, :9090)")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "Ширина")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "Высота")
	flag.IntVar(&cfg.FPS, "fps", cfg.FPS, "FPS")
	flag.IntVar(&cfg.DPI, "dpi", cfg.DPI, "DPI для страниц PDF")
	flag.StringVar(&cfg.TransitionType, "transition", cfg.TransitionType, "Тип перехода xfade: fade, wipeleft, slideup, dissolve, ...")
	flag.Float64Var(&cfg.FadeDuration, "fade", cfg.FadeDuration, "Длительность перехода (сек)")
	flag.Float64Var(&cfg.Overlap, "overlap", cfg.Overlap, "Насколько переход заходит в предыдущий клип (сек)")
	flag.IntVar(&cfg.Workers, "workers", 0, "Потоки загрузки изображений (0 - авто)")
	flag.IntVar(&cfg.Quality, "quality", cfg.Quality, "Качество видео (0 - авто)")
	flag.BoolVar(&cfg.Verbose, "v", false, "Подробный лог")
	initPtr := flag.Bool("init", false, "Создать шаблон сценария в scenarios/ и выйти")
	flag.Parse()

	logging.Init(cfg.Verbose)
	log := logging.WithComponent("main")

	if *initPtr {
		path, err := writeTemplate("scenarios")
		if err != nil {
			fmt.Fprintf(os.Stderr, "[-] Ошибка: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[*] Шаблон сценария: %s\n", path)
		return
	}

	if err := run(cfg, log); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	system.InitResourceLimits(log)

	if cfg.ScenarioPath == "" {
		latest, err := director.FindLatestScenario("scenarios")
		if err != nil {
			return fmt.Errorf("%w. Положите сценарий в scenarios/ или укажите -scenario", err)
		}
		cfg.ScenarioPath = latest
		fmt.Printf("[*] Выбран сценарий: %s\n", cfg.ScenarioPath)
	}
	if cfg.OutputVideo == "" {
		cfg.OutputVideo = defaultOutput(cfg.ScenarioPath, time.Now())
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc, err := director.ReadScenario(cfg.ScenarioPath)
	if err != nil {
		return err
	}

	host, err := system.TakeSnapshot()
	if err != nil {
		log.Debug().Err(err).Msg("host snapshot incomplete")
	}
	log.Debug().EmbedObject(host).Msg("host")
	if cfg.Workers <= 0 {
		cfg.Workers = host.DefaultWorkers()
	}
	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", cfg.VideoEncoder)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("--- [KEN BURNS] ---")
	fmt.Printf("[*] Сценарий: %s | Клипов: %d\n", cfg.ScenarioPath, len(sc.Clips))
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Переход: %s %.2fs\n", cfg.Width, cfg.Height, cfg.FPS, cfg.TransitionType, cfg.FadeDuration)
	fmt.Println("-------------------")

	loaded, err := source.LoadAll(ctx, sourceRefs(sc), cfg.DPI, cfg.Workers)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	clips := buildClips(sc, loaded, cfg.Phases)

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, m, log)
	}

	renderEngine, err := video.NewFFmpegEngine(video.Options{
		Encoder: cfg.VideoEncoder,
		Quality: cfg.Quality,
		Threads: cfg.Threads,
		TempDir: cfg.TempDir,
		Logger:  log,
	})
	if err != nil {
		return err
	}
	defer renderEngine.Close()

	effect := effects.NewKenBurns(effects.Settings{
		TargetWidth:  cfg.Width,
		TargetHeight: cfg.Height,
		WorkingScale: cfg.WorkingScale,
		FPS:          cfg.FPS,
		Precision:    cfg.Precision,
	})
	pipeline := engine.NewPipeline(effect, renderEngine, engine.Options{
		TransitionKind:     cfg.TransitionType,
		TransitionDuration: cfg.FadeDuration,
		Overlap:            cfg.Overlap,
		Logger:             log,
		Metrics:            m,
		OnProgress:         printProgress,
	})

	start := time.Now()
	res, runErr := pipeline.Run(ctx, clips)
	fmt.Println()

	if cfg.DiagnosticsPath != "" && len(res.Diagnostics) > 0 {
		if err := effects.WriteDiagnostics(cfg.DiagnosticsPath, res.Diagnostics); err != nil {
			log.Warn().Err(err).Str("path", cfg.DiagnosticsPath).Msg("cannot write diagnostics")
		} else {
			fmt.Printf("[*] Диагностика: %s\n", cfg.DiagnosticsPath)
		}
	}
	for _, cerr := range res.CleanupErrors {
		fmt.Printf("[!] %v\n", cerr)
	}
	if runErr != nil {
		if errors.Is(runErr, engine.ErrCancelled) {
			return fmt.Errorf("прервано после %d из %d операций: %w", res.Completed, res.Total, runErr)
		}
		return runErr
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.OutputVideo, res.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", cfg.OutputVideo, err)
	}

	fmt.Printf("[+++] Успех! Результат: %s (%.2fs видео за %.1fs)\n", cfg.OutputVideo, res.Duration, time.Since(start).Seconds())
	return nil
}

func printProgress(p engine.Progress) {
	fmt.Printf("\r[*] %-24s %5.1f%% (всего %5.1f%%)", p.Phase, p.OperationProgress*100, p.OverallProgress*100)
}

func serveMetrics(addr string, m *metrics.Metrics, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}
