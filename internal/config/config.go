package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ivlev/kenburns/internal/director"
)

type Config struct {
	ScenarioPath    string
	OutputVideo     string
	DiagnosticsPath string
	MetricsAddr     string

	Width        int
	Height       int
	FPS          int
	WorkingScale int
	DPI          int
	Precision    int

	TransitionType string
	FadeDuration   float64
	Overlap        float64
	Phases         director.PhaseDurations

	Workers      int
	Threads      int
	VideoEncoder string
	Quality      int
	TempDir      string
	Verbose      bool
}

// Default returns the built-in settings overridden by KENBURNS_* environment
// variables. Call Load first to pick up a .env file.
func Default() Config {
	return Config{
		MetricsAddr:    GetEnv("KENBURNS_METRICS_ADDR", ""),
		Width:          GetEnvInt("KENBURNS_WIDTH", 1280),
		Height:         GetEnvInt("KENBURNS_HEIGHT", 720),
		FPS:            GetEnvInt("KENBURNS_FPS", 30),
		WorkingScale:   GetEnvInt("KENBURNS_WORKING_SCALE", 2),
		DPI:            GetEnvInt("KENBURNS_DPI", 150),
		Precision:      GetEnvInt("KENBURNS_PRECISION", 3),
		TransitionType: GetEnv("KENBURNS_TRANSITION", "fade"),
		FadeDuration:   GetEnvFloat("KENBURNS_FADE", 0.5),
		Overlap:        GetEnvFloat("KENBURNS_OVERLAP", 0.5),
		Phases:         director.DefaultPhases,
		Threads:        GetEnvInt("KENBURNS_THREADS", 0),
		VideoEncoder:   GetEnv("KENBURNS_ENCODER", ""),
		Quality:        GetEnvInt("KENBURNS_QUALITY", 0),
		TempDir:        GetEnv("KENBURNS_TMPDIR", ""),
	}
}

// Validate checks the settings that do not depend on any clip.
func (c Config) Validate() error {
	var problems []error
	if c.Width <= 0 || c.Height <= 0 || c.Width%2 != 0 || c.Height%2 != 0 {
		problems = append(problems, fmt.Errorf("resolution %dx%d must be positive and even", c.Width, c.Height))
	}
	if c.FPS <= 0 {
		problems = append(problems, fmt.Errorf("fps %d must be positive", c.FPS))
	}
	if c.WorkingScale < 1 {
		problems = append(problems, fmt.Errorf("working scale %d must be at least 1", c.WorkingScale))
	}
	if c.DPI <= 0 {
		problems = append(problems, fmt.Errorf("dpi %d must be positive", c.DPI))
	}
	if c.Precision < 1 {
		problems = append(problems, fmt.Errorf("precision %d must be at least 1", c.Precision))
	}
	if c.FadeDuration <= 0 {
		problems = append(problems, fmt.Errorf("fade %.3fs must be positive", c.FadeDuration))
	}
	if c.Overlap < c.FadeDuration {
		problems = append(problems, fmt.Errorf("overlap %.3fs must not be shorter than the fade %.3fs", c.Overlap, c.FadeDuration))
	}
	if c.TransitionType == "" {
		problems = append(problems, errors.New("transition type is empty"))
	}
	if c.OutputVideo == "" {
		problems = append(problems, errors.New("output path is empty"))
	}
	return errors.Join(problems...)
}

// Load reads .env style files into the environment. With no paths ".env" is
// used. A missing file is an error the caller may ignore.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the variable named by key, or fallback when unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt is GetEnv for integers; unparsable values yield fallback.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvFloat is GetEnv for floats; unparsable values yield fallback.
func GetEnvFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return fallback
}
