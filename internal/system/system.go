package system

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Every staged input, rendered clip and merged clip is a file; long runs keep
// a few hundred of them open across ffmpeg children.
const openFilesLimit = 2048

func InitResourceLimits(log zerolog.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn().Err(err).Msg("cannot read open file limit")
		return
	}
	if rLimit.Cur >= openFilesLimit {
		return
	}

	rLimit.Cur = openFilesLimit
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn().Err(err).Msg("cannot raise open file limit")
		return
	}
	log.Debug().Uint64("limit", uint64(rLimit.Cur)).Msg("open file limit raised")
}

var (
	encodersOnce sync.Once
	encodersList string
)

func ffmpegEncoders() string {
	encodersOnce.Do(func() {
		out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
		if err == nil {
			encodersList = string(out)
		}
	})
	return encodersList
}

// GetBestH264Encoder picks a hardware H.264 encoder when ffmpeg has one,
// otherwise libx264.
func GetBestH264Encoder() string {
	return pickEncoder(ffmpegEncoders())
}

func pickEncoder(encoders string) string {
	// Приоритет: VideoToolbox (macOS), NVENC, затем программный libx264.
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(encoders, name) {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality is a sensible quality value for the encoder.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

// QualityArgs maps quality onto the encoder's own rate control flags.
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox не везде понимает -q:v, поэтому битрейт: 75 -> 7.5 Мбит/с.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default:
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// Snapshot is the host state reported at start-up.
type Snapshot struct {
	LogicalCPUs   int
	PhysicalCPUs  int
	MemoryTotal   uint64
	MemoryFree    uint64
	MemoryUsedPct float64
}

// TakeSnapshot reads CPU and memory figures. Fields that cannot be read are
// left zero.
func TakeSnapshot() (Snapshot, error) {
	var s Snapshot
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	logical, err := cpu.Counts(true)
	keep(err)
	s.LogicalCPUs = logical

	physical, err := cpu.Counts(false)
	keep(err)
	s.PhysicalCPUs = physical

	vm, err := mem.VirtualMemory()
	keep(err)
	if vm != nil {
		s.MemoryTotal = vm.Total
		s.MemoryFree = vm.Available
		s.MemoryUsedPct = vm.UsedPercent
	}

	if firstErr != nil {
		return s, fmt.Errorf("host snapshot: %w", firstErr)
	}
	return s, nil
}

func (s Snapshot) MarshalZerologObject(e *zerolog.Event) {
	e.Int("cpus", s.LogicalCPUs).
		Int("cores", s.PhysicalCPUs).
		Uint64("mem_total_mb", s.MemoryTotal>>20).
		Uint64("mem_free_mb", s.MemoryFree>>20).
		Float64("mem_used_pct", s.MemoryUsedPct)
}

// DefaultWorkers is the number of source images decoded in parallel before a
// run. Decoding a PDF page at high DPI holds a full RGBA page in memory, so
// fewer workers are used when free memory is short.
func (s Snapshot) DefaultWorkers() int {
	workers := s.PhysicalCPUs
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	const perWorker = 256 << 20
	if s.MemoryFree > 0 {
		workers = min(workers, max(1, int(s.MemoryFree/perWorker)))
	}
	return max(1, workers)
}
