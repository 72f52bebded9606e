package video

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ivlev/kenburns/internal/engine"
	"github.com/ivlev/kenburns/internal/system"
)

// Options configure the ffmpeg render engine.
type Options struct {
	Binary  string // ffmpeg executable, "ffmpeg" when empty
	Encoder string // e.g. libx264, h264_nvenc
	Quality int    // encoder-specific, see system.QualityArgs
	Threads int    // 0 lets ffmpeg decide
	TempDir string // parent of the work directory, os.TempDir() when empty
	Logger  zerolog.Logger
}

// FFmpegEngine implements engine.RenderEngine on top of the ffmpeg CLI. Every
// artifact is a file inside a private work directory removed by Close.
type FFmpegEngine struct {
	opts Options
	dir  string
	pool *system.FramePool
	log  zerolog.Logger
}

var _ engine.RenderEngine = (*FFmpegEngine)(nil)

func NewFFmpegEngine(opts Options) (*FFmpegEngine, error) {
	if opts.Binary == "" {
		opts.Binary = "ffmpeg"
	}
	if opts.Encoder == "" {
		opts.Encoder = "libx264"
	}
	if opts.Quality == 0 {
		opts.Quality = system.DefaultQuality(opts.Encoder)
	}

	dir, err := os.MkdirTemp(opts.TempDir, "kenburns_")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &FFmpegEngine{
		opts: opts,
		dir:  dir,
		pool: system.NewFramePool(),
		log:  opts.Logger.With().Str("component", "ffmpeg").Logger(),
	}, nil
}

// Dir is the work directory holding all artifacts.
func (e *FFmpegEngine) Dir() string {
	return e.dir
}

// Close removes the work directory with anything still inside it.
func (e *FFmpegEngine) Close() error {
	return os.RemoveAll(e.dir)
}

func (e *FFmpegEngine) newArtifact(kind string, index int, ext string) engine.Artifact {
	id := uuid.NewString()
	return engine.Artifact{
		ID:   id,
		Path: filepath.Join(e.dir, fmt.Sprintf("%s%03d_%s%s", kind, index, id[:8], ext)),
	}
}

// Stage writes the image as raw RGBA, the input format of every clip render.
func (e *FFmpegEngine) Stage(ctx context.Context, index int, img image.Image) (engine.Artifact, error) {
	frame, release := e.pool.Packed(img)
	defer release()

	a := e.newArtifact("in", index, ".rgba")
	a.Width, a.Height = frame.Rect.Dx(), frame.Rect.Dy()
	if err := os.WriteFile(a.Path, frame.Pix, 0644); err != nil {
		return engine.Artifact{}, fmt.Errorf("write raw frame: %w", err)
	}
	return a, nil
}

func (e *FFmpegEngine) RenderClip(ctx context.Context, job engine.ClipJob, progress engine.ProgressFunc) (engine.Artifact, error) {
	d := job.Descriptor
	out := e.newArtifact("clip", job.Index, ".mp4")
	out.Width, out.Height = d.TargetWidth, d.TargetHeight
	out.Duration = d.Duration()

	if err := e.run(ctx, e.clipArgs(job, out.Path), out.Duration, progress); err != nil {
		return engine.Artifact{}, fmt.Errorf("render clip %d: %w", job.Index, err)
	}
	return out, nil
}

func (e *FFmpegEngine) Transition(ctx context.Context, job engine.TransitionJob, progress engine.ProgressFunc) (engine.Artifact, error) {
	out := e.newArtifact("merge", job.Index, ".mp4")
	out.Width, out.Height = job.From.Width, job.From.Height
	// xfade ends where the second input ends.
	out.Duration = job.Offset + job.To.Duration

	if err := e.run(ctx, e.transitionArgs(job, out.Path), out.Duration, progress); err != nil {
		return engine.Artifact{}, fmt.Errorf("xfade %d: %w", job.Index, err)
	}
	return out, nil
}

func (e *FFmpegEngine) Read(ctx context.Context, a engine.Artifact) ([]byte, error) {
	return os.ReadFile(a.Path)
}

func (e *FFmpegEngine) Remove(ctx context.Context, a engine.Artifact) error {
	return os.Remove(a.Path)
}

func (e *FFmpegEngine) commonArgs() []string {
	return []string{"-y", "-hide_banner", "-nostats", "-loglevel", "error", "-progress", "pipe:2"}
}

func (e *FFmpegEngine) encodeArgs(path string) []string {
	args := []string{"-pix_fmt", "yuv420p", "-c:v", e.opts.Encoder}
	args = append(args, system.QualityArgs(e.opts.Encoder, e.opts.Quality)...)
	if e.opts.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(e.opts.Threads))
	}
	return append(args, path)
}

func (e *FFmpegEngine) clipArgs(job engine.ClipJob, outPath string) []string {
	d := job.Descriptor
	args := e.commonArgs()
	// Один кадр на входе: zoompan сам растягивает его на FrameCount кадров.
	args = append(args,
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", job.Input.Width, job.Input.Height),
		"-i", job.Input.Path,
		"-vf", d.Filter(),
		"-frames:v", strconv.Itoa(d.FrameCount),
		"-r", strconv.Itoa(d.FPS),
	)
	return append(args, e.encodeArgs(outPath)...)
}

func (e *FFmpegEngine) transitionArgs(job engine.TransitionJob, outPath string) []string {
	args := e.commonArgs()
	args = append(args,
		"-i", job.From.Path,
		"-i", job.To.Path,
		"-filter_complex", fmt.Sprintf("[0:v][1:v]xfade=transition=%s:duration=%f:offset=%f[v]", job.Kind, job.Duration, job.Offset),
		"-map", "[v]",
	)
	return append(args, e.encodeArgs(outPath)...)
}

func (e *FFmpegEngine) run(ctx context.Context, args []string, duration float64, progress engine.ProgressFunc) error {
	e.log.Debug().Strs("args", args).Msg("exec")

	cmd := exec.CommandContext(ctx, e.opts.Binary, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}

	output := streamProgress(stderr, duration, progress)

	if err := cmd.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg: %w, output: %s", err, strings.Join(output, "\n"))
	}
	return nil
}

// maxOutputLines bounds the ffmpeg messages kept for error reports.
const maxOutputLines = 20

// streamProgress consumes ffmpeg's -progress key=value blocks, reporting
// out_time against duration at the end of every block. Lines that are not
// progress keys are returned, the last maxOutputLines of them.
func streamProgress(r io.Reader, duration float64, progress engine.ProgressFunc) []string {
	var output []string
	outTime := -1.0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.ContainsAny(key, " \t") {
			if line != "" {
				output = append(output, line)
				if len(output) > maxOutputLines {
					output = output[1:]
				}
			}
			continue
		}

		switch key {
		case "out_time_us", "out_time_ms":
			// ffmpeg reports both keys in microseconds.
			if us, err := strconv.ParseInt(value, 10, 64); err == nil {
				outTime = float64(us) / 1e6
			}
		case "progress":
			if progress == nil || duration <= 0 || outTime < 0 {
				continue
			}
			if value == "end" {
				progress(1)
			} else {
				progress(min(outTime/duration, 1))
			}
		}
	}
	return output
}
