package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ivlev/kenburns/internal/effects"
	"github.com/ivlev/kenburns/internal/errs"
	"github.com/ivlev/kenburns/internal/metrics"
)

// ErrCancelled is the cause of a run stopped by Cancel or its context.
var ErrCancelled = errors.New("pipeline cancelled")

// Clip is one caller-supplied clip: the decoded source image and the anchor
// and zoom choices made on it.
type Clip struct {
	Image image.Image
	Input effects.ClipInput
}

// Options are fixed for the lifetime of a pipeline.
type Options struct {
	TransitionKind     string  // xfade transition name, e.g. "fade"
	TransitionDuration float64 // seconds
	Overlap            float64 // seconds the transition reaches back into the accumulator

	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	OnProgress func(Progress)
}

// Progress is one event of the progress stream.
type Progress struct {
	OperationIndex    int
	OperationProgress float64
	OverallProgress   float64
	Phase             string
}

// Plan is the validated outcome of Prepare.
type Plan struct {
	Descriptors     []*effects.ClipDescriptor
	Diagnostics     []effects.Diagnostics
	Offsets         []float64 // transition offsets, one per fold step
	Duration        float64   // duration of the final merged clip
	TotalOperations int
}

// Result is the terminal outcome of a run. State is always Done or Failed.
type Result struct {
	State         State
	Data          []byte
	Duration      float64
	Diagnostics   []effects.Diagnostics
	Completed     int
	Total         int
	Cause         error
	CleanupErrors []error
}

// Pipeline renders clips one after another and folds them together with
// crossfades. A Pipeline runs once.
type Pipeline struct {
	effect effects.Effect
	engine RenderEngine
	opts   Options
	log    zerolog.Logger

	mu        sync.Mutex
	state     PipelineState
	started   bool
	cancelled atomic.Bool

	removed       map[string]bool
	cleanupErrors []error
}

func NewPipeline(effect effects.Effect, engine RenderEngine, opts Options) *Pipeline {
	return &Pipeline{
		effect:  effect,
		engine:  engine,
		opts:    opts,
		log:     opts.Logger.With().Str("component", "pipeline").Logger(),
		removed: make(map[string]bool),
	}
}

// Cancel asks the run to stop before its next operation. The operation in
// flight, if any, is allowed to finish.
func (p *Pipeline) Cancel() {
	p.cancelled.Store(true)
}

// Phase returns a snapshot of the current phase.
func (p *Pipeline) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Phase
}

// Prepare assembles every clip descriptor and checks the fold schedule. It
// touches no render engine state and returns validation errors only.
func (p *Pipeline) Prepare(clips []Clip) (*Plan, error) {
	if len(clips) == 0 {
		return nil, fmt.Errorf("%w: no clips", errs.ErrValidation)
	}

	plan := &Plan{TotalOperations: TotalOperations(len(clips))}
	for i, c := range clips {
		if c.Image == nil {
			return nil, errs.At("clip", i, fmt.Errorf("%w: no source image", errs.ErrValidation))
		}
		desc, diag, err := p.effect.Assemble(c.Input)
		if err != nil {
			return nil, errs.At("clip", i, err)
		}
		plan.Descriptors = append(plan.Descriptors, desc)
		plan.Diagnostics = append(plan.Diagnostics, diag)
	}

	cum := plan.Descriptors[0].Duration()
	if len(clips) > 1 {
		if p.opts.TransitionDuration <= 0 || p.opts.Overlap < 0 {
			return nil, fmt.Errorf("%w: transition duration %.3fs, overlap %.3fs",
				errs.ErrValidation, p.opts.TransitionDuration, p.opts.Overlap)
		}
		// A shorter overlap would run the crossfade past the end of the accumulator.
		if p.opts.Overlap < p.opts.TransitionDuration {
			return nil, fmt.Errorf("%w: overlap %.3fs is shorter than the transition %.3fs",
				errs.ErrInsufficientOverlap, p.opts.Overlap, p.opts.TransitionDuration)
		}
	}
	for j := 1; j < len(clips); j++ {
		next := plan.Descriptors[j].Duration()
		offset := cum - p.opts.Overlap
		if offset < 0 {
			return nil, errs.At("transition", j, fmt.Errorf("%w: accumulated %.3fs, overlap %.3fs",
				errs.ErrInsufficientOverlap, cum, p.opts.Overlap))
		}
		if next < p.opts.TransitionDuration {
			return nil, errs.At("transition", j, fmt.Errorf("%w: clip is %.3fs, transition %.3fs",
				errs.ErrInsufficientOverlap, next, p.opts.TransitionDuration))
		}
		plan.Offsets = append(plan.Offsets, offset)
		cum = cum + next - p.opts.TransitionDuration
	}
	plan.Duration = cum

	return plan, nil
}

// Run validates all clips, then renders and merges them. The returned Result
// is never nil; err is non-nil exactly when Result.State is Failed. A second
// Run fails without touching the first run's state.
func (p *Pipeline) Run(ctx context.Context, clips []Clip) (*Result, error) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		err := errors.New("pipeline already ran")
		return &Result{State: Failed, Total: TotalOperations(len(clips)), Cause: err}, err
	}
	p.started = true
	p.state.TotalOperations = TotalOperations(len(clips))
	p.mu.Unlock()

	plan, err := p.Prepare(clips)
	if err != nil {
		p.log.Error().Err(err).Msg("validation failed")
		return p.finish(nil, 0, nil, err), err
	}
	for _, d := range plan.Diagnostics {
		p.log.Info().EmbedObject(d).Msg("clip planned")
	}

	p.mu.Lock()
	p.state.Descriptors = plan.Descriptors
	p.mu.Unlock()

	data, err := p.execute(ctx, clips, plan)
	if err != nil {
		p.log.Error().Err(err).Str("phase", p.Phase().String()).Msg("run failed")
	}
	p.cleanup()

	return p.finish(data, p.cumulative(), plan.Diagnostics, err), err
}

func (p *Pipeline) execute(ctx context.Context, clips []Clip, plan *Plan) ([]byte, error) {
	n := len(clips)
	// Уже запущенная операция должна завершиться: отмена проверяется между шагами.
	opCtx := context.WithoutCancel(ctx)

	for i, c := range clips {
		if err := p.checkCancelled(ctx); err != nil {
			return nil, err
		}
		desc := plan.Descriptors[i]
		phase := p.enter(Phase{State: RenderingClip, Index: i, Clips: n})

		in, err := p.engine.Stage(opCtx, i, c.Image)
		if err != nil {
			return nil, errs.At("clip", i, errs.Render(fmt.Errorf("stage input: %w", err)))
		}
		p.mu.Lock()
		p.state.Inputs = append(p.state.Inputs, in)
		p.mu.Unlock()

		op := p.completed()
		art, err := p.engine.RenderClip(opCtx, ClipJob{Index: i, Input: in, Descriptor: desc}, p.progressFor(op, phase))
		p.opts.Metrics.ObserveOperation("clip", err)
		if err != nil {
			return nil, errs.At("clip", i, errs.Render(err))
		}
		if art.Duration == 0 {
			art.Duration = desc.Duration()
		}

		p.mu.Lock()
		p.state.Clips = append(p.state.Clips, art)
		p.state.RenderedDuration += desc.Duration()
		if i == 0 {
			p.state.Accumulator = art
			p.state.HasAccumulator = true
			p.state.CumulativeDuration = desc.Duration()
		}
		p.mu.Unlock()

		p.log.Info().Int("clip", i).Str("artifact", art.ID).Float64("duration", desc.Duration()).Msg("clip rendered")
		p.complete(op, phase)
	}

	for j := 1; j < n; j++ {
		if err := p.checkCancelled(ctx); err != nil {
			return nil, err
		}
		phase := p.enter(Phase{State: Transitioning, Index: j, Clips: n})

		p.mu.Lock()
		acc, next, cum := p.state.Accumulator, p.state.Clips[j], p.state.CumulativeDuration
		p.mu.Unlock()

		job := TransitionJob{
			Index:    j,
			From:     acc,
			To:       next,
			Kind:     p.opts.TransitionKind,
			Duration: p.opts.TransitionDuration,
			Offset:   cum - p.opts.Overlap,
		}
		op := p.completed()
		out, err := p.engine.Transition(opCtx, job, p.progressFor(op, phase))
		p.opts.Metrics.ObserveOperation("transition", err)
		if err != nil {
			return nil, errs.At("transition", j, errs.Render(err))
		}

		merged := cum + plan.Descriptors[j].Duration() - p.opts.TransitionDuration
		if out.Duration == 0 {
			out.Duration = merged
		}

		p.mu.Lock()
		p.state.Accumulator = out
		p.state.CumulativeDuration = merged
		p.mu.Unlock()

		// The previous accumulator is superseded; clip 0 is kept until cleanup.
		if j > 1 {
			p.remove(opCtx, acc)
		}

		p.log.Info().Int("transition", j).Float64("offset", job.Offset).Float64("duration", merged).Msg("clips merged")
		p.complete(op, phase)
	}

	if err := p.checkCancelled(ctx); err != nil {
		return nil, err
	}
	p.enter(Phase{State: Finalizing, Clips: n})

	p.mu.Lock()
	final := p.state.Accumulator
	p.mu.Unlock()

	data, err := p.engine.Read(opCtx, final)
	if err != nil {
		return nil, errs.At("finalize", 0, errs.Render(err))
	}
	return data, nil
}

func (p *Pipeline) checkCancelled(ctx context.Context) error {
	if p.cancelled.Load() {
		return ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

func (p *Pipeline) enter(ph Phase) string {
	p.mu.Lock()
	p.state.Phase = ph
	p.mu.Unlock()

	desc := ph.String()
	p.log.Debug().Str("phase", desc).Msg("enter")
	return desc
}

func (p *Pipeline) completed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Completed
}

func (p *Pipeline) cumulative() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.CumulativeDuration
}

func (p *Pipeline) overall() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.TotalOperations == 0 {
		return 0
	}
	return float64(p.state.Completed) / float64(p.state.TotalOperations)
}

func (p *Pipeline) progressFor(op int, phase string) ProgressFunc {
	return func(fraction float64) {
		fraction = min(max(fraction, 0), 1)
		p.emit(Progress{OperationIndex: op, OperationProgress: fraction, OverallProgress: p.overall(), Phase: phase})
	}
}

func (p *Pipeline) complete(op int, phase string) {
	p.mu.Lock()
	p.state.Completed++
	p.mu.Unlock()

	overall := p.overall()
	p.opts.Metrics.SetProgress(overall)
	p.emit(Progress{OperationIndex: op, OperationProgress: 1, OverallProgress: overall, Phase: phase})
}

func (p *Pipeline) emit(ev Progress) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(ev)
	}
}

// remove deletes an artifact once. Failures are recorded but never returned.
func (p *Pipeline) remove(ctx context.Context, a Artifact) {
	if a.ID == "" || p.removed[a.ID] {
		return
	}
	p.removed[a.ID] = true

	if err := p.engine.Remove(ctx, a); err != nil {
		err = errs.Cleanup(fmt.Errorf("remove %s: %w", a.ID, err))
		p.cleanupErrors = append(p.cleanupErrors, err)
		p.opts.Metrics.IncCleanupFailures()
		p.log.Warn().Err(err).Str("artifact", a.ID).Msg("cleanup failed")
		return
	}
	p.log.Debug().Str("artifact", a.ID).Msg("artifact removed")
}

// cleanup purges staged inputs, rendered clips and the accumulator.
func (p *Pipeline) cleanup() {
	p.mu.Lock()
	var targets []Artifact
	targets = append(targets, p.state.Inputs...)
	targets = append(targets, p.state.Clips...)
	if p.state.HasAccumulator {
		targets = append(targets, p.state.Accumulator)
	}
	p.mu.Unlock()

	ctx := context.Background()
	for _, a := range targets {
		p.remove(ctx, a)
	}
}

func (p *Pipeline) finish(data []byte, duration float64, diags []effects.Diagnostics, cause error) *Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := &Result{
		Data:          data,
		Duration:      duration,
		Diagnostics:   diags,
		Completed:     p.state.Completed,
		Total:         p.state.TotalOperations,
		Cause:         cause,
		CleanupErrors: p.cleanupErrors,
	}
	if cause != nil {
		p.state.Phase = Phase{State: Failed, Index: p.state.Phase.Index, Clips: p.state.Phase.Clips}
		p.state.Cause = cause
		res.State = Failed
		res.Data = nil
	} else {
		p.state.Phase = Phase{State: Done, Clips: p.state.Phase.Clips}
		res.State = Done
	}
	p.opts.Metrics.ObserveRun(res.State.String())
	return res
}
