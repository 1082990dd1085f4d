package tilegrid

import (
	"errors"
	"fmt"
)

// State is the Renderer lifecycle state.
type State uint8

const (
	// StateIdle is between frames. Rebuild is only allowed here.
	StateIdle State = iota
	// StateEncoding is while RenderFrame runs.
	StateEncoding
	// StateClosed is after Close.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEncoding:
		return "encoding"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Renderer drives one Application against one Target: it owns the bundle
// and runs clear, draw, submit, present for every frame.
//
// A Renderer is not safe for concurrent use. The host loop calls RenderFrame
// once per tick from a single goroutine.
type Renderer struct {
	device Device
	target Target
	app    Application
	cfg    Config

	bundle Bundle
	state  State
	frames uint64
}

// NewRenderer validates cfg, initializes app and returns a renderer holding
// the resulting bundle. If initialization fails no renderer is returned and
// nothing is left allocated.
func NewRenderer(device Device, target Target, app Application, cfg Config) (*Renderer, error) {
	if err := checkSetup(target, cfg); err != nil {
		return nil, err
	}
	propagateLogger(device, Logger())

	r := &Renderer{
		device: device,
		target: target,
		app:    app,
		cfg:    cfg,
	}
	b, err := r.initBundle(target, cfg)
	if err != nil {
		return nil, err
	}
	r.bundle = b
	bindDevice(device)
	return r, nil
}

func checkSetup(target Target, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	w, h := target.Size()
	if w != cfg.ViewportWidth || h != cfg.ViewportHeight {
		return fmt.Errorf("%w: target %dx%d, viewport %dx%d",
			ErrViewportMismatch, w, h, cfg.ViewportWidth, cfg.ViewportHeight)
	}
	return nil
}

func (r *Renderer) initBundle(target Target, cfg Config) (Bundle, error) {
	b, err := r.app.Init(&InitContext{Device: r.device, Target: target, Config: cfg})
	if err != nil {
		return nil, fmt.Errorf("init application: %w", err)
	}
	return b, nil
}

// RenderFrame renders exactly one frame:
//
//  1. begin the frame with the target cleared to the configured color
//  2. let the application record its draw
//  3. submit the recorded commands
//  4. present the target
//  5. release transient frame resources
//
// A failure in any step is returned as a *Error matching ErrFrameSubmission;
// the frame is not retried.
func (r *Renderer) RenderFrame() error {
	switch r.state {
	case StateClosed:
		return ErrClosed
	case StateEncoding:
		return ErrFrameInFlight
	}
	r.state = StateEncoding
	defer func() { r.state = StateIdle }()

	enc, err := r.device.BeginFrame(r.target, r.cfg.ClearColor)
	if err != nil {
		return frameError(StageBeginFrame, err)
	}
	defer enc.Release()

	r.app.Render(drawOnly{enc}, r.bundle)

	if err := enc.Submit(); err != nil {
		return frameError(StageSubmit, err)
	}
	if err := r.target.Present(); err != nil {
		return frameError(StagePresent, err)
	}
	r.frames++
	return nil
}

// drawOnly hides everything but DrawInstanced from the application, so a
// type assertion cannot reach Submit.
type drawOnly struct {
	enc DrawEncoder
}

func (d drawOnly) DrawInstanced(b Bundle) { d.enc.DrawInstanced(b) }

func frameError(stage Stage, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return NewError(stage, err)
}

// Rebuild re-initializes the application for a new target and configuration
// and swaps the new bundle in. It must be called between frames. On failure
// the current bundle stays in place.
func (r *Renderer) Rebuild(target Target, cfg Config) error {
	switch r.state {
	case StateClosed:
		return ErrClosed
	case StateEncoding:
		return ErrFrameInFlight
	}
	if err := checkSetup(target, cfg); err != nil {
		return err
	}
	b, err := r.initBundle(target, cfg)
	if err != nil {
		return err
	}

	old := r.bundle
	r.bundle = b
	r.target = target
	r.cfg = cfg
	if old != nil {
		old.Destroy()
	}
	Logger().Debug("bundle rebuilt",
		"viewport_width", cfg.ViewportWidth,
		"viewport_height", cfg.ViewportHeight,
		"instances", b.InstanceCount())
	return nil
}

// Close destroys the bundle. Further calls to RenderFrame return ErrClosed.
// Close is idempotent.
func (r *Renderer) Close() error {
	switch r.state {
	case StateClosed:
		return nil
	case StateEncoding:
		return ErrFrameInFlight
	}
	if r.bundle != nil {
		r.bundle.Destroy()
		r.bundle = nil
	}
	r.state = StateClosed
	return nil
}

// State returns the current lifecycle state.
func (r *Renderer) State() State { return r.state }

// Frames returns the number of frames presented successfully.
func (r *Renderer) Frames() uint64 { return r.frames }

// Bundle returns the current bundle, or nil after Close.
func (r *Renderer) Bundle() Bundle { return r.bundle }

// Config returns the configuration the current bundle was built from.
func (r *Renderer) Config() Config { return r.cfg }
