package tilegrid

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// callLog records the order of device, encoder and target calls.
type callLog struct {
	calls []string
}

func (l *callLog) add(s string) { l.calls = append(l.calls, s) }

func (l *callLog) String() string { return strings.Join(l.calls, ",") }

// fakeBundle is a bundle with fixed counts.
type fakeBundle struct {
	indices   uint32
	instances uint32
	destroyed int
}

func (b *fakeBundle) IndexCount() uint32    { return b.indices }
func (b *fakeBundle) InstanceCount() uint32 { return b.instances }
func (b *fakeBundle) Destroy()              { b.destroyed++ }

// fakeDevice assembles fake bundles and records frame calls.
type fakeDevice struct {
	log *callLog

	assembleErr error
	beginErr    error
	submitErr   error

	lastDesc *PipelineDesc
	bundles  []*fakeBundle
	clear    RGBA
	draws    []Bundle
	logger   *slog.Logger
}

func newFakeDevice() *fakeDevice { return &fakeDevice{log: &callLog{}} }

func (d *fakeDevice) Assemble(desc *PipelineDesc) (Bundle, error) {
	d.log.add("assemble")
	if d.assembleErr != nil {
		return nil, d.assembleErr
	}
	d.lastDesc = desc
	b := &fakeBundle{
		indices:   uint32(len(desc.Indices)),
		instances: uint32(desc.Grid.Len()),
	}
	d.bundles = append(d.bundles, b)
	return b, nil
}

func (d *fakeDevice) BeginFrame(_ Target, clear RGBA) (FrameEncoder, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	d.log.add("clear")
	d.clear = clear
	return &fakeEncoder{device: d}, nil
}

func (d *fakeDevice) SetLogger(l *slog.Logger) { d.logger = l }

type fakeEncoder struct {
	device *fakeDevice
}

func (e *fakeEncoder) DrawInstanced(b Bundle) {
	e.device.log.add("draw")
	e.device.draws = append(e.device.draws, b)
}

func (e *fakeEncoder) Submit() error {
	e.device.log.add("submit")
	return e.device.submitErr
}

func (e *fakeEncoder) Release() { e.device.log.add("release") }

// fakeTarget is a target of fixed size.
type fakeTarget struct {
	log        *callLog
	w, h       int
	presentErr error
}

func (t *fakeTarget) Size() (int, int)    { return t.w, t.h }
func (t *fakeTarget) Format() PixelFormat { return FormatRGBA8Unorm }
func (t *fakeTarget) Present() error {
	t.log.add("present")
	return t.presentErr
}

func newFakeRenderer(t *testing.T, opts ...Option) (*Renderer, *fakeDevice, *fakeTarget) {
	t.Helper()
	cfg, err := NewConfig(opts...)
	if err != nil {
		t.Fatalf("NewConfig() = %v", err)
	}
	d := newFakeDevice()
	target := &fakeTarget{log: d.log, w: cfg.ViewportWidth, h: cfg.ViewportHeight}
	r, err := NewRenderer(d, target, NewTileApp(ShaderPair{}), cfg)
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	return r, d, target
}

func TestNewRendererAssemblesTileGrid(t *testing.T) {
	r, d, _ := newFakeRenderer(t)

	desc := d.lastDesc
	if desc == nil {
		t.Fatal("Assemble was not called")
	}
	if desc.Grid.Len() != 3072 {
		t.Errorf("grid instances = %d, want 3072", desc.Grid.Len())
	}
	if len(desc.Vertices) != 4 || len(desc.Indices) != 6 {
		t.Errorf("geometry = %d vertices, %d indices", len(desc.Vertices), len(desc.Indices))
	}
	if desc.Transform != ViewportOrtho(1024, 768) {
		t.Error("transform is not the viewport projection")
	}
	if desc.Format != FormatRGBA8Unorm {
		t.Errorf("format = %v", desc.Format)
	}
	if desc.CullMode != CullBack {
		t.Errorf("cull mode = %v, want back", desc.CullMode)
	}
	if r.State() != StateIdle {
		t.Errorf("State() = %v, want idle", r.State())
	}
	if r.Bundle().InstanceCount() != 3072 {
		t.Errorf("bundle instances = %d", r.Bundle().InstanceCount())
	}
}

func TestRenderFrameOrder(t *testing.T) {
	r, d, _ := newFakeRenderer(t, WithClearColor(RGB(1, 0, 0)))
	d.log.calls = nil

	if err := r.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame() = %v", err)
	}
	if got, want := d.log.String(), "clear,draw,submit,present,release"; got != want {
		t.Errorf("call order = %s, want %s", got, want)
	}
	if d.clear != RGB(1, 0, 0) {
		t.Errorf("clear color = %+v", d.clear)
	}
	if len(d.draws) != 1 || d.draws[0] != r.Bundle() {
		t.Errorf("draws = %v, want the renderer's bundle once", d.draws)
	}
	if r.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", r.Frames())
	}
}

func TestRenderFrameRepeats(t *testing.T) {
	r, d, _ := newFakeRenderer(t)
	for i := 0; i < 5; i++ {
		if err := r.RenderFrame(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if len(d.draws) != 5 {
		t.Errorf("draws = %d, want 5", len(d.draws))
	}
	if len(d.bundles) != 1 {
		t.Errorf("bundles assembled = %d, want 1", len(d.bundles))
	}
}

func TestRenderFrameErrors(t *testing.T) {
	boom := errors.New("device lost")
	tests := []struct {
		name      string
		setup     func(*fakeDevice, *fakeTarget)
		wantStage Stage
		wantCalls string
	}{
		{
			name:      "begin",
			setup:     func(d *fakeDevice, _ *fakeTarget) { d.beginErr = boom },
			wantStage: StageBeginFrame,
			wantCalls: "",
		},
		{
			name:      "submit",
			setup:     func(d *fakeDevice, _ *fakeTarget) { d.submitErr = boom },
			wantStage: StageSubmit,
			wantCalls: "clear,draw,submit,release",
		},
		{
			name:      "present",
			setup:     func(_ *fakeDevice, tg *fakeTarget) { tg.presentErr = boom },
			wantStage: StagePresent,
			wantCalls: "clear,draw,submit,present,release",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, d, target := newFakeRenderer(t)
			tt.setup(d, target)
			d.log.calls = nil

			err := r.RenderFrame()
			if !errors.Is(err, ErrFrameSubmission) {
				t.Fatalf("RenderFrame() = %v, want ErrFrameSubmission", err)
			}
			if !errors.Is(err, boom) {
				t.Errorf("RenderFrame() = %v, want it to wrap %v", err, boom)
			}
			if stage, ok := StageOf(err); !ok || stage != tt.wantStage {
				t.Errorf("stage = %q, want %q", stage, tt.wantStage)
			}
			if got := d.log.String(); got != tt.wantCalls {
				t.Errorf("calls = %s, want %s", got, tt.wantCalls)
			}
			if r.Frames() != 0 {
				t.Errorf("Frames() = %d, want 0", r.Frames())
			}
			if r.State() != StateIdle {
				t.Errorf("State() = %v, want idle after failure", r.State())
			}
		})
	}
}

func TestRenderFrameKeepsBackendStage(t *testing.T) {
	r, d, _ := newFakeRenderer(t)
	d.submitErr = NewError(StagePresent, errors.New("swapchain out of date"))

	err := r.RenderFrame()
	if stage, _ := StageOf(err); stage != StagePresent {
		t.Errorf("stage = %q, want backend-reported %q", stage, StagePresent)
	}
}

func TestNewRendererFailures(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		size    [2]int
		asmErr  error
		wantErr error
	}{
		{
			name:    "viewport mismatch",
			cfg:     DefaultConfig(),
			size:    [2]int{800, 600},
			wantErr: ErrViewportMismatch,
		},
		{
			name:    "invalid tile size",
			cfg:     Config{TileSize: 0, ViewportWidth: 64, ViewportHeight: 64},
			size:    [2]int{64, 64},
			wantErr: ErrInvalidTileSize,
		},
		{
			name:    "shader rejected",
			cfg:     DefaultConfig(),
			size:    [2]int{1024, 768},
			asmErr:  NewError(StageShaderCompile, errors.New("unexpected token")),
			wantErr: ErrShaderCompilation,
		},
		{
			name:    "pipeline rejected",
			cfg:     DefaultConfig(),
			size:    [2]int{1024, 768},
			asmErr:  NewError(StagePipelineCreate, errors.New("bad layout")),
			wantErr: ErrPipelineAssembly,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newFakeDevice()
			d.assembleErr = tt.asmErr
			target := &fakeTarget{log: d.log, w: tt.size[0], h: tt.size[1]}

			r, err := NewRenderer(d, target, NewTileApp(ShaderPair{}), tt.cfg)
			if r != nil {
				t.Error("expected no renderer")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewRenderer() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRendererClose(t *testing.T) {
	r, d, _ := newFakeRenderer(t)
	b := d.bundles[0]

	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if b.destroyed != 1 {
		t.Errorf("bundle destroyed %d times, want 1", b.destroyed)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if b.destroyed != 1 {
		t.Errorf("bundle destroyed %d times after second Close", b.destroyed)
	}
	if err := r.RenderFrame(); !errors.Is(err, ErrClosed) {
		t.Errorf("RenderFrame() after Close = %v, want ErrClosed", err)
	}
	if err := r.Rebuild(&fakeTarget{log: d.log, w: 1024, h: 768}, DefaultConfig()); !errors.Is(err, ErrClosed) {
		t.Errorf("Rebuild() after Close = %v, want ErrClosed", err)
	}
	if r.Bundle() != nil {
		t.Error("Bundle() should be nil after Close")
	}
}

// reentrantApp calls back into the renderer while a frame is encoding.
type reentrantApp struct {
	TileApp
	r          *Renderer
	frameErr   error
	rebuildErr error
	closeErr   error
}

func (a *reentrantApp) Render(enc DrawEncoder, b Bundle) {
	a.frameErr = a.r.RenderFrame()
	a.rebuildErr = a.r.Rebuild(a.r.target, a.r.cfg)
	a.closeErr = a.r.Close()
	enc.DrawInstanced(b)
}

func TestRendererRejectsReentry(t *testing.T) {
	cfg := DefaultConfig()
	d := newFakeDevice()
	target := &fakeTarget{log: d.log, w: cfg.ViewportWidth, h: cfg.ViewportHeight}
	app := &reentrantApp{}
	r, err := NewRenderer(d, target, app, cfg)
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	app.r = r

	if err := r.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame() = %v", err)
	}
	for name, err := range map[string]error{
		"RenderFrame": app.frameErr,
		"Rebuild":     app.rebuildErr,
		"Close":       app.closeErr,
	} {
		if !errors.Is(err, ErrFrameInFlight) {
			t.Errorf("%s during frame = %v, want ErrFrameInFlight", name, err)
		}
	}
	if r.State() != StateIdle {
		t.Errorf("State() = %v, want idle", r.State())
	}
}

func TestRendererRebuild(t *testing.T) {
	r, d, _ := newFakeRenderer(t)
	old := d.bundles[0]

	cfg, err := NewConfig(WithViewport(800, 520), WithCullMode(CullNone))
	if err != nil {
		t.Fatalf("NewConfig() = %v", err)
	}
	target := &fakeTarget{log: d.log, w: 800, h: 520}
	if err := r.Rebuild(target, cfg); err != nil {
		t.Fatalf("Rebuild() = %v", err)
	}
	if old.destroyed != 1 {
		t.Errorf("old bundle destroyed %d times, want 1", old.destroyed)
	}
	if got := r.Bundle().InstanceCount(); got != 1600 {
		t.Errorf("InstanceCount() = %d, want 1600", got)
	}
	if r.Config().CullMode != CullNone {
		t.Errorf("Config().CullMode = %v", r.Config().CullMode)
	}
	if d.lastDesc.CullMode != CullNone {
		t.Errorf("assembled cull mode = %v", d.lastDesc.CullMode)
	}
}

func TestRendererRebuildFailureKeepsBundle(t *testing.T) {
	r, d, _ := newFakeRenderer(t)
	old := r.Bundle()

	d.assembleErr = NewError(StagePipelineCreate, errors.New("out of memory"))
	err := r.Rebuild(&fakeTarget{log: d.log, w: 1024, h: 768}, DefaultConfig())
	if !errors.Is(err, ErrPipelineAssembly) {
		t.Fatalf("Rebuild() = %v, want ErrPipelineAssembly", err)
	}
	if r.Bundle() != old {
		t.Error("failed Rebuild replaced the bundle")
	}
	if d.bundles[0].destroyed != 0 {
		t.Error("failed Rebuild destroyed the current bundle")
	}

	if err := r.Rebuild(&fakeTarget{log: d.log, w: 10, h: 10}, DefaultConfig()); !errors.Is(err, ErrViewportMismatch) {
		t.Errorf("Rebuild() with mismatched target = %v, want ErrViewportMismatch", err)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateIdle, "idle"},
		{StateEncoding, "encoding"},
		{StateClosed, "closed"},
		{State(9), "State(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", uint8(tt.s), got, tt.want)
		}
	}
}
