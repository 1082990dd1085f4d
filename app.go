package tilegrid

// PixelFormat is the color format of an output target.
type PixelFormat uint8

const (
	// FormatRGBA8Unorm is 8-bit RGBA, the reference target format.
	FormatRGBA8Unorm PixelFormat = iota + 1
	// FormatBGRA8Unorm is 8-bit BGRA, the usual swapchain format.
	FormatBGRA8Unorm
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8Unorm:
		return "rgba8unorm"
	case FormatBGRA8Unorm:
		return "bgra8unorm"
	default:
		return "undefined"
	}
}

// Target is the color buffer frames are rendered into. The host owns it and
// decides what presenting means (swapping a window surface, reading pixels
// back, ...).
type Target interface {
	Size() (width, height int)
	Format() PixelFormat
	Present() error
}

// ShaderStage is the source of one shader stage and its entry point.
// Source is opaque to tilegrid; the device compiles it.
type ShaderStage struct {
	Source     []byte
	EntryPoint string
}

// ShaderPair is the vertex and fragment stage of the tile pipeline. Both stages
// may share the same source.
type ShaderPair struct {
	Vertex   ShaderStage
	Fragment ShaderStage
}

// PipelineDesc is everything a Device needs to assemble a Bundle.
type PipelineDesc struct {
	Label     string
	Vertices  []Vertex
	Indices   []uint16
	Grid      InstanceGrid
	Transform Matrix4
	Format    PixelFormat
	Shaders   ShaderPair
	CullMode  CullMode
}

// Bundle is the immutable result of pipeline assembly: geometry, indices,
// instance offsets, transform and compiled pipeline state. One DrawInstanced
// call on a bundle renders every tile.
type Bundle interface {
	// IndexCount is the number of indices per instance.
	IndexCount() uint32
	// InstanceCount is the number of tile instances per draw.
	InstanceCount() uint32
	// Destroy releases the GPU resources. Safe to call more than once.
	Destroy()
}

// DrawEncoder is the part of a frame an Application may touch: it can record
// draws but cannot clear, submit or present.
type DrawEncoder interface {
	DrawInstanced(b Bundle)
}

// FrameEncoder records one frame. It is created by Device.BeginFrame with the
// color attachment already cleared.
type FrameEncoder interface {
	DrawEncoder
	// Submit ends recording and submits the commands to the device.
	Submit() error
	// Release frees transient per-frame resources. Safe after a failed Submit.
	Release()
}

// Device is the graphics backend: it assembles bundles and encodes frames.
type Device interface {
	Assemble(desc *PipelineDesc) (Bundle, error)
	BeginFrame(target Target, clear RGBA) (FrameEncoder, error)
}

// InitContext is passed to Application.Init.
type InitContext struct {
	Device Device
	Target Target
	Config Config
}

// Application builds a bundle once and draws it every frame.
type Application interface {
	Init(ctx *InitContext) (Bundle, error)
	Render(enc DrawEncoder, b Bundle)
}

// TileApp is the instanced tile grid application: one quad, one instance per
// whole tile of the viewport, one draw call per frame.
type TileApp struct {
	Shaders ShaderPair
}

// NewTileApp returns a TileApp compiling the given shader pair.
func NewTileApp(shaders ShaderPair) *TileApp {
	return &TileApp{Shaders: shaders}
}

// Init builds the instance grid and projection for ctx.Config and asks the
// device to assemble them into a bundle.
func (a *TileApp) Init(ctx *InitContext) (Bundle, error) {
	cfg := ctx.Config
	grid, err := BuildGrid(cfg.TileSize, cfg.ViewportWidth, cfg.ViewportHeight)
	if err != nil {
		return nil, err
	}
	quad := Quad(int32(cfg.TileSize)) //nolint:gosec // BuildGrid bounds TileSize to int32

	b, err := ctx.Device.Assemble(&PipelineDesc{
		Label:     "tile_grid",
		Vertices:  quad[:],
		Indices:   QuadIndices[:],
		Grid:      grid,
		Transform: ViewportOrtho(cfg.ViewportWidth, cfg.ViewportHeight),
		Format:    ctx.Target.Format(),
		Shaders:   a.Shaders,
		CullMode:  cfg.CullMode,
	})
	if err != nil {
		return nil, err
	}

	Logger().Info("tile grid assembled",
		"columns", grid.Columns,
		"rows", grid.Rows,
		"instances", grid.Len(),
		"cull", cfg.CullMode.String())
	return b, nil
}

// Render issues the single instanced draw.
func (a *TileApp) Render(enc DrawEncoder, b Bundle) {
	enc.DrawInstanced(b)
}
