package tilegrid

import "fmt"

// Default configuration values.
const (
	DefaultTileSize       = 16
	DefaultViewportWidth  = 1024
	DefaultViewportHeight = 768
)

// Config is the construction-time configuration of a tile grid renderer.
// There are no runtime knobs: changing any field requires Renderer.Rebuild.
type Config struct {
	// TileSize is the edge length of one square tile in pixels.
	TileSize int `yaml:"tile_size"`

	// ViewportWidth and ViewportHeight are the output target size in pixels.
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	// CullMode selects face culling for the tile pipeline.
	CullMode CullMode `yaml:"cull_mode"`

	// ClearColor fills the target at the start of every frame.
	ClearColor RGBA `yaml:"clear_color"`
}

// Option configures a Config during creation.
//
// Example:
//
//	cfg, err := tilegrid.NewConfig(
//	    tilegrid.WithTileSize(32),
//	    tilegrid.WithViewport(800, 600),
//	    tilegrid.WithCullMode(tilegrid.CullNone),
//	)
type Option func(*Config)

// DefaultConfig returns the default configuration: 16px tiles on a 1024x768
// viewport, back-face culling, dark blue clear color.
func DefaultConfig() Config {
	return Config{
		TileSize:       DefaultTileSize,
		ViewportWidth:  DefaultViewportWidth,
		ViewportHeight: DefaultViewportHeight,
		CullMode:       CullBack,
		ClearColor:     DefaultClearColor,
	}
}

// NewConfig applies opts to DefaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithTileSize sets the tile edge length in pixels.
func WithTileSize(size int) Option {
	return func(c *Config) {
		c.TileSize = size
	}
}

// WithViewport sets the viewport size in pixels.
func WithViewport(width, height int) Option {
	return func(c *Config) {
		c.ViewportWidth = width
		c.ViewportHeight = height
	}
}

// WithCullMode sets the face culling mode.
func WithCullMode(m CullMode) Option {
	return func(c *Config) {
		c.CullMode = m
	}
}

// WithClearColor sets the per-frame clear color.
func WithClearColor(color RGBA) Option {
	return func(c *Config) {
		c.ClearColor = color
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validateGridParams(c.TileSize, c.ViewportWidth, c.ViewportHeight); err != nil {
		return err
	}
	if !c.CullMode.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCullMode, uint8(c.CullMode))
	}
	return nil
}
