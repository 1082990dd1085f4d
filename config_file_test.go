package tilegrid

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		check   func(t *testing.T, cfg Config)
		wantErr error
	}{
		{
			name: "empty document",
			doc:  "",
			check: func(t *testing.T, cfg Config) {
				if cfg != DefaultConfig() {
					t.Errorf("cfg = %+v, want defaults", cfg)
				}
			},
		},
		{
			name: "full",
			doc: `
tile_size: 32
viewport_width: 800
viewport_height: 600
cull_mode: none
clear_color: "#000000"
`,
			check: func(t *testing.T, cfg Config) {
				want := Config{TileSize: 32, ViewportWidth: 800, ViewportHeight: 600, CullMode: CullNone, ClearColor: RGBA{A: 1}}
				if cfg != want {
					t.Errorf("cfg = %+v, want %+v", cfg, want)
				}
			},
		},
		{
			name: "partial keeps defaults",
			doc:  "cull_mode: front\n",
			check: func(t *testing.T, cfg Config) {
				if cfg.CullMode != CullFront || cfg.TileSize != DefaultTileSize {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{
			name: "list clear color",
			doc:  "clear_color: [0.5, 0.5, 0.5]\n",
			check: func(t *testing.T, cfg Config) {
				if cfg.ClearColor != RGB(0.5, 0.5, 0.5) {
					t.Errorf("clear color = %+v", cfg.ClearColor)
				}
			},
		},
		{
			name:    "zero tile",
			doc:     "tile_size: 0\n",
			wantErr: ErrInvalidTileSize,
		},
		{
			name:    "unknown cull",
			doc:     "cull_mode: sideways\n",
			wantErr: ErrInvalidCullMode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.doc))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseConfig() = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConfig() = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParseConfigRejectsUnknownKeys(t *testing.T) {
	_, err := ParseConfig([]byte("tile_sise: 16\n"))
	if err == nil || !strings.Contains(err.Error(), "tile_sise") {
		t.Errorf("ParseConfig() = %v, want unknown field error", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tilegrid.yaml")
	if err := os.WriteFile(path, []byte("tile_size: 8\nviewport_width: 64\nviewport_height: 64\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}
	if cfg.TileSize != 8 || cfg.ViewportWidth != 64 {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig(missing) = %v, want os.ErrNotExist", err)
	}
}
