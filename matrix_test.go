package tilegrid

import (
	"encoding/binary"
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestViewportOrthoCorners(t *testing.T) {
	m := ViewportOrtho(1024, 768)
	tests := []struct {
		name         string
		x, y         float32
		wantX, wantY float32
	}{
		{"top-left", 0, 0, -1, 1},
		{"top-right", 1024, 0, 1, 1},
		{"bottom-left", 0, 768, -1, -1},
		{"bottom-right", 1024, 768, 1, -1},
		{"center", 512, 384, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, z := m.transformPoint(tt.x, tt.y)
			if !approx(x, tt.wantX) || !approx(y, tt.wantY) {
				t.Errorf("transformPoint(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, x, y, tt.wantX, tt.wantY)
			}
			if z < 0 || z > 1 {
				t.Errorf("depth %v outside [0, 1]", z)
			}
		})
	}
}

func TestOrthoDepthRange(t *testing.T) {
	m := Ortho(-1, 1, -1, 1, 0, 10)
	// z = m[10]*zIn + m[14]; near maps to 0, far to 1.
	if got := m[10]*0 + m[14]; !approx(got, 0) {
		t.Errorf("near depth = %v, want 0", got)
	}
	if got := m[10]*-10 + m[14]; !approx(got, 1) {
		t.Errorf("far depth = %v, want 1", got)
	}
}

func TestIdentity4Multiply(t *testing.T) {
	m := ViewportOrtho(800, 520)
	if got := identity4().multiply(m); got != m {
		t.Errorf("I * M = %v, want %v", got, m)
	}
	if got := m.multiply(identity4()); got != m {
		t.Errorf("M * I = %v, want %v", got, m)
	}
}

func TestMultiplyComposesTransforms(t *testing.T) {
	translate := identity4()
	translate[12], translate[13] = 16, 32

	m := ViewportOrtho(1024, 768).multiply(translate)
	x, y, _ := m.transformPoint(0, 0)
	wantX, wantY, _ := ViewportOrtho(1024, 768).transformPoint(16, 32)
	if !approx(x, wantX) || !approx(y, wantY) {
		t.Errorf("composed = (%v, %v), want (%v, %v)", x, y, wantX, wantY)
	}
}

func TestMatrix4Bytes(t *testing.T) {
	m := ViewportOrtho(1024, 768)
	buf := m.Bytes()
	if len(buf) != Matrix4Size {
		t.Fatalf("len = %d, want %d", len(buf), Matrix4Size)
	}
	for i := range m {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])); got != m[i] {
			t.Errorf("element %d = %v, want %v", i, got, m[i])
		}
	}
}
