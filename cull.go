package tilegrid

import (
	"fmt"
	"strings"
)

// CullMode selects which triangle faces the pipeline discards.
// The zero value is CullBack.
type CullMode uint8

const (
	// CullBack discards clockwise (back-facing) triangles.
	CullBack CullMode = iota
	// CullFront discards counter-clockwise (front-facing) triangles.
	CullFront
	// CullNone draws both faces.
	CullNone
)

func (m CullMode) String() string {
	switch m {
	case CullBack:
		return "back"
	case CullFront:
		return "front"
	case CullNone:
		return "none"
	default:
		return fmt.Sprintf("CullMode(%d)", uint8(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m CullMode) Valid() bool { return m <= CullNone }

// ParseCullMode parses "none", "front" or "back" (case-insensitive).
func ParseCullMode(s string) (CullMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "back":
		return CullBack, nil
	case "front":
		return CullFront, nil
	case "none", "nothing":
		return CullNone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCullMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m CullMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCullMode, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *CullMode) UnmarshalText(text []byte) error {
	v, err := ParseCullMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
