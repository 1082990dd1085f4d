package tilegrid

import (
	"errors"
	"testing"
)

func TestCullModeZeroValueIsBack(t *testing.T) {
	var m CullMode
	if m != CullBack {
		t.Errorf("zero CullMode = %v, want back", m)
	}
}

func TestParseCullMode(t *testing.T) {
	tests := []struct {
		in      string
		want    CullMode
		wantErr bool
	}{
		{"back", CullBack, false},
		{"Front", CullFront, false},
		{" none ", CullNone, false},
		{"nothing", CullNone, false},
		{"both", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCullMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCullMode(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCullMode) {
					t.Errorf("error %v does not wrap ErrInvalidCullMode", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseCullMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCullModeText(t *testing.T) {
	for _, m := range []CullMode{CullBack, CullFront, CullNone} {
		text, err := m.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) = %v", m, err)
		}
		var got CullMode
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) = %v", text, err)
		}
		if got != m {
			t.Errorf("text round trip %v -> %q -> %v", m, text, got)
		}
	}
	if _, err := CullMode(7).MarshalText(); !errors.Is(err, ErrInvalidCullMode) {
		t.Errorf("MarshalText(7) = %v, want ErrInvalidCullMode", err)
	}
	if CullMode(7).Valid() {
		t.Error("CullMode(7).Valid() = true")
	}
	if got := CullMode(7).String(); got != "CullMode(7)" {
		t.Errorf("String() = %q", got)
	}
}
