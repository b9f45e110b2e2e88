package canopy

import (
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"#88ccff", "#88ccff", false},
		{"#fff", "#ffffff", false},
		{"#A8E6A1", "#a8e6a1", false},
		{"88ccff", "", true},
		{"#zzzzzz", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseHex(tt.in)
			if tt.err {
				if err == nil {
					t.Fatalf("ParseHex(%q) = %v, want error", tt.in, c.Hex())
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex(%q): %v", tt.in, err)
			}
			if got := c.Hex(); got != tt.want {
				t.Errorf("Hex = %q, want %q", got, tt.want)
			}
			if c.A != 1 {
				t.Errorf("A = %v, want 1", c.A)
			}
		})
	}
}

func TestMoodLerpEndpoints(t *testing.T) {
	p := DefaultConfig().Palette
	a, b := p.MoodAt(0), p.MoodAt(2)

	if got := a.Lerp(b, 0).FogDensity; !approxEqual(got, a.FogDensity, 1e-12) {
		t.Errorf("Lerp(0).FogDensity = %v, want %v", got, a.FogDensity)
	}
	if got := a.Lerp(b, 1).FogDensity; !approxEqual(got, b.FogDensity, 1e-12) {
		t.Errorf("Lerp(1).FogDensity = %v, want %v", got, b.FogDensity)
	}
	if got, want := a.Lerp(b, 0.5).Bloom, (a.Bloom+b.Bloom)/2; !approxEqual(got, want, 1e-12) {
		t.Errorf("Lerp(0.5).Bloom = %v, want %v", got, want)
	}
	if got, want := a.Lerp(b, 1).FogColor.Hex(), b.FogColor.Hex(); got != want {
		t.Errorf("Lerp(1).FogColor = %s, want %s", got, want)
	}
	// Out of range factors clamp.
	if got := a.Lerp(b, 3).Bloom; !approxEqual(got, b.Bloom, 1e-12) {
		t.Errorf("Lerp(3).Bloom = %v, want %v", got, b.Bloom)
	}
}

func TestPaletteMoodAtOutOfRange(t *testing.T) {
	p := DefaultConfig().Palette
	if p.MoodAt(NoSection) != p.Title {
		t.Error("MoodAt(NoSection) is not the title mood")
	}
	if p.MoodAt(len(p.Sections)) != p.Title {
		t.Error("MoodAt past the last section is not the title mood")
	}
	if got := p.MoodAt(0).FogColor.Hex(); got != "#001a33" {
		t.Errorf("MoodAt(0).FogColor = %s, want #001a33", got)
	}
	if got := p.MoodAt(2).Bloom; got != 1.8 {
		t.Errorf("MoodAt(2).Bloom = %v, want 1.8", got)
	}
}
