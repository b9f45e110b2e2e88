package canopy

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Mood is the bundle of visual parameters associated with a section.
type Mood struct {
	FogColor   Color   `yaml:"fog_color"`
	FogDensity float64 `yaml:"fog_density"`

	CoreLightColor     Color   `yaml:"core_light_color"`
	CoreLightIntensity float64 `yaml:"core_light_intensity"`
	MoonLightColor     Color   `yaml:"moon_light_color"`
	MoonLightIntensity float64 `yaml:"moon_light_intensity"`
	AmbientColor       Color   `yaml:"ambient_color"`
	AmbientIntensity   float64 `yaml:"ambient_intensity"`

	ParticleTint Color   `yaml:"particle_tint"`
	Bloom        float64 `yaml:"bloom"`
}

// Lerp blends every parameter of m toward to by t. Colors are interpolated in
// linear RGB so mid-blend tints do not darken.
func (m Mood) Lerp(to Mood, t float64) Mood {
	t = clamp01(t)
	return Mood{
		FogColor:           lerpColorLinear(m.FogColor, to.FogColor, t),
		FogDensity:         lerp(m.FogDensity, to.FogDensity, t),
		CoreLightColor:     lerpColorLinear(m.CoreLightColor, to.CoreLightColor, t),
		CoreLightIntensity: lerp(m.CoreLightIntensity, to.CoreLightIntensity, t),
		MoonLightColor:     lerpColorLinear(m.MoonLightColor, to.MoonLightColor, t),
		MoonLightIntensity: lerp(m.MoonLightIntensity, to.MoonLightIntensity, t),
		AmbientColor:       lerpColorLinear(m.AmbientColor, to.AmbientColor, t),
		AmbientIntensity:   lerp(m.AmbientIntensity, to.AmbientIntensity, t),
		ParticleTint:       lerpColorLinear(m.ParticleTint, to.ParticleTint, t),
		Bloom:              lerp(m.Bloom, to.Bloom, t),
	}
}

// Section is a thematic zone of the main timeline.
type Section struct {
	Name     string `yaml:"name"`
	Subtitle string `yaml:"subtitle"`
	Color    Color  `yaml:"color"`
	Mood     Mood   `yaml:"mood"`
}

// Palette holds the title-screen mood and one entry per section.
type Palette struct {
	Title    Mood      `yaml:"title"`
	Sections []Section `yaml:"sections"`
}

// MoodAt returns the mood for a section index; NoSection and out-of-range
// indices return the title mood.
func (p *Palette) MoodAt(i int) Mood {
	if i < 0 || i >= len(p.Sections) {
		return p.Title
	}
	return p.Sections[i].Mood
}

// ParseHex parses "#rrggbb" or "#rgb" into an opaque Color.
func ParseHex(s string) (Color, error) {
	if len(s) == 4 && s[0] == '#' {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return Color{R: c.R, G: c.G, B: c.B, A: 1}, nil
}

// mustHex is for package-level literals only.
func mustHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the RGB part of c as "#rrggbb".
func (c Color) Hex() string {
	return colorful.Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}.Hex()
}

// UnmarshalYAML decodes a hex string.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseHex(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*c = parsed
	return nil
}

// MarshalYAML encodes c as a hex string.
func (c Color) MarshalYAML() (any, error) {
	return c.Hex(), nil
}

func lerpColorLinear(a, b Color, t float64) Color {
	ca := colorful.Color{R: a.R, G: a.G, B: a.B}
	cb := colorful.Color{R: b.R, G: b.G, B: b.B}
	m := ca.BlendLinearRgb(cb, t)
	return Color{R: m.R, G: m.G, B: m.B, A: lerp(a.A, b.A, t)}
}
