package canopy

import (
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween/ease"
)

const (
	crownPoints  = 2000
	crownSpin    = 0.05
	crownFadeR   = 7.0
	crownTabsTop = 0.85

	crownGrow       = 3 * time.Second
	crownShrink     = 1500 * time.Millisecond
	crownColorTween = time.Second
	crownModeTween  = 1200 * time.Millisecond
)

// Halo motion modes. The mode value is tweened, so in-between values
// snap to the nearest of these.
const (
	haloFlow  = 0.0
	haloChaos = 1.0
	haloGrid  = 2.0
)

type pillarStyle struct {
	color Color
	mode  float64
}

// Pillars lists the crown's content pillars in tab order.
var Pillars = []string{"architecture", "data", "product"}

var pillarStyles = map[string]pillarStyle{
	"architecture": {mustHex("#d0aaff"), haloFlow},
	"data":         {mustHex("#aaffdd"), haloGrid},
	"product":      {mustHex("#ffaaee"), haloChaos},
}

// pillarAliases maps older pillar names to current ones.
var pillarAliases = map[string]string{
	"narrative":   "architecture",
	"system":      "data",
	"interaction": "product",
}

// canonicalPillar resolves aliases and case. Unknown names fall back to
// architecture.
func canonicalPillar(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := pillarAliases[key]; ok {
		key = alias
	}
	if _, ok := pillarStyles[key]; !ok {
		return Pillars[0]
	}
	return key
}

// Crown is the about section: a slowly turning halo of points whose color
// and motion follow the selected pillar.
type Crown struct {
	rt *Runtime

	visible bool
	active  bool
	scale   float64
	time    float64
	pillar  string

	// Tween targets.
	r, g, b float64
	mode    float64

	base   []mgl64.Vec3
	jitter []mgl64.Vec3
	size   []float64
}

// NewCrown builds the halo.
func NewCrown(rt *Runtime) *Crown {
	rng := rand.New(rand.NewPCG(rt.Config.Seed, 0xc0ffee))
	style := pillarStyles[Pillars[0]]
	c := &Crown{
		rt:     rt,
		pillar: Pillars[0],
		r:      style.color.R,
		g:      style.color.G,
		b:      style.color.B,
		mode:   style.mode,
		base:   make([]mgl64.Vec3, crownPoints),
		jitter: make([]mgl64.Vec3, crownPoints),
		size:   make([]float64, crownPoints),
	}
	for i := range c.base {
		radius := 4 + rng.Float64()*5
		theta := rng.Float64() * 2 * math.Pi
		c.base[i] = mgl64.Vec3{
			radius * math.Cos(theta),
			(rng.Float64()-0.5)*15 + 10,
			radius * math.Sin(theta),
		}
		c.jitter[i] = mgl64.Vec3{rng.Float64() - 0.5, rng.Float64() - 0.5, rng.Float64() - 0.5}
		c.size[i] = rng.Float64()
	}
	return c
}

// Pillar returns the selected pillar name.
func (c *Crown) Pillar() string { return c.pillar }

// Color returns the current halo color.
func (c *Crown) Color() Color { return Color{c.r, c.g, c.b, 1} }

// Mode returns the current, possibly mid-tween, motion mode.
func (c *Crown) Mode() float64 { return c.mode }

// Scale returns the halo scale.
func (c *Crown) Scale() float64 { return c.scale }

// Visible implements Visibility.
func (c *Crown) Visible() bool { return c.visible }

func (c *Crown) key(prop string) TweenKey {
	return TweenKey{Target: "crown", Property: prop}
}

// SetMood selects a pillar and tweens the halo toward its color and
// motion. Older pillar names are accepted; unknown names select
// architecture.
func (c *Crown) SetMood(name string) {
	p := canonicalPillar(name)
	style := pillarStyles[p]
	tw := c.rt.Tweens
	tw.Start(c.key("r"), FloatProp(&c.r), style.color.R, crownColorTween, ease.OutQuad)
	tw.Start(c.key("g"), FloatProp(&c.g), style.color.G, crownColorTween, ease.OutQuad)
	tw.Start(c.key("b"), FloatProp(&c.b), style.color.B, crownColorTween, ease.OutQuad)
	tw.Start(c.key("mode"), FloatProp(&c.mode), style.mode, crownModeTween, ease.InOutQuad)

	if p != c.pillar {
		c.rt.Log.Debug("crown pillar", "from", c.pillar, "to", p)
	}
	c.pillar = p
	c.rt.Events.MoodChanged.Emit(p)
}

// Enter implements SectionController.
func (c *Crown) Enter() {
	c.active = true
	c.visible = true
	c.scale = 0
	c.rt.Tweens.Start(c.key("scale"), FloatProp(&c.scale), 1, crownGrow, ease.OutElastic)
	c.SetMood(Pillars[0])
}

// Exit implements SectionController.
func (c *Crown) Exit() {
	c.active = false
	c.rt.Tweens.Start(c.key("scale"), FloatProp(&c.scale), 0, crownShrink, ease.InQuad).
		OnComplete(func() { c.visible = false })
}

// OnWheel implements SectionController. The halo has no scroll axis.
func (c *Crown) OnWheel(float64) {}

// Resize implements SectionController.
func (c *Crown) Resize(Rect) {}

// Update implements SectionController. A press in the tab row along the
// bottom of the screen selects the pillar under it.
func (c *Crown) Update(dt float64, f Frame) error {
	if !c.visible {
		return nil
	}
	c.time += dt
	if !c.active || !f.Pressed {
		return nil
	}
	if i, ok := pillarTabAt(c.rt.Viewport(), f.ScreenX, f.ScreenY); ok && Pillars[i] != c.pillar {
		c.SetMood(Pillars[i])
	}
	return nil
}

// pillarTabAt returns the tab under a screen point. Tabs split the bottom
// strip of the viewport into equal columns.
func pillarTabAt(viewport Rect, sx, sy float64) (int, bool) {
	if viewport.Width <= 0 || viewport.Height <= 0 {
		return 0, false
	}
	if sy < viewport.Y+viewport.Height*crownTabsTop || !viewport.Contains(sx, sy) {
		return 0, false
	}
	i := int((sx - viewport.X) / viewport.Width * float64(len(Pillars)))
	return min(i, len(Pillars)-1), true
}

// haloPoint returns point i after motion, before scale and spin.
func (c *Crown) haloPoint(i int) mgl64.Vec3 {
	p := c.base[i]
	switch {
	case c.mode < 0.5:
		angle := c.time*0.2 + p.Y()*0.5
		p[0] += math.Cos(angle) * 0.5
		p[2] += math.Sin(angle) * 0.5
		p[1] += math.Sin(c.time*0.5+c.jitter[i].X()*5) * 0.2
	case c.mode < 1.5:
		p = p.Add(c.jitter[i].Mul(math.Sin(c.time*10) * 0.05))
	default:
		p[0] = math.Floor(p[0]*2) / 2
		p[2] = math.Floor(p[2]*2) / 2
		p[1] += math.Sin(c.time*0.5) * 0.1
	}
	return p
}

// Emit implements Emitter.
func (c *Crown) Emit(dl *DrawList, _ *Camera) {
	if !c.visible || c.scale <= 0.001 {
		return
	}
	s, cs := math.Sincos(c.time * crownSpin)
	tint := c.Color()
	for i := range c.base {
		p := c.haloPoint(i)
		fade := smoothstep(crownFadeR, 0, math.Hypot(p.X(), p.Z())) * 0.6
		if fade <= 0 {
			continue
		}
		p = mgl64.Vec3{p.X()*cs + p.Z()*s, p.Y(), -p.X()*s + p.Z()*cs}.Mul(c.scale)
		col := tint
		col.A = fade
		dl.Point(p, (0.04+0.12*c.size[i])*c.scale, col, BlendAdd)
	}
}

// smoothstep is the Hermite step between edge0 and edge1. edge0 may be
// greater than edge1 for a falling edge.
func smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}
