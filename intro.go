package canopy

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// Intro is the hold-to-charge title sequence. Holding the pointer charges a
// vortex; once the charge crosses the trigger threshold the intro asks for
// the main transition exactly once and fades out.
type Intro struct {
	// Trigger is the charge that starts the transition.
	Trigger float64

	charge    float64
	reveal    float64
	held      bool
	triggered bool
	fading    bool
	done      bool

	strandFade float64
	glyphFade  float64
	pointer    mgl64.Vec2
	time       float64

	strands *PointCloud
	glyphs  *PointCloud
	scatter []mgl64.Vec3
	rest    []mgl64.Vec3
}

const (
	introStrands       = 50
	introStrandPoints  = 40
	introGlyphPoints   = 900
	introTriggerCharge = 0.95
)

// NewIntro builds the strand and glyph clouds from seed.
func NewIntro(seed uint64) *Intro {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	in := &Intro{
		Trigger:    introTriggerCharge,
		strandFade: 1,
		glyphFade:  1,
	}

	// Each strand is a quadratic Bezier through the origin.
	type strand struct{ a, b mgl64.Vec3 }
	strands := make([]strand, introStrands)
	for i := range strands {
		rv := func() mgl64.Vec3 {
			return mgl64.Vec3{(rng.Float64() - 0.5) * 8, (rng.Float64() - 0.5) * 6, (rng.Float64() - 0.5) * 8}.Mul(rng.Float64())
		}
		strands[i] = strand{rv(), rv()}
	}
	in.strands = NewPointCloud(PointConfig{
		Count: introStrands * introStrandPoints,
		Size:  Range{0.01, 0.025},
		Sway:  0.05,
		Speed: 1.2,
		Tint:  Color{0.45, 0.75, 1, 0.8},
		Blend: BlendAdd,
		Place: func(i int, _ *rand.Rand) mgl64.Vec3 {
			s := strands[i/introStrandPoints]
			t := float64(i%introStrandPoints) / float64(introStrandPoints-1)
			u := 1 - t
			// The control point is the origin, so only the end terms remain.
			p := s.a.Mul(u * u).Add(s.b.Mul(t * t))
			return p.Add(mgl64.Vec3{0, 0, -0.5})
		},
	}, rng)

	// Glyph points settle on a 2.8 wide band, like the title text.
	in.glyphs = NewPointCloud(PointConfig{
		Count: introGlyphPoints,
		Size:  Range{0.012, 0.03},
		Tint:  Color{0.9, 0.97, 1, 1},
		Blend: BlendAdd,
		Place: func(_ int, r *rand.Rand) mgl64.Vec3 {
			return mgl64.Vec3{(r.Float64() - 0.5) * 2.8, (r.Float64() - 0.5) * 0.35, (r.Float64() - 0.5) * 0.1}
		},
	}, rng)
	in.rest = make([]mgl64.Vec3, in.glyphs.Len())
	in.scatter = make([]mgl64.Vec3, in.glyphs.Len())
	for i := range in.rest {
		in.rest[i] = in.glyphs.Position(i)
		in.scatter[i] = mgl64.Vec3{(rng.Float64() - 0.5) * 5, (rng.Float64() - 0.5) * 5, (rng.Float64() - 0.5) * 5}
	}
	return in
}

// Charge returns the current vortex charge in [0, 1].
func (in *Intro) Charge() float64 { return in.charge }

// Reveal returns the title reveal progress in [0, 1].
func (in *Intro) Reveal() float64 { return in.reveal }

// Triggered reports whether the intro has requested the transition.
func (in *Intro) Triggered() bool { return in.triggered }

// Done reports whether the fade out finished.
func (in *Intro) Done() bool { return in.done }

// FadeOut starts fading the intro visuals.
func (in *Intro) FadeOut() {
	if !in.done {
		in.fading = true
	}
}

// Update advances the intro by dt seconds and reports whether the charge
// crossed the trigger threshold on this call. It reports true at most once.
func (in *Intro) Update(dt float64, f Frame) bool {
	if in.done {
		return false
	}
	in.time += dt
	if !in.triggered {
		in.held = f.Held
	}
	in.pointer = in.pointer.Add(mgl64.Vec2{f.PointerX, f.PointerY}.Sub(in.pointer).Mul(perFrame(0.05, dt)))

	if in.triggered {
		in.reveal = 1
	} else {
		in.reveal = lerp(in.reveal, 1, perFrame(0.008, dt))
	}

	target := 0.0
	if in.held {
		target = 1
	}
	in.charge = lerp(in.charge, target, perFrame(0.05, dt))

	fired := false
	if in.charge > in.Trigger && !in.triggered {
		in.triggered = true
		in.held = false
		in.FadeOut()
		fired = true
	}

	if in.fading {
		in.strandFade = lerp(in.strandFade, 0, perFrame(0.05, dt))
		in.glyphFade = lerp(in.glyphFade, 0, perFrame(0.08, dt))
		if in.strandFade < 0.01 && in.glyphFade < 0.01 {
			in.strandFade, in.glyphFade = 0, 0
			in.fading = false
			in.done = true
		}
	}

	in.strands.Spin = in.time*0.05 + in.charge*in.charge*math.Pi
	in.strands.Scale = 1 - in.charge*0.6
	in.strands.Update(dt)
	return fired
}

// Emit queues the intro visuals.
func (in *Intro) Emit(dl *DrawList) {
	if in.done {
		return
	}
	look := mgl64.Vec3{in.pointer.X() * 0.2, in.pointer.Y() * 0.2, 0}

	dl.Alpha = in.strandFade * (0.6 + in.charge*0.4)
	in.strands.Emit(dl, look)

	dl.Alpha = in.glyphFade
	swirl := in.charge * 0.5
	for i, rest := range in.rest {
		p := in.scatter[i].Add(rest.Sub(in.scatter[i]).Mul(in.reveal))
		if swirl > 0 {
			s, c := math.Sincos(swirl * (1 + float64(i%7)*0.1))
			p = mgl64.Vec3{p.X()*c - p.Y()*s, p.X()*s + p.Y()*c, p.Z()}
		}
		dl.Point(p.Add(look), 0.02, in.glyphs.Tint, BlendAdd)
	}
	dl.Alpha = 1
}
