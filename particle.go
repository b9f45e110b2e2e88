package canopy

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// Range is a closed interval used for randomized point attributes.
type Range struct {
	Min, Max float64
}

// Random returns a value in [Min, Max] drawn from rng.
func (r Range) Random(rng *rand.Rand) float64 {
	if r.Min == r.Max {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// PointCloud is a CPU-side store of drifting points. Each point has a rest
// position, a random phase, and a size; Update moves it on a small
// sinusoidal orbit around its rest position.
type PointCloud struct {
	// Tint colors every point. Alpha is multiplied in.
	Tint  Color
	Blend BlendMode
	// Sway is the orbit amplitude in world units.
	Sway float64
	// Speed is the orbit angular speed in radians per second.
	Speed float64
	// Scale multiplies every position around the origin.
	Scale float64
	// Spin is the accumulated rotation around the Y axis, in radians.
	Spin float64

	base []mgl64.Vec3
	pos  []mgl64.Vec3
	seed []float64
	size []float64
	time float64
}

// PointConfig controls how a PointCloud is generated.
type PointConfig struct {
	Count int
	Size  Range
	Sway  float64
	Speed float64
	Tint  Color
	Blend BlendMode
	// Place returns the rest position of point i.
	Place func(i int, rng *rand.Rand) mgl64.Vec3
}

// NewPointCloud generates cfg.Count points with rng. A nil Place scatters
// points in a unit cube.
func NewPointCloud(cfg PointConfig, rng *rand.Rand) *PointCloud {
	n := max(cfg.Count, 0)
	place := cfg.Place
	if place == nil {
		place = func(_ int, r *rand.Rand) mgl64.Vec3 {
			return mgl64.Vec3{r.Float64()*2 - 1, r.Float64()*2 - 1, r.Float64()*2 - 1}
		}
	}
	pc := &PointCloud{
		Tint:  cfg.Tint,
		Blend: cfg.Blend,
		Sway:  cfg.Sway,
		Speed: cfg.Speed,
		Scale: 1,
		base:  make([]mgl64.Vec3, n),
		pos:   make([]mgl64.Vec3, n),
		seed:  make([]float64, n),
		size:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		pc.base[i] = place(i, rng)
		pc.pos[i] = pc.base[i]
		pc.seed[i] = rng.Float64() * math.Pi * 2
		pc.size[i] = cfg.Size.Random(rng)
	}
	return pc
}

// Len returns the number of points.
func (pc *PointCloud) Len() int { return len(pc.pos) }

// Position returns point i after scale and spin.
func (pc *PointCloud) Position(i int) mgl64.Vec3 {
	return pc.transform(pc.pos[i])
}

// SetBase moves point i's rest position.
func (pc *PointCloud) SetBase(i int, p mgl64.Vec3) {
	pc.base[i] = p
}

// Update advances the orbits by dt seconds.
func (pc *PointCloud) Update(dt float64) {
	pc.time += dt
	if pc.Sway == 0 {
		copy(pc.pos, pc.base)
		return
	}
	for i, b := range pc.base {
		ph := pc.seed[i] + pc.time*pc.Speed
		pc.pos[i] = mgl64.Vec3{
			b.X() + math.Sin(ph)*pc.Sway,
			b.Y() + math.Cos(ph*0.7)*pc.Sway,
			b.Z() + math.Sin(ph*1.3)*pc.Sway*0.5,
		}
	}
}

func (pc *PointCloud) transform(p mgl64.Vec3) mgl64.Vec3 {
	if pc.Spin != 0 {
		s, c := math.Sincos(pc.Spin)
		p = mgl64.Vec3{p.X()*c + p.Z()*s, p.Y(), -p.X()*s + p.Z()*c}
	}
	return p.Mul(pc.Scale)
}

// Emit queues every point, offset by origin.
func (pc *PointCloud) Emit(dl *DrawList, origin mgl64.Vec3) {
	if pc.Scale <= 0 || pc.Tint.A <= 0 {
		return
	}
	for i := range pc.pos {
		dl.Point(origin.Add(pc.transform(pc.pos[i])), pc.size[i]*pc.Scale, pc.Tint, pc.Blend)
	}
}
