package canopy

import (
	"log/slog"
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"
)

var worldUp = mgl64.Vec3{0, 1, 0}

// Camera is a perspective camera: position, look target, roll, and the
// screen-space viewport it renders into.
type Camera struct {
	// Position is the eye in world space.
	Position mgl64.Vec3
	// Target is the world-space point the camera looks at.
	Target mgl64.Vec3
	// Roll rotates the up vector around the view direction, in radians.
	Roll float64
	// FOV is the vertical field of view in radians.
	FOV float64
	// Near and Far are the clip plane distances.
	Near, Far float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect
}

// NewCamera creates a 45 degree camera at the intro pose.
func NewCamera(viewport Rect) *Camera {
	return &Camera{
		Position: mgl64.Vec3{0, 0, 5},
		FOV:      mgl64.DegToRad(45),
		Near:     0.1,
		Far:      5000,
		Viewport: viewport,
	}
}

// Aspect returns the viewport width over height, or 1 for an empty viewport.
func (c *Camera) Aspect() float64 {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return 1
	}
	return c.Viewport.Width / c.Viewport.Height
}

// Forward returns the unit view direction.
func (c *Camera) Forward() mgl64.Vec3 {
	d := c.Target.Sub(c.Position)
	if d.Len() == 0 {
		return mgl64.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// Up returns the up vector after roll.
func (c *Camera) Up() mgl64.Vec3 {
	f := c.Forward()
	up := worldUp
	if math.Abs(f.Dot(up)) > 0.999 {
		up = mgl64.Vec3{0, 0, -1}
	}
	if c.Roll == 0 {
		return up
	}
	return mgl64.QuatRotate(c.Roll, f).Rotate(up)
}

// View returns the world-to-eye matrix.
func (c *Camera) View() mgl64.Mat4 {
	target := c.Target
	if target.Sub(c.Position).Len() == 0 {
		target = c.Position.Add(mgl64.Vec3{0, 0, -1})
	}
	return mgl64.LookAtV(c.Position, target, c.Up())
}

// Projection returns the perspective matrix for the current viewport.
func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(c.FOV, c.Aspect(), c.Near, c.Far)
}

// ProjectNDC transforms a world point into normalized device coordinates.
// w is the point's distance along the view axis. ok is false for points
// behind the near plane or beyond the far plane.
func (c *Camera) ProjectNDC(p mgl64.Vec3) (ndc mgl64.Vec3, w float64, ok bool) {
	clip := c.Projection().Mul4(c.View()).Mul4x1(p.Vec4(1))
	w = clip.W()
	if w < c.Near || w > c.Far {
		return mgl64.Vec3{}, w, false
	}
	return clip.Vec3().Mul(1 / w), w, true
}

// WorldToScreen projects a world point into viewport pixels. depth is the
// distance along the view axis, used for sorting and fog.
func (c *Camera) WorldToScreen(p mgl64.Vec3) (sx, sy, depth float64, ok bool) {
	ndc, w, ok := c.ProjectNDC(p)
	if !ok {
		return 0, 0, w, false
	}
	sx = c.Viewport.X + (ndc.X()+1)/2*c.Viewport.Width
	sy = c.Viewport.Y + (1-ndc.Y())/2*c.Viewport.Height
	return sx, sy, w, true
}

// PointerToNDC converts viewport pixels to the [-1, 1] pointer convention
// with Y pointing up.
func (c *Camera) PointerToNDC(sx, sy float64) (x, y float64) {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return 0, 0
	}
	x = (sx-c.Viewport.X)/c.Viewport.Width*2 - 1
	y = -((sy-c.Viewport.Y)/c.Viewport.Height*2 - 1)
	return clamp(x, -1, 1), clamp(y, -1, 1)
}

// CameraConfig tunes the scroll-driven camera.
type CameraConfig struct {
	// Smoothing is the exponential approach rate toward the path point, per
	// second.
	Smoothing float64 `yaml:"smoothing"`
	// ParallaxX and ParallaxY scale the pointer offset of the look target.
	ParallaxX float64 `yaml:"parallax_x"`
	ParallaxY float64 `yaml:"parallax_y"`
	// Bank scales the roll derived from the tangent's lateral component.
	Bank float64 `yaml:"bank"`
	// BankFrequency and BankDamping drive the roll spring.
	BankFrequency float64 `yaml:"bank_frequency"`
	BankDamping   float64 `yaml:"bank_damping"`
	// IntroLook is the approach rate of the intro look target, per second.
	IntroLook float64 `yaml:"intro_look"`
}

// BoundsProvider reports the volume the camera path frames.
type BoundsProvider interface {
	ContentBounds() Bounds
}

// Default path used when no usable bounds exist.
var (
	defaultPathPoints = []mgl64.Vec3{{0, 3, 10}, {-5, 4, 8}, {0, 5, 6}}
	defaultAnchor     = mgl64.Vec3{0, 3, 0}
)

const (
	defaultPathTension = 0.08
	pathTension        = 0.12
	framingMargin      = 2.35
	pathFar            = 2000
)

// PathController maps scroll progress to a camera pose along a spline. The
// curve is replaced on every rebuild and never edited in place.
type PathController struct {
	Camera *Camera

	cfg      CameraConfig
	log      *slog.Logger
	curve    *Curve
	anchor   mgl64.Vec3
	pointer  mgl64.Vec2
	t        float64
	fallback bool

	startPos, startTarget mgl64.Vec3
	endPos, endTarget     mgl64.Vec3

	rollVel  float64
	spring   harmonica.Spring
	springDT float64
}

// NewPathController creates a controller on the default path.
func NewPathController(cam *Camera, cfg CameraConfig, log *slog.Logger) *PathController {
	pc := &PathController{
		Camera:      cam,
		cfg:         cfg,
		log:         log,
		startPos:    mgl64.Vec3{0, 0, 5},
		startTarget: mgl64.Vec3{},
	}
	pc.setDefaultPath()
	return pc
}

// BuildPath fits a four-point path around b at increasing height and outward
// offset, and scales the clip planes to its size. Invalid bounds fall back
// to the default path.
func (pc *PathController) BuildPath(b Bounds) {
	if !b.Valid() {
		pc.log.Warn("camera path: invalid bounds, using default path", "bounds", b)
		pc.setDefaultPath()
		return
	}
	center, size := b.Center, b.Size
	anchor := center.Add(mgl64.Vec3{0, math.Max(size.Y()*0.46, 1.5), 0})

	radius := math.Max(b.Radius(), 1)
	halfV := pc.Camera.FOV / 2
	distV := radius / math.Max(math.Tan(halfV), 1e-6)
	halfH := math.Atan(math.Tan(halfV) * pc.Camera.Aspect())
	distH := radius / math.Max(math.Tan(halfH), 1e-6)
	base := math.Max(distV, distH) * framingMargin

	type station struct {
		dir   mgl64.Vec3
		scale float64
		lift  float64
	}
	stations := [4]station{
		{mgl64.Vec3{0, 0.2, 1}, 1.1, math.Max(size.Y()*0.35, 1.4)},
		{mgl64.Vec3{-0.7, 0.42, 0.6}, 0.9, math.Max(size.Y()*0.55, 1.8)},
		{mgl64.Vec3{0.6, 0.55, 0.7}, 0.8, math.Max(size.Y()*0.75, 2.2)},
		{mgl64.Vec3{0, 0.62, -0.5}, 0.7, math.Max(size.Y(), 2.6)},
	}
	pts := make([]mgl64.Vec3, len(stations))
	for i, s := range stations {
		p := center.Add(s.dir.Normalize().Mul(base * s.scale))
		p[1] = center.Y() + s.lift
		pts[i] = p
	}

	curve, err := NewCurve(pts, CurveCatmullRom, pathTension)
	if err != nil {
		pc.log.Warn("camera path: fit failed, using default path", "err", err)
		pc.setDefaultPath()
		return
	}
	pc.curve = curve
	pc.anchor = anchor
	pc.fallback = false
	pc.Camera.Near = math.Max(0.1, base*0.012)
	pc.Camera.Far = pathFar
	pc.endPos = pts[0]
	pc.endTarget = anchor
	pc.log.Debug("camera path built", "base", base, "near", pc.Camera.Near, "length", curve.Length())
}

// BuildPathFromWorld rebuilds the path around the world's content bounds.
func (pc *PathController) BuildPathFromWorld(w BoundsProvider) {
	if w == nil {
		pc.log.Warn("camera path: no world, using default path")
		pc.setDefaultPath()
		return
	}
	pc.BuildPath(w.ContentBounds())
}

func (pc *PathController) setDefaultPath() {
	curve, err := NewCurve(defaultPathPoints, CurveCatmullRom, defaultPathTension)
	if err != nil {
		// The default points are constant; this cannot fail.
		panic(err)
	}
	pc.curve = curve
	pc.anchor = defaultAnchor
	pc.fallback = true
	pc.endPos = defaultPathPoints[0]
	pc.endTarget = defaultAnchor
}

// UsingDefault reports whether the last build fell back to the default path.
func (pc *PathController) UsingDefault() bool { return pc.fallback }

// Curve returns the current path.
func (pc *PathController) Curve() *Curve { return pc.curve }

// Anchor returns the look anchor the camera aims at.
func (pc *PathController) Anchor() mgl64.Vec3 { return pc.anchor }

// PointAt samples the path at arc-length fraction t.
func (pc *PathController) PointAt(t float64) mgl64.Vec3 { return pc.curve.PointAt(t) }

// TangentAt returns the unit path tangent at arc-length fraction t.
func (pc *PathController) TangentAt(t float64) mgl64.Vec3 { return pc.curve.TangentAt(t) }

// T returns the progress of the last UpdateFromT call.
func (pc *PathController) T() float64 { return pc.t }

// SetPointer stores the normalized pointer position used for parallax.
func (pc *PathController) SetPointer(x, y float64) {
	pc.pointer = mgl64.Vec2{clamp(x, -1, 1), clamp(y, -1, 1)}
}

// UpdateFromT moves the camera toward the path point at t. With immediate
// set the camera lands exactly on the point and the roll settles, so
// repeating the call with the same t leaves the pose unchanged.
func (pc *PathController) UpdateFromT(t float64, immediate bool, dt float64) {
	pc.t = clamp01(t)
	cam := pc.Camera
	target := pc.curve.PointAt(pc.t)
	if immediate {
		cam.Position = target
	} else {
		a := smoothingAlpha(pc.cfg.Smoothing, dt)
		cam.Position = cam.Position.Add(target.Sub(cam.Position).Mul(a))
	}
	cam.Target = pc.anchor.Add(mgl64.Vec3{
		pc.pointer.X() * pc.cfg.ParallaxX,
		pc.pointer.Y() * pc.cfg.ParallaxY,
		0,
	})

	bank := -pc.curve.TangentAt(pc.t).X() * pc.cfg.Bank
	if immediate {
		cam.Roll, pc.rollVel = bank, 0
		return
	}
	cam.Roll, pc.rollVel = pc.bankSpring(dt).Update(cam.Roll, pc.rollVel, bank)
}

func (pc *PathController) bankSpring(dt float64) harmonica.Spring {
	if dt != pc.springDT {
		pc.spring = harmonica.NewSpring(dt, pc.cfg.BankFrequency, pc.cfg.BankDamping)
		pc.springDT = dt
	}
	return pc.spring
}

// UpdateIntro eases the look target toward a pointer-reactive point in front
// of the start pose.
func (pc *PathController) UpdateIntro(dt float64) {
	cam := pc.Camera
	ahead := cam.Position.Add(cam.Forward().Mul(5))
	look := mgl64.Vec3{pc.pointer.X() * 0.3, pc.pointer.Y() * 0.3, 0}
	cam.Target = ahead.Add(look.Sub(ahead).Mul(smoothingAlpha(pc.cfg.IntroLook, dt)))
}

// UpdateTransition places the camera between the intro pose and the path's
// first point. eased is the already-eased transition factor.
func (pc *PathController) UpdateTransition(eased float64) {
	e := clamp01(eased)
	cam := pc.Camera
	cam.Position = pc.startPos.Add(pc.endPos.Sub(pc.startPos).Mul(e))
	cam.Target = pc.startTarget.Add(pc.endTarget.Sub(pc.startTarget).Mul(e))
	cam.Roll = 0
}

// ResetToStart puts the camera at the intro pose.
func (pc *PathController) ResetToStart() {
	pc.Camera.Position = pc.startPos
	pc.Camera.Target = pc.startTarget
	pc.Camera.Roll = 0
	pc.rollVel = 0
}

// Resize updates the viewport and reframes the path around w.
func (pc *PathController) Resize(viewport Rect, w BoundsProvider) {
	pc.Camera.Viewport = viewport
	if w != nil {
		pc.BuildPathFromWorld(w)
	}
}
