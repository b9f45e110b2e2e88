package canopy

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween/ease"
)

// branchesPath is the gallery flight path, bottom to top.
var branchesPath = []mgl64.Vec3{
	{0, -5, 0},
	{0, 10, -25},
	{12, 35, -50},
	{-8, 65, -90},
	{10, 95, -130},
	{0, 130, -170},
}

const (
	branchesParticles    = 1200
	branchesSpread       = 20.0
	branchesNodeLift     = 1.8
	branchesNodeSide     = 3.2
	branchesRingRadius   = 1.8
	branchesRingPoints   = 32
	branchesPathSegments = 160
	branchesMinProgress  = 0.0001
	branchesMaxCamera    = 0.9999

	branchesRise      = 3500 * time.Millisecond
	branchesAutoDelay = 3500 * time.Millisecond
	branchesNodeDelay = 5 * time.Second
	branchesNodeStep  = 300 * time.Millisecond
	branchesNodePop   = 1500 * time.Millisecond
	branchesDrop      = 1200 * time.Millisecond
)

var (
	branchesGreen = mustHex("#a8e6a1")
	branchesFinal = mustHex("#e0c3fc")

	projectColors = map[string]Color{
		"ramen-9000": mustHex("#ffb070"),
		"tapin-os":   mustHex("#ffffff"),
		"iberikus":   mustHex("#5099ff"),
		"eporlan":    mustHex("#6fa8ff"),
		"arbol":      mustHex("#e8f4ff"),
	}
)

type branchNode struct {
	project Project
	t       float64
	pos     mgl64.Vec3
	baseY   float64
	bob     float64
	scale   float64
	color   Color
}

// Branches is the gallery section: the camera flies along its own path
// past one node per project. Wheel input moves a target progress and the
// camera eases toward it.
type Branches struct {
	rt    *Runtime
	cfg   BranchesConfig
	curve *Curve

	visible        bool
	active         bool
	introAnimating bool

	progress float64
	target   float64
	velocity float64
	groupY   float64
	time     float64
	spin     float64
	focus    int

	nodes     []branchNode
	particles *PointCloud
	final     mgl64.Vec3
}

// NewBranches builds the gallery for rt's configured projects.
func NewBranches(rt *Runtime) *Branches {
	curve, err := NewCurve(branchesPath, CurveCentripetal, 0)
	if err != nil {
		// The path points are constant.
		panic(err)
	}
	b := &Branches{
		rt:    rt,
		cfg:   rt.Config.Branches,
		curve: curve,
		focus: NoSection,
		final: curve.PointAt(0.99),
	}
	b.buildNodes(rt.Config.Projects)

	rng := rand.New(rand.NewPCG(rt.Config.Seed, 0xb7a9c4))
	tint := branchesGreen
	tint.A = 0.6
	b.particles = NewPointCloud(PointConfig{
		Count: branchesParticles,
		Size:  Range{0.15, 0.9},
		Sway:  0.5,
		Speed: 0.3,
		Tint:  tint,
		Blend: BlendAdd,
		Place: func(_ int, r *rand.Rand) mgl64.Vec3 {
			p := curve.PointAt(r.Float64())
			return p.Add(mgl64.Vec3{
				(r.Float64() - 0.5) * branchesSpread,
				(r.Float64() - 0.5) * branchesSpread,
				(r.Float64() - 0.5) * branchesSpread,
			})
		},
	}, rng)
	return b
}

// buildNodes spreads the projects along the path, alternating sides.
func (b *Branches) buildNodes(projects []Project) {
	n := len(projects)
	b.nodes = make([]branchNode, n)
	for i, p := range projects {
		t := 0.12 + float64(i)/float64(max(1, n-1))*0.75
		pos := b.curve.PointAt(t).Add(mgl64.Vec3{0, branchesNodeLift, 0})
		ahead := b.curve.PointAt(math.Min(1, t+0.05)).Add(mgl64.Vec3{0, branchesNodeLift, 0})

		right := worldUp.Cross(ahead.Sub(pos))
		if right.Len() > 0 {
			right = right.Normalize()
		}
		side := 1.0
		if i%2 == 1 {
			side = -1
		}
		pos = pos.Add(right.Mul(branchesNodeSide * side))

		c, ok := projectColors[p.ID]
		if !ok {
			c = branchesGreen
		}
		b.nodes[i] = branchNode{
			project: p,
			t:       t,
			pos:     pos,
			baseY:   pos.Y(),
			scale:   1,
			color:   c,
		}
	}
}

// Progress returns the eased flight progress.
func (b *Branches) Progress() float64 { return b.progress }

// TargetProgress returns the progress the camera is easing toward.
func (b *Branches) TargetProgress() float64 { return b.target }

// Velocity returns the remaining distance to the target per second.
func (b *Branches) Velocity() float64 { return b.velocity }

// Focus returns the focused project index, or NoSection.
func (b *Branches) Focus() int { return b.focus }

// FocusedProject returns the focused project.
func (b *Branches) FocusedProject() (Project, bool) {
	if b.focus < 0 || b.focus >= len(b.nodes) {
		return Project{}, false
	}
	return b.nodes[b.focus].project, true
}

// IntroAnimating reports whether the enter timeline is still running.
func (b *Branches) IntroAnimating() bool { return b.introAnimating }

// Visible implements Visibility.
func (b *Branches) Visible() bool { return b.visible }

func (b *Branches) key(prop string) TweenKey {
	return TweenKey{Target: "branches", Property: prop}
}

// Enter implements SectionController. The group rises into view, the
// camera auto-advances a little, and the nodes pop in one after another.
func (b *Branches) Enter() {
	tw := b.rt.Tweens
	tw.CancelTarget("branches")

	b.active = true
	b.visible = true
	b.introAnimating = true
	b.progress, b.target, b.velocity = 0, 0, 0
	b.setFocus(NoSection)
	b.updateCamera(0)

	b.groupY = -60
	tw.Start(b.key("group-y"), FloatProp(&b.groupY), 0, branchesRise, ease.OutQuad)
	last := tw.Start(b.key("target"), FloatProp(&b.target), b.cfg.IntroTarget, branchesRise, ease.InOutQuad).
		Delay(branchesAutoDelay)

	for i := range b.nodes {
		n := &b.nodes[i]
		n.scale = 0
		last = tw.Start(b.key(fmt.Sprintf("node-%d", i)), FloatProp(&n.scale), 1, branchesNodePop, ease.OutElastic).
			Delay(branchesNodeDelay + time.Duration(i)*branchesNodeStep)
	}
	last.OnComplete(func() { b.introAnimating = false })
	b.rt.Log.Debug("branches entered", "projects", len(b.nodes))
}

// Exit implements SectionController. The group drops away and hides.
func (b *Branches) Exit() {
	tw := b.rt.Tweens
	tw.CancelTarget("branches")
	b.active = false
	b.introAnimating = false
	b.setFocus(NoSection)
	tw.Start(b.key("group-y"), FloatProp(&b.groupY), -80, branchesDrop, ease.InQuad).
		OnComplete(func() {
			b.visible = false
			b.groupY = 0
		})
}

// OnWheel implements SectionController. Input is ignored while the enter
// timeline runs.
func (b *Branches) OnWheel(dy float64) {
	if !b.active || b.introAnimating || !finite(dy) {
		return
	}
	b.target = clamp(b.target+dy*b.cfg.WheelScale, 0, b.cfg.MaxProgress)
}

// Resize implements SectionController.
func (b *Branches) Resize(Rect) {}

// Update implements SectionController.
func (b *Branches) Update(dt float64, _ Frame) error {
	if !b.active || !b.visible {
		return nil
	}
	b.time += dt
	b.particles.Update(dt)

	b.progress += (b.target - b.progress) * perFrame(b.cfg.Ease, dt)
	b.progress = clamp(b.progress, branchesMinProgress, branchesMaxCamera)
	b.velocity = (b.target - b.progress) / math.Max(dt, 0.001)
	b.updateCamera(dt)

	for i := range b.nodes {
		n := &b.nodes[i]
		n.bob = math.Sin(b.time*1.5+float64(i)) * 0.2
		if b.introAnimating {
			continue
		}
		scale := 1.0
		if d := math.Abs(n.t - b.progress); d < 0.2 {
			scale += (0.2 - d) * 1.2
		}
		n.scale = lerp(n.scale, scale, perFrame(0.1, dt))
	}

	if !b.introAnimating {
		if b.progress > b.cfg.EndProgress {
			b.setFocus(NoSection)
		} else {
			b.setFocus(b.closestVisible())
		}
	}
	b.spin += 0.6 * dt
	return nil
}

// updateCamera puts the camera on the path with a short look-ahead and
// banks it into curves.
func (b *Branches) updateCamera(dt float64) {
	cam := b.rt.Camera
	p := clamp(b.progress, branchesMinProgress, branchesMaxCamera)
	cam.Position = b.curve.PointAt(p)
	cam.Target = b.curve.PointAt(math.Min(branchesMaxCamera, p+b.cfg.LookAhead))

	bank := -b.curve.TangentAt(p).X() * 0.5
	weight := 0.1
	if b.introAnimating {
		weight = 0.05
	}
	if dt <= 0 {
		cam.Roll = bank
		return
	}
	cam.Roll = lerp(cam.Roll, bank, perFrame(weight, dt))
}

func (b *Branches) nodeWorld(i int) mgl64.Vec3 {
	n := b.nodes[i]
	return mgl64.Vec3{n.pos.X(), n.baseY + n.bob + b.groupY, n.pos.Z()}
}

// qualifies reports whether node i is within maxDist, in front of the
// camera, and inside the screen window. It returns the node's distance and
// NDC position.
func (b *Branches) qualifies(i int, maxDist float64) (dist float64, ndc mgl64.Vec3, ok bool) {
	cam := b.rt.Camera
	sel := b.cfg.Selector
	wp := b.nodeWorld(i)
	dist = wp.Sub(cam.Position).Len()
	if dist > maxDist || dist == 0 {
		return dist, ndc, false
	}
	if cam.Forward().Dot(wp.Sub(cam.Position).Normalize()) < sel.ForwardDot {
		return dist, ndc, false
	}
	ndc, _, inFront := cam.ProjectNDC(wp)
	if !inFront {
		return dist, ndc, false
	}
	if math.Abs(ndc.X()) >= sel.ScreenWindow || math.Abs(ndc.Y()) >= sel.ScreenWindow {
		return dist, ndc, false
	}
	return dist, ndc, true
}

// closestVisible picks the project to focus. The current focus is kept
// until it leaves the wider deactivate range; otherwise the closest, most
// centered node within the activate range wins.
func (b *Branches) closestVisible() int {
	sel := b.cfg.Selector
	if b.focus >= 0 && b.focus < len(b.nodes) {
		if _, _, ok := b.qualifies(b.focus, sel.DeactivateDistance); ok {
			return b.focus
		}
	}
	best, bestScore := NoSection, math.Inf(1)
	for i := range b.nodes {
		d, ndc, ok := b.qualifies(i, sel.ActivateDistance)
		if !ok {
			continue
		}
		score := d + (math.Abs(ndc.X())+math.Abs(ndc.Y()))*sel.CenterPenalty
		if score < bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func (b *Branches) setFocus(i int) {
	if i == b.focus {
		return
	}
	b.focus = i
	if p, ok := b.FocusedProject(); ok {
		b.rt.Log.Debug("project focused", "index", i, "id", p.ID)
	}
	b.rt.Events.ProjectFocused.Emit(i)
}

// Emit implements Emitter.
func (b *Branches) Emit(dl *DrawList, _ *Camera) {
	if !b.visible {
		return
	}
	lift := mgl64.Vec3{0, b.groupY, 0}

	trail := branchesGreen
	trail.A = 0.15
	tube := lift.Add(mgl64.Vec3{0, -2, 0})
	prev := b.curve.PointAt(0).Add(tube)
	for i := 1; i <= branchesPathSegments; i++ {
		p := b.curve.PointAt(float64(i) / branchesPathSegments).Add(tube)
		dl.Line(prev, p, 1.5, trail)
		prev = p
	}

	b.particles.Emit(dl, lift)

	for i := range b.nodes {
		b.emitNode(dl, i)
	}
	b.emitFinal(dl, lift)
}

func (b *Branches) emitNode(dl *DrawList, i int) {
	n := &b.nodes[i]
	s := n.scale
	if s <= 0.01 {
		return
	}
	center := b.nodeWorld(i)

	ring := branchesGreen
	ring.A = 0.3
	base := center.Add(mgl64.Vec3{0, -1.5 * s, 0})
	for k := 0; k < branchesRingPoints; k++ {
		a := float64(k) / branchesRingPoints * 2 * math.Pi
		p := base.Add(mgl64.Vec3{math.Cos(a) * branchesRingRadius * s, 0, math.Sin(a) * branchesRingRadius * s})
		dl.Point(p, 0.05, ring, BlendAdd)
	}

	core := n.color
	if i == b.focus {
		core = core.Scale(1.3)
	}
	dl.Point(center, 0.9*s, core, BlendAdd)

	if n.project.ID == "iberikus" {
		for k := 0; k < 5; k++ {
			h := (1.2 + math.Sin(float64(k)*1.7)*0.7) * (1 + math.Sin(b.time*3+float64(k-2)*2.5)*0.5)
			x := float64(k-2) * 0.5 * s
			bottom := center.Add(mgl64.Vec3{x, -1 * s, 0})
			dl.Line(bottom, bottom.Add(mgl64.Vec3{0, h * s, 0}), 4, n.color)
		}
	}
}

// octahedron vertices and edges for the final marker.
var (
	octaVerts = [6]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	octaEdges = [12][2]int{
		{0, 2}, {0, 3}, {0, 4}, {0, 5},
		{1, 2}, {1, 3}, {1, 4}, {1, 5},
		{2, 4}, {4, 3}, {3, 5}, {5, 2},
	}
)

func (b *Branches) emitFinal(dl *DrawList, lift mgl64.Vec3) {
	center := b.final.Add(lift)
	rot := mgl64.QuatRotate(b.spin, mgl64.Vec3{0, 1, 0}).Mul(mgl64.QuatRotate(b.spin, mgl64.Vec3{0, 0, 1}))
	var pts [6]mgl64.Vec3
	for i, v := range octaVerts {
		pts[i] = center.Add(rot.Rotate(v.Mul(1.5)))
	}
	edge := ColorWhite
	edge.A = 0.3
	for _, e := range octaEdges {
		dl.Line(pts[e[0]], pts[e[1]], 1, edge)
	}
	dl.Point(center, 1.2, branchesFinal, BlendAdd)
}
