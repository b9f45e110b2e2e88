package canopy

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDegenerateCurve is returned when control points cannot define a curve:
// fewer than two points, non-finite coordinates, or zero total length.
var ErrDegenerateCurve = errors.New("canopy: degenerate curve")

// CurveKind selects the Catmull-Rom parameterization.
type CurveKind uint8

const (
	// CurveCatmullRom is the uniform spline with an explicit tension.
	CurveCatmullRom CurveKind = iota
	// CurveCentripetal uses alpha = 0.5 knot spacing. It never forms cusps or
	// self-intersections inside a segment.
	CurveCentripetal
)

// arcDivisions is the number of samples in the arc-length table.
const arcDivisions = 200

// tangentDelta is the parametric step used for finite-difference tangents.
const tangentDelta = 1e-4

// Curve is an open Catmull-Rom spline through its control points with an
// arc-length table for uniform-speed sampling. A Curve is immutable; rebuild
// a new one instead of editing points.
type Curve struct {
	points  []mgl64.Vec3
	kind    CurveKind
	tension float64
	lengths []float64
}

// NewCurve fits a spline through points. tension is only used by
// CurveCatmullRom.
func NewCurve(points []mgl64.Vec3, kind CurveKind, tension float64) (*Curve, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: %d control points", ErrDegenerateCurve, len(points))
	}
	for i, p := range points {
		if !finite(p[0]) || !finite(p[1]) || !finite(p[2]) {
			return nil, fmt.Errorf("%w: point %d is not finite", ErrDegenerateCurve, i)
		}
	}
	c := &Curve{
		points:  append([]mgl64.Vec3(nil), points...),
		kind:    kind,
		tension: tension,
	}
	c.lengths = c.arcLengths()
	if l := c.Length(); !(l > 0) || !finite(l) {
		return nil, fmt.Errorf("%w: zero length", ErrDegenerateCurve)
	}
	return c, nil
}

// Points returns a copy of the control points.
func (c *Curve) Points() []mgl64.Vec3 {
	return append([]mgl64.Vec3(nil), c.points...)
}

// Length returns the approximate arc length.
func (c *Curve) Length() float64 {
	return c.lengths[len(c.lengths)-1]
}

// Point samples the curve at parametric t in [0, 1]. Segments get equal shares
// of t regardless of their length.
func (c *Curve) Point(t float64) mgl64.Vec3 {
	t = clamp01(t)
	pts := c.points
	l := len(pts)
	p := float64(l-1) * t
	seg := int(math.Floor(p))
	w := p - float64(seg)
	if seg >= l-1 {
		seg = l - 2
		w = 1
	}

	var p0, p3 mgl64.Vec3
	if seg > 0 {
		p0 = pts[seg-1]
	} else {
		p0 = pts[0].Mul(2).Sub(pts[1])
	}
	p1, p2 := pts[seg], pts[seg+1]
	if seg+2 < l {
		p3 = pts[seg+2]
	} else {
		p3 = pts[l-1].Mul(2).Sub(pts[l-2])
	}

	var out mgl64.Vec3
	switch c.kind {
	case CurveCentripetal:
		dt0 := math.Pow(distSq(p0, p1), 0.25)
		dt1 := math.Pow(distSq(p1, p2), 0.25)
		dt2 := math.Pow(distSq(p2, p3), 0.25)
		if dt1 < 1e-4 {
			dt1 = 1
		}
		if dt0 < 1e-4 {
			dt0 = dt1
		}
		if dt2 < 1e-4 {
			dt2 = dt1
		}
		for i := 0; i < 3; i++ {
			out[i] = nonuniformCubic(p0[i], p1[i], p2[i], p3[i], dt0, dt1, dt2).at(w)
		}
	default:
		for i := 0; i < 3; i++ {
			out[i] = hermite(p1[i], p2[i], c.tension*(p2[i]-p0[i]), c.tension*(p3[i]-p1[i])).at(w)
		}
	}
	return out
}

// PointAt samples the curve at arc-length fraction u in [0, 1].
func (c *Curve) PointAt(u float64) mgl64.Vec3 {
	return c.Point(c.uToT(u))
}

// TangentAt returns the unit tangent at arc-length fraction u.
func (c *Curve) TangentAt(u float64) mgl64.Vec3 {
	t := c.uToT(u)
	t1 := math.Max(0, t-tangentDelta)
	t2 := math.Min(1, t+tangentDelta)
	d := c.Point(t2).Sub(c.Point(t1))
	if d.Len() == 0 {
		return mgl64.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

func (c *Curve) arcLengths() []float64 {
	out := make([]float64, arcDivisions+1)
	last := c.Point(0)
	sum := 0.0
	for i := 1; i <= arcDivisions; i++ {
		cur := c.Point(float64(i) / arcDivisions)
		sum += cur.Sub(last).Len()
		out[i] = sum
		last = cur
	}
	return out
}

// uToT maps an arc-length fraction to the curve parameter.
func (c *Curve) uToT(u float64) float64 {
	u = clamp01(u)
	ls := c.lengths
	n := len(ls)
	target := u * ls[n-1]

	// Largest i with ls[i] <= target.
	i := sort.Search(n, func(i int) bool { return ls[i] > target }) - 1
	if i < 0 {
		i = 0
	}
	if i >= n-1 || ls[i] == target {
		return float64(i) / float64(n-1)
	}
	seg := ls[i+1] - ls[i]
	frac := 0.0
	if seg > 0 {
		frac = (target - ls[i]) / seg
	}
	return (float64(i) + frac) / float64(n-1)
}

// cubic holds c0 + c1*t + c2*t^2 + c3*t^3.
type cubic struct{ c0, c1, c2, c3 float64 }

func (p cubic) at(t float64) float64 {
	t2 := t * t
	return p.c0 + p.c1*t + p.c2*t2 + p.c3*t2*t
}

// hermite builds the cubic from endpoint values and tangents.
func hermite(x0, x1, t0, t1 float64) cubic {
	return cubic{
		c0: x0,
		c1: t0,
		c2: -3*x0 + 3*x1 - 2*t0 - t1,
		c3: 2*x0 - 2*x1 + t0 + t1,
	}
}

func nonuniformCubic(x0, x1, x2, x3, dt0, dt1, dt2 float64) cubic {
	t1 := (x1-x0)/dt0 - (x2-x0)/(dt0+dt1) + (x2-x1)/dt1
	t2 := (x2-x1)/dt1 - (x3-x1)/(dt1+dt2) + (x3-x2)/dt2
	return hermite(x1, x2, t1*dt1, t2*dt1)
}

func distSq(a, b mgl64.Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}
