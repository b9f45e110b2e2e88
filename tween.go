package canopy

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenKey identifies an animated property. At most one tween owns a key at
// any time.
type TweenKey struct {
	Target   string
	Property string
}

// Prop reads and writes the animated value.
type Prop struct {
	Get func() float64
	Set func(float64)
}

// FloatProp animates the float64 at p.
func FloatProp(p *float64) Prop {
	return Prop{
		Get: func() float64 { return *p },
		Set: func(v float64) { *p = v },
	}
}

// Tween is one scheduled animation of a single property. The starting value is
// read when the tween actually begins, after any delay, so a delayed tween
// continues from whatever the property holds at that moment.
type Tween struct {
	Key TweenKey

	prop       Prop
	to         float64
	duration   float32
	delay      float32
	easeFn     ease.TweenFunc
	tw         *gween.Tween
	done       bool
	onComplete func()
}

// Delay postpones the start of t by d.
func (t *Tween) Delay(d time.Duration) *Tween {
	t.delay = float32(d.Seconds())
	return t
}

// OnComplete registers fn to run once t reaches its end value. Canceled or
// superseded tweens never call it.
func (t *Tween) OnComplete(fn func()) *Tween {
	t.onComplete = fn
	return t
}

// Done reports whether t finished or was canceled.
func (t *Tween) Done() bool { return t.done }

// Tweens is the animation ownership table. Starting a tween on a key that is
// already animating replaces the running tween instead of queueing behind it,
// so two writers can never race on the same property.
//
// There is no global animation manager; the owner calls Update once per tick.
type Tweens struct {
	slots map[TweenKey]*Tween
	order []TweenKey
}

// NewTweens creates an empty table.
func NewTweens() *Tweens {
	return &Tweens{slots: make(map[TweenKey]*Tween)}
}

// Start animates prop toward to over duration, superseding any tween that
// currently owns key. A nil easing function means linear.
func (ts *Tweens) Start(key TweenKey, prop Prop, to float64, duration time.Duration, fn ease.TweenFunc) *Tween {
	if fn == nil {
		fn = ease.Linear
	}
	if old, ok := ts.slots[key]; ok {
		old.done = true
	} else {
		ts.order = append(ts.order, key)
	}
	t := &Tween{
		Key:      key,
		prop:     prop,
		to:       to,
		duration: float32(duration.Seconds()),
		easeFn:   fn,
	}
	ts.slots[key] = t
	return t
}

// Cancel stops the tween owning key, leaving the property at its current
// value. It reports whether a tween was running.
func (ts *Tweens) Cancel(key TweenKey) bool {
	t, ok := ts.slots[key]
	if !ok {
		return false
	}
	t.done = true
	delete(ts.slots, key)
	for i, k := range ts.order {
		if k == key {
			ts.order = append(ts.order[:i], ts.order[i+1:]...)
			break
		}
	}
	return true
}

// CancelTarget stops every tween whose key belongs to target.
func (ts *Tweens) CancelTarget(target string) {
	for k := range ts.slots {
		if k.Target == target {
			ts.Cancel(k)
		}
	}
}

// Active reports whether a tween currently owns key.
func (ts *Tweens) Active(key TweenKey) bool {
	_, ok := ts.slots[key]
	return ok
}

// Len returns the number of running or pending tweens.
func (ts *Tweens) Len() int { return len(ts.slots) }

// Update advances every tween by dt and writes the eased values. Completion
// callbacks run after all tweens have been advanced, so a callback may start
// new tweens, including on its own key.
func (ts *Tweens) Update(dt time.Duration) {
	if len(ts.slots) == 0 {
		ts.order = ts.order[:0]
		return
	}
	step := float32(dt.Seconds())
	var finished []*Tween

	keep := ts.order[:0]
	for _, k := range ts.order {
		t, ok := ts.slots[k]
		if !ok {
			continue
		}
		if t.advance(step) {
			t.done = true
			delete(ts.slots, k)
			if t.onComplete != nil {
				finished = append(finished, t)
			}
			continue
		}
		keep = append(keep, k)
	}
	ts.order = keep

	for _, t := range finished {
		t.onComplete()
	}
}

// advance reports whether t reached its end.
func (t *Tween) advance(step float32) bool {
	if t.tw == nil {
		if t.delay > 0 {
			t.delay -= step
			if t.delay > 0 {
				return false
			}
			step = -t.delay
			t.delay = 0
		}
		if t.duration <= 0 {
			t.prop.Set(t.to)
			return true
		}
		t.tw = gween.New(float32(t.prop.Get()), float32(t.to), t.duration, t.easeFn)
	}
	v, end := t.tw.Update(step)
	if end {
		// Write the exact target; gween runs in float32.
		t.prop.Set(t.to)
		return true
	}
	t.prop.Set(float64(v))
	return false
}
