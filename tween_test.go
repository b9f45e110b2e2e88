package canopy

import (
	"math"
	"testing"
	"time"

	"github.com/tanema/gween/ease"
)

var fogKey = TweenKey{Target: "env", Property: "fogDensity"}

func TestTweenReachesTarget(t *testing.T) {
	ts := NewTweens()
	v := 10.0
	tw := ts.Start(fogKey, FloatProp(&v), 100, time.Second, ease.Linear)

	ts.Update(500 * time.Millisecond)
	if tw.Done() {
		t.Fatal("should not be done at halfway")
	}
	if math.Abs(v-55) > 0.05 {
		t.Errorf("v = %f, want ~55 at halfway", v)
	}

	ts.Update(500 * time.Millisecond)
	if !tw.Done() {
		t.Fatal("expected done after full duration")
	}
	if v != 100 {
		t.Errorf("v = %f, want exactly 100", v)
	}
	if ts.Len() != 0 {
		t.Errorf("Len = %d, want 0", ts.Len())
	}
}

func TestTweenSupersedesSameKey(t *testing.T) {
	ts := NewTweens()
	v := 0.0
	firstDone := false
	first := ts.Start(fogKey, FloatProp(&v), 1, time.Second, ease.Linear).
		OnComplete(func() { firstDone = true })
	ts.Update(500 * time.Millisecond)

	second := ts.Start(fogKey, FloatProp(&v), 0, time.Second, ease.Linear)
	if !first.Done() {
		t.Fatal("superseded tween should be done")
	}
	if ts.Len() != 1 {
		t.Fatalf("Len = %d, want 1 slot per key", ts.Len())
	}

	ts.Update(500 * time.Millisecond)
	// Second tween starts from 0.5 (the value reached), not from 1.
	if math.Abs(v-0.25) > 0.01 {
		t.Errorf("v = %f, want ~0.25", v)
	}
	ts.Update(time.Second)
	if !second.Done() || v != 0 {
		t.Errorf("v = %f done=%v, want 0 and done", v, second.Done())
	}
	if firstDone {
		t.Error("superseded tween must not run its completion callback")
	}
}

func TestTweenDelayCapturesStartValue(t *testing.T) {
	ts := NewTweens()
	v := 0.0
	ts.Start(fogKey, FloatProp(&v), 10, time.Second, ease.Linear).Delay(time.Second)

	ts.Update(500 * time.Millisecond)
	if v != 0 {
		t.Fatalf("v = %f, want untouched during delay", v)
	}
	v = 5
	ts.Update(500 * time.Millisecond)
	ts.Update(500 * time.Millisecond)
	if math.Abs(v-7.5) > 0.01 {
		t.Errorf("v = %f, want ~7.5 (from 5 toward 10)", v)
	}
}

func TestTweenCompletionMayRestartKey(t *testing.T) {
	ts := NewTweens()
	v := 0.0
	calls := 0
	ts.Start(fogKey, FloatProp(&v), 1, 100*time.Millisecond, ease.Linear).OnComplete(func() {
		calls++
		ts.Start(fogKey, FloatProp(&v), 2, 100*time.Millisecond, ease.Linear)
	})
	ts.Update(100 * time.Millisecond)
	if calls != 1 || !ts.Active(fogKey) {
		t.Fatalf("calls=%d active=%v", calls, ts.Active(fogKey))
	}
	ts.Update(100 * time.Millisecond)
	if v != 2 {
		t.Errorf("v = %f, want 2", v)
	}
}

func TestTweenCancel(t *testing.T) {
	ts := NewTweens()
	a, b := 0.0, 0.0
	ts.Start(TweenKey{"crown", "scale"}, FloatProp(&a), 1, time.Second, ease.Linear)
	ts.Start(TweenKey{"crown", "hue"}, FloatProp(&b), 1, time.Second, ease.Linear)
	ts.Start(fogKey, FloatProp(&b), 1, time.Second, ease.Linear)

	ts.Update(250 * time.Millisecond)
	ts.CancelTarget("crown")
	if ts.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ts.Len())
	}
	if ts.Cancel(TweenKey{"crown", "scale"}) {
		t.Error("Cancel of a missing key should report false")
	}
	held := a
	ts.Update(time.Second)
	if a != held {
		t.Errorf("canceled tween kept writing: %f != %f", a, held)
	}
}

func TestTweenZeroDurationSnaps(t *testing.T) {
	ts := NewTweens()
	v := 3.0
	ts.Start(fogKey, FloatProp(&v), 9, 0, nil)
	ts.Update(0)
	if v != 9 {
		t.Errorf("v = %f, want 9", v)
	}
}

func BenchmarkTweensUpdate(b *testing.B) {
	ts := NewTweens()
	vals := make([]float64, 64)
	for i := range vals {
		ts.Start(TweenKey{"bench", string(rune('a' + i))}, FloatProp(&vals[i]), 1, time.Hour, ease.InOutSine)
	}
	for b.Loop() {
		ts.Update(time.Millisecond)
	}
}
