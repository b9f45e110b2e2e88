package canopy

import (
	"math/rand/v2"
	"testing"
	"time"
)

// setupBenchExperience returns an experience already in main mode with the
// three built-in sections attached.
func setupBenchExperience(b *testing.B) *Experience {
	b.Helper()
	rt, err := NewRuntime(DefaultConfig(), discardLogger())
	if err != nil {
		b.Fatal(err)
	}
	e := NewExperience(rt, NewGrove(rt.Palette.Title, 1), NewIntro(1))
	e.SetController(0, NewRoots(rt))
	e.SetController(1, NewBranches(rt))
	e.SetController(2, NewCrown(rt))
	e.StartTransition()
	for e.State().Mode != ModeMain {
		if err := e.Tick(step); err != nil {
			b.Fatal(err)
		}
	}
	return e
}

// --- Frame benchmarks ---

func BenchmarkTick_Main(b *testing.B) {
	e := setupBenchExperience(b)
	dt := time.Second / 60

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e.rt.Input.AddWheel(3)
		if err := e.Tick(dt); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTick_Branches(b *testing.B) {
	e := setupBenchExperience(b)
	e.EnterImmersiveSection(1)
	dt := time.Second / 60

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := e.Tick(dt); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEmit_Main(b *testing.B) {
	e := setupBenchExperience(b)
	dl := NewDrawList()
	e.Emit(dl) // warmup grows the command buffer

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e.Emit(dl)
	}
}

func BenchmarkEmit_Crown(b *testing.B) {
	e := setupBenchExperience(b)
	e.EnterImmersiveSection(2)
	for i := 0; i < 40; i++ {
		_ = e.Tick(step)
	}
	dl := NewDrawList()
	e.Emit(dl)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e.Emit(dl)
	}
}

// --- Sort benchmarks ---

func BenchmarkSort_10000Commands(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	src := make([]DrawCommand, 10000)
	for i := range src {
		src[i] = DrawCommand{Depth: rng.Float64() * 100, order: i}
	}
	dl := NewDrawList()
	dl.commands = make([]DrawCommand, len(src))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		copy(dl.commands, src)
		dl.sorted = false
		dl.Sort()
	}
}

func BenchmarkSelector_ClosestVisible(b *testing.B) {
	rt, err := NewRuntime(DefaultConfig(), discardLogger())
	if err != nil {
		b.Fatal(err)
	}
	br := NewBranches(rt)
	br.Enter()
	runSection(rt, br, 6*time.Second)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		br.closestVisible()
	}
}
