package canopy

import "testing"

func TestLoadTestScript(t *testing.T) {
	data := []byte(`{
		"steps": [
			{"action": "screenshot", "label": "initial"},
			{"action": "wheel", "dy": 300, "frames": 3},
			{"action": "wait", "frames": 3},
			{"action": "enter", "section": 2},
			{"action": "screenshot", "label": "after-enter"}
		]
	}`)

	runner, err := LoadTestScript(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(runner.steps))
	}
	if runner.steps[0].Action != "screenshot" || runner.steps[0].Label != "initial" {
		t.Error("step 0 mismatch")
	}
	if runner.steps[1].Action != "wheel" || runner.steps[1].DY != 300 || runner.steps[1].Frames != 3 {
		t.Error("step 1 mismatch")
	}
	if runner.steps[3].Action != "enter" || runner.steps[3].Section != 2 {
		t.Error("step 3 mismatch")
	}
}

func TestLoadTestScript_Invalid(t *testing.T) {
	_, err := LoadTestScript([]byte(`not json`))
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadTestScript_Empty(t *testing.T) {
	_, err := LoadTestScript([]byte(`{"steps": []}`))
	if err == nil {
		t.Error("expected error for empty steps")
	}
}

func TestLoadTestScript_UnknownAction(t *testing.T) {
	_, err := LoadTestScript([]byte(`{"steps": [{"action": "click"}]}`))
	if err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestRunnerStep_Wheel(t *testing.T) {
	e, _ := newTestExperience(t)
	runner, err := LoadTestScript([]byte(`{"steps": [{"action": "wheel", "dy": 300, "frames": 3}]}`))
	if err != nil {
		t.Fatal(err)
	}

	runner.step(e)
	in := e.rt.Input
	if len(in.injectQueue) != 3 {
		t.Fatalf("expected 3 queued events, got %d", len(in.injectQueue))
	}
	if runner.Done() {
		t.Error("runner should not be done while inject queue has events")
	}

	total := 0.0
	for i := 0; i < 3; i++ {
		total += in.Drain().Wheel
	}
	if total != 300 {
		t.Errorf("drained wheel = %v, want 300", total)
	}

	runner.step(e)
	if !runner.Done() {
		t.Error("runner should be done after all steps executed and queue drained")
	}
}

func TestRunnerStep_Wait(t *testing.T) {
	e, _ := newTestExperience(t)

	data := []byte(`{"steps": [
		{"action": "wait", "frames": 3},
		{"action": "screenshot", "label": "done"}
	]}`)
	runner, err := LoadTestScript(data)
	if err != nil {
		t.Fatal(err)
	}

	// Frame 1: execute wait (waitCount becomes 2).
	runner.step(e)
	if runner.Done() {
		t.Error("should not be done during wait")
	}

	// Frame 2: waitCount 2→1.
	runner.step(e)
	if runner.Done() {
		t.Error("should not be done during wait countdown")
	}

	// Frame 3: waitCount 1→0.
	runner.step(e)
	if runner.Done() {
		t.Error("should not be done, screenshot step not yet executed")
	}

	// Frame 4: execute screenshot step, runner finishes.
	runner.step(e)
	if !runner.Done() {
		t.Error("runner should be done after screenshot step")
	}

	if q := e.screenshots.queue; len(q) != 1 || q[0].label != "done" {
		t.Errorf("expected screenshot 'done', got %v", q)
	}
}

func TestRunnerStep_HoldRelease(t *testing.T) {
	e, _ := newTestExperience(t)
	data := []byte(`{"steps": [
		{"action": "hold", "x": 10, "y": 20},
		{"action": "pointer", "x": 30, "y": 40},
		{"action": "release", "x": 30, "y": 40}
	]}`)
	runner, err := LoadTestScript(data)
	if err != nil {
		t.Fatal(err)
	}
	in := e.rt.Input

	runner.step(e)
	f := in.Drain()
	if !f.Pressed || !f.Held || f.ScreenX != 10 || f.ScreenY != 20 {
		t.Errorf("hold frame = %+v", f)
	}
	runner.step(e)
	f = in.Drain()
	if !f.Held || f.Pressed || f.ScreenX != 30 {
		t.Errorf("pointer frame = %+v", f)
	}
	runner.step(e)
	f = in.Drain()
	if !f.Released || f.Held {
		t.Errorf("release frame = %+v", f)
	}
}

func TestRunnerDrivesExperience(t *testing.T) {
	e, ctrls := newTestExperience(t)
	data := []byte(`{"steps": [
		{"action": "start"},
		{"action": "wait", "frames": 40},
		{"action": "enter", "section": 1}
	]}`)
	runner, err := LoadTestScript(data)
	if err != nil {
		t.Fatal(err)
	}
	e.SetTestRunner(runner)

	for i := 0; i < 50 && !runner.Done(); i++ {
		if err := e.Tick(step); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.Tick(step); err != nil {
		t.Fatal(err)
	}
	s := e.State()
	if s.Mode != ModeMain || !s.Immersive || s.ImmersiveSection != 1 {
		t.Fatalf("state = %+v, want immersive section 1", s)
	}
	if ctrls[1].entered != 1 {
		t.Errorf("entered = %d, want 1", ctrls[1].entered)
	}
}

func TestRunnerDone(t *testing.T) {
	e, _ := newTestExperience(t)

	runner, err := LoadTestScript([]byte(`{"steps": [{"action": "screenshot", "label": "only"}]}`))
	if err != nil {
		t.Fatal(err)
	}

	if runner.Done() {
		t.Error("runner should not be done before any steps")
	}

	runner.step(e)
	if !runner.Done() {
		t.Error("runner should be done after single screenshot step")
	}
}

func TestRunnerWaitsForInjectQueue(t *testing.T) {
	e, _ := newTestExperience(t)

	data := []byte(`{"steps": [
		{"action": "wheel", "dy": 100, "frames": 2},
		{"action": "screenshot", "label": "after"}
	]}`)
	runner, err := LoadTestScript(data)
	if err != nil {
		t.Fatal(err)
	}
	in := e.rt.Input

	runner.step(e)
	if len(in.injectQueue) != 2 {
		t.Fatalf("expected 2 events, got %d", len(in.injectQueue))
	}

	// Step again: should NOT advance because the inject queue is not drained.
	runner.step(e)
	if runner.cursor != 1 {
		t.Errorf("cursor should still be 1, got %d", runner.cursor)
	}

	in.injectQueue = in.injectQueue[:0]

	runner.step(e)
	if q := e.screenshots.queue; len(q) != 1 || q[0].label != "after" {
		t.Errorf("expected screenshot 'after', got %v", q)
	}
	if !runner.Done() {
		t.Error("runner should be done")
	}
}
