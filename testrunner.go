package canopy

import (
	"encoding/json"
	"fmt"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action  string  `json:"action"`
	Label   string  `json:"label,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	T       float64 `json:"t,omitempty"`
	DY      float64 `json:"dy,omitempty"`
	Section int     `json:"section,omitempty"`
	Frames  int     `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner sequences injected input, scroll seeks, immersive requests and
// screenshots across frames for automated visual testing. Attach to an
// Experience via SetTestRunner.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
}

var knownActions = map[string]bool{
	"screenshot": true, "scroll": true, "wheel": true, "hold": true,
	"release": true, "pointer": true, "start": true, "enter": true, "exit": true,
	"wait": true,
}

// LoadTestScript parses a JSON test script and returns a TestRunner ready
// to be attached to an Experience via SetTestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if !knownActions[st.Action] {
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the test runner by one frame. Called from Experience
// before input is drained.
func (r *TestRunner) step(e *Experience) {
	if r.done {
		return
	}
	in := e.rt.Input
	// Wait for pending injections to drain before advancing.
	if in.Pending() {
		return
	}
	// Count down wait frames.
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		e.Screenshot(st.Label)
	case "scroll":
		e.rt.Signal.SeekT(st.T)
	case "wheel":
		in.InjectWheel(st.DY, st.Frames)
	case "pointer":
		in.InjectMove(st.X, st.Y)
	case "hold":
		in.InjectPress(st.X, st.Y)
	case "release":
		in.InjectRelease(st.X, st.Y)
	case "start":
		in.InjectRequest(Request{Action: ActionStart})
	case "enter":
		in.InjectRequest(Request{Action: ActionEnter, Section: st.Section})
	case "exit":
		in.InjectRequest(Request{Action: ActionExit})
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	// Check if we've reached the end after executing.
	if r.cursor >= len(r.steps) && r.waitCount == 0 && !in.Pending() {
		r.done = true
	}
}
