package canopy

import (
	"fmt"
	"math"
	"time"

	"github.com/tanema/gween/ease"
)

type requestKind uint8

const (
	requestStart requestKind = iota
	requestEnter
	requestExit
)

type request struct {
	kind    requestKind
	section int
}

var (
	keyFogDensity = TweenKey{Target: "atmosphere", Property: "fog-density"}
	keyOpacity    = TweenKey{Target: "atmosphere", Property: "opacity"}
)

// Experience is the mode state machine. It owns State and is the only
// writer of it; everything else reads copies through State.
//
// Mode changes are requested through StartTransition,
// EnterImmersiveSection and ExitImmersiveSection. Requests are queued and
// applied at the start of the next tick, before that tick's regular update,
// so a change is visible in the frame that applies it. Invalid requests log
// a warning and do nothing.
type Experience struct {
	rt    *Runtime
	world World
	intro *Intro

	controllers []SectionController
	blender     *SectionBlender
	state       State
	requests    []request

	transitionElapsed time.Duration
	rebuild           *Timer

	frame       Frame
	audio       *Ambient
	runner      *TestRunner
	screenshots *Screenshots
	debug       bool
	closed      bool
}

// NewExperience creates an experience in intro mode. intro may be nil, in
// which case only StartTransition leaves the intro.
func NewExperience(rt *Runtime, world World, intro *Intro) *Experience {
	e := &Experience{
		rt:          rt,
		world:       world,
		intro:       intro,
		controllers: make([]SectionController, rt.Sections.Len()),
		blender:     NewSectionBlender(rt.Config.Timing.Blend, rt.Palette),
		state:       initialState(),
		screenshots: NewScreenshots("screenshots", rt.Log),
	}
	world.Atmosphere().Mood = rt.Palette.Title
	rt.Path.ResetToStart()
	return e
}

// SetController installs the immersive controller for section i.
func (e *Experience) SetController(i int, c SectionController) {
	if i < 0 || i >= len(e.controllers) {
		e.rt.Log.Warn("set controller: section out of range", "section", i)
		return
	}
	e.controllers[i] = c
}

// Controller returns the controller for section i, or nil.
func (e *Experience) Controller(i int) SectionController {
	if i < 0 || i >= len(e.controllers) {
		return nil
	}
	return e.controllers[i]
}

// State returns a copy of the current state.
func (e *Experience) State() State { return e.state }

// Blend returns the section blend state.
func (e *Experience) Blend() BlendState { return e.blender.State() }

// Runtime returns the shared context.
func (e *Experience) Runtime() *Runtime { return e.rt }

// World returns the content layer.
func (e *Experience) World() World { return e.world }

// Intro returns the intro sequence, or nil.
func (e *Experience) Intro() *Intro { return e.intro }

// LastFrame returns the input consumed by the last tick.
func (e *Experience) LastFrame() Frame { return e.frame }

// Debug reports whether debug stats are on.
func (e *Experience) Debug() bool { return e.debug }

// SetDebug turns debug stats on or off.
func (e *Experience) SetDebug(on bool) { e.debug = on }

// SetAudio attaches the ambient loop toggled by ActionMute.
func (e *Experience) SetAudio(a *Ambient) { e.audio = a }

// Audio returns the ambient loop, or nil.
func (e *Experience) Audio() *Ambient { return e.audio }

// SetTestRunner attaches a scripted input runner. Its step runs at the
// start of every tick, before input is drained.
func (e *Experience) SetTestRunner(r *TestRunner) { e.runner = r }

// SetScreenshotDir changes where screenshots are written.
func (e *Experience) SetScreenshotDir(dir string) { e.screenshots.Dir = dir }

// Screenshot queues a labeled capture of the next drawn frame.
func (e *Experience) Screenshot(label string) { e.screenshots.Queue(label, stateTag(e.state)) }

// StartTransition requests the intro to main transition.
func (e *Experience) StartTransition() {
	e.requests = append(e.requests, request{kind: requestStart})
}

// EnterImmersiveSection requests handing control to section i's controller.
func (e *Experience) EnterImmersiveSection(i int) {
	e.requests = append(e.requests, request{kind: requestEnter, section: i})
}

// ExitImmersiveSection requests returning to scroll-driven control.
func (e *Experience) ExitImmersiveSection() {
	e.requests = append(e.requests, request{kind: requestExit})
}

// Tick advances the experience by dt. The first failing frame stops the
// clock; later ticks do nothing and return nil.
func (e *Experience) Tick(dt time.Duration) error {
	if e.closed {
		return nil
	}
	return e.rt.Clock.Tick(dt, e.update)
}

// Stopped reports whether a failed frame halted the experience.
func (e *Experience) Stopped() bool { return e.rt.Clock.Stopped() }

func (e *Experience) update(dt time.Duration) error {
	secs := dt.Seconds()
	rt := e.rt

	if e.runner != nil {
		e.runner.step(e)
	}
	f := rt.Input.Drain()
	f.PointerX, f.PointerY = rt.Camera.PointerToNDC(f.ScreenX, f.ScreenY)
	e.frame = f

	e.handleInput(f)
	// A charge crossing the trigger joins this tick's requests.
	if e.intro != nil && e.intro.Update(secs, f) {
		e.StartTransition()
	}
	e.applyRequests()

	rt.Tweens.Update(dt)
	if e.audio != nil {
		e.audio.Update()
	}
	rt.Path.SetPointer(f.PointerX, f.PointerY)

	switch e.state.Mode {
	case ModeIntro:
		rt.Path.UpdateIntro(secs)
	case ModeMainTransition:
		e.updateTransition(dt)
	case ModeMain:
		if e.state.Immersive {
			i := e.state.ImmersiveSection
			ctrl := e.controllers[i]
			if f.Wheel != 0 {
				ctrl.OnWheel(f.Wheel)
			}
			if err := ctrl.Update(secs, f); err != nil {
				return fmt.Errorf("section %d update: %w", i, err)
			}
		} else {
			if f.Wheel != 0 {
				rt.Scroll.ScrollBy(f.Wheel)
			}
			e.updateMain(dt, false)
		}
	}

	interactive := e.state.Mode == ModeMain && !e.state.Immersive
	e.world.Update(secs, f, rt.Camera, interactive)
	return nil
}

// handleInput turns discrete input actions into requests.
func (e *Experience) handleInput(f Frame) {
	for _, r := range f.Requests {
		switch r.Action {
		case ActionStart:
			if e.state.Mode == ModeIntro {
				e.StartTransition()
			}
		case ActionEnter:
			e.EnterImmersiveSection(r.Section)
		case ActionExit:
			if e.state.Immersive {
				e.ExitImmersiveSection()
			}
		case ActionDebug:
			e.debug = !e.debug
		case ActionMute:
			if e.audio != nil {
				e.audio.Toggle()
			}
		}
	}
}

func (e *Experience) applyRequests() {
	if len(e.requests) == 0 {
		return
	}
	// Requests raised while applying wait for the next tick.
	pending := e.requests
	e.requests = nil
	for _, r := range pending {
		switch r.kind {
		case requestStart:
			e.applyStart()
		case requestEnter:
			e.applyEnter(r.section)
		case requestExit:
			e.applyExit()
		}
	}
}

func (e *Experience) setMode(m Mode) {
	from := e.state.Mode
	e.state.Mode = m
	e.rt.Log.Info("mode changed", "from", from, "to", m)
	e.rt.Events.ModeChanged.Emit(ModeChange{From: from, To: m})
}

func (e *Experience) applyStart() {
	if e.state.Mode != ModeIntro {
		e.rt.Log.Warn("start transition ignored", "mode", e.state.Mode)
		return
	}
	e.state.TransitionProgress = 0
	e.transitionElapsed = 0
	e.world.FadeOutIntro()
	e.world.Show()
	if e.intro != nil {
		e.intro.FadeOut()
	}
	e.rebuild = e.rt.Clock.After(e.rt.Config.Timing.PathRebuildDelay, func() {
		if e.state.Mode == ModeMainTransition {
			e.rt.Path.BuildPathFromWorld(e.world)
		}
	})
	e.setMode(ModeMainTransition)
}

// transitionEase is the cosine ease-in-out applied to transition progress.
func transitionEase(p float64) float64 {
	return 0.5 - 0.5*math.Cos(math.Pi*clamp01(p))
}

func (e *Experience) updateTransition(dt time.Duration) {
	total := e.rt.Config.Timing.Transition
	e.transitionElapsed += dt
	p := 1.0
	if total > 0 {
		p = clamp01(float64(e.transitionElapsed) / float64(total))
	}
	e.state.TransitionProgress = p
	eased := transitionEase(p)
	e.rt.Path.UpdateTransition(eased)
	e.world.SetTransition(eased)

	if e.transitionElapsed >= total {
		e.finishTransition()
	}
}

func (e *Experience) finishTransition() {
	e.state.TransitionProgress = 1
	e.rebuild.Cancel()
	e.rebuild = nil
	e.world.OnTransitionEnd()
	e.rt.Path.BuildPathFromWorld(e.world)
	e.setMode(ModeMain)
	e.updateMain(0, true)
	// The first main frame lands on the resolved section's mood, not a
	// crossfade from the title.
	e.blender.Settle()
	e.world.Atmosphere().Apply(e.blender.Mood(), false)
	e.rt.Events.MainReady.Emit(struct{}{})
}

// updateMain runs the scroll-driven frame: scroll, then camera, then
// section and mood.
func (e *Experience) updateMain(dt time.Duration, immediate bool) {
	rt := e.rt
	t := rt.Signal.ComputeT()
	e.state.T = t
	rt.Events.ScrollProgress.Emit(t)

	rt.Path.UpdateFromT(t, immediate, dt.Seconds())

	e.setSection(rt.Sections.Resolve(t))
	e.blender.Advance(dt)

	locked := e.state.RestoreLocked(rt.Clock.Elapsed())
	atm := e.world.Atmosphere()
	atm.Apply(e.blender.Mood(), locked)
	if !locked {
		atm.Opacity = 1
	}
}

func (e *Experience) setSection(pos SectionPosition) {
	e.state.Section = pos
	if e.blender.OnSectionChange(pos.Index, pos.LocalT) {
		e.rt.Log.Debug("section changed", "section", pos.Index, "local_t", pos.LocalT)
		e.rt.Events.SectionChanged.Emit(pos)
	}
}

func (e *Experience) applyEnter(i int) {
	log := e.rt.Log
	switch {
	case e.state.Mode != ModeMain:
		log.Warn("enter immersive ignored: not in main mode", "section", i, "mode", e.state.Mode)
		return
	case e.state.Immersive:
		log.Warn("enter immersive ignored: already immersive", "section", i, "active", e.state.ImmersiveSection)
		return
	case e.Controller(i) == nil:
		log.Warn("enter immersive ignored: no controller", "section", i)
		return
	}

	e.state.Immersive = true
	e.state.ImmersiveSection = i
	e.rt.Scroll.Lock()

	atm := e.world.Atmosphere()
	e.rt.Tweens.Start(keyOpacity, FloatProp(&atm.Opacity), 0, e.rt.Config.Timing.ImmersiveFade, ease.InOutSine)
	e.controllers[i].Enter()

	log.Info("entered immersive section", "section", i)
	e.rt.Events.ImmersiveChanged.Emit(ImmersiveChange{Active: true, Section: i})
}

func (e *Experience) applyExit() {
	if !e.state.Immersive {
		e.rt.Log.Warn("exit immersive ignored: not immersive")
		return
	}
	rt := e.rt
	i := e.state.ImmersiveSection
	e.controllers[i].Exit()
	rt.Scroll.Unlock()

	// Resync the document to the middle of the section being left.
	center, _ := rt.Sections.CenterT(i)
	rt.Signal.SeekT(center)
	rt.Path.UpdateFromT(center, true, 0)

	lock := rt.Config.Timing.RestoreLock
	atm := e.world.Atmosphere()
	rt.Tweens.Start(keyFogDensity, FloatProp(&atm.Mood.FogDensity), rt.Palette.MoodAt(i).FogDensity, lock, ease.OutCubic)
	rt.Tweens.Start(keyOpacity, FloatProp(&atm.Opacity), 1, lock, ease.OutCubic)
	e.state.RestoreLockUntil = rt.Clock.Elapsed() + lock

	e.state.Immersive = false
	e.state.ImmersiveSection = NoSection
	e.state.T = center
	e.setSection(rt.Sections.Resolve(center))

	rt.Log.Info("exited immersive section", "section", i, "t", center)
	rt.Events.ImmersiveChanged.Emit(ImmersiveChange{Active: false, Section: i})
}

// Resize applies a new window size and reframes the path.
func (e *Experience) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	viewport := Rect{Width: float64(width), Height: float64(height)}
	if viewport == e.rt.Camera.Viewport {
		return
	}
	e.rt.Scroll.Resize(viewport.Height)
	if e.state.Mode == ModeIntro {
		e.rt.Camera.Viewport = viewport
	} else {
		e.rt.Path.Resize(viewport, e.world)
	}
	for _, c := range e.controllers {
		if c != nil {
			c.Resize(viewport)
		}
	}
}

// Emit queues the frame's draw commands into dl.
func (e *Experience) Emit(dl *DrawList) {
	atm := e.world.Atmosphere()
	dl.Reset(e.rt.Camera, atm.Fog(), atm.Mood.Bloom)
	if e.intro != nil {
		e.intro.Emit(dl)
	}
	e.world.Emit(dl, e.rt.Camera)
	for _, c := range e.controllers {
		em, ok := c.(Emitter)
		if !ok {
			continue
		}
		if v, ok := c.(Visibility); ok && !v.Visible() {
			continue
		}
		em.Emit(dl, e.rt.Camera)
	}
}

// Close tears down the session: the active section is exited, timers and
// tweens are dropped, and further ticks do nothing.
func (e *Experience) Close() {
	if e.closed {
		return
	}
	if e.state.Immersive {
		e.controllers[e.state.ImmersiveSection].Exit()
	}
	e.rt.Clock.Stop()
	for _, k := range []TweenKey{keyFogDensity, keyOpacity} {
		e.rt.Tweens.Cancel(k)
	}
	if e.audio != nil {
		if err := e.audio.Close(); err != nil {
			e.rt.Log.Warn("close audio", "err", err)
		}
	}
	e.requests = nil
	e.closed = true
}
