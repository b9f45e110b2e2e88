// Package canopy is a scroll-driven 3D portfolio runtime for [Ebitengine].
//
// A session starts on an intro screen, plays a fixed-length transition, and
// then maps a virtual document scroll onto a camera path through a procedural
// grove. The scroll timeline is split into sections, each with its own mood
// (fog, lights, bloom). Any section can be entered as an immersive scene that
// takes over the camera and input until the user exits, at which point the
// camera resynchronises to the section's center.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	rt, _ := canopy.NewRuntime(canopy.DefaultConfig(), nil)
//	exp := canopy.NewExperience(rt, canopy.NewGrove(rt.Palette.Title, 7), canopy.NewIntro(7))
//	exp.SetController(1, canopy.NewBranches(rt))
//	canopy.Run(exp, canopy.RunConfig{Title: "Grove", Width: 1280, Height: 720})
//
// For full control, implement [ebiten.Game] yourself and drive
// [Experience.Tick], [Experience.Emit] and [DrawList.Draw] directly, or wrap
// the experience with [NewGame].
//
// # Runtime
//
// [Runtime] bundles the per-session services: a fail-stop [Clock], the
// [Events] signals, a [Tweens] manager keyed by target and property, the
// buffered [Input], the [Camera] and its [PathController], the
// [VirtualScroll] with its [ScrollSignal], the [SectionMap] and the
// [Palette]. Nothing in the package keeps global session state.
//
// # Modes
//
// [Experience] owns the single [State]. Requests to start the transition or
// to enter and exit immersive sections are queued and applied at the start
// of the next tick, so a request made from a listener never interleaves with
// a half-finished frame.
//
// # Sections
//
// Immersive scenes implement [SectionController]. The package ships three:
// [Roots], a data pipeline panel; [Branches], a gallery fly-through with a
// closest-project selector; and [Crown], a halo of points that morphs
// between content pillars.
//
// [Ebitengine]: https://ebitengine.org
package canopy
