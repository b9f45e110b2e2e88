package canopy

// SectionController drives one section while it is immersive. Experience
// calls the methods uniformly; what happens inside is up to the section.
type SectionController interface {
	// Enter takes over the camera. Called once per immersive session.
	Enter()
	// Exit releases the camera and starts any leave animation.
	Exit()
	// Update advances the controller by dt seconds. Only called while the
	// controller's section is immersive.
	Update(dt float64, f Frame) error
	// Resize reports a new viewport.
	Resize(viewport Rect)
	// OnWheel receives wheel deltas in pixels, positive downward. Document
	// scrolling is locked while a controller is active.
	OnWheel(dy float64)
}

// Emitter is implemented by controllers that draw. Controllers may keep
// drawing after Exit while their leave animation runs.
type Emitter interface {
	Emit(dl *DrawList, cam *Camera)
}

// Visibility is implemented by emitters that know when they are hidden.
type Visibility interface {
	Visible() bool
}
