package canopy

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoViewport is returned when there is nothing to render into.
var ErrNoViewport = errors.New("canopy: no viewport")

// Runtime is the shared context of one session. It is built once and passed
// to every component constructor; nothing in the package keeps global
// session state.
type Runtime struct {
	Config Config
	Log    *slog.Logger

	Clock  *Clock
	Events *Events
	Tweens *Tweens
	Input  *Input

	Camera *Camera
	Path   *PathController

	Scroll   *VirtualScroll
	Signal   *ScrollSignal
	Sections *SectionMap
	Palette  *Palette
}

// NewRuntime validates cfg and wires the shared services. A nil logger
// discards output.
func NewRuntime(cfg Config, log *slog.Logger) (*Runtime, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		return nil, fmt.Errorf("%w: window %dx%d", ErrNoViewport, cfg.Window.Width, cfg.Window.Height)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sections, err := NewSectionMap(cfg.Scroll.Spans, cfg.Scroll.MinT, cfg.Scroll.MaxT)
	if err != nil {
		return nil, err
	}

	viewport := Rect{Width: float64(cfg.Window.Width), Height: float64(cfg.Window.Height)}
	cam := NewCamera(viewport)
	scroll := NewVirtualScroll(viewport.Height, cfg.Scroll.PageMultiple)
	palette := cfg.Palette

	rt := &Runtime{
		Config:   cfg,
		Log:      log,
		Clock:    NewClock(log),
		Events:   NewEvents(log),
		Tweens:   NewTweens(),
		Input:    NewInput(),
		Camera:   cam,
		Path:     NewPathController(cam, cfg.Camera, log),
		Scroll:   scroll,
		Signal:   NewScrollSignal(scroll),
		Sections: sections,
		Palette:  &palette,
	}
	return rt, nil
}

// Viewport returns the current screen rectangle.
func (rt *Runtime) Viewport() Rect { return rt.Camera.Viewport }
