package canopy

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunConfig configures the window created by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// ShowFPS draws FPS and TPS in the corner even outside debug mode.
	ShowFPS bool
	// Bloom enables the full-screen glow pass driven by the current mood.
	Bloom bool
	// ExitWhenScriptDone ends the run once an attached TestRunner finishes
	// and its screenshots are written.
	ExitWhenScriptDone bool
}

// bloomRadius is the glow blur radius in pixels.
const bloomRadius = 16

// errScriptDone ends RunGame after a scripted run.
var errScriptDone = errors.New("canopy: test script done")

// Game adapts an Experience to ebiten.Game.
type Game struct {
	exp *Experience
	hud *HUD
	dl  *DrawList
	cfg RunConfig

	bloom *BloomFilter
	// back is rendered into; front holds the last complete frame and is
	// what reaches the screen.
	back, front *ebiten.Image

	stats debugStats
}

// NewGame wraps exp. The HUD subscribes to exp's events immediately.
func NewGame(exp *Experience, cfg RunConfig) (*Game, error) {
	hud, err := NewHUD(exp)
	if err != nil {
		return nil, err
	}
	g := &Game{exp: exp, hud: hud, dl: NewDrawList(), cfg: cfg}
	if cfg.Bloom {
		g.bloom = NewBloomFilter(bloomRadius)
	}
	return g, nil
}

// HUD returns the overlay.
func (g *Game) HUD() *HUD { return g.hud }

// Update implements ebiten.Game. A failed tick has already stopped the
// clock and been logged; the window stays open on the last frame.
func (g *Game) Update() error {
	start := time.Now()
	g.exp.Runtime().Input.PollEbiten()
	// The step is nominal. Ebitengine calls Update TPS times per second and
	// catches up with extra calls after a stall, so simulated time tracks
	// wall time without a measured delta.
	dt := time.Second / time.Duration(ebiten.TPS())
	_ = g.exp.Tick(dt)
	g.hud.Update(dt)
	g.stats.updateTime = time.Since(start)

	if g.cfg.ExitWhenScriptDone && g.exp.runner != nil && g.exp.runner.Done() &&
		g.exp.screenshots.Pending() == 0 {
		return errScriptDone
	}
	return nil
}

// Draw implements ebiten.Game. Rendering follows the clock's fail-stop rule:
// after a failed tick or a panic while drawing, the last complete frame
// stays on screen.
func (g *Game) Draw(screen *ebiten.Image) {
	b := screen.Bounds()
	if !g.exp.Stopped() {
		g.back = ensureImage(g.back, b.Dx(), b.Dy())
		if g.render(g.back) {
			g.back, g.front = g.front, g.back
		}
	}
	if g.front == nil {
		return
	}

	start := time.Now()
	if g.bloom != nil {
		g.bloom.SetMood(g.exp.World().Atmosphere().Mood)
		g.bloom.Apply(g.front, screen)
	} else {
		screen.DrawImage(g.front, nil)
	}
	g.stats.submitTime += time.Since(start)

	g.hud.Draw(screen)
	if g.cfg.ShowFPS && !g.exp.Debug() {
		g.hud.drawStats(screen)
	}
	g.exp.screenshots.Flush(screen)

	if g.exp.Debug() {
		rt := g.exp.Runtime()
		g.stats.commandCount = g.dl.Len()
		g.stats.batchCount = countBatches(g.dl.Commands())
		debugLog(rt.Log, rt.Clock.Frame(), g.stats)
	}
}

// emit fills the draw list for the current state. It reports false when a
// panic stopped the clock.
func (g *Game) emit() bool {
	err := g.exp.Runtime().Clock.Guard("emit", func() {
		start := time.Now()
		g.exp.Emit(g.dl)
		g.stats.emitTime = time.Since(start)

		start = time.Now()
		g.dl.Sort()
		g.stats.sortTime = time.Since(start)
	})
	return err == nil
}

// render draws the scene into target and reports whether it completed.
func (g *Game) render(target *ebiten.Image) bool {
	fillBackground(target, g.exp.World().Atmosphere().Fog())
	if !g.emit() {
		return false
	}
	err := g.exp.Runtime().Clock.Guard("draw", func() {
		start := time.Now()
		g.dl.Draw(target)
		g.stats.submitTime = time.Since(start)
	})
	return err == nil
}

// Layout implements ebiten.Game. The logical screen follows the window so
// projection always matches the pixels drawn.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.exp.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// Run opens a window and drives exp until the window closes. It closes exp
// and the HUD on return.
func Run(exp *Experience, cfg RunConfig) error {
	g, err := NewGame(exp, cfg)
	if err != nil {
		return err
	}
	defer func() {
		g.hud.Close()
		exp.Close()
	}()

	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, errScriptDone) {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
