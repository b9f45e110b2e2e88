package canopy

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween/ease"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	// hudPromptMaxT is the scroll progress past which the prompt hides.
	hudPromptMaxT = 0.03
	// hudScrollEpsilon is the smallest t change counted as scroll activity.
	hudScrollEpsilon = 0.0005
	hudThumbMin      = 40
	hudThumbShare    = 0.14
	hudPromptDelay   = 650 * time.Millisecond
	hudTitleFade     = 1100 * time.Millisecond
	// hudStatsEvery is the interval between FPS readouts.
	hudStatsEvery = 500 * time.Millisecond
)

// hudDefaultSubtitle is shown while no section is active.
const hudDefaultSubtitle = "Interactive Portfolio"

var keyTitleAlpha = TweenKey{Target: "hud", Property: "title-alpha"}

// HUD is the 2D overlay drawn over the scene. It only listens to Events and
// reads controller getters; it never drives the state machine.
type HUD struct {
	exp *Experience
	rt  *Runtime

	large, medium, small *text.GoTextFace

	t       float64
	section int

	titleAlpha  float64
	promptReady bool

	scrollbarVisible bool
	hide             *Timer

	immersive int
	project   Project
	focused   bool

	statsAge time.Duration
	stats    string

	subs []Subscription
}

// NewHUD subscribes an overlay to exp's events.
func NewHUD(exp *Experience) (*HUD, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("hud font: %w", err)
	}
	h := &HUD{
		exp:       exp,
		rt:        exp.Runtime(),
		large:     &text.GoTextFace{Source: src, Size: 34},
		medium:    &text.GoTextFace{Source: src, Size: 18},
		small:     &text.GoTextFace{Source: src, Size: 13},
		section:   NoSection,
		immersive: NoSection,
	}
	ev := h.rt.Events
	h.subs = append(h.subs,
		ev.ScrollProgress.On(h.onScroll),
		ev.SectionChanged.On(func(p SectionPosition) { h.section = p.Index }),
		ev.MainReady.On(func(struct{}) { h.onMainReady() }),
		ev.ImmersiveChanged.On(h.onImmersive),
		ev.ProjectFocused.On(h.onFocus),
	)
	return h, nil
}

// Close removes every subscription.
func (h *HUD) Close() {
	for _, s := range h.subs {
		s.Remove()
	}
	h.subs = nil
	h.hide.Cancel()
}

// ScrollbarVisible reports whether the scrollbar is showing.
func (h *HUD) ScrollbarVisible() bool { return h.scrollbarVisible }

// PromptVisible reports whether the scroll prompt is showing.
func (h *HUD) PromptVisible() bool {
	return h.promptReady && h.immersive == NoSection && h.t <= hudPromptMaxT
}

// TitleAlpha returns the title fade.
func (h *HUD) TitleAlpha() float64 { return h.titleAlpha }

// Subtitle returns the line under the title for the active section.
func (h *HUD) Subtitle() string {
	secs := h.rt.Palette.Sections
	if h.section < 0 || h.section >= len(secs) {
		return hudDefaultSubtitle
	}
	return secs[h.section].Subtitle
}

// thumb returns the scrollbar thumb offset and height for a track height.
func (h *HUD) thumb(track float64) (y, height float64) {
	height = max(hudThumbMin, track*hudThumbShare)
	return (track - height) * clamp01(h.t), height
}

func (h *HUD) onScroll(t float64) {
	t = clamp01(t)
	moved := math.Abs(t-h.t) > hudScrollEpsilon
	h.t = t
	if !moved {
		return
	}
	h.scrollbarVisible = true
	h.hide.Cancel()
	h.hide = h.rt.Clock.After(h.rt.Config.Timing.ScrollbarHide, func() {
		h.scrollbarVisible = false
	})
}

func (h *HUD) onMainReady() {
	h.titleAlpha = 0
	h.rt.Tweens.Start(keyTitleAlpha, FloatProp(&h.titleAlpha), 1, hudTitleFade, ease.OutExpo)
	h.rt.Clock.After(hudPromptDelay, func() { h.promptReady = true })
}

func (h *HUD) onImmersive(c ImmersiveChange) {
	if !c.Active {
		h.immersive = NoSection
		h.focused = false
		return
	}
	h.immersive = c.Section
	h.scrollbarVisible = false
	h.hide.Cancel()
}

func (h *HUD) onFocus(i int) {
	h.focused = false
	if b, ok := h.exp.Controller(h.immersive).(*Branches); ok && i >= 0 {
		h.project, h.focused = b.FocusedProject()
	}
}

// Update refreshes the FPS readout.
func (h *HUD) Update(dt time.Duration) {
	h.statsAge += dt
	if h.statsAge < hudStatsEvery && h.stats != "" {
		return
	}
	h.statsAge = 0
	h.stats = fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
}

// Draw renders the overlay for the current mode.
func (h *HUD) Draw(dst *ebiten.Image) {
	vp := h.rt.Viewport()
	st := h.exp.State()
	switch st.Mode {
	case ModeIntro:
		h.label(dst, h.small, "hold to grow  ·  enter to skip", vp.Width/2, vp.Height-48, white(0.6), text.AlignCenter)
	case ModeMain:
		if st.Immersive {
			h.drawImmersive(dst, vp, st.ImmersiveSection)
		} else {
			h.drawMain(dst, vp)
		}
	}
	if h.exp.Debug() {
		h.drawStats(dst)
	}
}

func (h *HUD) drawStats(dst *ebiten.Image) {
	ebitenutil.DebugPrint(dst, h.stats)
}

func (h *HUD) drawMain(dst *ebiten.Image, vp Rect) {
	a := h.titleAlpha
	titleColor := Color{R: 1, G: 1, B: 1, A: 1}
	if secs := h.rt.Palette.Sections; h.section >= 0 && h.section < len(secs) {
		titleColor = secs[h.section].Color
	}
	h.label(dst, h.small, strings.ToUpper(h.Subtitle()), 48, 48, white(0.75*a), text.AlignStart)
	h.label(dst, h.large, h.rt.Config.Window.Title, 48, 68, faded(titleColor, a), text.AlignStart)

	for i, s := range h.rt.Palette.Sections {
		y := vp.Height*0.5 + float64(i-1)*36
		c := white(0.35 * a)
		line := s.Name
		if i == h.section {
			c = faded(s.Color, a)
			line = fmt.Sprintf("%s   [%d] enter", s.Name, i+1)
		}
		h.label(dst, h.medium, line, 48, y, c, text.AlignStart)
	}

	if g, ok := h.exp.World().(*Grove); ok {
		if title, hovered := g.Hovered(); hovered {
			f := h.exp.LastFrame()
			h.label(dst, h.small, title, f.ScreenX+14, f.ScreenY+14, white(0.9), text.AlignStart)
		}
	}

	if h.PromptVisible() {
		pulse := 0.55 + 0.25*math.Sin(h.rt.Clock.Elapsed().Seconds()*3)
		h.label(dst, h.small, "scroll to explore", vp.Width/2, vp.Height-56, white(pulse*a), text.AlignCenter)
	}

	if h.scrollbarVisible {
		track := vp.Height - 80
		y, th := h.thumb(track)
		x := float32(vp.Width - 14)
		vector.StrokeLine(dst, x, 40, x, float32(40+track), 2, white(0.15).toRGBA(), true)
		vector.StrokeLine(dst, x, float32(40+y), x, float32(40+y+th), 4, white(0.8).toRGBA(), true)
	}
}

func (h *HUD) drawImmersive(dst *ebiten.Image, vp Rect, section int) {
	h.label(dst, h.small, "esc to return", vp.Width-32, 32, white(0.6), text.AlignEnd)

	switch c := h.exp.Controller(section).(type) {
	case *Roots:
		for i, s := range []RootsState{RootsRaw, RootsFilter, RootsFlow} {
			col := white(0.35)
			if s == c.State() {
				col = white(0.95)
			}
			x := vp.Width/2 + float64(i-1)*110
			h.label(dst, h.medium, strings.ToUpper(s.String()), x, vp.Height-64, col, text.AlignCenter)
		}
		h.label(dst, h.small, "scroll or drag to refine the data", vp.Width/2, vp.Height-32, white(0.5), text.AlignCenter)
	case *Branches:
		if !h.focused {
			return
		}
		p := h.project
		h.label(dst, h.small, p.Kicker, 48, vp.Height-120, white(0.6), text.AlignStart)
		h.label(dst, h.large, p.Title, 48, vp.Height-100, white(0.95), text.AlignStart)
		h.label(dst, h.small, strings.Join(p.Tags, "  ·  "), 48, vp.Height-52, white(0.6), text.AlignStart)
	case *Crown:
		top := vp.Y + vp.Height*crownTabsTop
		w := vp.Width / float64(len(Pillars))
		vector.StrokeLine(dst, float32(vp.X), float32(top), float32(vp.X+vp.Width), float32(top), 1, white(0.15).toRGBA(), true)
		for i, p := range Pillars {
			col := white(0.4)
			if p == c.Pillar() {
				col = pillarStyles[p].color
			}
			cx := vp.X + w*(float64(i)+0.5)
			h.label(dst, h.medium, strings.ToUpper(p), cx, top+(vp.Height-top)/2-10, col, text.AlignCenter)
		}
	}
}

func (h *HUD) label(dst *ebiten.Image, face *text.GoTextFace, s string, x, y float64, c Color, align text.Align) {
	if s == "" || c.A <= 0 {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c.toRGBA())
	op.PrimaryAlign = align
	text.Draw(dst, s, face, op)
}

func white(a float64) Color {
	return Color{R: 1, G: 1, B: 1, A: clamp01(a)}
}

func faded(c Color, a float64) Color {
	c.A *= clamp01(a)
	return c
}
