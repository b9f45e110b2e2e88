package canopy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfigYAML []byte

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("canopy: invalid config")

// WindowConfig sizes the native window.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// ScrollConfig describes the virtual page and the section layout.
type ScrollConfig struct {
	// PageMultiple is the page height in viewport heights.
	PageMultiple float64 `yaml:"page_multiple"`
	// MinT and MaxT bound the active range; outside it lies the dead zone.
	MinT  float64 `yaml:"min_t"`
	MaxT  float64 `yaml:"max_t"`
	Spans []Span  `yaml:"spans"`
}

// TimingConfig holds every fixed duration.
type TimingConfig struct {
	Transition       time.Duration `yaml:"transition"`
	Blend            time.Duration `yaml:"blend"`
	RestoreLock      time.Duration `yaml:"restore_lock"`
	PathRebuildDelay time.Duration `yaml:"path_rebuild_delay"`
	ImmersiveFade    time.Duration `yaml:"immersive_fade"`
	ScrollbarHide    time.Duration `yaml:"scrollbar_hide"`
}

// SelectorConfig tunes the gallery's closest-project hysteresis. The values
// are UX tuning, not contracts.
type SelectorConfig struct {
	ActivateDistance   float64 `yaml:"activate_distance"`
	DeactivateDistance float64 `yaml:"deactivate_distance"`
	ScreenWindow       float64 `yaml:"screen_window"`
	ForwardDot         float64 `yaml:"forward_dot"`
	CenterPenalty      float64 `yaml:"center_penalty"`
}

// BranchesConfig tunes the gallery fly-through.
type BranchesConfig struct {
	WheelScale  float64        `yaml:"wheel_scale"`
	MaxProgress float64        `yaml:"max_progress"`
	Ease        float64        `yaml:"ease"`
	LookAhead   float64        `yaml:"look_ahead"`
	IntroTarget float64        `yaml:"intro_target"`
	EndProgress float64        `yaml:"end_progress"`
	Selector    SelectorConfig `yaml:"selector"`
}

// RootsConfig tunes the data panel.
type RootsConfig struct {
	WheelScale float64 `yaml:"wheel_scale"`
	Ease       float64 `yaml:"ease"`
}

// AudioConfig points at the optional ambient loop.
type AudioConfig struct {
	Path   string        `yaml:"path"`
	Volume float64       `yaml:"volume"`
	Fade   time.Duration `yaml:"fade"`
}

// Project is one gallery entry.
type Project struct {
	ID     string   `yaml:"id"`
	Title  string   `yaml:"title"`
	Kicker string   `yaml:"kicker"`
	Tags   []string `yaml:"tags"`
}

// Config is the full runtime configuration.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Seed     uint64         `yaml:"seed"`
	Scroll   ScrollConfig   `yaml:"scroll"`
	Timing   TimingConfig   `yaml:"timing"`
	Camera   CameraConfig   `yaml:"camera"`
	Branches BranchesConfig `yaml:"branches"`
	Roots    RootsConfig    `yaml:"roots"`
	Audio    AudioConfig    `yaml:"audio"`
	Palette  Palette        `yaml:"palette"`
	Projects []Project      `yaml:"projects"`
}

// DefaultConfig returns the embedded configuration.
func DefaultConfig() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultConfigYAML, &cfg); err != nil {
		// The embedded file is part of the build.
		panic(fmt.Sprintf("canopy: embedded config: %v", err))
	}
	return cfg
}

// ParseConfig overlays YAML data on the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Scroll.Spans) == 0 {
		cfg.Scroll.Spans = UniformSpans(len(cfg.Palette.Sections))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d", c.Window.Width, c.Window.Height)
	check(c.Scroll.PageMultiple > 1, "page_multiple %v must exceed 1", c.Scroll.PageMultiple)
	if _, err := NewSectionMap(c.Scroll.Spans, c.Scroll.MinT, c.Scroll.MaxT); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	check(len(c.Palette.Sections) == len(c.Scroll.Spans),
		"%d palette sections for %d spans", len(c.Palette.Sections), len(c.Scroll.Spans))

	t := c.Timing
	check(t.Transition > 0, "transition %v", t.Transition)
	check(t.Blend >= 0, "blend %v", t.Blend)
	check(t.RestoreLock >= 0, "restore_lock %v", t.RestoreLock)
	check(t.PathRebuildDelay >= 0, "path_rebuild_delay %v", t.PathRebuildDelay)
	check(t.ImmersiveFade >= 0, "immersive_fade %v", t.ImmersiveFade)

	check(c.Camera.Smoothing > 0, "camera smoothing %v", c.Camera.Smoothing)
	check(c.Camera.BankFrequency > 0, "camera bank_frequency %v", c.Camera.BankFrequency)

	b := c.Branches
	check(b.MaxProgress > 0 && b.MaxProgress <= 1, "branches max_progress %v", b.MaxProgress)
	check(b.Ease > 0 && b.Ease <= 1, "branches ease %v", b.Ease)
	check(b.Selector.ActivateDistance > 0 && b.Selector.ActivateDistance <= b.Selector.DeactivateDistance,
		"selector distances activate %v deactivate %v", b.Selector.ActivateDistance, b.Selector.DeactivateDistance)
	check(b.Selector.ScreenWindow > 0 && b.Selector.ScreenWindow <= 1, "selector screen_window %v", b.Selector.ScreenWindow)

	check(c.Roots.Ease > 0 && c.Roots.Ease <= 1, "roots ease %v", c.Roots.Ease)
	check(c.Audio.Volume >= 0 && c.Audio.Volume <= 1, "audio volume %v", c.Audio.Volume)

	return errors.Join(errs...)
}
