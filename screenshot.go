package canopy

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// shot is a queued capture. The tag records the mode and section at the
// moment the capture was requested.
type shot struct {
	label string
	tag   string
}

// Screenshots captures labeled frames to PNG files named
// <session>_<seq>_<label>_<tag>.png.
type Screenshots struct {
	// Dir is the output directory. Created on first capture.
	Dir string

	log     *slog.Logger
	queue   []shot
	seq     int
	session string
	now     func() time.Time
}

// NewScreenshots writes captures into dir.
func NewScreenshots(dir string, log *slog.Logger) *Screenshots {
	return &Screenshots{Dir: dir, log: log, now: time.Now}
}

// Queue requests a capture of the next drawn frame.
func (s *Screenshots) Queue(label, tag string) {
	s.queue = append(s.queue, shot{label: label, tag: tag})
}

// Pending returns the number of queued captures.
func (s *Screenshots) Pending() int { return len(s.queue) }

// Flush writes the rendered frame once per queued capture and returns the
// paths written. Called at the end of Draw.
func (s *Screenshots) Flush(screen *ebiten.Image) []string {
	if len(s.queue) == 0 {
		return nil
	}
	defer func() { s.queue = s.queue[:0] }()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		s.log.Error("screenshot dir", "dir", s.Dir, "err", err)
		return nil
	}
	if s.session == "" {
		s.session = s.now().Format("20060102_150405")
	}

	b := screen.Bounds()
	pixels := make([]byte, 4*b.Dx()*b.Dy())
	screen.ReadPixels(pixels)
	img := unpremultiply(pixels, b.Dx(), b.Dy())

	written := make([]string, 0, len(s.queue))
	for _, sh := range s.queue {
		s.seq++
		name := fmt.Sprintf("%s_%03d_%s", s.session, s.seq, sanitizeLabel(sh.label))
		if sh.tag != "" {
			name += "_" + sanitizeLabel(sh.tag)
		}
		path := filepath.Join(s.Dir, name+".png")
		if err := writePNG(path, img); err != nil {
			s.log.Error("screenshot", "label", sh.label, "err", err)
			continue
		}
		s.log.Info("screenshot saved", "path", path)
		written = append(written, path)
	}
	return written
}

// stateTag names a state for capture file names, e.g. "main-s1".
func stateTag(st State) string {
	if st.Immersive {
		return fmt.Sprintf("%s-immersive%d", st.Mode, st.ImmersiveSection)
	}
	if st.Section.Index == NoSection {
		return st.Mode.String()
	}
	return fmt.Sprintf("%s-s%d", st.Mode, st.Section.Index)
}

// unpremultiply converts Ebitengine's premultiplied pixels to NRGBA.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	n := min(len(pixels), len(img.Pix)) / 4
	for i := 0; i < n; i++ {
		p := pixels[i*4 : i*4+4]
		c := color.NRGBAModel.Convert(color.RGBA{p[0], p[1], p[2], p[3]}).(color.NRGBA)
		copy(img.Pix[i*4:], []byte{c.R, c.G, c.B, c.A})
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel keeps [A-Za-z0-9.-] and maps every other rune to '_'.
// Blank labels become "unlabeled".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
