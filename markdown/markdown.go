// Package markdown renders markdown for terminals with glamour. A Renderer
// plugs into iochan.WithRenderer.
package markdown

import (
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/dzonerzy/go-iochan/style"
)

// DefaultWidth is used when the window width is unknown.
const DefaultWidth = 80

// Style names understood by WithStyle besides glamour's standard styles.
const StyleAuto = "auto"

// Renderer renders markdown at a given wrap width. Glamour renderers are
// built lazily, one per width.
type Renderer struct {
	style string

	mu      sync.Mutex
	byWidth map[int]*glamour.TermRenderer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle selects a glamour standard style ("dark", "light", "notty",
// "ascii", ...) or StyleAuto to detect the background.
func WithStyle(name string) Option { return func(r *Renderer) { r.style = name } }

// New returns a renderer using StyleAuto unless configured otherwise.
func New(opts ...Option) *Renderer {
	r := &Renderer{style: StyleAuto, byWidth: map[int]*glamour.TermRenderer{}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ForCapability picks "notty" for sinks without color and StyleAuto
// otherwise.
func ForCapability(c style.Capability) *Renderer {
	if !c.Color {
		return New(WithStyle("notty"))
	}
	return New()
}

// Render renders text wrapped to width cells.
func (r *Renderer) Render(text string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	tr, err := r.renderer(width)
	if err != nil {
		return "", err
	}
	return tr.Render(text)
}

func (r *Renderer) renderer(width int) (*glamour.TermRenderer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tr, ok := r.byWidth[width]; ok {
		return tr, nil
	}
	styleOpt := glamour.WithAutoStyle()
	if r.style != StyleAuto {
		styleOpt = glamour.WithStandardStyle(r.style)
	}
	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	r.byWidth[width] = tr
	return tr, nil
}
