package style

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// Formatter applies role-based presentation to text. Apply never fails:
// unknown roles and unsupported sinks get the text back unchanged.
type Formatter interface {
	Apply(text string, role Role) string
	Supported() bool
	Capability() Capability
}

// New returns Noop when the capability has no color support, else ANSI.
func New(c Capability, spec Spec) Formatter {
	if !c.Color {
		return Noop{Cap: c}
	}
	return NewANSI(c, spec)
}

// Noop is the formatter for sinks that cannot render styling.
type Noop struct {
	Cap Capability
}

func (Noop) Apply(text string, _ Role) string { return text }
func (Noop) Supported() bool                  { return false }
func (n Noop) Capability() Capability         { return n.Cap }

// ANSI renders directives as SGR sequences for the probed color profile.
type ANSI struct {
	cap    Capability
	styles map[Role]compiled
}

type compiled struct {
	lead   string
	render func(string) string
}

// NewANSI precomputes one renderer per role of spec.
func NewANSI(c Capability, spec Spec) *ANSI {
	if spec == nil {
		spec = DefaultSpec()
	}
	a := &ANSI{cap: c, styles: make(map[Role]compiled, len(spec))}
	for role, d := range spec {
		if d.IsZero() || role == RoleMarkdown {
			continue
		}
		a.styles[role] = compile(c.Profile, d)
	}
	return a
}

func compile(p termenv.Profile, d Directive) compiled {
	c := compiled{lead: strings.Repeat("  ", max(d.Indent, 0)) + d.Prefix}
	hasSGR := !d.Fg.IsZero() || !d.Bg.IsZero() || d.Bold || d.Faint || d.Italic || d.Underline || d.Inverse
	if !hasSGR || p == termenv.Ascii {
		c.render = func(s string) string { return s }
		return c
	}
	c.render = func(s string) string {
		st := p.String(s)
		if fg := d.Fg.toTermenv(p); fg != nil {
			st = st.Foreground(fg)
		}
		if bg := d.Bg.toTermenv(p); bg != nil {
			st = st.Background(bg)
		}
		if d.Bold {
			st = st.Bold()
		}
		if d.Faint {
			st = st.Faint()
		}
		if d.Italic {
			st = st.Italic()
		}
		if d.Underline {
			st = st.Underline()
		}
		if d.Inverse {
			st = st.Reverse()
		}
		return st.String()
	}
	return c
}

// Apply styles text for role. Trailing newlines stay outside the escape
// sequences so a reset never leaks onto the next line.
func (a *ANSI) Apply(text string, role Role) string {
	c, ok := a.styles[role]
	if !ok || text == "" {
		return text
	}
	body := strings.TrimRight(text, "\r\n")
	tail := text[len(body):]
	if body == "" {
		return text
	}
	return c.lead + c.render(body) + tail
}

func (a *ANSI) Supported() bool        { return true }
func (a *ANSI) Capability() Capability { return a.cap }

// Strip removes every ANSI escape sequence from s.
func Strip(s string) string { return ansi.Strip(s) }

// Width returns the number of terminal cells s occupies, ignoring escapes.
func Width(s string) int { return ansi.StringWidth(s) }
