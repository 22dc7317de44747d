package iochan

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dzonerzy/go-iochan/style"
)

// Bordered writes text inside a box of '*' sized to the window. Long lines
// are wrapped to fit.
func (c *Channel) Bordered(role Role, text string) error {
	cols, _, known := c.Size()

	var lines []string
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if !known {
			lines = append(lines, line)
			continue
		}
		lines = append(lines, wrapWidth(line, max(cols-4, 1))...)
	}

	maxLen := 0
	for _, l := range lines {
		maxLen = max(maxLen, runewidth.StringWidth(l))
	}
	if known {
		cols = min(cols, maxLen+4)
	} else {
		cols = maxLen + 4
	}

	avail := cols - 4
	start := max((avail-maxLen)/2, 0)
	lineWidth := avail - start

	stars := strings.Repeat("*", cols)
	msg := NewMsg().Sep("\n").Add(role, stars)
	for _, l := range lines {
		msg.Add(role, "* "+strings.Repeat(" ", start)+runewidth.FillRight(l, lineWidth)+" *")
	}
	msg.Add(role, stars)
	return c.Output(msg)
}

// wrapWidth splits s into chunks of at most width cells. An empty line is
// dropped, matching how blank lines vanish from a bordered box.
func wrapWidth(s string, width int) []string {
	var out []string
	for s != "" {
		w, cut := 0, 0
		for i, r := range s {
			rw := runewidth.RuneWidth(r)
			if w+rw > width && cut > 0 {
				break
			}
			w += rw
			cut = i + len(string(r))
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	return out
}

// body returns a copy of m without its terminator.
func (m *Msg) body() *Msg {
	return &Msg{parts: m.parts, sep: m.sep, end: ""}
}

func (m *Msg) multiline() bool {
	if strings.Contains(m.sep, "\n") && len(m.parts) > 1 {
		return true
	}
	for _, p := range m.parts {
		if strings.Contains(p.Text, "\n") {
			return true
		}
	}
	return false
}

// List prints msgs in columns like ls, each entry preceded by prefix. Entries
// are printed one per line when any of them spans lines or the window width
// is unknown.
func (c *Channel) List(msgs []*Msg, prefix string) error {
	if len(msgs) == 0 {
		return nil
	}
	skip, err := c.checkWrite("list")
	if skip {
		return err
	}

	useCols := true
	for _, m := range msgs {
		if m.multiline() {
			useCols = false
			break
		}
	}
	width, _, known := c.Size()

	c.lock()
	defer c.unlock()

	if !useCols || !known {
		for _, m := range msgs {
			if err := c.emit(m.body().End("\n")); err != nil {
				return err
			}
		}
		return nil
	}

	// Find the fewest rows that fit the width.
	var (
		columns [][]*Msg
		lengths []int
		rows    int
	)
	for rows = 1; rows <= len(msgs); rows++ {
		columns, lengths = columns[:0], lengths[:0]
		for left := msgs; len(left) > 0; {
			n := min(rows, len(left))
			columns = append(columns, left[:n])
			left = left[n:]
		}
		total := 0
		for _, col := range columns {
			l := 0
			for _, m := range col {
				l = max(l, m.body().Len())
			}
			lengths = append(lengths, l)
			total += l + runewidth.StringWidth(prefix)
		}
		if total < width {
			break
		}
	}
	rows = min(rows, len(msgs))

	for r := range rows {
		line := NewMsg().Sep("")
		for ci, col := range columns {
			if r >= len(col) {
				continue
			}
			m := col[r].body()
			line.Add(RolePlain, prefix)
			line.parts = append(line.parts, m.withSep()...)
			if pad := lengths[ci] - m.Len(); pad > 0 && ci < len(columns)-1 {
				line.Add(RolePlain, strings.Repeat(" ", pad))
			}
		}
		if err := c.emit(line); err != nil {
			return err
		}
	}
	return nil
}

// withSep flattens m into parts with its separators made explicit, so it can
// be spliced into another message.
func (m *Msg) withSep() []Part {
	out := make([]Part, 0, len(m.parts)*2)
	for i, p := range m.parts {
		if i > 0 && m.sep != "" {
			out = append(out, Part{Role: RolePlain, Text: m.sep})
		}
		out = append(out, p)
	}
	return out
}

// Markdown renders text with the channel's ContentRenderer. Without a
// renderer, or when rendering fails, the raw text is written. Delegates
// always receive the raw text.
func (c *Channel) Markdown(text string) error {
	skip, err := c.checkWrite("markdown")
	if skip {
		return err
	}
	width, _, _ := c.Size()

	out := text
	if c.renderer != nil {
		if r, rerr := c.renderer.Render(text, width); rerr == nil {
			out = r
		}
	}
	if !c.fmt.Supported() {
		out = style.Strip(out)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}

	c.lock()
	defer c.unlock()
	if _, err := io.WriteString(c.w, out); err != nil {
		return newError(KindChannelClosed, "markdown", c.name, "write failed").withCause(err)
	}
	c.mirror(NewMsg().End("").Add(RoleMarkdown, strings.TrimRight(text, "\n")+"\n"))
	return nil
}
