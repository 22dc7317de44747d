package iochan

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/dzonerzy/go-iochan/internal/pool"
	"github.com/dzonerzy/go-iochan/style"
)

// Role is the semantic role of a piece of text.
type Role = style.Role

// Built-in roles.
const (
	RolePlain    = style.RolePlain
	RolePrompt   = style.RolePrompt
	RoleAnswer   = style.RoleAnswer
	RoleInfo     = style.RoleInfo
	RoleStatus   = style.RoleStatus
	RoleSuccess  = style.RoleSuccess
	RoleWarning  = style.RoleWarning
	RoleError    = style.RoleError
	RoleAccent   = style.RoleAccent
	RoleBright   = style.RoleBright
	RoleMuted    = style.RoleMuted
	RoleHappy    = style.RoleHappy
	RoleSad      = style.RoleSad
	RoleMeh      = style.RoleMeh
	RoleMarkdown = style.RoleMarkdown
)

// Part is one styled fragment of a message.
type Part struct {
	Role Role
	Text string
}

// Msg is an ordered list of parts joined by a separator and closed by a
// terminator. Each part is styled on its own when rendered.
type Msg struct {
	parts []Part
	sep   string
	end   string
}

// NewMsg returns an empty message with separator " " and terminator "\n".
func NewMsg() *Msg { return &Msg{sep: " ", end: "\n"} }

// Sep sets the separator placed between parts.
func (m *Msg) Sep(s string) *Msg { m.sep = s; return m }

// End sets the terminator written after the last part.
func (m *Msg) End(s string) *Msg { m.end = s; return m }

// Add appends a part with text used verbatim.
func (m *Msg) Add(role Role, text string) *Msg {
	m.parts = append(m.parts, Part{Role: role, Text: text})
	return m
}

// Addf appends a part formatted with fmt.Sprintf.
func (m *Msg) Addf(role Role, format string, args ...any) *Msg {
	return m.Add(role, fmt.Sprintf(format, args...))
}

func (m *Msg) Print(format string, args ...any) *Msg   { return m.Addf(RolePlain, format, args...) }
func (m *Msg) Prompt(format string, args ...any) *Msg  { return m.Addf(RolePrompt, format, args...) }
func (m *Msg) Answer(format string, args ...any) *Msg  { return m.Addf(RoleAnswer, format, args...) }
func (m *Msg) Info(format string, args ...any) *Msg    { return m.Addf(RoleInfo, format, args...) }
func (m *Msg) Status(format string, args ...any) *Msg  { return m.Addf(RoleStatus, format, args...) }
func (m *Msg) Success(format string, args ...any) *Msg { return m.Addf(RoleSuccess, format, args...) }
func (m *Msg) Warn(format string, args ...any) *Msg    { return m.Addf(RoleWarning, format, args...) }
func (m *Msg) Error(format string, args ...any) *Msg   { return m.Addf(RoleError, format, args...) }
func (m *Msg) Accent(format string, args ...any) *Msg  { return m.Addf(RoleAccent, format, args...) }
func (m *Msg) Bright(format string, args ...any) *Msg  { return m.Addf(RoleBright, format, args...) }
func (m *Msg) Muted(format string, args ...any) *Msg   { return m.Addf(RoleMuted, format, args...) }
func (m *Msg) Happy(format string, args ...any) *Msg   { return m.Addf(RoleHappy, format, args...) }
func (m *Msg) Sad(format string, args ...any) *Msg     { return m.Addf(RoleSad, format, args...) }
func (m *Msg) Meh(format string, args ...any) *Msg     { return m.Addf(RoleMeh, format, args...) }

// Parts returns the message parts. The slice must not be modified.
func (m *Msg) Parts() []Part { return m.parts }

// Render joins the parts, passing each through part (a Formatter's Apply
// fits). A nil part renders the plain text.
func (m *Msg) Render(part func(text string, role Role) string) string {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	for i, p := range m.parts {
		if i > 0 {
			buf.WriteString(m.sep)
		}
		if part != nil {
			buf.WriteString(part(p.Text, p.Role))
		} else {
			buf.WriteString(p.Text)
		}
	}
	buf.WriteString(m.end)
	return buf.String()
}

// String renders the message without styling.
func (m *Msg) String() string { return m.Render(nil) }

// Len is the display width of the unstyled message.
func (m *Msg) Len() int { return runewidth.StringWidth(m.String()) }
