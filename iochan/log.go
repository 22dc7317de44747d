package iochan

import (
	"context"
	"html"
	"log/slog"
	"strings"
	"sync"
)

// Log receives a copy of everything a channel outputs, plus echoed prompts
// and answers. Logs never read input.
type Log interface {
	Output(msg *Msg)
}

// memoryLog accumulates rendered messages.
type memoryLog struct {
	mu   sync.Mutex
	b    strings.Builder
	part func(string, Role) string
}

// Start discards previous contents.
func (l *memoryLog) Start() {
	l.mu.Lock()
	l.b.Reset()
	l.mu.Unlock()
}

// String returns everything logged so far.
func (l *memoryLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func (l *memoryLog) Output(msg *Msg) {
	s := msg.Render(l.part)
	l.mu.Lock()
	l.b.WriteString(s)
	l.mu.Unlock()
}

// TextLog is an in-memory plain text transcript.
type TextLog struct{ memoryLog }

// NewTextLog returns an empty plain text transcript.
func NewTextLog() *TextLog { return &TextLog{} }

// HTMLLog is an in-memory HTML transcript meant to be embedded in <pre>.
type HTMLLog struct{ memoryLog }

// NewHTMLLog returns an empty HTML transcript.
func NewHTMLLog() *HTMLLog {
	l := &HTMLLog{}
	l.part = htmlPart
	return l
}

func fg(color, s string) string {
	return `<span style="color: ` + color + `; font-weight: bold;">` + s + `</span>`
}

func bg(color, s string) string {
	return `<span style="background-color: ` + color + `; font-weight: bold;">` + s + `</span>`
}

var htmlRoles = map[Role]func(string) string{
	RolePrompt:  func(s string) string { return fg("#34E2E2", s) },
	RoleAnswer:  func(s string) string { return "<i>" + s + "</i>" },
	RoleStatus:  func(s string) string { return fg("#8AE234", s) },
	RoleSuccess: func(s string) string { return fg("#8AE234", s) },
	RoleError:   func(s string) string { return fg("#EF2929", s) },
	RoleWarning: func(s string) string { return fg("#FCE94F", s) },
	RoleAccent:  func(s string) string { return fg("#729FCF", s) },
	RoleInfo:    func(s string) string { return fg("#34E2E2", s) },
	RoleBright:  func(s string) string { return "<b>" + s + "</b>" },
	RoleMuted:   func(s string) string { return `<span style="opacity: 0.6;">` + s + `</span>` },
	RoleHappy:   func(s string) string { return bg("green", s) },
	RoleSad:     func(s string) string { return bg("red", s) },
	RoleMeh:     func(s string) string { return bg("blue", s) },
}

func htmlPart(s string, role Role) string {
	s = html.EscapeString(s)
	if f, ok := htmlRoles[role]; ok {
		return f(s)
	}
	return s
}

// SlogLog mirrors channel output into a structured logger, one record per
// message.
type SlogLog struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogLog logs at level; a nil logger uses slog.Default().
func NewSlogLog(logger *slog.Logger, level slog.Level) *SlogLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLog{logger: logger, level: level}
}

func (l *SlogLog) Output(msg *Msg) {
	text := strings.TrimRight(msg.String(), "\n")
	if text == "" {
		return
	}
	role := RolePlain
	if parts := msg.Parts(); len(parts) > 0 {
		role = parts[0].Role
	}
	l.logger.Log(context.Background(), l.level, text, slog.String("role", string(role)))
}
