package iochan

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// LogLevel is the severity of a Logger message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelSuccess
	LevelWarning
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelSuccess:
		return "SUCCESS"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel accepts the level names case-insensitively, plus "warning".
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "success":
		return LevelSuccess, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("iochan: unknown log level %q", s)
}

// role maps a level to the style role of its line.
func (l LogLevel) role() Role {
	switch l {
	case LevelDebug:
		return RoleMuted
	case LevelSuccess:
		return RoleSuccess
	case LevelWarning:
		return RoleWarning
	case LevelError:
		return RoleError
	}
	return RoleInfo
}

// LogFormat selects the line prefix style.
type LogFormat int

const (
	LogFormatCircles LogFormat = iota // 🔵 🟢 🟡 🔴 🟣
	LogFormatSymbols                  // ◆ ✓ ▲ ✗ ●
	LogFormatTagged                   // [INFO] [SUCCESS] [WARN] [ERROR] [DEBUG]
	LogFormatPlain                    // no prefix
	LogFormatCustom                   // user template
)

func circlePrefixes() map[LogLevel]string {
	return map[LogLevel]string{
		LevelDebug:   "🟣",
		LevelInfo:    "🔵",
		LevelSuccess: "🟢",
		LevelWarning: "🟡",
		LevelError:   "🔴",
	}
}

func symbolPrefixes() map[LogLevel]string {
	return map[LogLevel]string{
		LevelDebug:   "●",
		LevelInfo:    "◆",
		LevelSuccess: "✓",
		LevelWarning: "▲",
		LevelError:   "✗",
	}
}

func taggedPrefixes() map[LogLevel]string {
	return map[LogLevel]string{
		LevelDebug:   "[DEBUG]",
		LevelInfo:    "[INFO]",
		LevelSuccess: "[SUCCESS]",
		LevelWarning: "[WARN]",
		LevelError:   "[ERROR]",
	}
}

// Logger writes leveled, user-facing status lines through registry
// channels. Lines go to "stdout", warnings and errors to "stderr", and the
// channels are looked up per call so redirections apply.
type Logger struct {
	mu           sync.Mutex
	reg          *Registry
	out, err     string
	min          LogLevel
	format       LogFormat
	template     string
	prefixes     map[LogLevel]string
	withTime     bool
	timeFormat   string
	errorsStderr bool
	now          func() time.Time
}

// NewLogger creates a logger bound to reg; nil means Default().
func NewLogger(reg *Registry) *Logger {
	return &Logger{
		reg:          reg,
		out:          "stdout",
		err:          "stderr",
		format:       LogFormatCircles,
		prefixes:     circlePrefixes(),
		timeFormat:   "15:04:05",
		errorsStderr: true,
		now:          time.Now,
	}
}

// WithFormat sets the prefix style.
func (l *Logger) WithFormat(format LogFormat) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = format
	switch format {
	case LogFormatCircles:
		l.prefixes = circlePrefixes()
	case LogFormatSymbols:
		l.prefixes = symbolPrefixes()
	case LogFormatTagged:
		l.prefixes = taggedPrefixes()
	case LogFormatPlain:
		l.prefixes = map[LogLevel]string{}
	}
	return l
}

// WithTemplate switches to LogFormatCustom. Placeholders: {{.Level}},
// {{.Time}}, {{.Message}}, {{.Prefix}}.
func (l *Logger) WithTemplate(template string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.template = template
	l.format = LogFormatCustom
	return l
}

// SetPrefix overrides the prefix of one level.
func (l *Logger) SetPrefix(level LogLevel, prefix string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.prefixes == nil {
		l.prefixes = map[LogLevel]string{}
	}
	l.prefixes[level] = prefix
	return l
}

func (l *Logger) WithTimestamp(enabled bool) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.withTime = enabled
	return l
}

func (l *Logger) WithTimeFormat(format string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timeFormat = format
	return l
}

// WithLevel drops messages below min.
func (l *Logger) WithLevel(min LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.min = min
	return l
}

// WithChannels changes the channel names used for normal and error lines.
func (l *Logger) WithChannels(out, err string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out, l.err = out, err
	return l
}

// ErrorsToStderr controls whether warnings and errors use the error channel.
func (l *Logger) ErrorsToStderr(enabled bool) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorsStderr = enabled
	return l
}

// Log writes one line at level. Failures of the target channel are
// returned; a filtered message returns nil.
func (l *Logger) Log(level LogLevel, format string, args ...any) error {
	l.mu.Lock()
	if level < l.min {
		l.mu.Unlock()
		return nil
	}
	line := l.formatLocked(level, fmt.Sprintf(format, args...))
	name := l.out
	if l.errorsStderr && level >= LevelWarning {
		name = l.err
	}
	reg := l.reg
	l.mu.Unlock()

	if reg == nil {
		reg = Default()
	}
	ch, err := reg.Get(name)
	if err != nil {
		return err
	}
	return ch.Output(NewMsg().Add(level.role(), line))
}

func (l *Logger) formatLocked(level LogLevel, msg string) string {
	if l.format == LogFormatCustom && l.template != "" {
		out := strings.NewReplacer(
			"{{.Level}}", level.String(),
			"{{.Message}}", msg,
			"{{.Prefix}}", l.prefixes[level],
			"{{.Time}}", l.now().Format(l.timeFormat),
		).Replace(l.template)
		return out
	}
	if strings.TrimSpace(msg) == "" {
		return msg
	}

	var b strings.Builder
	if p := l.prefixes[level]; p != "" && l.format != LogFormatPlain {
		b.WriteString(p)
		b.WriteByte(' ')
	}
	if l.withTime {
		b.WriteString("[" + l.now().Format(l.timeFormat) + "] ")
	}
	b.WriteString(msg)
	return b.String()
}

func (l *Logger) Debug(format string, args ...any) error { return l.Log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any) error  { return l.Log(LevelInfo, format, args...) }
func (l *Logger) Success(format string, args ...any) error {
	return l.Log(LevelSuccess, format, args...)
}
func (l *Logger) Warning(format string, args ...any) error {
	return l.Log(LevelWarning, format, args...)
}
func (l *Logger) Error(format string, args ...any) error { return l.Log(LevelError, format, args...) }
