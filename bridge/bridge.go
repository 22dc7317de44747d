// Package bridge wires iochan into command-line frameworks: it adds the
// iochan flags, builds a registry from config, flags and environment before
// the command runs, points the framework's streams at registry channels,
// and turns the command's error into an exit code.
package bridge

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dzonerzy/go-iochan/iochan"
)

// Flag names added to the host command.
const (
	FlagConfig        = "config"
	FlagColor         = "color"
	FlagRetryLimit    = "retry-limit"
	FlagNoLineEditing = "no-line-editing"
)

// Flags holds the parsed iochan flag values.
type Flags struct {
	ConfigFile    string
	Color         string
	RetryLimit    int
	NoLineEditing bool
}

// overrides returns the config layer for the flags the user set.
func (f *Flags) overrides(changed func(name string) bool) map[string]any {
	out := map[string]any{}
	if changed(FlagColor) {
		out["color"] = f.Color
	}
	if changed(FlagRetryLimit) {
		out["retry_limit"] = f.RetryLimit
	}
	if changed(FlagNoLineEditing) {
		out["line_editing"] = !f.NoLineEditing
	}
	return out
}

// Session is what a running command uses: the resolved config, its
// registry, and a prompter and logger bound to that registry.
type Session struct {
	Config   iochan.Config
	Registry *iochan.Registry
	Prompter *iochan.Prompter
	Logger   *iochan.Logger
}

// Option configures Cobra and Urfave.
type Option func(*core)

// WithRegistryOptions adds options to the session registry, e.g.
// iochan.WithChannels to replace the console channels.
func WithRegistryOptions(opts ...iochan.RegistryOption) Option {
	return func(c *core) { c.regOpts = append(c.regOpts, opts...) }
}

// WithDiagnostics sets the slog logger for registry and prompt
// diagnostics.
func WithDiagnostics(l *slog.Logger) Option {
	return func(c *core) { c.diag = l }
}

// core holds the state shared by the framework adapters.
type core struct {
	flags   Flags
	regOpts []iochan.RegistryOption
	diag    *slog.Logger

	mu      sync.Mutex
	session *Session
	prev    *iochan.Registry
}

func (c *core) apply(opts []Option) {
	for _, o := range opts {
		o(c)
	}
}

// start resolves the config and installs the session registry as the
// process default.
func (c *core) start(changed func(string) bool) error {
	cfg, err := iochan.LoadConfigWith(c.flags.ConfigFile, c.flags.overrides(changed))
	if err != nil {
		return err
	}
	opts, err := cfg.Options(c.diag)
	if err != nil {
		return err
	}
	reg, err := iochan.NewRegistry(append(opts, c.regOpts...)...)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prev = iochan.SetDefault(reg)
	c.session = &Session{
		Config:   cfg,
		Registry: reg,
		Prompter: iochan.NewPrompter(append(cfg.PrompterOptions(),
			iochan.WithRegistry(reg), iochan.WithPromptLogger(c.diag))...),
		Logger: cfg.NewLogger(reg),
	}
	return nil
}

// stop restores the previous default registry and closes the session's.
func (c *core) stop() error {
	c.mu.Lock()
	s := c.session
	c.session = nil
	prev := c.prev
	c.prev = nil
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	iochan.SetDefault(prev)
	return s.Registry.Close()
}

// Session returns the running command's session, or nil outside of a run.
func (c *core) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// finish stops the session and maps the run error to an exit code. The
// error is reported on the stderr channel unless report is false or the
// user interrupted the run.
func (c *core) finish(err error, report bool) int {
	if report && err != nil && !errors.Is(err, iochan.ErrInterrupted) {
		if ch, gerr := iochan.Get("stderr"); gerr == nil {
			_ = ch.Error("Error: %v", err)
		}
	}
	if cerr := c.stop(); err == nil {
		err = cerr
	}
	return iochan.ExitCode(err)
}
