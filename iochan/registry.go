package iochan

import (
	"errors"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/dzonerzy/go-iochan/internal/fuzzy"
	"github.com/dzonerzy/go-iochan/internal/logging"
)

// Binding is one entry on a channel name's stack.
type Binding struct {
	name string
	ch   *Channel
}

// Name returns the channel name the binding is pushed on.
func (b *Binding) Name() string { return b.name }

// Channel returns the bound channel.
func (b *Binding) Channel() *Channel { return b.ch }

// Registry maps channel names to stacks of bindings. The bottom binding of
// every stack is the default and is never popped; only the top is visible.
// One mutex guards every lookup and mutation.
type Registry struct {
	mu     sync.Mutex
	stacks map[string][]*Binding
	logger *slog.Logger
	closed bool
}

type registryConfig struct {
	noDefaults  bool
	channels    []*Channel
	channelOpts []Option
	logger      *slog.Logger
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*registryConfig)

// WithoutDefaults skips the stdout/stderr/stdin console channels.
func WithoutDefaults() RegistryOption {
	return func(c *registryConfig) { c.noDefaults = true }
}

// WithChannels registers extra default channels. A channel named like a
// console default replaces it.
func WithChannels(chs ...*Channel) RegistryOption {
	return func(c *registryConfig) { c.channels = append(c.channels, chs...) }
}

// WithChannelOptions applies opts to the console default channels.
func WithChannelOptions(opts ...Option) RegistryOption {
	return func(c *registryConfig) { c.channelOpts = append(c.channelOpts, opts...) }
}

// WithLogger sets the diagnostics logger; nil disables logging.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(c *registryConfig) { c.logger = l }
}

// NewRegistry creates a registry with the console defaults registered.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	cfg := registryConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	r := &Registry{
		stacks: make(map[string][]*Binding),
		logger: logging.OrNop(cfg.logger),
	}

	overridden := make(map[string]bool, len(cfg.channels))
	for _, ch := range cfg.channels {
		if ch != nil {
			overridden[ch.Name()] = true
		}
	}
	if !cfg.noDefaults {
		for _, mk := range []func(...Option) *Channel{Stdout, Stderr, Stdin} {
			ch := mk(cfg.channelOpts...)
			if overridden[ch.Name()] {
				_ = ch.Close()
				continue
			}
			if err := r.Register(ch); err != nil {
				return nil, err
			}
		}
	}
	for _, ch := range cfg.channels {
		if err := r.Register(ch); err != nil {
			_ = r.Close()
			return nil, err
		}
	}
	return r, nil
}

// Register adds ch as the default binding for its name.
func (r *Registry) Register(ch *Channel) error {
	if ch == nil || ch.Name() == "" {
		return newError(KindInvalidRedirection, "register", "", "channel must be non-nil and named")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return newError(KindChannelClosed, "register", ch.Name(), "registry closed")
	}
	if _, ok := r.stacks[ch.Name()]; ok {
		return newError(KindInvalidRedirection, "register", ch.Name(), "already registered")
	}
	r.stacks[ch.Name()] = []*Binding{{name: ch.Name(), ch: ch}}
	r.logger.Debug("channel registered", "channel", ch.Name(), "direction", ch.Direction().String())
	return nil
}

// unknown builds an UnknownChannel error with suggestions. Caller holds mu.
func (r *Registry) unknown(op, name string) *Error {
	names := make([]string, 0, len(r.stacks))
	for n := range r.stacks {
		names = append(names, n)
	}
	sort.Strings(names)
	return newError(KindUnknownChannel, op, name, "no such channel").
		withSuggestions(fuzzy.Suggest(name, names, 2, 3))
}

// Get returns the channel currently bound to name.
func (r *Registry) Get(name string) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stacks[name]
	if !ok {
		return nil, r.unknown("get", name)
	}
	return st[len(st)-1].ch, nil
}

// MustGet is Get for names the program registered itself; it panics on an
// unknown name.
func (r *Registry) MustGet(name string) *Channel {
	ch, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return ch
}

// Push binds ch over name until the returned binding is popped.
func (r *Registry) Push(name string, ch *Channel) (*Binding, error) {
	if ch == nil {
		return nil, newError(KindInvalidRedirection, "push", name, "nil channel")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stacks[name]
	if !ok {
		return nil, r.unknown("push", name)
	}
	b := &Binding{name: name, ch: ch}
	r.stacks[name] = append(st, b)
	r.logger.Debug("channel pushed", "channel", name, "depth", len(st)+1)
	return b, nil
}

// Pop removes the top binding of name. Popping the default binding fails
// with ErrChannelStackUnderflow.
func (r *Registry) Pop(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.popLocked("pop", name, nil)
}

// popLocked pops name's top binding, which must be want when want is non-nil.
func (r *Registry) popLocked(op, name string, want *Binding) error {
	st, ok := r.stacks[name]
	if !ok {
		return r.unknown(op, name)
	}
	if len(st) <= 1 {
		return newError(KindChannelStackUnderflow, op, name, "cannot pop the default binding")
	}
	top := st[len(st)-1]
	if want != nil && top != want {
		return newError(KindChannelStackUnderflow, op, name, "binding is not on top of the stack; scopes closed out of order")
	}
	st[len(st)-1] = nil
	r.stacks[name] = st[:len(st)-1]
	r.logger.Debug("channel popped", "channel", name, "depth", len(st)-1)
	return nil
}

// Depth returns the number of bindings for name including the default, or 0
// for an unknown name.
func (r *Registry) Depth(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stacks[name])
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.stacks))
	for n := range r.stacks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close closes every bound channel and empties the registry. Later calls
// are no-ops.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	var chans []*Channel
	for _, st := range r.stacks {
		for _, b := range st {
			if !slices.Contains(chans, b.ch) {
				chans = append(chans, b.ch)
			}
		}
	}
	r.stacks = map[string][]*Binding{}
	r.mu.Unlock()

	var errs []error
	for _, ch := range chans {
		if err := ch.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.logger.Debug("registry closed", "channels", len(chans))
	return errors.Join(errs...)
}

var (
	defaultMu  sync.Mutex
	defaultReg *Registry
)

// Default returns the process-wide registry, creating it with the console
// defaults on first use.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReg == nil {
		r, err := NewRegistry()
		if err != nil {
			panic(err)
		}
		defaultReg = r
	}
	return defaultReg
}

// SetDefault installs r as the process-wide registry and returns the
// previous one, which is left open. A nil r makes the next Default call
// build a fresh registry.
func SetDefault(r *Registry) *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultReg
	defaultReg = r
	return prev
}

// Shutdown closes the process-wide registry. The next Default call builds
// a fresh one.
func Shutdown() error {
	defaultMu.Lock()
	r := defaultReg
	defaultReg = nil
	defaultMu.Unlock()
	if r == nil {
		return nil
	}
	return r.Close()
}

// Get returns the channel bound to name in the process-wide registry.
func Get(name string) (*Channel, error) { return Default().Get(name) }
