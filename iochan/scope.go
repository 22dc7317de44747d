package iochan

import (
	"fmt"
	"sort"
	"sync"
)

// Redirection asks a scope to bind Channel over Name.
type Redirection struct {
	Name    string
	Channel *Channel
}

// To builds a Redirection.
func To(name string, ch *Channel) Redirection { return Redirection{Name: name, Channel: ch} }

// Scope is a set of bindings pushed together and popped together in
// reverse order. Close it with defer, or use Registry.WithRedirect.
type Scope struct {
	r        *Registry
	bindings []*Binding

	mu     sync.Mutex
	closed bool
}

// Redirect validates every redirection and then pushes them all. If any
// redirection is invalid nothing is pushed and the error has kind
// KindInvalidRedirection.
func (r *Registry) Redirect(redirections ...Redirection) (*Scope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, newError(KindChannelClosed, "redirect", "", "registry closed")
	}

	seen := make(map[string]bool, len(redirections))
	for _, x := range redirections {
		if err := r.validateLocked(x, seen); err != nil {
			return nil, err
		}
		seen[x.Name] = true
	}

	s := &Scope{r: r, bindings: make([]*Binding, 0, len(redirections))}
	for _, x := range redirections {
		b := &Binding{name: x.Name, ch: x.Channel}
		r.stacks[x.Name] = append(r.stacks[x.Name], b)
		s.bindings = append(s.bindings, b)
	}
	r.logger.Debug("scope opened", "bindings", len(s.bindings))
	return s, nil
}

func (r *Registry) validateLocked(x Redirection, seen map[string]bool) error {
	invalid := func(format string, args ...any) *Error {
		return newError(KindInvalidRedirection, "redirect", x.Name, fmt.Sprintf(format, args...))
	}
	switch {
	case x.Name == "":
		return invalid("empty channel name")
	case x.Channel == nil:
		return invalid("nil channel")
	case seen[x.Name]:
		return invalid("redirected twice in one scope")
	case x.Channel.Closed():
		return invalid("replacement channel %q is closed", x.Channel.Name())
	}
	st, ok := r.stacks[x.Name]
	if !ok {
		u := r.unknown("redirect", x.Name)
		return invalid("channel is not registered").withSuggestions(u.Suggestions)
	}
	want := st[0].ch.Direction()
	if got := x.Channel.Direction(); got&want != want {
		return invalid("replacement supports %s, default needs %s", got, want)
	}
	return nil
}

// RedirectMap is Redirect for a map, pushed in sorted name order.
func (r *Registry) RedirectMap(m map[string]*Channel) (*Scope, error) {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	rs := make([]Redirection, 0, len(names))
	for _, n := range names {
		rs = append(rs, To(n, m[n]))
	}
	return r.Redirect(rs...)
}

// Close pops the scope's bindings in reverse order. It fails with
// ErrChannelStackUnderflow, popping nothing, when any binding is no longer
// on top, which means an inner scope is still open; the scope stays active
// and can be closed again once the inner scope is gone. Closing twice is a
// no-op.
func (s *Scope) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	r := s.r
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		s.closed = true
		return nil
	}
	for _, b := range s.bindings {
		if st := r.stacks[b.name]; len(st) == 0 || st[len(st)-1] != b {
			return newError(KindChannelStackUnderflow, "close scope", b.name,
				"binding is not on top of the stack; scopes closed out of order")
		}
	}
	for i := len(s.bindings) - 1; i >= 0; i-- {
		b := s.bindings[i]
		if err := r.popLocked("close scope", b.name, b); err != nil {
			return err
		}
	}
	s.closed = true
	r.logger.Debug("scope closed", "bindings", len(s.bindings))
	return nil
}

// Bindings returns the bindings in push order.
func (s *Scope) Bindings() []*Binding { return append([]*Binding(nil), s.bindings...) }

// Active reports whether the scope has not been closed yet.
func (s *Scope) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// WithRedirect runs fn inside a scope and closes the scope on every exit
// path, panics included. A scope close error is returned only when fn
// itself succeeded.
func (r *Registry) WithRedirect(redirections []Redirection, fn func() error) (err error) {
	s, err := r.Redirect(redirections...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn()
}

// Redirect opens a scope on the process-wide registry.
func Redirect(redirections ...Redirection) (*Scope, error) {
	return Default().Redirect(redirections...)
}
