package iochan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dzonerzy/go-iochan/internal/fuzzy"
	"github.com/dzonerzy/go-iochan/internal/logging"
	"github.com/dzonerzy/go-iochan/validate"
)

// DefaultRetryLimit is the number of attempts a prompt allows when none is
// configured.
const DefaultRetryLimit = 3

// State is a step of one interactive read.
type State int

const (
	StateIdle State = iota
	StatePromptWritten
	StateReading
	StateValidated
	StateRetrying
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePromptWritten:
		return "prompt_written"
	case StateReading:
		return "reading"
	case StateValidated:
		return "validated"
	case StateRetrying:
		return "retrying"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Prompter asks questions through an output channel and reads answers from
// an input channel. Channels are looked up by name on every call, so
// active redirections apply.
type Prompter struct {
	reg       *Registry
	inName    string
	outName   string
	in, out   *Channel
	limit     int
	errFormat string
	logger    *slog.Logger
	hook      func(from, to State)
	signals   bool
}

// PromptOption configures a Prompter.
type PromptOption func(*Prompter)

// WithRegistry resolves channels in r instead of Default().
func WithRegistry(r *Registry) PromptOption { return func(p *Prompter) { p.reg = r } }

// WithInput names the input channel (default "stdin").
func WithInput(name string) PromptOption { return func(p *Prompter) { p.inName = name } }

// WithOutput names the output channel (default "stdout").
func WithOutput(name string) PromptOption { return func(p *Prompter) { p.outName = name } }

// WithInputChannel uses ch directly instead of a registry lookup.
func WithInputChannel(ch *Channel) PromptOption { return func(p *Prompter) { p.in = ch } }

// WithOutputChannel uses ch directly instead of a registry lookup.
func WithOutputChannel(ch *Channel) PromptOption { return func(p *Prompter) { p.out = ch } }

// WithRetryLimit sets the number of attempts. Values <= 0 mean
// DefaultRetryLimit.
func WithRetryLimit(n int) PromptOption { return func(p *Prompter) { p.limit = n } }

// WithErrorFormat sets the fmt format used for the error line; it receives
// the validation message.
func WithErrorFormat(format string) PromptOption { return func(p *Prompter) { p.errFormat = format } }

// WithPromptLogger sets the diagnostics logger.
func WithPromptLogger(l *slog.Logger) PromptOption { return func(p *Prompter) { p.logger = l } }

// WithTransitionHook observes every state change.
func WithTransitionHook(fn func(from, to State)) PromptOption {
	return func(p *Prompter) { p.hook = fn }
}

// WithInterruptSignals makes reads fail with ErrInterrupted on SIGINT and
// SIGTERM.
func WithInterruptSignals(enabled bool) PromptOption { return func(p *Prompter) { p.signals = enabled } }

// NewPrompter builds a Prompter.
func NewPrompter(opts ...PromptOption) *Prompter {
	p := &Prompter{inName: "stdin", outName: "stdout", errFormat: "%s"}
	for _, o := range opts {
		o(p)
	}
	if p.limit <= 0 {
		p.limit = DefaultRetryLimit
	}
	p.logger = logging.OrNop(p.logger)
	return p
}

// RetryLimit returns the effective attempt limit.
func (p *Prompter) RetryLimit() int { return p.limit }

func (p *Prompter) resolve() (in, out *Channel, err error) {
	reg := p.reg
	in, out = p.in, p.out
	if (in == nil || out == nil) && reg == nil {
		reg = Default()
	}
	if in == nil {
		if in, err = reg.Get(p.inName); err != nil {
			return nil, nil, err
		}
	}
	if out == nil {
		if out, err = reg.Get(p.outName); err != nil {
			return nil, nil, err
		}
	}
	return in, out, nil
}

// session is the state of one prompt.
type session struct {
	p     *Prompter
	in    *Channel
	out   *Channel
	state State
}

func (s *session) to(next State) {
	from := s.state
	s.state = next
	s.p.logger.Debug("prompt transition", "from", from.String(), "to", next.String())
	if s.p.hook != nil {
		s.p.hook(from, next)
	}
}

// readOnce writes the prompt once and reads one line.
func (s *session) readOnce(ctx context.Context, question string, choices []string) (string, error) {
	if s.in.Interactive() {
		// The line editor draws the prompt itself.
		s.to(StatePromptWritten)
		s.to(StateReading)
		return s.in.ReadWithCompletion(ctx, question, choices)
	}
	if question != "" {
		if err := s.out.Write(question+" ", RolePrompt); err != nil {
			return "", err
		}
	}
	s.to(StatePromptWritten)
	s.to(StateReading)
	return s.in.ReadWithCompletion(ctx, "", choices)
}

// Ask prompts until v accepts the answer or the retry limit is reached.
func (p *Prompter) Ask(ctx context.Context, question string, v validate.Func[string]) (string, error) {
	if v == nil {
		v = validate.String()
	}
	return AskValue(ctx, p, question, v)
}

// AskValue prompts until parse accepts the answer or the retry limit is
// reached. Each failure writes one error line. Interrupted, end of input
// and closed channels abort at once with their own error.
func AskValue[T any](ctx context.Context, p *Prompter, question string, parse validate.Func[T]) (T, error) {
	return ask(ctx, p, question, nil, parse)
}

func ask[T any](ctx context.Context, p *Prompter, question string, choices []string, parse validate.Func[T]) (T, error) {
	var zero T
	if parse == nil {
		return zero, errors.New("iochan: nil parser")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if p.signals {
		var stop context.CancelFunc
		ctx, stop = InterruptContext(ctx)
		defer stop()
	}

	in, out, err := p.resolve()
	if err != nil {
		return zero, err
	}
	s := &session{p: p, in: in, out: out}

	var last error
	for attempt := 1; attempt <= p.limit; attempt++ {
		line, err := s.readOnce(ctx, question, choices)
		if err != nil {
			s.to(StateAborted)
			return zero, err
		}
		v, verr := parse(line)
		if verr == nil {
			s.to(StateValidated)
			return v, nil
		}
		last = verr
		p.logger.Debug("answer rejected", "attempt", attempt, "limit", p.limit, "err", verr)
		if werr := out.Output(NewMsg().Error(p.errFormat, verr.Error())); werr != nil {
			s.to(StateAborted)
			return zero, werr
		}
		if attempt < p.limit {
			s.to(StateRetrying)
		}
	}
	s.to(StateAborted)
	return zero, newError(KindValidationExhausted, "prompt", in.Name(),
		fmt.Sprintf("no valid answer after %d attempts", p.limit)).withCause(last)
}

// Default messages for Choose.
const (
	DefaultBadChoiceMsg   = "Invalid choice: %s"
	DefaultEmptyChoiceMsg = "Choose one of: %s"
)

type chooseConfig struct {
	def      string
	hasDef   bool
	show     bool
	hidden   map[string]bool
	badMsg   string
	emptyMsg string
}

// ChooseOption configures Choose.
type ChooseOption func(*chooseConfig)

// WithDefaultChoice is returned for an empty answer, unless "" is itself a
// choice.
func WithDefaultChoice(choice string) ChooseOption {
	return func(c *chooseConfig) { c.def, c.hasDef = choice, true }
}

// WithShowChoices controls whether "(a/b/c)" is appended to the question.
func WithShowChoices(show bool) ChooseOption { return func(c *chooseConfig) { c.show = show } }

// WithHiddenChoices accepts choices without listing them.
func WithHiddenChoices(choices ...string) ChooseOption {
	return func(c *chooseConfig) {
		for _, ch := range choices {
			c.hidden[ch] = true
		}
	}
}

// WithBadChoiceMsg sets the message for an unknown answer; %s is the answer.
func WithBadChoiceMsg(format string) ChooseOption { return func(c *chooseConfig) { c.badMsg = format } }

// WithEmptyChoiceMsg sets the message for an empty answer without default;
// %s is the list of choices.
func WithEmptyChoiceMsg(format string) ChooseOption {
	return func(c *chooseConfig) { c.emptyMsg = format }
}

// Choose asks for one of choices and returns it lowercased. An empty
// string among choices lets the user just press Enter; it is shown as
// "Enter".
func (p *Prompter) Choose(ctx context.Context, question string, choices []string, opts ...ChooseOption) (string, error) {
	cfg := chooseConfig{show: true, hidden: map[string]bool{}, badMsg: DefaultBadChoiceMsg, emptyMsg: DefaultEmptyChoiceMsg}
	for _, o := range opts {
		o(&cfg)
	}

	var (
		ours     []string
		visible  []string
		hasEmpty bool
	)
	for _, c := range choices {
		if c == "" {
			hasEmpty = true
			continue
		}
		ours = append(ours, strings.ToLower(c))
		if !cfg.hidden[c] {
			visible = append(visible, c)
		}
	}
	if hasEmpty {
		visible = append(visible, "Enter")
	}
	display := strings.Join(visible, "/")

	msg := question
	if cfg.show {
		msg += " (" + display + ")"
	}
	msg += ":"

	parse := func(input string) (string, error) {
		c := strings.ToLower(strings.TrimSpace(input))
		switch {
		case c == "" && hasEmpty:
			return "", nil
		case c == "" && cfg.hasDef:
			return strings.ToLower(cfg.def), nil
		case c == "":
			return "", validate.Errorf("choice", input, cfg.emptyMsg, display)
		}
		for _, o := range ours {
			if o == c {
				return c, nil
			}
		}
		err := validate.Errorf("choice", input, cfg.badMsg, c)
		if s := fuzzy.NewMatcher(2).Best(c, ours); s != "" {
			err.Message += fmt.Sprintf(" (did you mean %q?)", s)
		}
		return "", err
	}
	return ask(ctx, p, msg, ours, parse)
}

// Confirm asks a yes/no question. An empty answer returns def.
func (p *Prompter) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	d := "n"
	if def {
		d = "y"
	}
	ans, err := p.Choose(ctx, question, []string{"y", "n", "yes", "no"},
		WithHiddenChoices("yes", "no"), WithDefaultChoice(d))
	if err != nil {
		return false, err
	}
	return ans == "y" || ans == "yes", nil
}

// Password reads a secret without echo when the input is a terminal. The
// answer is never mirrored to delegates.
func (p *Prompter) Password(ctx context.Context, question string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.signals {
		var stop context.CancelFunc
		ctx, stop = InterruptContext(ctx)
		defer stop()
	}
	in, out, err := p.resolve()
	if err != nil {
		return "", err
	}
	s := &session{p: p, in: in, out: out}
	prompt := question
	if !in.Interactive() && question != "" {
		if err := out.Write(question+" ", RolePrompt); err != nil {
			return "", err
		}
		prompt = ""
	}
	s.to(StatePromptWritten)
	s.to(StateReading)
	secret, err := in.ReadPassword(ctx, prompt)
	if err != nil {
		s.to(StateAborted)
		return "", err
	}
	s.to(StateValidated)
	return secret, nil
}
