package iochan

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzonerzy/go-iochan/style"
	"github.com/dzonerzy/go-iochan/validate"
)

func TestScenario_RetryLimitExhausted(t *testing.T) {
	in := capture("in", WithInputLines("abc", "xyz", "123"))
	out := capture("out")

	var states []State
	p := NewPrompter(
		WithInputChannel(in),
		WithOutputChannel(out),
		WithRetryLimit(2),
		WithTransitionHook(func(_, to State) { states = append(states, to) }),
	)

	_, err := p.Ask(context.Background(), "Number?", validate.Digits())
	require.ErrorIs(t, err, ErrValidationExhausted)
	assert.Equal(t, 3, ExitCode(err))

	text := out.Captured()
	assert.Equal(t, 2, strings.Count(text, "Number?"), "no third prompt")
	assert.Equal(t, 2, strings.Count(text, "digits required"))
	assert.Equal(t,
		"Number? digits required, got \"abc\"\nNumber? digits required, got \"xyz\"\n",
		text)

	assert.Equal(t, []State{
		StatePromptWritten, StateReading, StateRetrying,
		StatePromptWritten, StateReading, StateAborted,
	}, states)

	rest, err := in.Read(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "123", rest, "input after the limit is left unread")
}

func TestPrompter_AcceptsAfterRetry(t *testing.T) {
	reg, chans := newTestRegistry(t, "x", "42")
	p := NewPrompter(WithRegistry(reg), WithInput("in"), WithOutput("out"), WithErrorFormat("error: %s"))

	n, err := AskValue(context.Background(), p, "How many?", validate.IntRange(1, 100))
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, "How many? error: \"x\" is not a whole number\nHow many? ", chans["out"].Captured())
}

func TestPrompter_FollowsRedirection(t *testing.T) {
	reg, _ := newTestRegistry(t)
	p := NewPrompter(WithRegistry(reg), WithInput("in"), WithOutput("out"))

	script := capture("script", WithInputLines("hello"))
	shown := capture("shown")
	err := reg.WithRedirect([]Redirection{To("in", script), To("out", shown)}, func() error {
		got, err := p.Ask(context.Background(), "Say:", nil)
		if err != nil {
			return err
		}
		assert.Equal(t, "hello", got)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Say: ", shown.Captured())
}

func TestPrompter_PropagatesEndOfInputAndInterrupt(t *testing.T) {
	out := capture("out")
	p := NewPrompter(WithInputChannel(capture("in")), WithOutputChannel(out))
	_, err := p.Ask(context.Background(), "q", validate.NonEmpty())
	assert.ErrorIs(t, err, ErrEndOfInput)
	assert.NotContains(t, out.Captured(), "required", "no error line for end of input")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p = NewPrompter(WithInputChannel(capture("in", WithInputLines("x"))), WithOutputChannel(out))
	_, err = p.Ask(ctx, "q", validate.NonEmpty())
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestPrompter_UnknownChannel(t *testing.T) {
	reg, _ := newTestRegistry(t)
	p := NewPrompter(WithRegistry(reg), WithInput("stdin"), WithOutput("out"))
	_, err := p.Ask(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestPrompter_InteractiveUsesAdapterPrompt(t *testing.T) {
	a := &scriptedAdapter{lines: []string{"", "ok"}}
	in := New("in", WithReader(strings.NewReader("")), WithAdapter(a), WithColor(style.ColorNever))
	out := capture("out")
	p := NewPrompter(WithInputChannel(in), WithOutputChannel(out))

	got, err := p.Ask(context.Background(), "Name?", validate.NonEmpty())
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, []string{"Name? ", "Name? "}, a.prompts)
	assert.Equal(t, "a value is required\n", out.Captured())
}

func TestPrompter_DefaultRetryLimit(t *testing.T) {
	assert.Equal(t, DefaultRetryLimit, NewPrompter(WithRetryLimit(0)).RetryLimit())
	assert.Equal(t, DefaultRetryLimit, NewPrompter(WithRetryLimit(-4)).RetryLimit())
	assert.Equal(t, 7, NewPrompter(WithRetryLimit(7)).RetryLimit())
}

func TestChoose(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		choices []string
		opts    []ChooseOption
		want    string
		shown   string
	}{
		{"exact", []string{"B"}, []string{"a", "b"}, nil, "b", "Pick (a/b): "},
		{"default", []string{""}, []string{"a", "b"}, []ChooseOption{WithDefaultChoice("A")}, "a", "Pick (a/b): "},
		{"enter", []string{""}, []string{"a", ""}, nil, "", "Pick (a/Enter): "},
		{"hidden", []string{"secret"}, []string{"a", "secret"}, []ChooseOption{WithHiddenChoices("secret")}, "secret", "Pick (a): "},
		{"no list", []string{"a"}, []string{"a"}, []ChooseOption{WithShowChoices(false)}, "a", "Pick: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := capture("out")
			p := NewPrompter(WithInputChannel(capture("in", WithInputLines(tt.input...))), WithOutputChannel(out))
			got, err := p.Choose(context.Background(), "Pick", tt.choices, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.shown, out.Captured())
		})
	}
}

func TestChoose_ErrorMessages(t *testing.T) {
	out := capture("out")
	p := NewPrompter(
		WithInputChannel(capture("in", WithInputLines("", "yse", "yes"))),
		WithOutputChannel(out),
	)
	got, err := p.Choose(context.Background(), "Sure?", []string{"yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, "yes", got)

	text := out.Captured()
	assert.Contains(t, text, "Choose one of: yes/no\n")
	assert.Contains(t, text, `Invalid choice: yse (did you mean "yes"?)`)
}

func TestChoose_CustomMessages(t *testing.T) {
	out := capture("out")
	p := NewPrompter(
		WithInputChannel(capture("in", WithInputLines("", "zzz"))),
		WithOutputChannel(out),
		WithRetryLimit(2),
	)
	_, err := p.Choose(context.Background(), "Go?", []string{"y", "n"},
		WithEmptyChoiceMsg("need %s"), WithBadChoiceMsg("what is %s"))
	require.ErrorIs(t, err, ErrValidationExhausted)
	assert.Contains(t, out.Captured(), "need y/n\n")
	assert.Contains(t, out.Captured(), "what is zzz\n")
}

func TestChoose_OffersCompletions(t *testing.T) {
	a := &scriptedAdapter{lines: []string{"b"}}
	p := NewPrompter(
		WithInputChannel(New("in", WithReader(strings.NewReader("")), WithAdapter(a))),
		WithOutputChannel(capture("out")),
	)
	_, err := p.Choose(context.Background(), "Pick", []string{"A", "b"})
	require.NoError(t, err)
	require.NotEmpty(t, a.completions)
	assert.Equal(t, []string{"a", "b"}, a.completions[0])
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{"y", false, true},
		{"YES", false, true},
		{"no", true, false},
		{"", true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := NewPrompter(
				WithInputChannel(capture("in", WithInputLines(tt.input))),
				WithOutputChannel(capture("out")),
			)
			got, err := p.Confirm(context.Background(), "Proceed?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPassword(t *testing.T) {
	text := NewTextLog()
	in := capture("in", WithInputLines("s3cret"), WithDelegates(text))
	out := capture("out")
	p := NewPrompter(WithInputChannel(in), WithOutputChannel(out))

	got, err := p.Password(context.Background(), "Password:")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.Equal(t, "Password: ", out.Captured())
	assert.NotContains(t, text.String(), "s3cret")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "retrying", StateRetrying.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.Equal(t, "state(42)", State(42).String())
}
