package iochan

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzonerzy/go-iochan/style"
)

type closeCounter struct{ n int }

func (c *closeCounter) Close() error { c.n++; return nil }

func TestChannel_DirectionInference(t *testing.T) {
	assert.Equal(t, DirOutput, New("w", WithWriter(&bytes.Buffer{})).Direction())
	assert.Equal(t, DirInput, New("r", WithReader(strings.NewReader(""))).Direction())
	assert.Equal(t, DirBoth, capture("c").Direction())
	assert.Equal(t, "both", DirBoth.String())
}

func TestChannel_WriteRejectsInputOnly(t *testing.T) {
	ch := New("r", WithReader(strings.NewReader("x\n")))
	err := ch.Write("nope", RolePlain)
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.Equal(t, 74, ExitCode(err))
}

func TestChannel_ReadRejectsOutputOnly(t *testing.T) {
	ch := New("w", WithWriter(&bytes.Buffer{}))
	_, err := ch.Read(context.Background(), "")
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestChannel_DisabledSkipsWritesAndFailsReads(t *testing.T) {
	ch := capture("c", WithInputLines("x"))
	ch.Disable()
	require.NoError(t, ch.Info("dropped"))
	assert.Empty(t, ch.Captured())

	_, err := ch.Read(context.Background(), "")
	assert.ErrorIs(t, err, ErrChannelClosed)

	ch.Enable()
	require.NoError(t, ch.Info("kept"))
	assert.Equal(t, "kept\n", ch.Captured())
}

func TestChannel_ReadLinesThenEndOfInput(t *testing.T) {
	ch := capture("in", WithInputLines("alpha", "beta"))
	ctx := context.Background()

	got, err := ch.Read(ctx, "Name?")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got)
	got, err = ch.Read(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "beta", got)

	_, err = ch.Read(ctx, "")
	require.ErrorIs(t, err, ErrEndOfInput)
	assert.Equal(t, 0, ExitCode(err))
	assert.Equal(t, "Name? ", ch.Captured())
}

func TestChannel_ReadCancelled(t *testing.T) {
	ch := capture("in", WithInputLines("x"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ch.Read(ctx, "q")
	require.ErrorIs(t, err, ErrInterrupted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 130, ExitCode(err))
}

func TestChannel_InteractiveRead(t *testing.T) {
	a := &scriptedAdapter{lines: []string{"yes"}}
	ch := New("in", WithReader(strings.NewReader("")), WithAdapter(a), WithColor(style.ColorNever))
	require.True(t, ch.Interactive())

	got, err := ch.ReadWithCompletion(context.Background(), "Continue?", []string{"yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, "yes", got)
	assert.Equal(t, []string{"Continue? "}, a.prompts)
	assert.Equal(t, []string{"yes"}, a.history)
	require.Len(t, a.completions, 2)
	assert.Equal(t, []string{"yes", "no"}, a.completions[0])
	assert.Nil(t, a.completions[1], "completions are cleared after the read")
}

func TestChannel_InteractiveEOF(t *testing.T) {
	ch := New("in", WithReader(strings.NewReader("")), WithAdapter(&scriptedAdapter{}))
	_, err := ch.Read(context.Background(), "")
	assert.ErrorIs(t, err, ErrEndOfInput)
}

func TestChannel_DelegatesSeePromptsAndAnswers(t *testing.T) {
	text := NewTextLog()
	ch := capture("in", WithInputLines("bob"), WithDelegates(text))

	require.NoError(t, ch.Info("hello"))
	_, err := ch.Read(context.Background(), "Name?")
	require.NoError(t, err)
	assert.Equal(t, "hello\nName? bob\n", text.String())

	text.Start()
	assert.Empty(t, text.String())
}

func TestChannel_FailedReadEchoesNewline(t *testing.T) {
	text := NewTextLog()
	ch := capture("in", WithDelegates(text))
	_, err := ch.Read(context.Background(), "Name?")
	require.ErrorIs(t, err, ErrEndOfInput)
	assert.Equal(t, "Name? \n", text.String())
}

func TestChannel_PasswordIsMasked(t *testing.T) {
	text := NewTextLog()
	ch := capture("in", WithInputLines("hunter2"), WithDelegates(text))

	got, err := ch.ReadPassword(context.Background(), "Password:")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
	assert.Equal(t, "Password: ********\n", text.String())
	assert.NotContains(t, text.String(), "hunter2")
}

func TestChannel_PasswordThenReadStillMirrors(t *testing.T) {
	text := NewTextLog()
	ch := capture("in", WithInputLines("hunter2", "bob"), WithDelegates(text))

	_, err := ch.ReadPassword(context.Background(), "Password:")
	require.NoError(t, err)
	_, err = ch.Read(context.Background(), "Name?")
	require.NoError(t, err)
	assert.Equal(t, "Password: ********\nName? bob\n", text.String())

	text.Start()
	_, err = ch.ReadPassword(context.Background(), "Again:")
	require.ErrorIs(t, err, ErrEndOfInput)
	assert.Equal(t, "Again: \n", text.String())
}

func TestChannel_AddKeepsTextVerbatim(t *testing.T) {
	msg := NewMsg().Add(RoleInfo, "100% %d").Addf(RoleStatus, "%d%%", 5)
	assert.Equal(t, "100% %d 5%\n", msg.String())

	ch := capture("out")
	require.NoError(t, ch.Write("50% done", RolePlain))
	assert.Equal(t, "50% done", ch.Captured())
}

func TestNewCapture_IgnoresForceColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "1")
	ch := NewCapture("c")
	require.NoError(t, ch.Write("hello", RoleInfo))
	assert.Equal(t, "hello", ch.Captured())

	colored := NewCapture("c", WithColor(style.ColorAlways))
	require.NoError(t, colored.Write("hello", RoleInfo))
	assert.NotEqual(t, "hello", colored.Captured())
	assert.Equal(t, "hello", style.Strip(colored.Captured()))
}

func TestHTMLLog_EscapesAndStyles(t *testing.T) {
	h := NewHTMLLog()
	ch := capture("out", WithDelegates(h))
	require.NoError(t, ch.Error("<b>&"))
	require.NoError(t, ch.Print("plain"))

	s := h.String()
	assert.Contains(t, s, "&lt;b&gt;&amp;")
	assert.Contains(t, s, `color: #EF2929`)
	assert.Contains(t, s, "plain\n")
}

func TestSlogLog_MirrorsOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ch := capture("out", WithDelegates(NewSlogLog(logger, slog.LevelInfo)))

	require.NoError(t, ch.Warn("disk %d%% full", 91))
	assert.Contains(t, buf.String(), `msg="disk 91% full"`)
	assert.Contains(t, buf.String(), "role=warning")
}

func TestChannel_StyledOutput(t *testing.T) {
	var buf bytes.Buffer
	ch := New("out", WithWriter(&buf), WithColor(style.ColorAlways))
	require.True(t, ch.Formatter().Supported())

	require.NoError(t, ch.Error("bad"))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Equal(t, "bad\n", style.Strip(buf.String()))
}

func TestChannel_MultiPartMessage(t *testing.T) {
	ch := capture("out")
	msg := NewMsg().Sep(", ").Status("ok").Warn("%d left", 2).End(".\n")
	require.NoError(t, ch.Output(msg))
	assert.Equal(t, "ok, 2 left.\n", ch.Captured())
	assert.Equal(t, len("ok, 2 left."), msg.Len(), "the newline has no display width")
}

func TestChannel_CloseIsIdempotent(t *testing.T) {
	a := &scriptedAdapter{}
	cl := &closeCounter{}
	ch := New("in", WithReader(strings.NewReader("")), WithAdapter(a), WithCloser(cl))

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.True(t, a.closed)
	assert.Equal(t, 1, cl.n)

	_, err := ch.Read(context.Background(), "")
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestChannel_Exclusive(t *testing.T) {
	ch := capture("out")
	err := ch.Exclusive(func(c *Channel) error {
		if err := c.Print("one"); err != nil {
			return err
		}
		return c.Exclusive(func(inner *Channel) error { return inner.Print("two") })
	})
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", ch.Captured())

	boom := errors.New("boom")
	assert.ErrorIs(t, ch.Exclusive(func(*Channel) error { return boom }), boom)
}

func TestChannel_ResetCapture(t *testing.T) {
	ch := capture("out")
	require.NoError(t, ch.Print("x"))
	ch.Reset()
	assert.Empty(t, ch.Captured())
	assert.Empty(t, NewNull("null").Captured())
}
