package iochan

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzonerzy/go-iochan/style"
)

// capture returns an unstyled capture channel.
func capture(name string, opts ...Option) *Channel {
	return NewCapture(name, append([]Option{WithColor(style.ColorNever)}, opts...)...)
}

// newTestRegistry registers capture channels "out", "err" and "in".
func newTestRegistry(t *testing.T, input ...string) (*Registry, map[string]*Channel) {
	t.Helper()
	chans := map[string]*Channel{
		"out": capture("out"),
		"err": capture("err"),
		"in":  capture("in", WithInputLines(input...)),
	}
	reg, err := NewRegistry(WithoutDefaults(), WithChannels(chans["out"], chans["err"], chans["in"]))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg, chans
}

// scriptedAdapter is an enhanced adapter fed from a fixed script.
type scriptedAdapter struct {
	lines       []string
	prompts     []string
	history     []string
	completions [][]string
	closed      bool
}

func (a *scriptedAdapter) ReadLine(ctx context.Context, prompt string) (string, error) {
	a.prompts = append(a.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(a.lines) == 0 {
		return "", io.EOF
	}
	l := a.lines[0]
	a.lines = a.lines[1:]
	return l, nil
}

func (a *scriptedAdapter) AppendHistory(line string) { a.history = append(a.history, line) }
func (a *scriptedAdapter) SetCompletions(o []string) { a.completions = append(a.completions, o) }
func (a *scriptedAdapter) Enhanced() bool            { return true }
func (a *scriptedAdapter) Close() error              { a.closed = true; return nil }

func TestScenario_PushWritePop(t *testing.T) {
	reg, chans := newTestRegistry(t)
	buf := capture("buffer")

	_, err := reg.Push("out", buf)
	require.NoError(t, err)

	out, err := reg.Get("out")
	require.NoError(t, err)
	require.NoError(t, out.Write("hello", RoleInfo))

	require.NoError(t, reg.Pop("out"))
	assert.Equal(t, "hello", buf.Captured())

	out, err = reg.Get("out")
	require.NoError(t, err)
	require.NoError(t, out.Write("after", RolePlain))
	assert.Equal(t, "after", chans["out"].Captured())
	assert.Equal(t, "hello", buf.Captured(), "post-pop writes must not reach the capture buffer")
}

func TestRegistry_UnknownChannelSuggests(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Get("outt")
	require.ErrorIs(t, err, ErrUnknownChannel)
	assert.True(t, IsProgrammerError(err))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Contains(t, e.Suggestions, "out")
	assert.Contains(t, err.Error(), `did you mean "out"`)

	_, err = reg.Push("nope", capture("x"))
	assert.ErrorIs(t, err, ErrUnknownChannel)
	assert.Panics(t, func() { reg.MustGet("nope") })
}

func TestRegistry_PopDefaultUnderflows(t *testing.T) {
	reg, chans := newTestRegistry(t)

	err := reg.Pop("out")
	require.ErrorIs(t, err, ErrChannelStackUnderflow)
	assert.True(t, IsProgrammerError(err))

	ch, err := reg.Get("out")
	require.NoError(t, err)
	assert.Same(t, chans["out"], ch, "default binding must survive a failed pop")
}

func TestRegistry_Register(t *testing.T) {
	reg, _ := newTestRegistry(t)

	assert.ErrorIs(t, reg.Register(nil), ErrInvalidRedirection)
	assert.ErrorIs(t, reg.Register(capture("")), ErrInvalidRedirection)
	assert.ErrorIs(t, reg.Register(capture("out")), ErrInvalidRedirection)

	require.NoError(t, reg.Register(capture("log")))
	assert.Equal(t, []string{"err", "in", "log", "out"}, reg.Names())
}

func TestRegistry_Depth(t *testing.T) {
	reg, _ := newTestRegistry(t)
	assert.Equal(t, 1, reg.Depth("out"))
	assert.Equal(t, 0, reg.Depth("missing"))

	_, err := reg.Push("out", capture("a"))
	require.NoError(t, err)
	_, err = reg.Push("out", capture("b"))
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Depth("out"))

	require.NoError(t, reg.Pop("out"))
	require.NoError(t, reg.Pop("out"))
	assert.Equal(t, 1, reg.Depth("out"))
}

func TestRegistry_ChannelsOverrideDefaults(t *testing.T) {
	mine := capture("stdout")
	reg, err := NewRegistry(WithChannels(mine))
	require.NoError(t, err)
	defer reg.Close()

	got, err := reg.Get("stdout")
	require.NoError(t, err)
	assert.Same(t, mine, got)

	_, err = reg.Get("stdin")
	assert.NoError(t, err)
}

func TestRegistry_Close(t *testing.T) {
	reg, chans := newTestRegistry(t)
	pushed := capture("pushed")
	_, err := reg.Push("out", pushed)
	require.NoError(t, err)

	require.NoError(t, reg.Close())
	require.NoError(t, reg.Close())

	assert.True(t, chans["out"].Closed())
	assert.True(t, pushed.Closed())
	assert.ErrorIs(t, chans["out"].Write("x", RolePlain), ErrChannelClosed)
	assert.ErrorIs(t, reg.Register(capture("late")), ErrChannelClosed)

	_, err = reg.Redirect(To("out", capture("y")))
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestDefault_SetDefaultAndShutdown(t *testing.T) {
	reg, chans := newTestRegistry(t)
	prev := SetDefault(reg)
	t.Cleanup(func() { SetDefault(prev) })

	assert.Same(t, reg, Default())
	ch, err := Get("out")
	require.NoError(t, err)
	assert.Same(t, chans["out"], ch)

	scope, err := Redirect(To("out", capture("tmp")))
	require.NoError(t, err)
	require.NoError(t, scope.Close())

	require.NoError(t, Shutdown())
	assert.True(t, chans["out"].Closed())

	SetDefault(reg)
	assert.Same(t, reg, Default())
}

func TestDefault_ConcurrentSwapNeverNil(t *testing.T) {
	a, _ := newTestRegistry(t)
	b, _ := newTestRegistry(t)
	prev := SetDefault(a)
	t.Cleanup(func() { SetDefault(prev) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if (i+j)%2 == 0 {
					SetDefault(a)
				} else {
					SetDefault(b)
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got := Default()
				if got != a && got != b {
					t.Errorf("Default returned %p, want a or b", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
