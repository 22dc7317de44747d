package lineedit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestNullAdapter_ReadsLines(t *testing.T) {
	var out bytes.Buffer
	a := NewNullAdapter(strings.NewReader("first\r\nsecond\nlast"), &out)
	ctx := context.Background()

	for _, want := range []string{"first", "second", "last"} {
		got, err := a.ReadLine(ctx, "> ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
	if _, err := a.ReadLine(ctx, ""); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if out.String() != "> > > " {
		t.Fatalf("prompts written: %q", out.String())
	}
	if a.Enhanced() {
		t.Fatal("NullAdapter must not claim enhancement")
	}
}

func TestNullAdapter_NilReader(t *testing.T) {
	a := NewNullAdapter(nil, nil)
	if _, err := a.ReadLine(context.Background(), "x"); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestNullAdapter_CancelKeepsPendingLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	a := NewNullAdapter(pr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := a.ReadLine(ctx, "")
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, ErrInterrupted) {
			t.Fatalf("expected ErrInterrupted, got %v", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("cancellation cause lost: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled read did not return")
	}

	go func() { _, _ = io.WriteString(pw, "late\n") }()
	got, err := a.ReadLine(context.Background(), "")
	if err != nil || got != "late" {
		t.Fatalf("pending line not delivered: %q, %v", got, err)
	}
}

func TestNullAdapter_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pr, pw := io.Pipe()
	defer pw.Close()
	a := NewNullAdapter(pr, nil)
	if _, err := a.ReadLine(ctx, ""); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
}

func TestCompleter_List(t *testing.T) {
	c := NewCompleter()
	c.SetOptions([]string{"yes", "yesterday", "no", ""})

	if m := c.Matches(""); m != nil {
		t.Fatalf("empty text with a list should not match, got %v", m)
	}
	if m := c.Matches("  "); m != nil {
		t.Fatalf("blank text with a list should not match, got %v", m)
	}
	m := c.Matches("ye")
	if len(m) != 2 || m[0] != "yes" || m[1] != "yesterday" {
		t.Fatalf("Matches(ye) = %v", m)
	}
	if m := c.Matches("maybe"); len(m) != 0 {
		t.Fatalf("Matches(maybe) = %v", m)
	}
}

func TestCompleter_Single(t *testing.T) {
	c := NewCompleter()
	c.SetSingleOption("default")
	if m := c.Matches(""); len(m) != 1 || m[0] != "default" {
		t.Fatalf("single option should match empty text, got %v", m)
	}
	if m := c.Matches("def"); len(m) != 1 {
		t.Fatalf("single option should match prefix, got %v", m)
	}
	if m := c.Matches("x"); m != nil {
		t.Fatalf("single option should not match x, got %v", m)
	}
}

func TestCompleter_OffAndReset(t *testing.T) {
	c := NewCompleter()
	if m := c.Matches("a"); m != nil {
		t.Fatalf("no options installed, got %v", m)
	}
	c.SetOptions([]string{"abc"})
	c.SetOptions(nil)
	if m := c.Matches("a"); m != nil {
		t.Fatalf("cleared options still match: %v", m)
	}
}

func TestCompleter_SuggestFallsBackToFuzzy(t *testing.T) {
	c := NewCompleter()
	c.SetOptions([]string{"stdout", "stderr", "stdin"})
	if s := c.Suggest("std"); len(s) != 3 {
		t.Fatalf("prefix matches should win, got %v", s)
	}
	s := c.Suggest("stdot")
	if len(s) == 0 || s[0] != "stdout" {
		t.Fatalf("expected fuzzy suggestion stdout, got %v", s)
	}
}

func TestCompleter_Do(t *testing.T) {
	c := NewCompleter()
	c.SetOptions([]string{"status", "stash", "commit"})

	line := []rune("git sta")
	got, n := c.Do(line, len(line))
	if n != 3 || len(got) != 2 {
		t.Fatalf("Do = %q, %d", got, n)
	}
	if string(got[0]) != "tus" || string(got[1]) != "sh" {
		t.Fatalf("unexpected suffixes %q", got)
	}

	if got, n := c.Do([]rune("git "), 4); got != nil || n != 0 {
		t.Fatalf("empty word should not complete, got %q %d", got, n)
	}
}

func TestSelect_FallsBackForNonTerminals(t *testing.T) {
	a := Select(Config{Enabled: true, In: strings.NewReader("x\n"), Out: &bytes.Buffer{}})
	if _, ok := a.(*NullAdapter); !ok {
		t.Fatalf("expected NullAdapter, got %T", a)
	}
	line, err := a.ReadLine(context.Background(), "")
	if err != nil || line != "x" {
		t.Fatalf("fallback adapter read %q, %v", line, err)
	}
}

func TestReadlineAdapter_ClosedBeforeFirstRead(t *testing.T) {
	a := NewReadlineAdapter(Config{In: strings.NewReader("x\n"), Out: &bytes.Buffer{}})
	if !a.Enhanced() {
		t.Fatal("readline adapter should report enhancement")
	}
	a.SetCompletions([]string{"alpha"})
	if m := a.Completer().Matches("al"); len(m) != 1 {
		t.Fatalf("completions not installed: %v", m)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := a.ReadLine(context.Background(), "> "); !errors.Is(err, io.EOF) {
		t.Fatalf("read after close should be io.EOF, got %v", err)
	}
	a.AppendHistory("ignored")
}
