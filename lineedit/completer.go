package lineedit

import (
	"strings"
	"sync"
	"unicode"

	"github.com/dzonerzy/go-iochan/internal/fuzzy"
)

// Completer holds either a list of options or a single option.
//
// With a list, an empty word completes to nothing. With a single option, the
// option is offered even for an empty word, which lets a prompt pre-fill a
// default answer.
type Completer struct {
	mu     sync.RWMutex
	opts   []string
	single string
	mode   int // 0=off 1=list 2=single
}

// NewCompleter returns a completer with nothing installed.
func NewCompleter() *Completer { return &Completer{} }

// SetOptions installs a list of options; nil turns completion off.
func (c *Completer) SetOptions(options []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts = append([]string(nil), options...)
	c.single = ""
	c.mode = 0
	if options != nil {
		c.mode = 1
	}
}

// SetSingleOption installs exactly one option.
func (c *Completer) SetSingleOption(option string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts = nil
	c.single = option
	c.mode = 2
}

// Matches returns every option that starts with text.
func (c *Completer) Matches(text string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.mode {
	case 1:
		if strings.TrimSpace(text) == "" {
			return nil
		}
		var out []string
		for _, o := range c.opts {
			if o != "" && strings.HasPrefix(o, text) {
				out = append(out, o)
			}
		}
		return out
	case 2:
		if strings.HasPrefix(c.single, text) {
			return []string{c.single}
		}
	}
	return nil
}

// Suggest returns close options when nothing starts with text.
func (c *Completer) Suggest(text string) []string {
	if m := c.Matches(text); len(m) > 0 {
		return m
	}
	c.mu.RLock()
	opts := c.opts
	c.mu.RUnlock()
	return fuzzy.Suggest(text, opts, 2, 3)
}

// Do implements readline.AutoCompleter. It completes the word under the
// cursor by returning the suffixes of every matching option.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	pos = min(max(pos, 0), len(line))
	start := pos
	for start > 0 && !unicode.IsSpace(line[start-1]) {
		start--
	}
	word := string(line[start:pos])

	matches := c.Matches(word)
	if len(matches) == 0 {
		return nil, 0
	}
	n := len([]rune(word))
	out := make([][]rune, 0, len(matches))
	for _, m := range matches {
		out = append(out, []rune(m)[n:])
	}
	return out, n
}
