package lineedit

import (
	"os"

	"github.com/dzonerzy/go-iochan/style"
)

// Select returns a ReadlineAdapter when cfg enables it and both ends are
// terminals; otherwise a NullAdapter. Falling back is silent: only
// interactivity changes, never correctness.
func Select(cfg Config) Adapter {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Enabled && style.IsTerminalWriter(cfg.In) && (cfg.Out == nil || style.IsTerminalWriter(cfg.Out)) {
		return NewReadlineAdapter(cfg)
	}
	return NewNullAdapter(cfg.In, cfg.Out)
}
