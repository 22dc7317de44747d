package bridge

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dzonerzy/go-iochan/iochan"
)

// CobraApp runs a cobra command tree on iochan.
type CobraApp struct {
	core
	root *cobra.Command
}

// Cobra adds the iochan persistent flags to root, routes the command's
// output, error and input streams through the "stdout", "stderr" and
// "stdin" channels, and builds the session in a PersistentPreRunE that
// chains to any hook already set on root. Subcommands that define their
// own PersistentPreRunE replace root's unless cobra.EnableTraverseRunHooks
// is set.
func Cobra(root *cobra.Command, opts ...Option) *CobraApp {
	a := &CobraApp{root: root}
	a.apply(opts)
	BindPFlags(root.PersistentFlags(), &a.flags)

	root.SetOut(iochan.NewWriter(nil, "stdout", iochan.RolePlain))
	root.SetErr(iochan.NewWriter(nil, "stderr", iochan.RolePlain))
	root.SetIn(iochan.NewReader(nil, "stdin"))
	root.SilenceErrors = true

	prev := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := a.start(cmd.Flags().Changed); err != nil {
			return err
		}
		if prev != nil {
			return prev(cmd, args)
		}
		return nil
	}
	return a
}

// BindPFlags registers the iochan flags on fs, storing values in f.
func BindPFlags(fs *pflag.FlagSet, f *Flags) {
	fs.StringVar(&f.ConfigFile, FlagConfig, "", "config file (.yaml, .yml, .toml or .json)")
	fs.StringVar(&f.Color, FlagColor, "auto", "colorize output: auto, always or never")
	fs.IntVar(&f.RetryLimit, FlagRetryLimit, iochan.DefaultRetryLimit, "attempts allowed per prompt")
	fs.BoolVar(&f.NoLineEditing, FlagNoLineEditing, false, "disable history and tab completion")
}

// Execute runs the command with SIGINT/SIGTERM cancelling ctx, reports a
// failure on "stderr", closes the session and returns the exit code.
func (a *CobraApp) Execute(ctx context.Context) int {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := iochan.InterruptContext(ctx)
	defer stop()
	return a.finish(a.root.ExecuteContext(ctx), true)
}

// ExecuteArgs is Execute with explicit arguments instead of os.Args.
func (a *CobraApp) ExecuteArgs(ctx context.Context, args ...string) int {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}
