package bridge

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/dzonerzy/go-iochan/iochan"
)

// UrfaveApp runs a urfave/cli application on iochan.
type UrfaveApp struct {
	core
	app *cli.App
}

// Urfave adds the iochan flags to app, routes its writers and reader
// through the "stdout", "stderr" and "stdin" channels, and builds the
// session in a Before hook that chains to any hook already set.
func Urfave(app *cli.App, opts ...Option) *UrfaveApp {
	a := &UrfaveApp{app: app}
	a.apply(opts)
	app.Flags = append(app.Flags, CliFlags(&a.flags)...)

	app.Writer = iochan.NewWriter(nil, "stdout", iochan.RolePlain)
	app.ErrWriter = iochan.NewWriter(nil, "stderr", iochan.RolePlain)
	app.Reader = iochan.NewReader(nil, "stdin")
	// Exit codes are resolved by Run; never let the library call os.Exit.
	app.ExitErrHandler = func(*cli.Context, error) {}

	prev := app.Before
	app.Before = func(c *cli.Context) error {
		if err := a.start(c.IsSet); err != nil {
			return err
		}
		if prev != nil {
			return prev(c)
		}
		return nil
	}
	return a
}

// CliFlags returns the iochan flags, storing values in f.
func CliFlags(f *Flags) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagConfig, Usage: "config file (.yaml, .yml, .toml or .json)", Destination: &f.ConfigFile},
		&cli.StringFlag{Name: FlagColor, Value: "auto", Usage: "colorize output: auto, always or never", Destination: &f.Color},
		&cli.IntFlag{Name: FlagRetryLimit, Value: iochan.DefaultRetryLimit, Usage: "attempts allowed per prompt", Destination: &f.RetryLimit},
		&cli.BoolFlag{Name: FlagNoLineEditing, Usage: "disable history and tab completion", Destination: &f.NoLineEditing},
	}
}

// Run runs the app with SIGINT/SIGTERM cancelling ctx, reports a failure
// on "stderr", closes the session and returns the exit code.
func (a *UrfaveApp) Run(ctx context.Context, args []string) int {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := iochan.InterruptContext(ctx)
	defer stop()
	return a.finish(a.app.RunContext(ctx, args), true)
}
