// Package iochan routes program input and output through named channels.
//
// A Registry maps names such as "stdout", "stderr" and "stdin" to stacks of
// Channel bindings. Code writes to whatever a name currently resolves to,
// so a caller can redirect output into a capture buffer, or feed input from
// a script, for the extent of a Scope:
//
//	scope, err := reg.Redirect(iochan.To("stdout", iochan.NewCapture("out")))
//	if err != nil {
//		return err
//	}
//	defer scope.Close()
//
// Channels style text by semantic Role through a style.Formatter, mirror
// every message to Log delegates, and read lines through a
// lineedit.Adapter. A Prompter layers validated, retrying questions on top
// of the registry.
package iochan
