package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dzonerzy/go-iochan/internal/fuzzy"
)

// String accepts any input unchanged.
func String() Func[string] {
	return func(input string) (string, error) { return input, nil }
}

// NonEmpty rejects blank input.
func NonEmpty() Func[string] {
	return func(input string) (string, error) {
		if strings.TrimSpace(input) == "" {
			return "", Errorf("non_empty", input, "a value is required")
		}
		return input, nil
	}
}

// Digits accepts a non-empty string of ASCII digits.
func Digits() Func[string] {
	return func(input string) (string, error) {
		if input == "" {
			return "", Errorf("digits", input, "digits required")
		}
		for i := 0; i < len(input); i++ {
			if input[i] < '0' || input[i] > '9' {
				return "", Errorf("digits", input, "digits required, got %q", input)
			}
		}
		return input, nil
	}
}

// Int parses a base-10 integer.
func Int() Func[int] {
	return func(input string) (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			return 0, Errorf("int", input, "%q is not a whole number", input)
		}
		return n, nil
	}
}

// IntRange parses an integer in [lo, hi].
func IntRange(lo, hi int) Func[int] {
	return Then(Int(), func(n int) (int, error) {
		if n < lo || n > hi {
			return 0, Errorf("int_range", strconv.Itoa(n), "must be between %d and %d", lo, hi)
		}
		return n, nil
	})
}

// Float parses a floating point number.
func Float() Func[float64] {
	return func(input string) (float64, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
		if err != nil {
			return 0, Errorf("float", input, "%q is not a number", input)
		}
		return f, nil
	}
}

// Bool accepts y/yes/true/1 and n/no/false/0 in any case.
func Bool() Func[bool] {
	return func(input string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(input)) {
		case "y", "yes", "true", "1", "on":
			return true, nil
		case "n", "no", "false", "0", "off":
			return false, nil
		}
		return false, Errorf("bool", input, "answer yes or no")
	}
}

// Regexp accepts input matching re. msg is shown on mismatch.
func Regexp(re *regexp.Regexp, msg string) Func[string] {
	if msg == "" {
		msg = "must match " + re.String()
	}
	return func(input string) (string, error) {
		if !re.MatchString(input) {
			return "", Errorf("regexp", input, "%s", msg)
		}
		return input, nil
	}
}

// OneOf accepts one of choices, case-insensitively, and returns the
// canonical spelling. Close misses get a "did you mean" hint.
func OneOf(choices ...string) Func[string] {
	return func(input string) (string, error) {
		in := strings.TrimSpace(input)
		for _, c := range choices {
			if strings.EqualFold(c, in) {
				return c, nil
			}
		}
		err := Errorf("one_of", input, "%q is not one of: %s", in, strings.Join(choices, ", "))
		if s := fuzzy.NewMatcher(2).Best(in, choices); s != "" {
			err.Message += " (did you mean " + strconv.Quote(s) + "?)"
		}
		return "", err
	}
}

// Then feeds the result of f into g.
func Then[T, U any](f Func[T], g func(T) (U, error)) Func[U] {
	return func(input string) (U, error) {
		v, err := f(input)
		if err != nil {
			var zero U
			return zero, err
		}
		return g(v)
	}
}

// All runs every check against the input and returns the first failure.
func All(checks ...Func[string]) Func[string] {
	return func(input string) (string, error) {
		out := input
		for _, c := range checks {
			v, err := c(out)
			if err != nil {
				return "", err
			}
			out = v
		}
		return out, nil
	}
}
