package style

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Role names the semantic purpose of a piece of text.
type Role string

const (
	RolePlain    Role = "plain"
	RolePrompt   Role = "prompt"
	RoleAnswer   Role = "answer"
	RoleInfo     Role = "info"
	RoleStatus   Role = "status"
	RoleSuccess  Role = "success"
	RoleWarning  Role = "warning"
	RoleError    Role = "error"
	RoleAccent   Role = "accent"
	RoleBright   Role = "bright"
	RoleMuted    Role = "muted"
	RoleHappy    Role = "happy"
	RoleSad      Role = "sad"
	RoleMeh      Role = "meh"
	RoleMarkdown Role = "markdown"
)

// Roles lists every built-in role.
func Roles() []Role {
	return []Role{
		RolePlain, RolePrompt, RoleAnswer, RoleInfo, RoleStatus, RoleSuccess,
		RoleWarning, RoleError, RoleAccent, RoleBright, RoleMuted,
		RoleHappy, RoleSad, RoleMeh, RoleMarkdown,
	}
}

// Directive describes how text of one role is presented.
type Directive struct {
	Fg        ColorSpec `mapstructure:"fg" yaml:"fg,omitempty" toml:"fg,omitempty" json:"fg,omitempty"`
	Bg        ColorSpec `mapstructure:"bg" yaml:"bg,omitempty" toml:"bg,omitempty" json:"bg,omitempty"`
	Bold      bool      `mapstructure:"bold" yaml:"bold,omitempty" toml:"bold,omitempty" json:"bold,omitempty"`
	Faint     bool      `mapstructure:"faint" yaml:"faint,omitempty" toml:"faint,omitempty" json:"faint,omitempty"`
	Italic    bool      `mapstructure:"italic" yaml:"italic,omitempty" toml:"italic,omitempty" json:"italic,omitempty"`
	Underline bool      `mapstructure:"underline" yaml:"underline,omitempty" toml:"underline,omitempty" json:"underline,omitempty"`
	Inverse   bool      `mapstructure:"inverse" yaml:"inverse,omitempty" toml:"inverse,omitempty" json:"inverse,omitempty"`
	Indent    int       `mapstructure:"indent" yaml:"indent,omitempty" toml:"indent,omitempty" json:"indent,omitempty"`
	Prefix    string    `mapstructure:"prefix" yaml:"prefix,omitempty" toml:"prefix,omitempty" json:"prefix,omitempty"`
}

// IsZero reports whether the directive changes nothing.
func (d Directive) IsZero() bool { return d == Directive{} }

// Spec maps roles to directives. Roles missing from the map render plain.
type Spec map[Role]Directive

// Clone returns a copy that can be modified independently.
func (s Spec) Clone() Spec {
	out := make(Spec, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// DefaultSpec follows the classic CLI palette: cyan prompts, green status,
// red errors, blue accents and white-on-color badges.
func DefaultSpec() Spec {
	badge := func(bg ColorSpec) Directive {
		return Directive{Fg: White, Bg: bg, Bold: true}
	}
	return Spec{
		RolePrompt:  {Fg: Cyan, Bold: true},
		RoleStatus:  {Fg: Green, Bold: true},
		RoleError:   {Fg: Red, Bold: true},
		RoleAccent:  {Fg: Blue, Bold: true},
		RoleBright:  {Bold: true},
		RoleHappy:   badge(Green),
		RoleSad:     badge(Red),
		RoleMeh:     badge(Blue),
		RoleInfo:    {Fg: Cyan},
		RoleSuccess: {Fg: Green},
		RoleWarning: {Fg: Yellow},
		RoleMuted:   {Faint: true},
	}
}

// LoadSpec reads a style file and overlays it on DefaultSpec. The format is
// taken from the extension: .yaml/.yml, .toml or .json.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("style: read %s: %w", path, err)
	}
	spec, err := ParseSpec(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("style: %s: %w", path, err)
	}
	return spec, nil
}

// ParseSpec decodes a role table in the given format on top of DefaultSpec.
// A role present in the file keeps any default attribute it does not set.
func ParseSpec(data []byte, format string) (Spec, error) {
	raw := map[string]any{}
	var err error
	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &raw)
	case "toml":
		err = toml.Unmarshal(data, &raw)
	case "json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, &ParseError{Kind: "style format", Value: format}
	}
	if err != nil {
		return nil, err
	}

	spec := DefaultSpec()
	for name, v := range raw {
		role := Role(strings.ToLower(name))
		d := spec[role]
		if err := decodeDirective(v, &d); err != nil {
			return nil, fmt.Errorf("role %q: %w", name, err)
		}
		spec[role] = d
	}
	return spec, nil
}

func decodeDirective(in any, d *Directive) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       colorHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           d,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

var colorSpecType = reflect.TypeOf(ColorSpec{})

// colorHook turns strings and palette numbers into ColorSpec values.
func colorHook(from, to reflect.Type, data any) (any, error) {
	if to != colorSpecType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return ParseColor(v)
	case int:
		return ParseColor(fmt.Sprint(v))
	case int64:
		return ParseColor(fmt.Sprint(v))
	case float64:
		return ParseColor(fmt.Sprint(int(v)))
	}
	return data, nil
}
