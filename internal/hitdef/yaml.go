package hitdef

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"mturk-tools/internal/results"
)

// Keywords accepts either a comma separated string or a list of strings.
type Keywords string

func (k *Keywords) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*k = Keywords(value.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("keywords: %w", err)
		}
		*k = Keywords(strings.Join(list, ","))
		return nil
	default:
		return fmt.Errorf("keywords: line %d: expected string or list", value.Line)
	}
}

// IntValues accepts a single integer or a list of integers.
type IntValues []int32

func (v *IntValues) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var n int32
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("value: %w", err)
		}
		*v = IntValues{n}
		return nil
	case yaml.SequenceNode:
		var list []int32
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("value: %w", err)
		}
		*v = list
		return nil
	default:
		return fmt.Errorf("value: line %d: expected integer or list", value.Line)
	}
}

// Locales accepts a country code, or a list whose items are country codes
// or [country, subdivision] pairs.
type Locales []results.Locale

func (l *Locales) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = Locales{{Country: value.Value}}
		return nil
	case yaml.SequenceNode:
		out := make(Locales, 0, len(value.Content))
		for _, item := range value.Content {
			loc, err := decodeLocale(item)
			if err != nil {
				return err
			}
			out = append(out, loc)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("locale: line %d: expected country code or list", value.Line)
	}
}

func decodeLocale(item *yaml.Node) (results.Locale, error) {
	switch item.Kind {
	case yaml.ScalarNode:
		return results.Locale{Country: item.Value}, nil
	case yaml.SequenceNode:
		var pair []string
		if err := item.Decode(&pair); err != nil {
			return results.Locale{}, fmt.Errorf("locale: %w", err)
		}
		if len(pair) != 2 {
			return results.Locale{}, fmt.Errorf("locale: line %d: expected [country, subdivision]", item.Line)
		}
		return results.Locale{Country: pair[0], Subdivision: pair[1]}, nil
	default:
		return results.Locale{}, fmt.Errorf("locale: line %d: unexpected value", item.Line)
	}
}
