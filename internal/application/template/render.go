package template

import (
	"strings"

	"github.com/condo-notify/internal/domain"
)

// Render substitutes params into the template's title and body patterns.
// Placeholders are written {key}; {{ and }} produce literal braces. A
// placeholder without a supplied value fails with *domain.MissingParameterError.
// Params the patterns don't reference are ignored.
func Render(tpl *domain.Template, params map[string]string) (title, body string, err error) {
	if title, err = renderPattern(tpl.TitlePattern, params); err != nil {
		return "", "", err
	}
	if body, err = renderPattern(tpl.BodyPattern, params); err != nil {
		return "", "", err
	}
	return title, body, nil
}

// Placeholders lists the distinct keys referenced by pattern, in order of appearance.
func Placeholders(pattern string) []string {
	var keys []string
	seen := map[string]bool{}
	_, _ = scan(pattern, func(key string) (string, bool) {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		return "", true
	})
	return keys
}

func renderPattern(pattern string, params map[string]string) (string, error) {
	return scan(pattern, func(key string) (string, bool) {
		v, ok := params[key]
		return v, ok
	})
}

// scan walks pattern once, calling resolve for every {key}. An unterminated
// or empty brace pair is copied through literally.
func scan(pattern string, resolve func(key string) (string, bool)) (string, error) {
	var b strings.Builder
	b.Grow(len(pattern))
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '{' && i+1 < len(pattern) && pattern[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(pattern) && pattern[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(pattern[i+1:], '}')
			key := ""
			if end >= 0 {
				key = strings.TrimSpace(pattern[i+1 : i+1+end])
			}
			if key == "" || strings.ContainsAny(key, "{") {
				b.WriteByte(c)
				continue
			}
			v, ok := resolve(key)
			if !ok {
				return "", &domain.MissingParameterError{Key: key}
			}
			b.WriteString(v)
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
