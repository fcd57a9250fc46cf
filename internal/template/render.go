package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	tagPattern  = regexp.MustCompile(`\{\{\s*[^{}]*\}\}`)
	eachPattern = regexp.MustCompile(`\{\{#each\s+(\w+)\}\}`)
)

// Render substitutes every {{key}} in tmpl with the stringified context
// value. Absent or nil keys become the empty string. Substituted values are
// never re-scanned, and a final cleanup pass strips any unresolved {{...}}
// tokens so they cannot leak into sent content.
//
// {{#each key}}...{{/each}} blocks are expanded first when the context value
// is a slice: the inner template is rendered once per element using the
// element's own keys. Blocks are matched by first occurrence of their own
// closing tag; nested blocks are not supported.
func Render(tmpl string, ctx map[string]interface{}) string {
	out := expandBlocks(tmpl, ctx)

	for key, val := range ctx {
		out = strings.ReplaceAll(out, "{{"+key+"}}", stringify(val))
	}

	return tagPattern.ReplaceAllString(out, "")
}

// expandBlocks scans left to right exactly once: expanded output is written
// out and never re-scanned, so element values that happen to contain block
// syntax cannot trigger another expansion.
func expandBlocks(tmpl string, ctx map[string]interface{}) string {
	var b strings.Builder
	for {
		loc := eachPattern.FindStringSubmatchIndex(tmpl)
		if loc == nil {
			b.WriteString(tmpl)
			return b.String()
		}

		key := tmpl[loc[2]:loc[3]]
		rest := tmpl[loc[1]:]

		end := strings.Index(rest, "{{/each}}")
		if end < 0 {
			// unterminated block, leave it for the cleanup pass
			b.WriteString(tmpl)
			return b.String()
		}

		b.WriteString(tmpl[:loc[0]])
		inner := rest[:end]
		for _, elem := range sliceOf(ctx[key]) {
			b.WriteString(renderElement(inner, elem))
		}

		// continue scanning only past the closing tag
		tmpl = rest[end+len("{{/each}}"):]
	}
}

func renderElement(inner string, elem interface{}) string {
	fields, ok := elem.(map[string]interface{})
	if !ok {
		return strings.ReplaceAll(inner, "{{.}}", stringify(elem))
	}
	out := inner
	for key, val := range fields {
		out = strings.ReplaceAll(out, "{{"+key+"}}", stringify(val))
	}
	return out
}

func sliceOf(v interface{}) []interface{} {
	switch s := v.(type) {
	case []interface{}:
		return s
	case []map[string]interface{}:
		out := make([]interface{}, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	default:
		return nil
	}
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
