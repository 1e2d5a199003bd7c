package notification

import (
	"fmt"
	"regexp"
	"strings"
)

var templateVarPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// renderTemplate does simple "{{ var }}" substitution over context,
// matching §4.2's "simple {{ var }} substitution" wording. Missing
// variables are left untouched rather than erroring, so a render
// failure never blocks notification creation; the caller falls back to
// the raw title/message only if the whole string is empty.
func renderTemplate(tmpl string, context map[string]interface{}) string {
	if tmpl == "" || len(context) == 0 {
		return tmpl
	}
	return templateVarPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := strings.TrimSpace(templateVarPattern.FindStringSubmatch(match)[1])
		if v, ok := context[name]; ok {
			return toString(v)
		}
		return match
	})
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
