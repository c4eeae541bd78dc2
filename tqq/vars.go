package tqq

import (
	"encoding/json"
	"regexp"
)

// reVarRef matches $NAME or ${NAME} — longest matching identifier, per
// spec.md §4.E. Compiled once at package init, grounded on
// glyph/schema.go's use of a package-level compiled regexp for identifier
// recognition.
var reVarRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substitute replaces every $NAME/${NAME} reference in line with its
// current value; unknown names substitute to empty string.
func (e *engine) substitute(line string) string {
	return reVarRef.ReplaceAllStringFunc(line, func(m string) string {
		sub := reVarRef.FindStringSubmatch(m)
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		return e.vars[name]
	})
}

func jsonQuote(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
