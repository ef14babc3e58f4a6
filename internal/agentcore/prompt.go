package agentcore

import "regexp"

var tokenRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// RenderTemplate substitutes {{key}} tokens with values from vars.
// Tokens without a matching variable are left byte-for-byte unchanged,
// so rendering is total and never fails on a sparse variable map.
func RenderTemplate(tpl string, vars map[string]string) string {
	return tokenRe.ReplaceAllStringFunc(tpl, func(match string) string {
		key := tokenRe.FindStringSubmatch(match)[1]
		if value, ok := vars[key]; ok {
			return value
		}
		return match
	})
}
