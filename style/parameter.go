package style

import "strings"

// parameterAliases folds spellings of the same physical quantity together
var parameterAliases = map[string]string{
	"FLOW":      "FLOW",
	"DISCHARGE": "FLOW",
	"Q":         "FLOW",

	"PRECIP":        "PRECIPITATION",
	"PRECIPITATION": "PRECIPITATION",

	"STAGE":     "STAGE",
	"ELEV":      "STAGE",
	"ELEVATION": "STAGE",

	"STORAGE": "STORAGE",
	"STOR":    "STORAGE",

	"TEMPERATURE": "TEMPERATURE",
	"TEMP":        "TEMPERATURE",
}

// CanonicalParameter upper-cases and trims p and resolves known aliases.
// Unknown names are their own canonical form; empty input yields "".
func CanonicalParameter(p string) string {
	t := strings.ToUpper(strings.TrimSpace(p))
	if t == "" {
		return ""
	}
	if canonical, ok := parameterAliases[t]; ok {
		return canonical
	}
	return t
}
