// Package dss reads identifying information out of HEC-DSS style pathnames
// of the form /A/B/C/D/E/F/.
package dss

import (
	"strings"
)

// Pathname is a parsed /A/B/C/D/E/F/ pathname. Parts are kept as written.
type Pathname struct {
	A string // project / basin
	B string // location
	C string // parameter
	D string // date window or analysis
	E string // interval
	F string // version / series key
}

// Parse splits a pathname into its parts. Missing trailing parts are empty.
func Parse(path string) Pathname {
	segments := strings.Split(strings.TrimSpace(path), "/")
	part := func(i int) string {
		if i < len(segments) {
			return segments[i]
		}
		return ""
	}
	// segments[0] is the empty string before the leading slash
	return Pathname{
		A: part(1),
		B: part(2),
		C: part(3),
		D: part(4),
		E: part(5),
		F: part(6),
	}
}

// String renders the pathname with leading and trailing slashes
func (p Pathname) String() string {
	return "/" + strings.Join([]string{p.A, p.B, p.C, p.D, p.E, p.F}, "/") + "/"
}

// CPart returns the upper-cased fourth slash-delimited segment (the C part),
// or "" when the path is too short or the segment is blank.
func CPart(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) >= 4 && parts[3] != "" {
		return strings.ToUpper(parts[3])
	}
	return ""
}

// FPart returns the upper-cased last non-empty segment, which is the series
// key (F part) on a complete pathname.
func FPart(path string) string {
	trimmed := strings.TrimSuffix(strings.TrimSpace(path), "/")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return ""
	}
	return strings.ToUpper(trimmed[i+1:])
}

// IsFlowFrequency reports whether an analysis folder or any of its
// pathnames describe a peak flow frequency curve.
func IsFlowFrequency(typeFolder string, paths []string) bool {
	t := strings.ToLower(strings.TrimSpace(typeFolder))
	if strings.Contains(t, "peak") && strings.Contains(t, "flow") && strings.Contains(t, "frequency") {
		return true
	}
	for _, p := range paths {
		if CPart(p) == "FLOW-FREQ" {
			return true
		}
	}
	return false
}
