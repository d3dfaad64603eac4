package coapmsg

import "strings"

// SplitURIPath splits a "/"-delimited path into Uri-Path segments. Empty
// segments are skipped, so a leading separator does not produce a
// leading empty segment.
func SplitURIPath(s string) []string {
	return splitSkipEmpty(s, "/")
}

// SplitURIQuery splits an "&"-delimited query into Uri-Query segments.
func SplitURIQuery(s string) []string {
	return splitSkipEmpty(s, "&")
}

// SplitLocationPath splits a "/"-delimited path into Location-Path
// segments, the response-side counterpart of SplitURIPath.
func SplitLocationPath(s string) []string {
	return splitSkipEmpty(s, "/")
}

func splitSkipEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
