package report

import (
	"regexp"
	"strings"
)

// assetPattern matches messages that point into a served asset bundle, e.g.
// "boom in http://localhost:8888/assets/app/model.js?body=1 (line 27)".
var assetPattern = regexp.MustCompile(`(.*?) in https?://\S+?assets/(\S*?)\?body=\d+\s\((line\s\d+)\)?`)

// FormatMessage rewrites asset URLs in msg to the asset path and line. With
// short set only the leading description is kept.
func FormatMessage(msg string, short bool) string {
	if short {
		return assetPattern.ReplaceAllString(msg, "$1")
	}
	return assetPattern.ReplaceAllString(msg, "${1} in ${2} on ${3}")
}

// JoinMessages formats every message in short form and joins them for a
// one-line summary.
func JoinMessages(msgs []string) string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = FormatMessage(m, true)
	}
	return strings.Join(out, ", ")
}
