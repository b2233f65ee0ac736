package download

import (
	"strings"
	"unicode/utf8"
)

var replacer = strings.NewReplacer(
	":", "_",
	"/", "_",
	"<", "_",
	">", "_",
	"\"", "_",
	"'", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
	" ", "_",
)

// SafeName turns a title into a filename fragment usable in os.CreateTemp patterns.
// The result is at most max bytes long and never empty.
func SafeName(title string, max int) string {
	name := replacer.Replace(strings.TrimSpace(title))
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	name = strings.Trim(name, "_.")

	if max > 0 && len(name) > max {
		name = name[:max]
		for !utf8.ValidString(name) {
			name = name[:len(name)-1]
		}
	}
	if name == "" {
		return "subtitle"
	}
	return name
}
