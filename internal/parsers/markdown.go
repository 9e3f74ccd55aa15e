package parsers

import (
	"regexp"
	"strings"
)

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// ParseMarkdown reads a markdown file as cleaned prose: line endings are
// normalized and runs of three or more newlines collapse to exactly two.
// No tabular extraction is attempted.
func ParseMarkdown(path string) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return excessNewlines.ReplaceAllString(text, "\n\n"), nil
}
