package casefile

import (
	"regexp"
	"strings"
)

// headerPattern matches a section header such as "__summary__" or
// "__Steps__:" at the start of a line.
var headerPattern = regexp.MustCompile(`(?m)^__([a-zA-Z0-9]+?)__(\s*:)?`)

// Section is one header and the text that follows it
type Section struct {
	Name    string
	Content string
}

// SplitSections splits text into sections. Sections can't be nested: a new
// header ends the previous section. Header names are case insensitive and
// returned lowercased. Text before the first header is dropped.
func SplitSections(text string) []Section {
	matches := headerPattern.FindAllStringSubmatchIndex(text, -1)

	sections := make([]Section, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, Section{
			Name:    strings.ToLower(text[m[2]:m[3]]),
			Content: text[m[1]:end],
		})
	}
	return sections
}
