package casefile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/tizen/itest/internal/models"
)

// RequiredSections must be present in every case
var RequiredSections = []string{"summary", "steps"}

var issuePattern = regexp.MustCompile(`(?i)^(#|issue|feature|bug|(c(hange)?))?-?(\d+)`)

// Condition keywords understood in the __conditions__ section
const (
	DistWhitelist = "distwhitelist"
	DistBlacklist = "distblacklist"
)

// SyntaxError reports a malformed case file
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Msg
}

func syntaxErrorf(format string, args ...interface{}) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...)}
}

// Parse parses the text of a case file into a Case. filename is stored as
// given; callers pass an absolute path.
func Parse(filename, text string) (*models.Case, error) {
	c := &models.Case{
		Filename:   filename,
		Issues:     map[string]string{},
		Conditions: map[string]map[string]bool{},
		Extra:      map[string]string{},
	}

	seen := make(map[string]bool)
	for _, sec := range SplitSections(text) {
		if err := apply(c, sec); err != nil {
			return nil, models.NewError(models.ErrCaseSyntax, filename, err)
		}
		seen[sec.Name] = true
	}

	for _, name := range RequiredSections {
		if !seen[name] {
			return nil, models.NewError(models.ErrCaseSyntax, filename,
				syntaxErrorf("%q section is required", name))
		}
	}

	return c, nil
}

// ParseFile reads and parses a case file, storing its absolute path
func ParseFile(path string) (*models.Case, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, models.NewError(models.ErrFileOp, path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, models.NewError(models.ErrFileOp, abs, err)
	}
	return Parse(abs, string(data))
}

func apply(c *models.Case, sec Section) error {
	var err error

	switch sec.Name {
	case "summary":
		c.Summary = strings.TrimSpace(sec.Content)
	case "steps":
		c.Steps = sec.Content
	case "setup":
		c.Setup = sec.Content
	case "teardown":
		c.Teardown = sec.Content
	case "precondition":
		c.Precondition = sec.Content
	case "version":
		c.Version = strings.TrimSpace(sec.Content)
	case "qa":
		c.QA, err = ParseQA(sec.Content)
	case "issue":
		c.Issues, err = ParseIssues(sec.Content)
	case "tag":
		c.Tags = splitList(strings.ToLower(sec.Content))
	case "conditions":
		c.Conditions, err = ParseConditions(sec.Content)
	case "fixtures":
		c.Fixtures = strings.Fields(sec.Content)
	default:
		c.Extra[sec.Name] = sec.Content
	}

	return err
}

// ParseQA parses "Q:"/"A:" line pairs. Every question must be followed by
// an answer before the next question. A trailing question without answer
// is ignored.
func ParseQA(text string) ([]models.QA, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var (
		qa       []models.QA
		state    int
		question string
		answer   string
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		switch {
		case state == 0 && strings.HasPrefix(line, "Q:"):
			question = strings.TrimLeft(line[len("Q:"):], " \t")
			state = 1
		case state == 1 && strings.HasPrefix(line, "A:"):
			answer = strings.TrimLeft(line[len("A:"):], " \t")
			state = 2
		case state == 2 && strings.HasPrefix(line, "Q:"):
			qa = append(qa, models.QA{Question: question, Answer: answer})
			question = strings.TrimLeft(line[len("Q:"):], " \t")
			state = 1
		default:
			return nil, syntaxErrorf("Invalid format of QA:%s", line)
		}
	}

	if state == 2 {
		qa = append(qa, models.QA{Question: question, Answer: answer})
	}

	return qa, nil
}

// ParseIssues maps each recognised issue token (e.g. "#123", "bug-7",
// "C42") to its number.
func ParseIssues(text string) (map[string]string, error) {
	text = strings.TrimSpace(text)
	nums := map[string]string{}
	if text == "" {
		return nums, nil
	}

	for _, issue := range strings.Fields(strings.ReplaceAll(text, ",", " ")) {
		m := issuePattern.FindStringSubmatch(issue)
		if m != nil {
			nums[m[0]] = m[4]
		}
	}

	if len(nums) == 0 {
		return nil, syntaxErrorf("Unrecognized issue number:%s", text)
	}
	return nums, nil
}

// ParseConditions parses lines of "keyword: label label,label"
func ParseConditions(text string) (map[string]map[string]bool, error) {
	conds := map[string]map[string]bool{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, values, ok := strings.Cut(line, ":")
		if !ok {
			return nil, syntaxErrorf("Invalid condition:%s", line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key != DistWhitelist && key != DistBlacklist {
			return nil, syntaxErrorf("Unknown condition:%s", key)
		}

		set, exists := conds[key]
		if !exists {
			set = map[string]bool{}
			conds[key] = set
		}
		for _, v := range splitList(strings.ToLower(values)) {
			set[v] = true
		}
	}

	return conds, nil
}

// SortedLabels returns the members of a label set in order
func SortedLabels(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func splitList(s string) []string {
	return strings.Fields(strings.ReplaceAll(s, ",", " "))
}
