package runner

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tizen/itest/internal/models"
)

// logTailLines is how much of a failed case log goes into the report
const logTailLines = 50

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string          `xml:"name,attr"`
	ID        string          `xml:"id,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      string          `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Cases     []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	ClassName  string           `xml:"classname,attr"`
	Name       string           `xml:"name,attr"`
	File       string           `xml:"file,attr"`
	Time       string           `xml:"time,attr"`
	Properties *junitProperties `xml:"properties,omitempty"`
	Failure    *junitMessage    `xml:"failure,omitempty"`
	Error      *junitMessage    `xml:"error,omitempty"`
	Skipped    *junitMessage    `xml:"skipped,omitempty"`
	SystemOut  string           `xml:"system-out,omitempty"`
}

type junitProperties struct {
	Properties []junitProperty `xml:"property"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// WriteJUnit writes records as a JUnit XML report
func WriteJUnit(w io.Writer, sessionID string, records []Record) error {
	suite := junitSuite{
		Name:      "itest",
		ID:        sessionID,
		Tests:     len(records),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	var total time.Duration
	for _, rec := range records {
		total += rec.Duration
		tc := junitTestCase{
			ClassName: rec.Case.Component,
			Name:      rec.Case.Name(),
			File:      rec.Case.Filename,
			Time:      fmt.Sprintf("%.3f", rec.Duration.Seconds()),
		}
		if props := caseProperties(rec.Case); len(props) > 0 {
			tc.Properties = &junitProperties{Properties: props}
		}

		switch rec.Status {
		case StatusFailure:
			suite.Failures++
			tc.Failure = &junitMessage{Message: rec.Case.Summary, Body: logTail(rec.LogPath)}
		case StatusError:
			suite.Errors++
			tc.Error = &junitMessage{Message: rec.Detail}
		case StatusSkipped:
			suite.Skipped++
			tc.Skipped = &junitMessage{Message: rec.Detail}
		case StatusSuccess:
			if rec.LogPath != "" {
				tc.SystemOut = "log: " + rec.LogPath
			}
		}
		suite.Cases = append(suite.Cases, tc)
	}
	suite.Time = fmt.Sprintf("%.3f", total.Seconds())

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(junitSuites{Suites: []junitSuite{suite}}); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// caseProperties lists the issue numbers, tags, precondition and unknown
// sections of c in a stable order
func caseProperties(c *models.Case) []junitProperty {
	var props []junitProperty

	issues := make([]string, 0, len(c.Issues))
	seen := make(map[string]bool)
	for _, num := range c.Issues {
		if !seen[num] {
			seen[num] = true
			issues = append(issues, num)
		}
	}
	sort.Strings(issues)
	for _, num := range issues {
		props = append(props, junitProperty{Name: "issue", Value: num})
	}

	for _, tag := range c.Tags {
		props = append(props, junitProperty{Name: "tag", Value: tag})
	}

	if pre := strings.TrimSpace(c.Precondition); pre != "" {
		props = append(props, junitProperty{Name: "precondition", Value: pre})
	}

	names := make([]string, 0, len(c.Extra))
	for name := range c.Extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		props = append(props, junitProperty{Name: "section." + name, Value: strings.TrimSpace(c.Extra[name])})
	}

	return props
}

// logTail returns the last lines of a log file, or nothing when it can't
// be read
func logTail(path string) string {
	if path == "" {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if len(lines) > logTailLines {
			lines = lines[1:]
		}
	}
	return strings.Join(lines, "\n")
}
