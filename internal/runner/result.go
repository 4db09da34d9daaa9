package runner

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/tizen/itest/internal/models"
)

// Status is the outcome of a case
type Status int

const (
	StatusRunning Status = iota
	StatusSuccess
	StatusFailure
	StatusError
	StatusSkipped
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "ok"
	case StatusFailure:
		return "FAIL"
	case StatusError:
		return "ERROR"
	case StatusSkipped:
		return "skip"
	default:
		return "running"
	}
}

// Result receives the progress of a run. Implementations must be safe for
// concurrent use.
type Result interface {
	TestStart(c *models.Case)
	TestStop(c *models.Case)

	AddSuccess(c *models.Case, logPath string)
	AddFailure(c *models.Case, logPath string)
	AddError(c *models.Case, err error)
	AddSkipped(c *models.Case, reason string)
}

// Record is everything known about one case of a run
type Record struct {
	Case     *models.Case
	Status   Status
	Start    time.Time
	Duration time.Duration
	// Detail is the skip reason or error text
	Detail  string
	LogPath string
}

// Collector records the outcome of every case
type Collector struct {
	mu      sync.Mutex
	order   []*Record
	records map[string]*Record
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{records: make(map[string]*Record)}
}

func (r *Collector) TestStart(c *models.Case) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &Record{Case: c, Start: time.Now()}
	r.records[c.Filename] = rec
	r.order = append(r.order, rec)
}

func (r *Collector) TestStop(c *models.Case) {
	r.update(c, func(rec *Record) {
		rec.Duration = time.Since(rec.Start)
	})
}

func (r *Collector) AddSuccess(c *models.Case, logPath string) {
	r.update(c, func(rec *Record) {
		rec.Status = StatusSuccess
		rec.LogPath = logPath
	})
}

func (r *Collector) AddFailure(c *models.Case, logPath string) {
	r.update(c, func(rec *Record) {
		rec.Status = StatusFailure
		rec.LogPath = logPath
	})
}

func (r *Collector) AddError(c *models.Case, err error) {
	r.update(c, func(rec *Record) {
		rec.Status = StatusError
		rec.Detail = err.Error()
	})
}

func (r *Collector) AddSkipped(c *models.Case, reason string) {
	r.update(c, func(rec *Record) {
		rec.Status = StatusSkipped
		rec.Detail = reason
	})
}

func (r *Collector) update(c *models.Case, fn func(*Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[c.Filename]; ok {
		fn(rec)
	}
}

// Records returns a copy of the records in start order
func (r *Collector) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, len(r.order))
	for i, rec := range r.order {
		out[i] = *rec
	}
	return out
}

// Counts returns the number of cases per status
func (r *Collector) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, rec := range r.Records() {
		counts[rec.Status]++
	}
	return counts
}

// WasSuccessful reports whether no case failed or errored
func (r *Collector) WasSuccessful() bool {
	counts := r.Counts()
	return counts[StatusFailure] == 0 && counts[StatusError] == 0 && counts[StatusRunning] == 0
}

// TextResult prints one line per finished case
type TextResult struct {
	mu       sync.Mutex
	out      io.Writer
	total    int
	finished int
	verbose  int
}

// NewTextResult creates a progress printer for total cases
func NewTextResult(out io.Writer, total, verbose int) *TextResult {
	return &TextResult{out: out, total: total, verbose: verbose}
}

func (t *TextResult) TestStart(c *models.Case) {
	if t.verbose > 0 {
		t.printf("start %s/%s: %s\n", c.Component, c.Name(), c.Summary)
	}
}

func (t *TextResult) TestStop(c *models.Case) {}

func (t *TextResult) AddSuccess(c *models.Case, _ string) {
	t.done(c, color.GreenString(StatusSuccess.String()), "")
}

func (t *TextResult) AddFailure(c *models.Case, logPath string) {
	t.done(c, color.RedString(StatusFailure.String()), "log: "+logPath)
}

func (t *TextResult) AddError(c *models.Case, err error) {
	t.done(c, color.RedString(StatusError.String()), err.Error())
}

func (t *TextResult) AddSkipped(c *models.Case, reason string) {
	t.done(c, color.YellowString(StatusSkipped.String()), reason)
}

func (t *TextResult) done(c *models.Case, status, detail string) {
	t.mu.Lock()
	t.finished++
	n := t.finished
	t.mu.Unlock()

	line := fmt.Sprintf("[%d/%d] %s/%s ... %s", n, t.total, c.Component, c.Name(), status)
	if detail != "" {
		line += " (" + detail + ")"
	}
	t.printf("%s\n", line)
}

func (t *TextResult) printf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// PrintSummary writes the totals of a run
func PrintSummary(out io.Writer, c *Collector, elapsed time.Duration) {
	counts := c.Counts()
	total := len(c.Records())

	fmt.Fprintln(out, "----------------------------------------------------------------------")
	fmt.Fprintf(out, "Ran %d tests in %.3fs\n\n", total, elapsed.Seconds())

	for _, rec := range c.Records() {
		if rec.Status == StatusFailure || rec.Status == StatusError {
			fmt.Fprintf(out, "%s: %s (%s)\n", rec.Status, rec.Case.Filename, rec.Case.Summary)
		}
	}

	if c.WasSuccessful() {
		fmt.Fprintf(out, "%s (passed=%d, skipped=%d)\n",
			color.GreenString("OK"), counts[StatusSuccess], counts[StatusSkipped])
		return
	}
	fmt.Fprintf(out, "%s (passed=%d, failures=%d, errors=%d, skipped=%d)\n",
		color.RedString("FAILED"), counts[StatusSuccess], counts[StatusFailure],
		counts[StatusError], counts[StatusSkipped])
}

// MultiResult forwards every event to each result in turn
type MultiResult []Result

func (m MultiResult) TestStart(c *models.Case) {
	for _, r := range m {
		r.TestStart(c)
	}
}

func (m MultiResult) TestStop(c *models.Case) {
	for _, r := range m {
		r.TestStop(c)
	}
}

func (m MultiResult) AddSuccess(c *models.Case, logPath string) {
	for _, r := range m {
		r.AddSuccess(c, logPath)
	}
}

func (m MultiResult) AddFailure(c *models.Case, logPath string) {
	for _, r := range m {
		r.AddFailure(c, logPath)
	}
}

func (m MultiResult) AddError(c *models.Case, err error) {
	for _, r := range m {
		r.AddError(c, err)
	}
}

func (m MultiResult) AddSkipped(c *models.Case, reason string) {
	for _, r := range m {
		r.AddSkipped(c, reason)
	}
}
