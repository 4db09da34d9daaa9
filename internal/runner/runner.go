package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tizen/itest/internal/casefile"
	"github.com/tizen/itest/internal/conf"
	"github.com/tizen/itest/internal/expect"
	"github.com/tizen/itest/internal/models"
	"github.com/tizen/itest/internal/workspace"
	"golang.org/x/sync/errgroup"
)

var colorCodes = regexp.MustCompile(`\x1b\[[0-9;]*[mK]`)

// Runner executes cases in fresh run directories
type Runner struct {
	Settings *conf.Settings
	Space    *workspace.Space

	// Labels describe the machine for case conditions
	Labels []string

	// Verbose > 1 copies case logs to Stdout
	Verbose int
	Stdout  io.Writer
}

// skipReason returns why c must not run on a machine with labels, or ""
// when it may run. The blacklist wins over the whitelist.
func skipReason(c *models.Case, labels []string) string {
	have := make(map[string]bool, len(labels))
	for _, l := range labels {
		have[strings.ToLower(l)] = true
	}

	var hits []string
	for _, l := range casefile.SortedLabels(c.Conditions[casefile.DistBlacklist]) {
		if have[l] {
			hits = append(hits, l)
		}
	}
	if len(hits) > 0 {
		return "by distribution blacklist:" + strings.Join(hits, ",")
	}

	white, ok := c.Conditions[casefile.DistWhitelist]
	if !ok {
		return ""
	}
	for l := range white {
		if have[l] {
			return ""
		}
	}
	return "not in distribution whitelist:" + strings.Join(casefile.SortedLabels(white), ",")
}

// caseRun is the state of one running case
type caseRun struct {
	*Runner
	c       *models.Case
	runDir  string
	logPath string
	log     io.WriteCloser
}

// RunCase runs c, reporting to result. It returns an error only when ctx
// is canceled; every other problem is reported to result. A case whose ctx
// is already canceled is not started.
func (r *Runner) RunCase(ctx context.Context, c *models.Case, result Result) error {
	// a canceled case never starts, so nothing is recorded and its
	// teardown does not run
	if err := ctx.Err(); err != nil {
		return err
	}

	result.TestStart(c)
	defer result.TestStop(c)

	if reason := skipReason(c, r.Labels); reason != "" {
		logrus.Debugf("Skipping %s: %s", c.Filename, reason)
		result.AddSkipped(c, reason)
		return nil
	}

	run := &caseRun{Runner: r, c: c}
	status, err := run.execute(ctx)
	run.closeLog()

	switch {
	case ctx.Err() != nil:
		// interrupted cases count as failures
		result.AddFailure(c, run.logPath)
		return ctx.Err()
	case err != nil:
		result.AddError(c, err)
	case status == 0:
		result.AddSuccess(c, run.logPath)
	default:
		result.AddFailure(c, run.logPath)
	}
	return nil
}

func (run *caseRun) execute(ctx context.Context) (int, error) {
	var err error
	run.runDir, err = run.Space.NewTestDir(run.c.Version, run.c.Dir(), run.c.Fixtures)
	if err != nil {
		return -1, err
	}

	meta := filepath.Join(run.runDir, MetaDir)
	if err := os.Mkdir(meta, 0755); err != nil {
		return -1, models.NewError(models.ErrFileOp, meta, err)
	}
	if err := run.openLog(filepath.Join(meta, "log")); err != nil {
		return -1, err
	}

	scripts, err := MakeScripts(run.c, run.runDir, run.coverage())
	if err != nil {
		return -1, err
	}

	run.logf("INFO: case start to run!")

	if scripts.Setup != "" {
		run.logf("INFO: setup start")
		if status := run.psh(ctx, scripts.Setup, nil); status != 0 {
			run.logf("WARNING: setup exited with %d", status)
		}
		run.logf("INFO: setup finish")
	}

	run.logf("INFO: steps start")
	status := run.psh(ctx, scripts.Steps, run.c.QA)
	run.logf("INFO: steps finish")

	// teardown runs even when steps failed or were interrupted
	if scripts.Teardown != "" {
		run.logf("INFO: teardown start")
		run.psh(context.WithoutCancel(ctx), scripts.Teardown, nil)
		run.logf("INFO: teardown finish")
	}

	run.logf("INFO: case is finished!")
	return status, nil
}

// psh runs a script through bash answering sudo prompts and qa. Errors
// are logged to the case log and reported as status -1.
func (run *caseRun) psh(ctx context.Context, script string, qa []models.QA) int {
	expecting := []expect.Pair{expect.SudoPair(run.Settings.SudoPasswd)}
	for _, p := range qa {
		expecting = append(expecting, questionPair(p))
	}

	status, err := expect.Call(ctx, "/bin/bash", []string{script}, expect.Options{
		Expecting:     expecting,
		Output:        run.log,
		EOFTimeout:    run.Settings.CaseTimeout(),
		OutputTimeout: run.Settings.OutputTimeout(),
		Dir:           run.runDir,
	})
	if err != nil {
		run.logf("ERROR: pcall error:%s\n%v", script, err)
		return -1
	}
	return status
}

// questionPair treats the question as a regular expression, falling back
// to a literal match when it does not compile
func questionPair(qa models.QA) expect.Pair {
	re, err := regexp.Compile(qa.Question)
	if err != nil {
		return expect.Literal(qa.Question, qa.Answer)
	}
	return expect.Pair{Pattern: re, Answer: qa.Answer}
}

func (run *caseRun) coverage() *Coverage {
	s := run.Settings
	if !s.EnableCoverage || s.TargetName == "" {
		return nil
	}
	return &Coverage{
		Target: s.TargetName,
		RCFile: s.CoverageRCPath(),
		File:   filepath.Join(run.runDir, MetaDir, ".coverage"),
	}
}

func (run *caseRun) openLog(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return models.NewError(models.ErrFileOp, path, err)
	}
	run.logPath = path
	run.log = f
	if run.Verbose > 1 && run.Stdout != nil {
		run.log = &expect.Tee{Original: f, Another: run.Stdout}
	}
	return nil
}

func (run *caseRun) logf(format string, args ...interface{}) {
	if run.log == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(run.log, "%s [itest] %s\n", time.Now().Format("2006-01-02 15:04:05"), msg)
}

func (run *caseRun) closeLog() {
	if run.log == nil {
		return
	}
	if err := run.log.Close(); err != nil {
		logrus.Warnf("Failed to close %s: %v", run.logPath, err)
	}
	if err := stripColorCodes(run.logPath); err != nil {
		logrus.Warnf("Failed to clean %s: %v", run.logPath, err)
	}
}

// stripColorCodes removes ANSI colour and erase-line sequences from a file
func stripColorCodes(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cleaned := colorCodes.ReplaceAll(data, nil)
	if len(cleaned) == len(data) {
		return nil
	}
	return os.WriteFile(path, cleaned, 0644)
}

// RunSuite runs every case of suite with at most jobs cases at a time.
// It stops launching cases once ctx is canceled.
func (r *Runner) RunSuite(ctx context.Context, suite *models.Suite, result Result, jobs int) error {
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, c := range suite.Cases() {
		if gctx.Err() != nil {
			break
		}
		c := c
		g.Go(func() error {
			// g.Go blocks for a free slot, the run may have been
			// canceled meanwhile
			if gctx.Err() != nil {
				return nil
			}
			return r.RunCase(gctx, c, result)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
