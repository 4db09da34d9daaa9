package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tizen/itest/internal/conf"
	"github.com/tizen/itest/internal/expect"
	"github.com/tizen/itest/internal/loader"
	"github.com/tizen/itest/internal/runner"
	"github.com/tizen/itest/internal/signer"
	"github.com/tizen/itest/internal/sysinfo"
	"github.com/tizen/itest/internal/utils"
	"github.com/tizen/itest/internal/workspace"
)

type runtestOptions struct {
	EnvRoot        string
	Workspace      string
	Jobs           int
	Tags           []string
	JUnitPath      string
	SignKey        string
	SignPassphrase string
	List           bool
}

// NewRuntestCmd creates the runtest program
func NewRuntestCmd() *cobra.Command {
	var opts runtestOptions

	cmd := newRootCmd("runtest [selector...]",
		"Run functional test cases",
		`Runtest loads case files from the test environment and runs them.

A selector is one of:
  - a suite alias from settings.toml
  - a case file or a directory of case files
  - a component name, or "!component" for every other component
  - "a&&b" for the cases selected by both a and b

Without selectors every case of the cases directory runs.`)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetCount("verbose")
		return runTests(cmd.Context(), cmd.OutOrStdout(), &opts, args, verbose)
	}

	cmd.Flags().StringVarP(&opts.EnvRoot, "env", "e", "", "Test environment root (default $"+conf.EnvVar+" or .)")
	cmd.Flags().StringVarP(&opts.Workspace, "workspace", "w", "", "Workspace directory (overrides settings)")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 1, "Number of cases run in parallel")
	cmd.Flags().StringSliceVarP(&opts.Tags, "tag", "t", nil, "Only run cases with a tag matching this glob")
	cmd.Flags().StringVar(&opts.JUnitPath, "junit", "", "Write a JUnit XML report to this file")
	cmd.Flags().StringVarP(&opts.SignKey, "sign-key", "k", "", "Path to GPG private key signing the JUnit report")
	cmd.Flags().StringVarP(&opts.SignPassphrase, "sign-passphrase", "p", "", "GPG key passphrase")
	cmd.Flags().BoolVarP(&opts.List, "list", "l", false, "List selected cases without running them")

	return cmd
}

func runTests(ctx context.Context, out io.Writer, opts *runtestOptions, args []string, verbose int) error {
	if opts.SignKey != "" && opts.JUnitPath == "" {
		return fmt.Errorf("--sign-key needs --junit")
	}

	settings, err := conf.Load(conf.ResolveEnvRoot(opts.EnvRoot))
	if err != nil {
		return err
	}
	if opts.Workspace != "" {
		settings.Workspace = opts.Workspace
	}
	logrus.Debugf("Test environment: %s (cases in %s)", settings.EnvRoot, settings.CasesPath())

	// Step 1: select cases
	suite, loadErr := loader.New(settings).LoadArgs(args)
	if loadErr != nil {
		logrus.Errorf("Some cases failed to load: %v", loadErr)
	}
	suite, err = loader.FilterTags(suite, opts.Tags)
	if err != nil {
		return err
	}

	if opts.List {
		for _, c := range suite.Cases() {
			fmt.Fprintf(out, "%s\t%s\n", c.Filename, c.Summary)
		}
		return loadErr
	}

	if suite.Len() == 0 {
		logrus.Warn("No cases selected")
		return loadErr
	}
	logrus.Infof("Selected %d cases", suite.Len())

	// Step 2: prepare the session
	space, err := workspace.New(settings.Workspace, settings.FixturesPath())
	if err != nil {
		return err
	}

	if settings.SudoPasswd == "" {
		settings.SudoPasswd, err = expect.AskPassword()
		if err != nil {
			return err
		}
	}

	r := &runner.Runner{
		Settings: settings,
		Space:    space,
		Labels:   sysinfo.MachineLabels(),
		Verbose:  verbose,
		Stdout:   out,
	}

	// Step 3: run
	collector := runner.NewCollector()
	result := runner.MultiResult{collector, runner.NewTextResult(out, suite.Len(), verbose)}

	start := time.Now()
	runErr := r.RunSuite(ctx, suite, result, opts.Jobs)
	runner.PrintSummary(out, collector, time.Since(start))

	if runErr != nil {
		logrus.Warnf("Run interrupted: %v", runErr)
	}

	// Step 4: reports
	if opts.JUnitPath != "" {
		if err := writeJUnitReport(opts, space.SessionID, collector.Records()); err != nil {
			return err
		}
	}

	logrus.Infof("Logs are in %s", space.Root)

	if runErr != nil || loadErr != nil || !collector.WasSuccessful() {
		return &ExitError{Code: 1}
	}
	return nil
}

func writeJUnitReport(opts *runtestOptions, sessionID string, records []runner.Record) error {
	var buf bytes.Buffer
	if err := runner.WriteJUnit(&buf, sessionID, records); err != nil {
		return err
	}
	if err := utils.WriteFile(opts.JUnitPath, buf.Bytes(), 0644); err != nil {
		return err
	}
	logrus.Infof("JUnit report written to %s", opts.JUnitPath)

	if opts.SignKey == "" {
		return nil
	}

	s, err := signer.NewGPGSigner(opts.SignKey, opts.SignPassphrase)
	if err != nil {
		return err
	}
	sigPath, err := signer.SignFile(s, opts.JUnitPath)
	if err != nil {
		return err
	}
	logrus.Infof("Report signature written to %s", sigPath)

	keyPath, err := signer.ExportPublicKey(s, opts.JUnitPath)
	if err != nil {
		return err
	}
	logrus.Debugf("Public key written to %s", keyPath)
	return nil
}
