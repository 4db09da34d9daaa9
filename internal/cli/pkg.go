package cli

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tizen/itest/internal/packaging"
	"github.com/tizen/itest/internal/utils"
)

// NewPkgCmd creates the itest-pkg program
func NewPkgCmd() *cobra.Command {
	cmd := newRootCmd("itest-pkg",
		"Build and check the itest-core RPM packaging",
		`Itest-pkg renders the RPM spec of itest-core, resolves its run-time
requirements for a distribution and checks a built package against them.`)

	cmd.AddCommand(newPkgRenderCmd())
	cmd.AddCommand(newPkgRequiresCmd())
	cmd.AddCommand(newPkgVerifyCmd())

	return cmd
}

func newPkgRenderCmd() *cobra.Command {
	var version, release, sitelib, output string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the RPM spec file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := packaging.DefaultMetadata()
			if version != "" {
				m.Version = version
			}
			if release != "" {
				m.Release = release
			}
			m.SiteLib = sitelib

			var buf bytes.Buffer
			if err := packaging.Render(&buf, m); err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := utils.WriteFile(output, buf.Bytes(), 0644); err != nil {
				return err
			}
			logrus.Infof("Spec written to %s", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Package version")
	cmd.Flags().StringVar(&release, "release", "", "Package release")
	cmd.Flags().StringVar(&sitelib, "sitelib", "", "Python site-packages directory (default asks the build interpreter)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file")

	return cmd
}

func addTargetFlags(cmd *cobra.Command, family, python *string) {
	cmd.Flags().StringVar(family, "family", string(packaging.FamilyOther), "Distribution family (suse or other)")
	cmd.Flags().StringVar(python, "python", "2.7", "Python interpreter version")
}

func newPkgRequiresCmd() *cobra.Command {
	var family, python string

	cmd := &cobra.Command{
		Use:   "requires",
		Short: "Print the run-time requirements for a target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := packaging.Target{Family: packaging.ParseFamily(family), PythonVersion: python}
			requires, err := packaging.DefaultMetadata().Requires(t)
			if err != nil {
				return err
			}
			for _, r := range requires {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
	addTargetFlags(cmd, &family, &python)

	return cmd
}

func newPkgVerifyCmd() *cobra.Command {
	var family, python string
	layout := packaging.DefaultLayout

	cmd := &cobra.Command{
		Use:   "verify FILE.rpm",
		Short: "Check a built package against the packaging contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := packaging.ReadPackage(args[0])
			if err != nil {
				return err
			}

			t := packaging.Target{Family: packaging.ParseFamily(family), PythonVersion: python}
			report, err := packaging.DefaultMetadata().Verify(pkg, t, layout)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.OK() {
				fmt.Fprintf(out, "%s: OK\n", report.Package)
				return nil
			}

			fmt.Fprintf(out, "%s: FAILED\n", report.Package)
			printList(out, "missing file", report.MissingFiles)
			printList(out, "unexpected file", report.UnexpectedFiles)
			printList(out, "missing requirement", report.MissingRequires)
			printList(out, "unexpected requirement", report.UnexpectedRequires)
			return &ExitError{Code: 1}
		},
	}
	addTargetFlags(cmd, &family, &python)
	cmd.Flags().StringVar(&layout.SiteLib, "sitelib", layout.SiteLib, "Python site-packages directory")
	cmd.Flags().StringVar(&layout.BinDir, "bindir", layout.BinDir, "Binaries directory")

	return cmd
}

func printList(w io.Writer, what string, items []string) {
	for _, it := range items {
		fmt.Fprintf(w, "  %s: %s\n", what, it)
	}
}
