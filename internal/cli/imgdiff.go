package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tizen/itest/internal/imgdiff"
)

// NewImgdiffCmd creates the imgdiff program
func NewImgdiffCmd() *cobra.Command {
	var (
		opts   imgdiff.Options
		format string
		noFail bool
	)

	cmd := newRootCmd("imgdiff OLD NEW",
		"Compare two image trees",
		`Imgdiff compares two images and lists added, removed and changed paths.

An image is a directory or a tar archive, optionally compressed with gzip,
xz or zstd. RPM packages found in both images are compared by name,
version, release and architecture.

The exit status is 1 when the images differ, unless --no-fail is given.`)

	cmd.Args = cobra.ExactArgs(2)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		res, err := imgdiff.Images(cmd.Context(), args[0], args[1], opts)
		if res == nil {
			return err
		}
		if err != nil {
			logrus.Warnf("Some entries could not be compared: %v", err)
		}

		if err := imgdiff.Write(cmd.OutOrStdout(), res, imgdiff.Format(format)); err != nil {
			return err
		}

		if !res.Identical() && !noFail {
			return &ExitError{Code: 1}
		}
		return nil
	}

	cmd.Flags().StringSliceVarP(&opts.Ignore, "ignore", "x", nil, "Glob of paths to ignore (repeatable)")
	cmd.Flags().BoolVarP(&opts.TextDiff, "diff", "d", false, "Show unified diffs of changed text files")
	cmd.Flags().Int64Var(&opts.MaxDiffSize, "max-diff-size", 1<<20, "Skip diffs of files larger than this many bytes")
	cmd.Flags().StringVarP(&format, "format", "f", string(imgdiff.FormatText), "Report format (text, json)")
	cmd.Flags().BoolVar(&noFail, "no-fail", false, "Exit with status 0 even when images differ")

	return cmd
}
