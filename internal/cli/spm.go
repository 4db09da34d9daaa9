package cli

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tizen/itest/internal/expect"
	"github.com/tizen/itest/internal/spm"
	"github.com/tizen/itest/internal/sysinfo"
)

type spmOptions struct {
	ConfigPath string
	Dist       string
	DryRun     bool
	Password   string
}

// NewSpmCmd creates the spm program
func NewSpmCmd() *cobra.Command {
	var opts spmOptions

	cmd := newRootCmd("spm",
		"Simple package manager wrapper",
		`Spm installs and removes packages with the native package manager of
the running distribution, as configured in spm.yml.`)

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", spm.DefaultConfigPath, "Path to spm.yml")
	cmd.PersistentFlags().StringVar(&opts.Dist, "dist", "", "Distribution id (default from /etc/os-release)")
	cmd.PersistentFlags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Print commands instead of running them")
	cmd.PersistentFlags().StringVar(&opts.Password, "password", "", "sudo password (prompted when empty)")

	cmd.AddCommand(&cobra.Command{
		Use:   "install PACKAGE...",
		Short: "Install packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(&opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return m.Install(cmd.Context(), args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove PACKAGE...",
		Short: "Remove packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(&opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return m.Remove(cmd.Context(), args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Add configured repositories and refresh metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(&opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return m.Refresh(cmd.Context())
		},
	})

	return cmd
}

func newManager(opts *spmOptions, out io.Writer) (*spm.Manager, error) {
	cfg, err := spm.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	ids := []string{opts.Dist}
	if opts.Dist == "" {
		rel, err := sysinfo.Current()
		if err != nil {
			return nil, fmt.Errorf("failed to identify distribution: %w", err)
		}
		ids = rel.Families()
	}

	id, dist, err := cfg.Lookup(ids)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("Using package manager settings of %s", id)

	passwd := opts.Password
	if passwd == "" && !opts.DryRun {
		passwd, err = expect.AskPassword()
		if err != nil {
			return nil, err
		}
	}

	m := spm.NewManager(dist, spm.SudoExecutor(passwd))
	m.DryRun = opts.DryRun
	m.Out = out
	return m, nil
}
