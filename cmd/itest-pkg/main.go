package main

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/tizen/itest/internal/cli"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	rootCmd := cli.NewPkgCmd()
	if err := rootCmd.Execute(); err != nil {
		var exit *cli.ExitError
		if !errors.As(err, &exit) {
			logrus.Error(err)
			os.Exit(1)
		}
		os.Exit(exit.Code)
	}
}
