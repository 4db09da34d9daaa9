package expect

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// SudoPromptPattern matches the password prompts of sudo and su across
// distributions, e.g.
//
//	[sudo] password for itester:
//	root's password:
//	itestuser23794's password:
var SudoPromptPattern = regexp.MustCompile(`\[sudo\] password for .*?:|root's password:|.*?'s password:`)

// SudoTimeout bounds a single Sudo call
const SudoTimeout = 10 * time.Second

// SudoPair answers sudo password prompts with passwd
func SudoPair(passwd string) Pair {
	return Pair{Pattern: SudoPromptPattern, Answer: passwd}
}

// Sudo runs command through sudo, typing passwd whenever a password
// prompt shows up. Output goes to stdout.
func Sudo(ctx context.Context, command, passwd string) (int, error) {
	command = "sudo " + command
	logrus.Info(command)

	return Call(ctx, "/bin/bash", []string{"-c", command}, Options{
		Expecting:  []Pair{SudoPair(passwd)},
		Output:     os.Stdout,
		EOFTimeout: SudoTimeout,
	})
}

// AskPassword prompts for the sudo password when stdin is a terminal.
// It returns an empty password otherwise.
func AskPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}

	fmt.Fprint(os.Stderr, "sudo password: ")
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(data), nil
}
