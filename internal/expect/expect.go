package expect

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/sirupsen/logrus"
	"github.com/tizen/itest/internal/models"
)

// maxPending bounds the unmatched output kept for pattern matching
const maxPending = 64 * 1024

// Pair is a pattern to wait for and the line to send when it shows up
type Pair struct {
	Pattern *regexp.Regexp
	Answer  string
}

// Literal builds a Pair matching text literally
func Literal(text, answer string) Pair {
	return Pair{Pattern: regexp.MustCompile(regexp.QuoteMeta(text)), Answer: answer}
}

// Options controls a Call
type Options struct {
	// Expecting is scanned in order; the earliest match in the output wins
	Expecting []Pair

	// Output receives everything the command prints
	Output io.Writer

	// EOFTimeout bounds the whole run, OutputTimeout the silence between
	// two outputs. Zero disables either.
	EOFTimeout    time.Duration
	OutputTimeout time.Duration

	Dir string
	Env []string
}

// Call runs name with args on a pseudo terminal, answering every
// expected prompt, and returns the exit status. A command killed by a
// signal reports -1.
func Call(ctx context.Context, name string, args []string, opts Options) (int, error) {
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))

	cmd := exec.Command(name, args...)
	cmd.Dir = opts.Dir
	if opts.Env != nil {
		cmd.Env = opts.Env
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return -1, models.NewError(models.ErrRun, cmdline, fmt.Errorf("failed to start: %w", err))
	}
	defer ptmx.Close()

	logrus.Debugf("Spawned %s (pid %d)", cmdline, cmd.Process.Pid)

	done := make(chan struct{})
	defer close(done)
	chunks := readChunks(ptmx, done)

	var eofC, hangC <-chan time.Time
	if opts.EOFTimeout > 0 {
		t := time.NewTimer(opts.EOFTimeout)
		defer t.Stop()
		eofC = t.C
	}
	var hang *time.Timer
	if opts.OutputTimeout > 0 {
		hang = time.NewTimer(opts.OutputTimeout)
		defer hang.Stop()
		hangC = hang.C
	}

	var pending []byte
	for {
		select {
		case <-ctx.Done():
			kill(cmd)
			return -1, ctx.Err()

		case <-eofC:
			kill(cmd)
			return -1, models.NewError(models.ErrTimeout, "",
				fmt.Errorf("Run out of time in %s seconds!:%s", seconds(opts.EOFTimeout), cmdline))

		case <-hangC:
			kill(cmd)
			return -1, models.NewError(models.ErrTimeout, "",
				fmt.Errorf("Hanging for %s seconds!:%s", seconds(opts.OutputTimeout), cmdline))

		case data, ok := <-chunks:
			if !ok {
				return wait(cmd, cmdline)
			}

			if opts.Output != nil {
				if _, err := opts.Output.Write(data); err != nil {
					logrus.Warnf("Failed to copy output of %s: %v", cmdline, err)
				}
			}
			if hang != nil {
				resetTimer(hang, opts.OutputTimeout)
			}

			pending = append(pending, data...)
			pending, err = answer(ptmx, pending, opts.Expecting)
			if err != nil {
				kill(cmd)
				return -1, models.NewError(models.ErrRun, cmdline, err)
			}
			if len(pending) > maxPending {
				pending = pending[len(pending)-maxPending:]
			}
		}
	}
}

// answer sends the answer of every prompt found in pending and returns
// the unconsumed tail.
func answer(w io.Writer, pending []byte, expecting []Pair) ([]byte, error) {
	for {
		idx, loc := earliest(pending, expecting)
		if idx < 0 {
			return pending, nil
		}
		if _, err := io.WriteString(w, expecting[idx].Answer+"\n"); err != nil {
			return pending, fmt.Errorf("failed to send answer: %w", err)
		}
		pending = pending[loc[1]:]
	}
}

// earliest returns the index of the pattern matching first in buf
func earliest(buf []byte, expecting []Pair) (int, []int) {
	best := -1
	var bestLoc []int
	for i, p := range expecting {
		loc := p.Pattern.FindIndex(buf)
		if loc == nil {
			continue
		}
		if best < 0 || loc[0] < bestLoc[0] {
			best, bestLoc = i, loc
		}
	}
	return best, bestLoc
}

func readChunks(r io.Reader, done <-chan struct{}) <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case out <- data:
				case <-done:
					return
				}
			}
			if err != nil {
				// EIO once the terminal has no more writers
				return
			}
		}
	}()
	return out
}

func wait(cmd *exec.Cmd, cmdline string) (int, error) {
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, models.NewError(models.ErrRun, cmdline, err)
}

// kill terminates the whole session started on the terminal
func kill(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Signal(os.Kill)
	}
	_ = cmd.Wait()
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%g", d.Seconds())
}
