package expect

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tizen/itest/internal/models"
)

func TestCallExitStatus(t *testing.T) {
	status, err := Call(context.Background(), "/bin/sh", []string{"-c", "exit 3"}, Options{
		EOFTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, status)
}

func TestCallAnswersPrompts(t *testing.T) {
	var out bytes.Buffer
	script := `printf 'Continue? '; read a; printf 'Name: '; read b; echo "got $a $b"`

	status, err := Call(context.Background(), "/bin/sh", []string{"-c", script}, Options{
		Expecting: []Pair{
			{Pattern: regexp.MustCompile(`Continue\?`), Answer: "yes"},
			Literal("Name:", "itest"),
		},
		Output:     &out,
		EOFTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Contains(t, out.String(), "got yes itest")
}

func TestCallAnswersSudoPrompt(t *testing.T) {
	var out bytes.Buffer
	script := `printf "[sudo] password for tester: "; read p; echo "pw=$p"`

	status, err := Call(context.Background(), "/bin/sh", []string{"-c", script}, Options{
		Expecting:  []Pair{SudoPair("s3cret")},
		Output:     &out,
		EOFTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Contains(t, out.String(), "pw=s3cret")
}

func TestCallHanging(t *testing.T) {
	_, err := Call(context.Background(), "/bin/sh", []string{"-c", "sleep 5"}, Options{
		EOFTimeout:    10 * time.Second,
		OutputTimeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrTimeout))
	assert.Equal(t, "[Timeout] Hanging for 0.2 seconds!:/bin/sh -c sleep 5", err.Error())
}

func TestCallRunsOutOfTime(t *testing.T) {
	script := "while true; do echo tick; sleep 0.05; done"
	start := time.Now()

	_, err := Call(context.Background(), "/bin/sh", []string{"-c", script}, Options{
		EOFTimeout:    300 * time.Millisecond,
		OutputTimeout: 2 * time.Second,
	})
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrTimeout))
	assert.Equal(t, "[Timeout] Run out of time in 0.3 seconds!:/bin/sh -c "+script, err.Error())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCallContextCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := Call(ctx, "/bin/sh", []string{"-c", "sleep 5"}, Options{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallMissingBinary(t *testing.T) {
	_, err := Call(context.Background(), "/nonexistent/binary", nil, Options{})
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrRun))
}

func TestEarliestMatchWins(t *testing.T) {
	pairs := []Pair{Literal("second", "2"), Literal("first", "1")}
	idx, loc := earliest([]byte("first then second"), pairs)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []int{0, 5}, loc)
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestTee(t *testing.T) {
	orig := &closeRecorder{}
	var other strings.Builder
	tee := &Tee{Original: orig, Another: &other}

	_, err := tee.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, tee.Close())

	assert.Equal(t, "hello", orig.String())
	assert.Equal(t, "hello", other.String())
	assert.True(t, orig.closed)
}
