package expect

import "io"

// Tee writes everything written to Original to Another as well. Only
// Original is closed.
type Tee struct {
	Original io.WriteCloser
	Another  io.Writer
}

// Write implements io.Writer
func (t *Tee) Write(p []byte) (int, error) {
	if _, err := t.Another.Write(p); err != nil {
		return 0, err
	}
	return t.Original.Write(p)
}

// Close closes the original writer
func (t *Tee) Close() error {
	return t.Original.Close()
}
