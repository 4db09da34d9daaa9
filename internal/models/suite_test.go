package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func names(s *Suite) []string {
	var out []string
	for _, c := range s.Cases() {
		out = append(out, c.Filename)
	}
	return out
}

func TestSuiteDeduplicatesInOrder(t *testing.T) {
	s := NewSuite(&Case{Filename: "/b"}, &Case{Filename: "/a"}, &Case{Filename: "/b"})
	s.Add(&Case{Filename: "/c"})

	assert.Equal(t, []string{"/b", "/a", "/c"}, names(s))
	assert.Equal(t, 3, s.Len())
}

func TestSuiteIntersect(t *testing.T) {
	a := NewSuite(&Case{Filename: "/1"}, &Case{Filename: "/2"}, &Case{Filename: "/3"})
	b := NewSuite(&Case{Filename: "/3"}, &Case{Filename: "/2"})
	c := NewSuite(&Case{Filename: "/2"})

	assert.Equal(t, []string{"/2", "/3"}, names(a.Intersect(b)))
	assert.Equal(t, []string{"/2"}, names(a.Intersect(b, c)))
}

func TestGuessComponent(t *testing.T) {
	assert.Equal(t, "build", GuessComponent("/env/cases/build/a.case", "/env/cases"))
	assert.Equal(t, "build", GuessComponent("/env/cases/build/deep/a.case", "/env/cases/"))
	assert.Equal(t, "unknown", GuessComponent("/env/cases/a.case", "/env/cases"))
	assert.Equal(t, "unknown", GuessComponent("/elsewhere/x/a.case", "/env/cases"))
	assert.Equal(t, "unknown", GuessComponent("/env/cases/x/a.case", ""))
}

func TestNEVRA(t *testing.T) {
	p := &Package{Name: "itest-core", Version: "1.7", Release: "1", Architecture: "noarch"}
	assert.Equal(t, "itest-core-1.7-1.noarch", p.NEVRA())
	p.Epoch = "2"
	assert.Equal(t, "itest-core-2:1.7-1.noarch", p.NEVRA())
}
