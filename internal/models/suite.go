package models

// Suite is an ordered set of cases keyed by filename
type Suite struct {
	cases []*Case
	index map[string]bool
}

// NewSuite creates a suite holding cases
func NewSuite(cases ...*Case) *Suite {
	s := &Suite{index: make(map[string]bool)}
	s.Add(cases...)
	return s
}

// Add appends cases not already in the suite
func (s *Suite) Add(cases ...*Case) {
	for _, c := range cases {
		if s.index[c.Filename] {
			continue
		}
		s.index[c.Filename] = true
		s.cases = append(s.cases, c)
	}
}

// Merge adds every case of other
func (s *Suite) Merge(other *Suite) {
	s.Add(other.cases...)
}

// Contains reports whether a case with the same filename is in the suite
func (s *Suite) Contains(c *Case) bool {
	return s.index[c.Filename]
}

// Intersect keeps only the cases present in every other suite
func (s *Suite) Intersect(others ...*Suite) *Suite {
	out := NewSuite()
	for _, c := range s.cases {
		keep := true
		for _, o := range others {
			if !o.Contains(c) {
				keep = false
				break
			}
		}
		if keep {
			out.Add(c)
		}
	}
	return out
}

// Filter returns the cases keep accepts
func (s *Suite) Filter(keep func(*Case) bool) *Suite {
	out := NewSuite()
	for _, c := range s.cases {
		if keep(c) {
			out.Add(c)
		}
	}
	return out
}

// Cases returns the cases in insertion order
func (s *Suite) Cases() []*Case {
	return s.cases
}

// Len returns the number of cases
func (s *Suite) Len() int {
	return len(s.cases)
}
