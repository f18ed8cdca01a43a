package libpepper

import (
	"strings"
)

// Strand is an immutable 5' to 3' sequence of domains.
type Strand struct {
	domains []*Domain
	key     string
	nt      int
}

func NewStrand(domains ...*Domain) *Strand {
	s := &Strand{
		domains: append([]*Domain(nil), domains...),
	}
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = d.name
		s.nt += d.length
	}
	s.key = strings.Join(names, " ")
	return s
}

// Len returns the number of domains.
func (s *Strand) Len() int {
	return len(s.domains)
}

// NT returns the strand length in nt.
func (s *Strand) NT() int {
	return s.nt
}

// Domain returns the i-th domain (5' first).
func (s *Strand) Domain(i int) *Domain {
	return s.domains[i]
}

// Domains returns a copy of the domain sequence.
func (s *Strand) Domains() []*Domain {
	return append([]*Domain(nil), s.domains...)
}

// Key identifies a strand by its domain sequence.
func (s *Strand) Key() string {
	return s.key
}

func (s *Strand) String() string {
	return s.key
}
