package libpepper

import (
	"sort"
	"strings"
	"sync"

	"github.com/2x3systems/peppercorn/pepper"
	"github.com/maruel/natural"
	"github.com/pkg/errors"
)

// Domain is a named nucleotide sequence unit; x and x* are complements of each other.
type Domain struct {
	name       string
	length     int
	complement bool
	id         int // shared by a domain and its complement
	comp       *Domain
}

// Name returns the domain name, including a trailing '*' for complements.
func (d *Domain) Name() string {
	return d.name
}

func (d *Domain) String() string {
	return d.name
}

// Len returns the domain length in nt.
func (d *Domain) Len() int {
	return d.length
}

// IsComplement returns true for the starred orientation.
func (d *Domain) IsComplement() bool {
	return d.complement
}

// Complement returns the complementary domain.
func (d *Domain) Complement() *Domain {
	return d.comp
}

// Identity returns the unstarred name.
func (d *Domain) Identity() string {
	if d.complement {
		return d.comp.name
	}
	return d.name
}

// Pairs returns true if d and other are complementary.
func (d *Domain) Pairs(other *Domain) bool {
	return d.comp == other
}

// DomainTable interns domains by name for the lifetime of a run.
type DomainTable struct {
	mu     sync.Mutex
	byName map[string]*Domain
	order  []*Domain // unstarred domains in definition order
}

func NewDomainTable() *DomainTable {
	return &DomainTable{
		byName: make(map[string]*Domain),
	}
}

func validDomainName(name string) bool {
	if name == "" || strings.ContainsAny(name, "*()+ \t\r\n#@=") {
		return false
	}
	return true
}

// Define adds the domain name (and its complement name*) with the given length.
// Defining an existing domain with the same length returns the existing domain.
func (dt *DomainTable) Define(name string, length int) (*Domain, error) {
	starred := strings.HasSuffix(name, "*")
	base := strings.TrimSuffix(name, "*")
	if !validDomainName(base) {
		return nil, errors.Wrapf(pepper.ErrBadDomain, "invalid domain name %q", name)
	}
	if length <= 0 {
		return nil, errors.Wrapf(pepper.ErrBadDomain, "domain %q must have a positive length", name)
	}

	dt.mu.Lock()
	defer dt.mu.Unlock()

	d := dt.byName[base]
	if d != nil {
		if d.length != length {
			return nil, errors.Wrapf(pepper.ErrDomainRedefined, "domain %q: %d vs %d", base, d.length, length)
		}
	} else {
		d = &Domain{
			name:   base,
			length: length,
			id:     len(dt.order),
		}
		d.comp = &Domain{
			name:       base + "*",
			length:     length,
			complement: true,
			id:         d.id,
			comp:       d,
		}
		dt.byName[d.name] = d
		dt.byName[d.comp.name] = d.comp
		dt.order = append(dt.order, d)
	}

	if starred {
		return d.comp, nil
	}
	return d, nil
}

// Lookup returns the domain (possibly starred) with the given name.
func (dt *DomainTable) Lookup(name string) (*Domain, bool) {
	dt.mu.Lock()
	d, ok := dt.byName[name]
	dt.mu.Unlock()
	return d, ok
}

// Resolve is Lookup that returns pepper.ErrUnknownDomain for undefined names.
func (dt *DomainTable) Resolve(name string) (*Domain, error) {
	d, ok := dt.Lookup(name)
	if !ok {
		return nil, errors.Wrapf(pepper.ErrUnknownDomain, "%q", name)
	}
	return d, nil
}

// Domains returns the unstarred domains in definition order.
func (dt *DomainTable) Domains() []*Domain {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	return append([]*Domain(nil), dt.order...)
}

// SortedDomains returns the unstarred domains in natural name order.
func (dt *DomainTable) SortedDomains() []*Domain {
	doms := dt.Domains()
	sort.SliceStable(doms, func(i, j int) bool {
		return natural.Less(doms[i].name, doms[j].name)
	})
	return doms
}
