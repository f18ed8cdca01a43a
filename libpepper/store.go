package libpepper

import (
	"fmt"
	"hash/maphash"
	"sync"

	"github.com/plan-systems/klog"
)

// ComplexStore is the run-scoped canonical complex table.
//
// Intern is an atomic compare-and-insert: two callers interning equal complexes resolve to one object.
type ComplexStore interface {

	// Intern returns the stored complex equal to X, adding X if no equal complex is present.
	//
	// If X is added, it is assigned the given name ("" for an automatic name) and added is true.
	Intern(X *Complex, name string) (canon *Complex, added bool)

	// Lookup returns the stored complex with the given canonical key.
	Lookup(key string) (*Complex, bool)

	// Len returns the number of stored complexes.
	Len() int

	// Complexes returns the stored complexes in insertion order.
	Complexes() []*Complex
}

// AutoNamePrefix prefixes automatically assigned complex names.
const AutoNamePrefix = "e"

// nameIssuer hands out automatic names that do not collide with names already taken.
type nameIssuer struct {
	next  uint64
	taken map[string]*Complex
}

func (ni *nameIssuer) init() {
	ni.taken = make(map[string]*Complex)
}

func (ni *nameIssuer) assign(X *Complex, name string) {
	if name != "" {
		if prev := ni.taken[name]; prev != nil && prev != X {
			klog.Warningf("complex name %q is already used by %s; assigning an automatic name", name, prev.key)
			name = ""
		}
	}
	for name == "" {
		candidate := fmt.Sprintf("%s%d", AutoNamePrefix, ni.next)
		ni.next++
		if ni.taken[candidate] == nil {
			name = candidate
		}
	}
	X.name = name
	ni.taken[name] = X
}

// MemStore is an in-memory ComplexStore keyed by a maphash of the canonical key.
type MemStore struct {
	mu     sync.Mutex
	seed   maphash.Seed
	byHash map[uint64]*Complex
	order  []*Complex
	names  nameIssuer
}

func NewMemStore() *MemStore {
	st := &MemStore{
		seed:   maphash.MakeSeed(),
		byHash: make(map[uint64]*Complex),
	}
	st.names.init()
	return st
}

// find returns the slot holding key, or the empty slot where it would go.
func (st *MemStore) find(key string) (uint64, *Complex) {
	hash := maphash.String(st.seed, key)
	existing, found := st.byHash[hash]
	for found {
		if existing.key == key {
			return hash, existing
		}
		hash++
		existing, found = st.byHash[hash]
	}
	return hash, nil
}

func (st *MemStore) Intern(X *Complex, name string) (*Complex, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	hash, existing := st.find(X.key)
	if existing != nil {
		return existing, false
	}
	st.names.assign(X, name)
	st.byHash[hash] = X
	st.order = append(st.order, X)
	return X, true
}

func (st *MemStore) Lookup(key string) (*Complex, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	_, existing := st.find(key)
	return existing, existing != nil
}

func (st *MemStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.order)
}

func (st *MemStore) Complexes() []*Complex {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]*Complex(nil), st.order...)
}

// NameIssuer assigns collision-free names; it is not safe for concurrent use.
type NameIssuer struct {
	nameIssuer
}

func NewNameIssuer(next uint64) *NameIssuer {
	ni := &NameIssuer{}
	ni.init()
	ni.next = next
	return ni
}

// Assign names X, using name if it is free and an automatic name otherwise.
func (ni *NameIssuer) Assign(X *Complex, name string) {
	ni.assign(X, name)
}

// reserved holds names taken by complexes not (yet) seen in this run.
var reserved = &Complex{}

// Reserve marks name as taken so automatic and requested names avoid it.
func (ni *NameIssuer) Reserve(name string) {
	if ni.taken[name] == nil {
		ni.taken[name] = reserved
	}
}

// Claim names X unconditionally, e.g. with a name persisted by an earlier run.
func (ni *NameIssuer) Claim(X *Complex, name string) {
	X.name = name
	ni.taken[name] = X
}

// Next returns the counter of the next automatic name.
func (ni *NameIssuer) Next() uint64 {
	return ni.next
}

// Taken returns true if name is in use.
func (ni *NameIssuer) Taken(name string) bool {
	return ni.taken[name] != nil
}
