// Package catalog persists canonical complexes and their names so repeated runs name complexes the same way.
package catalog

import (
	"runtime"
	"sync"

	"github.com/2x3systems/peppercorn/libpepper"
	"github.com/2x3systems/peppercorn/pepper"
	"github.com/dgraph-io/badger/v4"
	"github.com/gogo/protobuf/proto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

/***

Catalog database format:

	gCatalogStateKey                       => State (protobuf)

	[strand count] (byte), kernel key      => record (protobuf)
	...

Strand counts start at 1, so the state key sorts before every complex and
a Seek on a strand count visits complexes grouped by size.

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
)

const (
	MajorVers = 2026
	MinorVers = 1
)

// Opts configures Open.
type Opts struct {
	DbPathName string // empty for an in-memory catalog
	ReadOnly   bool
}

// Entry is a persisted complex.
type Entry struct {
	Strands int
	Key     string // canonical kernel string
	Name    string
}

// Catalog is a badger-backed libpepper.ComplexStore.
//
// Complexes interned in this run are held in memory; names of complexes seen by any earlier run are reused.
type Catalog struct {
	mu         sync.Mutex
	ctx        *Context
	db         *badger.DB
	readOnly   bool
	state      State
	stateDirty bool

	names *libpepper.NameIssuer
	byKey map[string]*libpepper.Complex
	order []*libpepper.Complex
}

var _ libpepper.ComplexStore = (*Catalog)(nil)

// Open opens (or creates) a catalog and attaches it to ctx.
func Open(ctx *Context, opts Opts) (*Catalog, error) {
	if ctx == nil {
		return nil, errors.Wrap(pepper.ErrBadCatalogParam, "nil catalog context")
	}

	cat := &Catalog{
		ctx:      ctx,
		readOnly: opts.ReadOnly,
		byKey:    make(map[string]*libpepper.Complex),
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(pepper.ErrBadCatalogParam, "DbPathName must be specified for a read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrap(err, "opening catalog")
	}

	// Once the db is open, the catalog ctx is blocked until the catalog closes
	ctx.attach(cat)

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = !cat.readOnly
		cat.state = State{
			MajorVers: MajorVers,
			MinorVers: MinorVers,
		}
	}
	if err == nil && (cat.state.MajorVers != MajorVers || cat.state.MinorVers != MinorVers) {
		err = pepper.ErrCatalogVersion
	}
	if err == nil {
		err = cat.reserveNames()
	}
	if err != nil {
		cat.Close()
		return nil, err
	}

	klog.V(2).Infof("opened catalog %q with %d complexes", opts.DbPathName, cat.state.Complexes)
	return cat, nil
}

func (cat *Catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &cat.state)
		})
	})
}

func (cat *Catalog) flushState() error {
	if !cat.stateDirty || cat.readOnly {
		return nil
	}
	err := cat.db.Update(func(txn *badger.Txn) error {
		stateBuf, err := proto.Marshal(&cat.state)
		if err != nil {
			return err
		}
		return txn.Set(gCatalogStateKey, stateBuf)
	})
	if err == nil {
		cat.stateDirty = false
	}
	return err
}

// reserveNames seeds the name issuer with every persisted name.
func (cat *Catalog) reserveNames() error {
	cat.names = libpepper.NewNameIssuer(cat.state.NextName)
	return cat.visit(1, 0xFF, func(entry Entry) bool {
		cat.names.Reserve(entry.Name)
		return true
	})
}

func formKey(key []byte, X *libpepper.Complex) []byte {
	key = append(key, byte(X.Size()))
	return append(key, X.Key()...)
}

// Intern returns the run's complex equal to X, or adds X using its persisted name if an earlier run recorded it.
func (cat *Catalog) Intern(X *libpepper.Complex, name string) (*libpepper.Complex, bool) {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	if existing := cat.byKey[X.Key()]; existing != nil {
		return existing, false
	}

	dbKey := formKey(make([]byte, 0, 1+len(X.Key())), X)
	persisted := ""
	if cat.db == nil {
		cat.names.Assign(X, name)
		cat.byKey[X.Key()] = X
		cat.order = append(cat.order, X)
		return X, true
	}
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var rec record
			if err := proto.Unmarshal(val, &rec); err != nil {
				return err
			}
			persisted = rec.Name
			return nil
		})
	})

	switch {
	case err == nil:
		if name != "" && name != persisted {
			klog.V(1).Infof("complex %s is cataloged as %s; ignoring name %q", X.Key(), persisted, name)
		}
		cat.names.Claim(X, persisted)
	case err == badger.ErrKeyNotFound:
		cat.names.Assign(X, name)
		if !cat.readOnly {
			if err = cat.put(dbKey, X.Name()); err != nil {
				klog.Warningf("catalog: failed to persist %s: %v", X.Key(), err)
			}
		}
	default:
		klog.Warningf("catalog: lookup of %s failed: %v", X.Key(), err)
		cat.names.Assign(X, name)
	}

	cat.byKey[X.Key()] = X
	cat.order = append(cat.order, X)
	return X, true
}

func (cat *Catalog) put(dbKey []byte, name string) error {
	txn := cat.db.NewTransaction(true)
	defer txn.Discard()

	val, err := proto.Marshal(&record{Name: name})
	if err != nil {
		return err
	}
	if err = txn.Set(dbKey, val); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	cat.state.Complexes++
	cat.state.NextName = cat.names.Next()
	cat.stateDirty = true
	return nil
}

func (cat *Catalog) Lookup(key string) (*libpepper.Complex, bool) {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	X, ok := cat.byKey[key]
	return X, ok
}

func (cat *Catalog) Len() int {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	return len(cat.order)
}

func (cat *Catalog) Complexes() []*libpepper.Complex {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	return append([]*libpepper.Complex(nil), cat.order...)
}

// NumPersisted returns the number of complexes recorded by all runs.
func (cat *Catalog) NumPersisted() uint64 {
	return cat.state.Complexes
}

// State returns a copy of the catalog header.
func (cat *Catalog) State() State {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	return cat.state
}

// SetLastRun records the ID of the run using this catalog.
func (cat *Catalog) SetLastRun(runID uuid.UUID) {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	cat.state.LastRun = runID.String()
	cat.stateDirty = true
}

func (cat *Catalog) IsReadOnly() bool {
	return cat.readOnly
}

// Select sends every persisted complex with a strand count in [lo, hi] to onHit, grouped by strand count.
//
// Enumeration stops early if the catalog context starts closing.
func (cat *Catalog) Select(lo, hi int, onHit chan<- Entry) error {
	if lo < 1 {
		lo = 1
	}
	if hi > 0xFF {
		hi = 0xFF
	}
	if lo > hi {
		return nil
	}
	return cat.visit(byte(lo), byte(hi), func(entry Entry) bool {
		select {
		case onHit <- entry:
			return true
		case <-cat.ctx.Closing():
			return false
		}
	})
}

func (cat *Catalog) visit(lo, hi byte, onEntry func(entry Entry) bool) error {
	if cat.db == nil {
		return pepper.ErrCatalogClosed
	}
	txn := cat.db.NewTransaction(false)
	defer txn.Discard()

	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   300,
	})
	defer it.Close()

	minKey := [1]byte{lo}
	for it.Seek(minKey[:]); it.Valid(); it.Next() {
		item := it.Item()
		key := item.Key()
		if key[0] > hi {
			break
		}
		entry := Entry{
			Strands: int(key[0]),
			Key:     string(key[1:]),
		}
		err := item.Value(func(val []byte) error {
			var rec record
			if err := proto.Unmarshal(val, &rec); err != nil {
				return err
			}
			entry.Name = rec.Name
			return nil
		})
		if err != nil {
			return err
		}
		if !onEntry(entry) {
			break
		}
	}
	return nil
}

// Close flushes the catalog header and closes the db.
func (cat *Catalog) Close() error {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	if cat.db == nil {
		return nil
	}
	err := cat.flushState()
	if cerr := cat.db.Close(); err == nil {
		err = cerr
	}
	cat.db = nil
	cat.ctx.detach(cat)
	return err
}
