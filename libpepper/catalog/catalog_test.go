package catalog_test

import (
	"context"
	"testing"

	"github.com/2x3systems/peppercorn/libpepper"
	"github.com/2x3systems/peppercorn/libpepper/catalog"
	"github.com/2x3systems/peppercorn/libpepper/pil"
	"github.com/2x3systems/peppercorn/pepper"
	"github.com/dgraph-io/badger/v4"
	"github.com/gogo/protobuf/proto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kernels(t *testing.T) map[string]*libpepper.Complex {
	dt := libpepper.NewDomainTable()
	for _, name := range []string{"x", "y"} {
		_, err := dt.Define(name, 10)
		require.NoError(t, err)
	}
	out := make(map[string]*libpepper.Complex)
	for _, kernel := range []string{"x", "x*", "y", "x( + )"} {
		X, err := pil.ParseKernel(dt, kernel)
		require.NoError(t, err)
		out[kernel] = X
	}
	return out
}

func selectAll(t *testing.T, cat *catalog.Catalog, lo, hi int) []catalog.Entry {
	onHit := make(chan catalog.Entry, 16)
	require.NoError(t, cat.Select(lo, hi, onHit))
	close(onHit)
	var entries []catalog.Entry
	for entry := range onHit {
		entries = append(entries, entry)
	}
	return entries
}

func TestBasics(t *testing.T) {
	dir := t.TempDir()
	ctx := catalog.NewContext()
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()

	{
		cat, err := catalog.Open(ctx, catalog.Opts{DbPathName: dir})
		require.NoError(t, err)
		assert.False(t, cat.IsReadOnly())

		K := kernels(t)
		A, added := cat.Intern(K["x"], "A")
		require.True(t, added)
		assert.Equal(t, "A", A.Name())
		D, _ := cat.Intern(K["x( + )"], "")
		assert.Equal(t, "e0", D.Name())

		again, added := cat.Intern(kernels(t)["x"], "other")
		assert.False(t, added)
		assert.Same(t, A, again)
		assert.Equal(t, 2, cat.Len())

		runID := uuid.New()
		cat.SetLastRun(runID)
		assert.Equal(t, uint64(2), cat.NumPersisted())
		require.NoError(t, cat.Close())
	}

	// a second run sees the same names and continues the automatic names
	{
		cat, err := catalog.Open(ctx, catalog.Opts{DbPathName: dir})
		require.NoError(t, err)
		assert.Equal(t, 0, cat.Len())
		state := cat.State()
		assert.Equal(t, uint64(2), state.Complexes)
		assert.Equal(t, uint64(1), state.NextName)
		assert.NotEmpty(t, state.LastRun)

		K := kernels(t)
		D, added := cat.Intern(K["x( + )"], "")
		require.True(t, added)
		assert.Equal(t, "e0", D.Name())

		A, _ := cat.Intern(K["x"], "renamed")
		assert.Equal(t, "A", A.Name())

		// persisted names stay reserved
		Y, _ := cat.Intern(K["y"], "A")
		assert.Equal(t, "e1", Y.Name())

		found, ok := cat.Lookup(K["x( + )"].Key())
		require.True(t, ok)
		assert.Same(t, D, found)
		require.NoError(t, cat.Close())
	}

	{
		cat, err := catalog.Open(ctx, catalog.Opts{DbPathName: dir, ReadOnly: true})
		require.NoError(t, err)
		assert.Len(t, selectAll(t, cat, 1, 255), 3)

		singles := selectAll(t, cat, 1, 1)
		require.Len(t, singles, 2)
		names := []string{singles[0].Name, singles[1].Name}
		assert.ElementsMatch(t, []string{"A", "e1"}, names)

		doubles := selectAll(t, cat, 2, 2)
		require.Len(t, doubles, 1)
		assert.Equal(t, catalog.Entry{Strands: 2, Key: "x( + )", Name: "e0"}, doubles[0])

		// nothing new is persisted by a read-only catalog
		X, added := cat.Intern(kernels(t)["x*"], "")
		assert.True(t, added)
		assert.Equal(t, "e2", X.Name())
		assert.Equal(t, uint64(3), cat.NumPersisted())
		require.NoError(t, cat.Close())
	}
}

func TestEnumerateWithCatalog(t *testing.T) {
	dir := t.TempDir()
	ctx := catalog.NewContext()
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()

	run := func(reverse bool) map[string]string {
		cat, err := catalog.Open(ctx, catalog.Opts{DbPathName: dir})
		require.NoError(t, err)
		defer cat.Close()

		K := kernels(t)
		en, err := libpepper.NewEnumerator(cat, pepper.DefaultEnumOpts(), nil)
		require.NoError(t, err)
		seeds := []*libpepper.Complex{K["x*"], K["x"]}
		if reverse {
			seeds[0], seeds[1] = seeds[1], seeds[0]
		}
		for _, X := range seeds {
			en.AddSeed(X, "")
		}
		net, err := en.Enumerate(context.Background())
		require.NoError(t, err)
		cat.SetLastRun(net.RunID)

		names := make(map[string]string)
		for _, X := range net.Complexes {
			names[X.Key()] = X.Name()
		}
		return names
	}

	first := run(false)
	require.Len(t, first, 3)
	assert.Equal(t, "e0", first["x*"])
	assert.Equal(t, first, run(true))
}

func TestOpenErrors(t *testing.T) {
	ctx := catalog.NewContext()
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()

	_, err := catalog.Open(nil, catalog.Opts{})
	assert.True(t, errors.Is(err, pepper.ErrBadCatalogParam))

	_, err = catalog.Open(ctx, catalog.Opts{ReadOnly: true})
	assert.True(t, errors.Is(err, pepper.ErrBadCatalogParam))

	// in-memory catalogs behave like a MemStore
	mem, err := catalog.Open(ctx, catalog.Opts{})
	require.NoError(t, err)
	X, _ := mem.Intern(kernels(t)["x"], "")
	assert.Equal(t, "e0", X.Name())
	require.NoError(t, mem.Close())
	err = mem.Select(1, 255, make(chan catalog.Entry))
	assert.Equal(t, pepper.ErrCatalogClosed, err)

	// a catalog written by an incompatible version is refused
	dir := t.TempDir()
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	require.NoError(t, err)
	stateBuf, err := proto.Marshal(&catalog.State{MajorVers: 1})
	require.NoError(t, err)
	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte{0x00, 0x00, 0x01}, stateBuf)
	}))
	require.NoError(t, db.Close())

	_, err = catalog.Open(ctx, catalog.Opts{DbPathName: dir})
	assert.Equal(t, pepper.ErrCatalogVersion, err)
}

func TestStateEncoding(t *testing.T) {
	dir := t.TempDir()
	ctx := catalog.NewContext()
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()

	runID := uuid.New()
	cat, err := catalog.Open(ctx, catalog.Opts{DbPathName: dir})
	require.NoError(t, err)
	cat.Intern(kernels(t)["y"], "")
	cat.SetLastRun(runID)
	require.NoError(t, cat.Close())

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	require.NoError(t, err)
	defer db.Close()

	var state catalog.State
	require.NoError(t, db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte{0x00, 0x00, 0x01})
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &state)
		})
	}))
	assert.Equal(t, catalog.State{
		MajorVers: catalog.MajorVers,
		MinorVers: catalog.MinorVers,
		NextName:  1,
		Complexes: 1,
		LastRun:   runID.String(),
	}, state)
	assert.Contains(t, state.String(), "major_vers:2026")
}
