package space

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hdfgroup/hsds-an/cmn"
	"github.com/hdfgroup/hsds-an/graph"
	"github.com/hdfgroup/hsds-an/objstore"
)

const (
	rootID = cmn.ObjID("0feed08c-3e75-11ea-b349-0242ac110002")
	groupA = cmn.ObjID("g-1feed08c-3e75-11ea-b349-0242ac110002")
	dsetX  = cmn.ObjID("d-2feed08c-3e75-11ea-b349-0242ac110002")
	chunk0 = dsetX + "/0_0"
	domain = cmn.ObjID("/home/test/d")
)

// newFixture builds a graph with one active domain->root, a reachable
// group, and a dataset carrying one chunk. dsetUsed controls whether the
// dataset is left marked reachable (simulating a live Marker pass) or
// unreachable (simulating the "dataset unlinked from its root" scenario).
func newFixture(t *testing.T, dsetUsed bool, lastModified int64) *graph.Graph {
	t.Helper()
	g := graph.New()
	g.PutDomain(domain, graph.Record{Size: 1, Root: rootID}, true)
	g.PutObject(groupA, graph.Record{ETag: "ga", Size: 20, LastModified: lastModified, Stat: graph.StatKnown}, rootID, true)
	g.PutObject(dsetX, graph.Record{ETag: "dx", Size: 30, LastModified: lastModified, Stat: graph.StatKnown}, rootID, true)
	require.NoError(t, g.PutChunk(chunk0, graph.Record{ETag: "c0", Size: 40, LastModified: lastModified, Stat: graph.StatKnown}, true))

	root, ok := g.LookupRoot(rootID)
	require.True(t, ok, "root not indexed")
	g.SetUsed(root, true)
	group, _ := g.Lookup(groupA)
	g.SetUsed(group, true)
	dset, _ := g.Lookup(dsetX)
	g.SetUsed(dset, dsetUsed)
	return g
}

func newSweeper(dn *objstore.MemClient, ttl time.Duration, now time.Time) *Sweeper {
	s := NewSweeper(dn, "http://dn1", ttl)
	s.Now = func() time.Time { return now }
	return s
}

func TestSweepRemovesUnlinkedDatasetAndChunks(t *testing.T) {
	past := int64(1000)
	g := newFixture(t, false, past) // dataset unreachable: Used=false
	dn := objstore.NewMemClient()
	s := newSweeper(dn, 0, time.Unix(past+1, 0)) // ttl=0: age never blocks

	s.Sweep(context.Background(), g)

	_, ok := g.Lookup(dsetX)
	require.False(t, ok, "unreachable dataset should have been swept")
	_, ok = g.Lookup(chunk0)
	require.False(t, ok, "chunk of swept dataset should have been swept")
	root, _ := g.LookupRoot(rootID)
	_, ok = root.Datasets[dsetX]
	require.False(t, ok, "dataset still present in root's Datasets collection")

	deletes := dn.Deletes()
	require.Len(t, deletes, 2, "one delete per chunk and dataset")
	// Ordering guarantee: the chunk is deleted before its dataset.
	require.Equal(t, string(chunk0), deletes[0].ObjID)
	require.Equal(t, string(dsetX), deletes[1].ObjID)
	require.Equal(t, "chunks", deletes[0].Collection)
	require.Equal(t, "datasets", deletes[1].Collection)

	// Reachable group and root survive.
	_, ok = g.Lookup(groupA)
	require.True(t, ok, "reachable group should not have been swept")
	_, ok = g.LookupRoot(rootID)
	require.True(t, ok, "active root should not have been swept")
}

func TestSweepSkipsWithinTTL(t *testing.T) {
	now := int64(1_000_000)
	g := newFixture(t, false, now) // dataset unreachable, but just modified
	dn := objstore.NewMemClient()
	s := newSweeper(dn, time.Hour, time.Unix(now, 0))

	s.Sweep(context.Background(), g)

	if _, ok := g.Lookup(dsetX); !ok {
		t.Error("dataset within TTL should not have been swept")
	}
	if _, ok := g.Lookup(chunk0); !ok {
		t.Error("chunk within TTL should not have been swept")
	}
	if got := len(dn.Deletes()); got != 0 {
		t.Errorf("DN deletes = %d, want 0", got)
	}
}

func TestSweepLeavesReachableDatasetAlone(t *testing.T) {
	g := newFixture(t, true, 0) // dataset reachable
	dn := objstore.NewMemClient()
	s := newSweeper(dn, 0, time.Unix(1<<30, 0)) // far in the future; ttl irrelevant if Used

	s.Sweep(context.Background(), g)

	if _, ok := g.Lookup(dsetX); !ok {
		t.Error("reachable dataset must not be swept regardless of age")
	}
	if got := len(dn.Deletes()); got != 0 {
		t.Errorf("DN deletes = %d, want 0", got)
	}
}

func TestSweepNeverDeletesUnknownStat(t *testing.T) {
	g := graph.New()
	// A placeholder inserted by an orphan reference, never confirmed by a
	// Stat call, must never be treated as a delete candidate even when
	// force=true and long past any TTL.
	g.PutDomain(domain, graph.Record{Size: 1, Root: rootID}, true)
	root := g.EnsureRoot(rootID)
	placeholder := g.AttachToRoot(root, groupA)
	if placeholder.Stat != graph.StatUnknown {
		t.Fatal("fresh placeholder should start StatUnknown")
	}

	dn := objstore.NewMemClient()
	s := newSweeper(dn, 0, time.Unix(1<<30, 0))
	s.Sweep(context.Background(), g)

	if _, ok := g.Lookup(groupA); !ok {
		t.Error("StatUnknown placeholder must survive a sweep")
	}
	if got := len(dn.Deletes()); got != 0 {
		t.Errorf("DN deletes = %d, want 0", got)
	}
}

func TestSweepCascadesOrphanRoot(t *testing.T) {
	g := graph.New()
	// No domain points at this root: it is orphaned and force-swept in its
	// entirety, including the root record itself.
	g.PutObject(groupA, graph.Record{ETag: "ga", Size: 20, LastModified: 0, Stat: graph.StatKnown}, rootID, true)
	root := g.EnsureRoot(rootID)
	root.Stat = graph.StatKnown

	dn := objstore.NewMemClient()
	s := newSweeper(dn, time.Hour, time.Unix(0, 0)) // ttl irrelevant: orphan cascade forces

	s.Sweep(context.Background(), g)

	if _, ok := g.Lookup(groupA); ok {
		t.Error("orphan root's group should have been force-swept")
	}
	if _, ok := g.LookupRoot(rootID); ok {
		t.Error("orphan root itself should have been removed")
	}

	deletes := dn.Deletes()
	if len(deletes) != 2 {
		t.Fatalf("DN deletes = %d, want 2 (group then root)", len(deletes))
	}
}

func TestDeleteRootForcesImmediateCascade(t *testing.T) {
	g := graph.New()
	g.PutObject(groupA, graph.Record{ETag: "ga", Size: 20, LastModified: 0, Stat: graph.StatKnown}, rootID, true)
	root := g.EnsureRoot(rootID)
	root.Stat = graph.StatKnown
	g.SetUsed(root, true) // even Used=true must not save it: caller already knows it's gone

	dn := objstore.NewMemClient()
	s := newSweeper(dn, time.Hour, time.Unix(0, 0))
	s.DeleteRoot(context.Background(), g, rootID)

	if _, ok := g.LookupRoot(rootID); ok {
		t.Error("DeleteRoot should remove the root record")
	}
	if got := len(dn.Deletes()); got != 2 {
		t.Errorf("DN deletes = %d, want 2", got)
	}
}
