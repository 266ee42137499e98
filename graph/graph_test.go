package graph

import (
	"testing"

	"github.com/hdfgroup/hsds-an/cmn"
)

const (
	rootID = cmn.ObjID("0feed08c-3e75-11ea-b349-0242ac110002")
	groupA = cmn.ObjID("g-1feed08c-3e75-11ea-b349-0242ac110002")
	dsetX  = cmn.ObjID("d-2feed08c-3e75-11ea-b349-0242ac110002")
	chunk0 = dsetX + "/0_0"
	domain = cmn.ObjID("/home/test/d")
)

func newFixture(t *testing.T) *Graph {
	t.Helper()
	g := New()
	g.PutDomain(domain, Record{ETag: "de", Size: 10, LastModified: 1, Root: rootID}, true)
	g.PutObject(groupA, Record{ETag: "ga", Size: 20, LastModified: 1, Stat: StatKnown}, rootID, true)
	g.PutObject(dsetX, Record{ETag: "dx", Size: 30, LastModified: 1, Stat: StatKnown}, rootID, true)
	g.PutObject(chunk0, Record{ETag: "c0", Size: 40, LastModified: 1, Stat: StatKnown}, rootID, true)
	return g
}

func TestInvariantsAfterHydrate(t *testing.T) {
	g := newFixture(t)

	// I1: every UUID in a global kind index is also in s3keys, same record.
	group, ok := g.Lookup(groupA)
	if !ok {
		t.Fatal("group not indexed")
	}
	keyed, ok := g.LookupKey(cmn.KeyOf(groupA))
	if !ok || keyed != group {
		t.Error("I1 violated: group not identity-shared with s3keys")
	}

	// I2: bytes_in_bucket == sum of sizes.
	want := int64(10 + 20 + 30 + 40)
	if got := g.BytesInBucket(); got != want {
		t.Errorf("I2 violated: bytes_in_bucket = %d, want %d", got, want)
	}

	// I3: chunk appears in exactly its dataset's chunks map.
	dset, ok := g.Lookup(dsetX)
	if !ok {
		t.Fatal("dataset not indexed")
	}
	if _, ok := dset.Chunks[chunk0]; !ok {
		t.Error("I3 violated: chunk not present in its dataset's Chunks map")
	}

	// I4: domain's root exists in roots.
	dom, ok := g.LookupDomain(domain)
	if !ok {
		t.Fatal("domain not indexed")
	}
	if _, ok := g.LookupRoot(dom.Root); !ok {
		t.Error("I4 violated: domain root not present in roots index")
	}

	root, ok := g.LookupRoot(rootID)
	if !ok {
		t.Fatal("root not indexed")
	}
	if _, ok := root.Groups[groupA]; !ok {
		t.Error("group not attached to root's Groups collection")
	}
	if _, ok := root.Datasets[dsetX]; !ok {
		t.Error("dataset not attached to root's Datasets collection")
	}
}

func TestDeleteObjectMaintainsInvariants(t *testing.T) {
	g := newFixture(t)
	before := g.BytesInBucket()

	removed, ok := g.DeleteObject(groupA, rootID)
	if !ok {
		t.Fatal("DeleteObject reported not found")
	}
	if removed.Size != 20 {
		t.Errorf("removed record size = %d, want 20", removed.Size)
	}
	if got, want := g.BytesInBucket(), before-20; got != want {
		t.Errorf("I2 violated after delete: bytes_in_bucket = %d, want %d", got, want)
	}
	if _, ok := g.Lookup(groupA); ok {
		t.Error("deleted group still present in kind index")
	}
	if _, ok := g.LookupKey(cmn.KeyOf(groupA)); ok {
		t.Error("deleted group still present in s3keys")
	}
	root, _ := g.LookupRoot(rootID)
	if _, ok := root.Groups[groupA]; ok {
		t.Error("deleted group still present in root's Groups collection")
	}
}

func TestMarkingPlaceholderKeepsStatUnknown(t *testing.T) {
	g := New()
	root := g.EnsureRoot(rootID) // placeholder, StatUnknown
	if root.Stat != StatUnknown {
		t.Fatal("fresh placeholder should start StatUnknown")
	}
	g.SetUsed(root, true)
	if root.Stat == StatKnown {
		t.Error("placeholder must not become StatKnown just by being marked")
	}
}

func TestPutDomainPreservesRootUnlessWithRoot(t *testing.T) {
	g := New()
	g.PutDomain(domain, Record{Size: 1, Root: rootID}, true)
	// A stat-only refresh (withRoot=false) must not clobber the existing root.
	g.PutDomain(domain, Record{Size: 2}, false)
	dom, ok := g.LookupDomain(domain)
	if !ok {
		t.Fatal("domain missing after refresh")
	}
	if dom.Root != rootID {
		t.Errorf("root clobbered on refresh: got %q, want %q", dom.Root, rootID)
	}
	if dom.Size != 2 {
		t.Errorf("size not refreshed: got %d, want 2", dom.Size)
	}
}

func TestIdempotentRehydrate(t *testing.T) {
	g := newFixture(t)
	g.SetUsed(mustLookup(t, g, groupA), true)

	// A second hydrate of the same ids (e.g. a repeat List pass) must
	// preserve Used and the dataset's Chunks map.
	g.PutObject(groupA, Record{ETag: "ga", Size: 20, LastModified: 1, Stat: StatKnown}, rootID, true)
	g.PutObject(dsetX, Record{ETag: "dx", Size: 30, LastModified: 1, Stat: StatKnown}, rootID, true)

	group := mustLookup(t, g, groupA)
	if !group.Used {
		t.Error("idempotence violated: Used was cleared by a repeat hydrate")
	}
	dset := mustLookup(t, g, dsetX)
	if _, ok := dset.Chunks[chunk0]; !ok {
		t.Error("idempotence violated: Chunks map lost on repeat hydrate")
	}
}

func mustLookup(t *testing.T, g *Graph, id cmn.ObjID) *Record {
	t.Helper()
	r, ok := g.Lookup(id)
	if !ok {
		t.Fatalf("lookup %s: not found", id)
	}
	return r
}
