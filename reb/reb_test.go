package reb

import (
	"context"
	"testing"

	"github.com/hdfgroup/hsds-an/cmn"
	"github.com/hdfgroup/hsds-an/graph"
	"github.com/hdfgroup/hsds-an/objstore"
)

func seedBucket(t *testing.T) *objstore.MemClient {
	t.Helper()
	mc := objstore.NewMemClient()

	rootID := "0feed08c-3e75-11ea-b349-0242ac110002"
	groupA := cmn.ObjID("g-1feed08c-3e75-11ea-b349-0242ac110002")
	dsetX := cmn.ObjID("d-2feed08c-3e75-11ea-b349-0242ac110002")
	chunk0 := dsetX + "/0_0"

	mc.PutObject("home/test/d", []byte(`{"root":"`+rootID+`"}`), objstore.Stats{ETag: "de", Size: 10, LastModified: 1})
	mc.PutObject(cmn.KeyOf(groupA), []byte("{}"), objstore.Stats{ETag: "ga", Size: 20, LastModified: 1})
	mc.PutObject(cmn.KeyOf(dsetX), []byte("{}"), objstore.Stats{ETag: "dx", Size: 30, LastModified: 1})
	mc.PutObject(cmn.KeyOf(chunk0), []byte("{}"), objstore.Stats{ETag: "c0", Size: 40, LastModified: 1})
	mc.PutObject(cmn.KeyOf(cmn.ObjID(rootID)), []byte(`{"groups":["`+string(groupA)+`"],"datasets":["`+string(dsetX)+`"],"datatypes":[]}`), objstore.Stats{ETag: "re", Size: 0, LastModified: 1})

	return mc
}

func TestListHydratesEveryKey(t *testing.T) {
	mc := seedBucket(t)
	g := graph.New()
	l := NewLister(mc)

	if err := l.List(context.Background(), g); err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(g.Domains()) != 1 {
		t.Fatalf("domains = %d, want 1", len(g.Domains()))
	}
	if len(g.Groups()) != 1 {
		t.Errorf("groups = %d, want 1", len(g.Groups()))
	}
	if len(g.Datasets()) != 1 {
		t.Errorf("datasets = %d, want 1", len(g.Datasets()))
	}
}

func TestListThenMarkReachesEverything(t *testing.T) {
	mc := seedBucket(t)
	g := graph.New()
	l := NewLister(mc)
	m := NewMarker(mc, true)

	ctx := context.Background()
	if err := l.List(ctx, g); err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := m.Mark(ctx, g); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	for _, id := range g.Groups() {
		rec, _ := g.Lookup(id)
		if !rec.Used {
			t.Errorf("group %s not marked used", id)
		}
	}
	for _, id := range g.Datasets() {
		rec, _ := g.Lookup(id)
		if !rec.Used {
			t.Errorf("dataset %s not marked used", id)
		}
		for cid, crec := range rec.Chunks {
			if !crec.Used {
				t.Errorf("chunk %s not marked used", cid)
			}
		}
	}
}

func TestListIsIdempotentOnSecondPass(t *testing.T) {
	mc := seedBucket(t)
	g := graph.New()
	l := NewLister(mc)
	m := NewMarker(mc, true)
	ctx := context.Background()

	if err := l.List(ctx, g); err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := m.Mark(ctx, g); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	before := g.Stats(0)

	// A second full scan with no intervening events must produce an
	// identical graph (idempotence).
	if err := l.List(ctx, g); err != nil {
		t.Fatalf("second List: %v", err)
	}
	if err := m.Mark(ctx, g); err != nil {
		t.Fatalf("second Mark: %v", err)
	}
	after := g.Stats(0)

	if before != after {
		t.Errorf("idempotence violated: before=%+v after=%+v", before, after)
	}
}

func TestMarkPrunesDatasetUnlinkedFromRoot(t *testing.T) {
	mc := seedBucket(t)
	g := graph.New()
	l := NewLister(mc)
	m := NewMarker(mc, true)
	ctx := context.Background()

	rootID := cmn.ObjID("0feed08c-3e75-11ea-b349-0242ac110002")
	groupA := cmn.ObjID("g-1feed08c-3e75-11ea-b349-0242ac110002")
	dsetX := cmn.ObjID("d-2feed08c-3e75-11ea-b349-0242ac110002")

	if err := l.List(ctx, g); err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := m.Mark(ctx, g); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	dset, ok := g.Lookup(dsetX)
	if !ok || !dset.Used {
		t.Fatal("dataset should be reachable and used after the first pass")
	}
	root, _ := g.LookupRoot(rootID)
	if _, ok := root.Datasets[dsetX]; !ok {
		t.Fatal("dataset should be attached to root after the first pass")
	}

	// The root's link document is rewritten without dsetX: it has been
	// unlinked from the root, but the object itself is untouched.
	mc.PutObject(cmn.KeyOf(rootID), []byte(`{"groups":["`+string(groupA)+`"],"datasets":[],"datatypes":[]}`), objstore.Stats{ETag: "re2", Size: 0, LastModified: 2})

	if err := l.List(ctx, g); err != nil {
		t.Fatalf("second List: %v", err)
	}
	if err := m.Mark(ctx, g); err != nil {
		t.Fatalf("second Mark: %v", err)
	}

	root, _ = g.LookupRoot(rootID)
	if _, ok := root.Datasets[dsetX]; ok {
		t.Error("dataset still present in root's Datasets collection after being unlinked")
	}
	dset, ok = g.Lookup(dsetX)
	if !ok {
		t.Fatal("unlinked dataset should remain in the global index")
	}
	if dset.Used {
		t.Error("unlinked dataset must not still be marked used")
	}
}
