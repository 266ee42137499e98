// Package space implements the Sweeper: deletion of unreachable
// objects subject to a minimum-age TTL. The name and the cleanup-jogger
// shape are borrowed from the modern AIStore "space" package (garbage
// collection / eviction), generalized here from mountpath disk cleanup to
// bucket-object cleanup.
package space

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/hdfgroup/hsds-an/cmn"
	"github.com/hdfgroup/hsds-an/graph"
	"github.com/hdfgroup/hsds-an/objstore"
)

// Outcome is the per-object result of a sweepObj call.
type Outcome int

const (
	Deleted Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Sweeper holds the DN client and TTL the sweep pass needs. Now is
// overridable in tests so the TTL check is deterministic.
type Sweeper struct {
	DN           objstore.DNClient
	DNURL        string
	AnonymousTTL time.Duration
	Now          func() time.Time
}

// NewSweeper returns a Sweeper that deletes via dn, addressed at dnURL,
// honoring ttl before a non-force sweep.
func NewSweeper(dn objstore.DNClient, dnURL string, ttl time.Duration) *Sweeper {
	return &Sweeper{DN: dn, DNURL: dnURL, AnonymousTTL: ttl, Now: time.Now}
}

// Sweep performs one pass over the graph's global datasets/datatypes/
// groups indexes (chunks within a swept dataset first), deleting anything
// both unreachable (Used == false) and past the TTL. Membership in an
// orphaned root (one no domain points at any more) forces immediate
// deletion regardless of Used/TTL, and once an orphaned root's own
// children are all gone the root record itself is removed too. The root
// collections are consulted only to resolve force/ordering and to keep
// them in sync as records are removed — the records to visit always come
// from the global index, per the original's bucket-wide sweepObjs.
func (s *Sweeper) Sweep(ctx context.Context, g *graph.Graph) {
	activeRoots := make(map[cmn.ObjID]bool)
	for _, d := range g.Domains() {
		if dom, ok := g.LookupDomain(d); ok && dom.Root != "" {
			activeRoots[dom.Root] = true
		}
	}

	// reverseRoot maps a group/dataset/datatype id to the root it is
	// currently attached to, if any — an id with no entry here was
	// inserted straight into the global index without ever being linked
	// to a root (e.g. a PUT event the Applier couldn't yet resolve a
	// domain for) and is swept on Used/TTL alone, never forced.
	reverseRoot := make(map[cmn.ObjID]cmn.ObjID)
	for _, rootID := range g.Roots() {
		root, ok := g.LookupRoot(rootID)
		if !ok {
			continue
		}
		for id := range root.Groups {
			reverseRoot[id] = rootID
		}
		for id := range root.Datasets {
			reverseRoot[id] = rootID
		}
		for id := range root.Datatypes {
			reverseRoot[id] = rootID
		}
	}
	forceOf := func(id cmn.ObjID) bool {
		rootID, ok := reverseRoot[id]
		return ok && !activeRoots[rootID]
	}
	detach := func(id cmn.ObjID, kind cmn.Kind) {
		rootID, ok := reverseRoot[id]
		if !ok {
			return
		}
		root, ok := g.LookupRoot(rootID)
		if !ok {
			return
		}
		switch kind {
		case cmn.KindGroup:
			delete(root.Groups, id)
		case cmn.KindDataset:
			delete(root.Datasets, id)
		case cmn.KindDatatype:
			delete(root.Datatypes, id)
		}
	}

	s.sweepDatasets(ctx, g, g.Datasets(), forceOf, detach)
	s.sweepKind(ctx, g, g.Datatypes(), cmn.KindDatatype, forceOf, detach)
	s.sweepKind(ctx, g, g.Groups(), cmn.KindGroup, forceOf, detach)

	for _, rootID := range g.Roots() {
		if activeRoots[rootID] {
			continue
		}
		root, ok := g.LookupRoot(rootID)
		if !ok {
			continue
		}
		if len(root.Groups) > 0 || len(root.Datasets) > 0 || len(root.Datatypes) > 0 {
			continue // children remain (TTL'd or failed); root survives until the next pass
		}
		if outcome, err := s.sweepObj(ctx, g, root, true); err != nil {
			glog.Warningf("space: root %s delete failed: %v", rootID, err)
		} else if outcome == Deleted {
			g.RemoveRoot(rootID)
		}
	}
}

// DeleteRoot force-sweeps a single root's entire subtree immediately —
// used by callers that already know a root is gone (e.g. an explicit admin
// cascade) rather than waiting for the next full Sweep to notice the
// orphan.
func (s *Sweeper) DeleteRoot(ctx context.Context, g *graph.Graph, rootID cmn.ObjID) {
	root, ok := g.LookupRoot(rootID)
	if !ok {
		return
	}
	s.sweepRootDatasets(ctx, g, root, true)
	s.sweepKindMap(ctx, g, root.Datatypes, true)
	s.sweepKindMap(ctx, g, root.Groups, true)
	if outcome, err := s.sweepObj(ctx, g, root, true); err != nil {
		glog.Warningf("space: root %s delete failed: %v", rootID, err)
	} else if outcome == Deleted {
		g.RemoveRoot(rootID)
	}
}

// sweepDatasets visits every dataset in the graph's global index (chunks
// within each one first), the periodic Sweep's entry point. forceOf
// reports whether id's owning root (if any) is orphaned; detach removes a
// swept id from its owning root's collection, keeping that cache
// consistent with the global index it mirrors.
func (s *Sweeper) sweepDatasets(ctx context.Context, g *graph.Graph, ids []cmn.ObjID, forceOf func(cmn.ObjID) bool, detach func(cmn.ObjID, cmn.Kind)) {
	for _, dsetID := range ids {
		dset, ok := g.Lookup(dsetID)
		if !ok {
			continue
		}
		force := forceOf(dsetID)
		if !force && dset.Used {
			continue
		}
		// Ordering guarantee: chunks are swept only after the dataset has
		// been observed unlinked (we are already inside that branch).
		for chunkID, chunk := range dset.Chunks {
			outcome, err := s.sweepObj(ctx, g, chunk, force)
			if err != nil {
				glog.Warningf("space: chunk %s: %v", chunk.ID, err)
				continue
			}
			if outcome == Deleted {
				delete(dset.Chunks, chunkID)
			}
		}
		if len(dset.Chunks) > 0 {
			// Chunks remain (skipped by TTL or failed delete); the
			// dataset record itself is not removed from the graph until
			// its DN delete succeeds, per the ordering guarantee.
			continue
		}
		outcome, err := s.sweepObj(ctx, g, dset, force)
		if err != nil {
			glog.Warningf("space: dataset %s: %v", dset.ID, err)
			continue
		}
		if outcome == Deleted {
			detach(dsetID, cmn.KindDataset)
		}
	}
}

// sweepKind visits every id of one kind (groups or datatypes) in the
// graph's global index — the periodic Sweep's counterpart to
// sweepDatasets for the two kinds that carry no children of their own.
func (s *Sweeper) sweepKind(ctx context.Context, g *graph.Graph, ids []cmn.ObjID, kind cmn.Kind, forceOf func(cmn.ObjID) bool, detach func(cmn.ObjID, cmn.Kind)) {
	for _, id := range ids {
		rec, ok := g.Lookup(id)
		if !ok {
			continue
		}
		force := forceOf(id)
		if !force && rec.Used {
			continue
		}
		outcome, err := s.sweepObj(ctx, g, rec, force)
		if err != nil {
			glog.Warningf("space: %s: %v", rec.ID, err)
			continue
		}
		if outcome == Deleted {
			detach(id, kind)
		}
	}
}

// sweepRootDatasets is sweepDatasets' counterpart for DeleteRoot, which
// already knows the one root being torn down and walks its own Datasets
// collection directly rather than the global index.
func (s *Sweeper) sweepRootDatasets(ctx context.Context, g *graph.Graph, root *graph.Record, force bool) {
	for dsetID, dset := range root.Datasets {
		if !force && dset.Used {
			continue
		}
		for chunkID, chunk := range dset.Chunks {
			outcome, err := s.sweepObj(ctx, g, chunk, force)
			if err != nil {
				glog.Warningf("space: chunk %s: %v", chunk.ID, err)
				continue
			}
			if outcome == Deleted {
				delete(dset.Chunks, chunkID)
			}
		}
		if len(dset.Chunks) > 0 {
			continue
		}
		outcome, err := s.sweepObj(ctx, g, dset, force)
		if err != nil {
			glog.Warningf("space: dataset %s: %v", dset.ID, err)
			continue
		}
		if outcome == Deleted {
			delete(root.Datasets, dsetID)
		}
	}
}

func (s *Sweeper) sweepKindMap(ctx context.Context, g *graph.Graph, col map[cmn.ObjID]*graph.Record, force bool) {
	for id, rec := range col {
		if !force && rec.Used {
			continue
		}
		outcome, err := s.sweepObj(ctx, g, rec, force)
		if err != nil {
			glog.Warningf("space: %s: %v", rec.ID, err)
			continue
		}
		if outcome == Deleted {
			delete(col, id)
		}
	}
}

// sweepObj is the core primitive: TTL-check, DN delete, graph removal.
func (s *Sweeper) sweepObj(ctx context.Context, g *graph.Graph, rec *graph.Record, force bool) (Outcome, error) {
	if rec.Stat != graph.StatKnown {
		// An object whose stats were never confirmed is never a delete
		// candidate — this is what closes the marker/partial-fetch race.
		return Skipped, nil
	}
	if _, ok := g.LookupKey(cmn.KeyOf(rec.ID)); !ok {
		return Failed, fmt.Errorf("%w: %s", cmn.ErrNotIndexed, rec.ID)
	}
	if !force && s.Now().Unix()-rec.LastModified < int64(s.AnonymousTTL/time.Second) {
		return Skipped, nil
	}

	collection := cmn.CollectionOf(rec.ID)
	if collection == "" {
		collection = "groups" // roots are stored as group records
	}
	if err := s.DN.Delete(ctx, s.DNURL, collection, string(rec.ID)); err != nil {
		return Failed, fmt.Errorf("%w: delete %s: %v", cmn.ErrDNUnreachable, rec.ID, err)
	}

	g.RemoveSwept(rec.ID, rec.Size)
	return Deleted, nil
}
