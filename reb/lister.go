// Package reb implements the Lister/Marker scan: a full-bucket
// enumeration that hydrates the object graph, followed by a mark pass that
// determines reachability from each domain root. Both keep the jogger
// shape from ais/rebalance.go and reb/ec.go — one pass is a single
// loop over an addressable universe, and a per-object failure is logged and
// skipped rather than aborting the pass.
package reb

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/hdfgroup/hsds-an/cmn"
	"github.com/hdfgroup/hsds-an/graph"
	"github.com/hdfgroup/hsds-an/objstore"
)

// domainDoc is the JSON shape of a domain object: an optional root UUID.
// Folder domains omit Root entirely.
type domainDoc struct {
	Root string `json:"root"`
}

// Lister performs the initial-hydrate / full-rescan pass.
type Lister struct {
	Client objstore.Client
}

// NewLister returns a Lister bound to client.
func NewLister(client objstore.Client) *Lister {
	return &Lister{Client: client}
}

// List enumerates every key in the bucket, stats and classifies each, and
// inserts it into g. Idempotent on repeat invocation: PutDomain/PutObject
// preserve Used and Chunks across a refresh (graph.go), so a second List
// call hydrates stats without disturbing marker state from a prior Mark.
func (l *Lister) List(ctx context.Context, g *graph.Graph) error {
	entries, err := l.Client.ListKeys(ctx, "")
	if err != nil {
		return fmt.Errorf("%w: list bucket: %v", cmn.ErrStoreIO, err)
	}
	glog.Infof("reb: listed %d keys", len(entries))
	for _, e := range entries {
		id, ok := cmn.IDFromKey(e.Key)
		if !ok {
			continue // manifest key, not an object
		}
		kind := cmn.ClassifyID(id)
		if kind == cmn.KindInvalid {
			glog.Warningf("reb: skipping key %s: does not classify to a known kind", e.Key)
			continue
		}
		if err := l.hydrate(ctx, g, id, kind, e.Key); err != nil {
			glog.Warningf("reb: skipping %s: %v", id, err)
			continue
		}
	}
	return nil
}

func (l *Lister) hydrate(ctx context.Context, g *graph.Graph, id cmn.ObjID, kind cmn.Kind, key string) error {
	st, err := l.Client.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil // deleted between list and stat; next pass corrects
		}
		return fmt.Errorf("%w: stat %s: %v", cmn.ErrStoreIO, key, err)
	}

	if kind == cmn.KindDomain {
		var doc domainDoc
		if err := l.Client.GetJSON(ctx, key, &doc); err != nil && !errors.Is(err, objstore.ErrNotFound) {
			return fmt.Errorf("%w: fetch domain json %s: %v", cmn.ErrStoreIO, key, err)
		}
		rec := graph.Record{ETag: st.ETag, Size: st.Size, LastModified: st.LastModified, Stat: graph.StatKnown}
		if doc.Root != "" {
			rec.Root = cmn.ObjID(doc.Root)
		}
		g.PutDomain(id, rec, doc.Root != "")
		return nil
	}

	// A successful Stat above is exactly the confirmation StatKnown records:
	// the sweeper must never treat a hydrated record as an unconfirmed
	// placeholder (that state is reserved for AttachToRoot/EnsureDataset
	// orphan inserts that have not yet been seen by a listing pass).
	rec := graph.Record{ETag: st.ETag, Size: st.Size, LastModified: st.LastModified, Stat: graph.StatKnown}

	if kind == cmn.KindChunk {
		// A chunk's id already encodes its owning dataset (cmn.DatasetOf),
		// so it attaches directly to the dataset's Chunks map with no root
		// resolution needed at all.
		return g.PutChunk(id, rec, true)
	}

	// The flat listing carries no parent-pointer side channel — unlike a
	// PUT event's root-resolution fallback (ais.Applier), a raw bucket key
	// says nothing about which domain's root owns it. PutObject with an
	// empty rootID hydrates the global kind index only; the Marker's
	// updateLinks pass (below) is what attaches each object to its root's
	// per-kind collection, by walking the root's own link metadata.
	g.PutObject(id, rec, "", true)
	return nil
}
