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

// rootDoc is the link-metadata JSON of a root group: the ids of the
// groups/datasets/datatypes it owns by name. The Marker's updateLinks
// option refetches this to rebuild a root's collection maps.
type rootDoc struct {
	Groups    []string `json:"groups"`
	Datasets  []string `json:"datasets"`
	Datatypes []string `json:"datatypes"`
}

// Marker performs the reachability traversal: starting from each
// domain's root, it sets used=true on every object the root transitively
// owns. Unreachable objects retain used=false and become sweep candidates.
type Marker struct {
	Client      objstore.Client
	UpdateLinks bool
}

// NewMarker returns a Marker bound to client. updateLinks enables the
// link-metadata refetch step.
func NewMarker(client objstore.Client, updateLinks bool) *Marker {
	return &Marker{Client: client, UpdateLinks: updateLinks}
}

// Mark clears every record's used bit, then walks each domain's root
// marking everything reachable. A domain without a root (a folder domain)
// contributes nothing to reachability.
func (m *Marker) Mark(ctx context.Context, g *graph.Graph) error {
	g.ResetUsed()
	for _, domain := range g.Domains() {
		dom, ok := g.LookupDomain(domain)
		if !ok || dom.Root == "" {
			continue
		}
		if err := m.markRoot(ctx, g, dom.Root); err != nil {
			glog.Warningf("reb: mark %s (root %s): %v", domain, dom.Root, err)
		}
	}
	return nil
}

func (m *Marker) markRoot(ctx context.Context, g *graph.Graph, rootID cmn.ObjID) error {
	root := g.EnsureRoot(rootID)
	g.SetUsed(root, true)

	// The root's own object has no path the Lister can classify (see
	// graph.ConfirmRoot), so this is where it gets stat-confirmed.
	if st, err := m.Client.Stat(ctx, cmn.KeyOf(rootID)); err == nil {
		g.ConfirmRoot(root, st.ETag, st.Size, st.LastModified)
	} else if !errors.Is(err, objstore.ErrNotFound) {
		glog.Warningf("reb: stat root %s: %v", rootID, err)
	}

	if m.UpdateLinks {
		if err := m.updateLinks(ctx, g, root, rootID); err != nil {
			return err
		}
	}

	for _, rec := range root.Groups {
		g.SetUsed(rec, true)
	}
	for _, rec := range root.Datatypes {
		g.SetUsed(rec, true)
	}
	for _, dset := range root.Datasets {
		g.SetUsed(dset, true)
		for _, chunk := range dset.Chunks {
			g.SetUsed(chunk, true)
		}
	}
	return nil
}

// updateLinks refetches the root's link metadata and rebuilds its
// collection maps ("rebuilds the root's groups/datasets/datatypes
// maps from link metadata fetched from the object store").
func (m *Marker) updateLinks(ctx context.Context, g *graph.Graph, root *graph.Record, rootID cmn.ObjID) error {
	key := cmn.KeyOf(rootID)
	var doc rootDoc
	if err := m.Client.GetJSON(ctx, key, &doc); err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil // root not yet written; next scan will find it
		}
		return fmt.Errorf("%w: fetch root links %s: %v", cmn.ErrStoreIO, key, err)
	}
	g.RebuildRootLinks(root, toObjIDs(doc.Groups), toObjIDs(doc.Datasets), toObjIDs(doc.Datatypes))
	return nil
}

func toObjIDs(ids []string) []cmn.ObjID {
	out := make([]cmn.ObjID, len(ids))
	for i, id := range ids {
		out[i] = cmn.ObjID(id)
	}
	return out
}
