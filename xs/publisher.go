// Package xs implements the Publisher as a one-shot "extended
// action" in the same idiom as xs/obj_warmup.go — a small,
// self-contained pass that walks a domain (or the whole bucket) once and
// exits, generalized here from warming the read cache to writing manifests.
package xs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/hdfgroup/hsds-an/cmn"
	"github.com/hdfgroup/hsds-an/graph"
	"github.com/hdfgroup/hsds-an/objstore"
)

// publishConcurrency bounds how many domains are published in flight at
// once, the same jobPool-with-SetLimit shape the corpus uses for bucket
// scans: each domain's manifest writes are independent object-store I/O,
// but an unbounded fan-out would open one connection per domain.
const publishConcurrency = 8

// DirtySet maps a domain id to the set of object ids that changed since
// the last publish. A nil set for a domain means "publish unconditionally"
// (the initial full republish); PublishAll always passes nil.
type DirtySet map[cmn.ObjID]map[cmn.ObjID]bool

// Publisher writes per-domain and per-dataset manifests.
type Publisher struct {
	Client objstore.Client
	// Force, when true, overwrites a manifest even if one already exists.
	Force bool
}

// NewPublisher returns a Publisher bound to client.
func NewPublisher(client objstore.Client, force bool) *Publisher {
	return &Publisher{Client: client, Force: force}
}

// PublishAll republishes every domain's manifests unconditionally — the
// initial cycle's Publisher pass. Domains publish
// concurrently, bounded by publishConcurrency: each domain only reads its
// own root's collections and writes its own manifest keys, so one domain's
// object-store latency never blocks another's.
func (p *Publisher) PublishAll(ctx context.Context, g *graph.Graph) {
	domains := g.Domains()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(publishConcurrency)
	for _, d := range domains {
		d := d
		eg.Go(func() error {
			if err := p.PublishDomain(egCtx, g, d, nil); err != nil {
				glog.Warningf("xs: publish %s: %v", d, err)
			}
			return nil
		})
	}
	eg.Wait()
}

// PublishDirty republishes only the domains named in dirty, filtered by
// each domain's dirty-id set (the steady cycle's Publisher pass).
func (p *Publisher) PublishDirty(ctx context.Context, g *graph.Graph, dirty DirtySet) {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(publishConcurrency)
	for domain, ids := range dirty {
		domain, ids := domain, ids
		eg.Go(func() error {
			if err := p.PublishDomain(egCtx, g, domain, ids); err != nil {
				glog.Warningf("xs: publish %s: %v", domain, err)
			}
			return nil
		})
	}
	eg.Wait()
}

// PublishDomain writes the groups/datasets/datatypes manifests (and every
// dirty dataset's chunk manifest) for one domain. dirty == nil means
// publish every non-empty kind regardless of membership; a non-nil dirty
// set restricts publication to kinds (and datasets) it actually touches.
func (p *Publisher) PublishDomain(ctx context.Context, g *graph.Graph, domain cmn.ObjID, dirty map[cmn.ObjID]bool) error {
	dom, ok := g.LookupDomain(domain)
	if !ok || dom.Root == "" {
		return nil // folder domain, or a domain the graph hasn't hydrated yet
	}
	root, ok := g.LookupRoot(dom.Root)
	if !ok {
		return nil
	}
	base := cmn.DomainKey(domain)

	kinds := []struct {
		name string
		col  map[cmn.ObjID]*graph.Record
	}{
		{"groups", root.Groups},
		{"datasets", root.Datasets},
		{"datatypes", root.Datatypes},
	}

	for _, k := range kinds {
		if len(k.col) == 0 {
			continue
		}
		if dirty != nil && !p.kindIsDirty(k.col, dirty, k.name == "datasets") {
			continue
		}
		key := fmt.Sprintf("%s/.%s.txt", base, k.name)
		if err := p.writeManifest(ctx, key, k.col); err != nil {
			glog.Warningf("xs: %s manifest for %s: %v", k.name, domain, err)
		}
	}

	if len(root.Datasets) > 0 {
		p.publishChunkManifests(ctx, base, root.Datasets, dirty)
	}
	return nil
}

func (p *Publisher) publishChunkManifests(ctx context.Context, base string, datasets map[cmn.ObjID]*graph.Record, dirty map[cmn.ObjID]bool) {
	for dsetID, dset := range datasets {
		if dirty != nil && !datasetChunksDirty(dsetID, dirty) {
			continue
		}
		key := fmt.Sprintf("%s/.%s.chunks.txt", base, dsetID)
		if err := p.writeChunkManifest(ctx, key, dset.Chunks); err != nil {
			glog.Warningf("xs: chunk manifest for %s: %v", dsetID, err)
		}
	}
}

// kindIsDirty reports whether dirty touches col at all. For the datasets
// kind, a dirty chunk id also counts — "a chunk id counts as a dirty
// dataset".
func (p *Publisher) kindIsDirty(col map[cmn.ObjID]*graph.Record, dirty map[cmn.ObjID]bool, isDatasets bool) bool {
	for id := range col {
		if dirty[id] {
			return true
		}
	}
	if !isDatasets {
		return false
	}
	for id := range dirty {
		if !cmn.IsValidChunkID(id) {
			continue
		}
		if dsetID, err := cmn.DatasetOf(id); err == nil {
			if _, ok := col[dsetID]; ok {
				return true
			}
		}
	}
	return false
}

// datasetChunksDirty reports whether dirty names dsetID itself or any chunk
// id whose parent dataset is dsetID — including a chunk that has already
// been deleted and so is no longer in the dataset's Chunks map.
func datasetChunksDirty(dsetID cmn.ObjID, dirty map[cmn.ObjID]bool) bool {
	if dirty[dsetID] {
		return true
	}
	for id := range dirty {
		if parent, err := cmn.DatasetOf(id); err == nil && parent == dsetID {
			return true
		}
	}
	return false
}

// writeManifest writes one sorted-by-id manifest, honoring the skip
// policy (an existing manifest is left alone unless Force is set).
func (p *Publisher) writeManifest(ctx context.Context, key string, col map[cmn.ObjID]*graph.Record) error {
	if !p.Force {
		exists, err := p.Client.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: stat %s: %v", cmn.ErrStoreIO, key, err)
		}
		if exists {
			return nil
		}
	}
	ids := make([]cmn.ObjID, 0, len(col))
	for id := range col {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	for _, id := range ids {
		rec := col[id]
		fmt.Fprintf(&b, "%s %s %d %d\n", id, rec.ETag, rec.LastModified, rec.Size)
	}
	if err := p.Client.PutBytes(ctx, key, []byte(b.String())); err != nil {
		return fmt.Errorf("%w: put %s: %v", cmn.ErrStoreIO, key, err)
	}
	return nil
}

// writeChunkManifest writes one dataset's chunk manifest, lines keyed by
// coordinate suffix (the chunk id with its fixed dataset-UUID prefix
// removed). A chunk lacking an etag has not been stat-refreshed yet and is
// omitted with a warning.
func (p *Publisher) writeChunkManifest(ctx context.Context, key string, chunks map[cmn.ObjID]*graph.Record) error {
	if !p.Force {
		exists, err := p.Client.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: stat %s: %v", cmn.ErrStoreIO, key, err)
		}
		if exists {
			return nil
		}
	}
	ids := make([]cmn.ObjID, 0, len(chunks))
	for id := range chunks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	for _, id := range ids {
		rec := chunks[id]
		if rec.ETag == "" {
			glog.Warningf("xs: chunk %s has no etag yet, omitting from manifest", id)
			continue
		}
		fmt.Fprintf(&b, "%s %s %d %d\n", cmn.CoordSuffix(id), rec.ETag, rec.LastModified, rec.Size)
	}
	if err := p.Client.PutBytes(ctx, key, []byte(b.String())); err != nil {
		return fmt.Errorf("%w: put %s: %v", cmn.ErrStoreIO, key, err)
	}
	return nil
}
