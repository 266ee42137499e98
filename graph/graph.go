// Package graph implements the in-memory object graph that mirrors the
// bucket. A Record is created once and stored in the arena (s3keys); every
// other index holds the same *Record — never a copy. This is a record-
// identity design: deletion is a single arena removal plus index fix-ups,
// and a dataset's Chunks map and the global chunk index always point at
// identical Record values.
package graph

import (
	"fmt"
	"sync"

	"github.com/hdfgroup/hsds-an/cmn"
)

// StatState distinguishes a record whose stats are known from one that
// exists only because an orphan insert or a partial scan failure
// materialized a placeholder for it. A sweep never treats StatUnknown as a
// delete candidate — this is what keeps the marker from racing an
// intermittent stat failure into a false delete.
type StatState int

const (
	StatUnknown StatState = iota
	StatKnown
)

// Record is the object record: etag/size/last_modified plus the
// marker's Used bit, kind-specific extras, and an ancillary bag preserved
// across PUT replaces.
type Record struct {
	ID           cmn.ObjID
	Kind         cmn.Kind
	ETag         string
	Size         int64
	LastModified int64
	Used         bool
	Stat         StatState

	// Domain records only.
	Root cmn.ObjID

	// Root-group records only.
	Groups, Datasets, Datatypes map[cmn.ObjID]*Record

	// Dataset records only.
	Chunks map[cmn.ObjID]*Record

	// Ancillary metadata copied across PUT replaces (anything beyond
	// ETag/Size/LastModified); keyed as in objUpdate's "copy any
	// ancillary keys" step.
	Extras map[string]any
}

func newRootRecord(id cmn.ObjID) *Record {
	return &Record{
		ID:         id,
		Kind:       cmn.KindGroup,
		Stat:       StatUnknown,
		Groups:     make(map[cmn.ObjID]*Record),
		Datasets:   make(map[cmn.ObjID]*Record),
		Datatypes:  make(map[cmn.ObjID]*Record),
	}
}

// BucketStats is the /async_info payload shape.
type BucketStats struct {
	ObjectCount   int   `json:"object_count"`
	DomainCount   int   `json:"domain_count"`
	RootCount     int   `json:"root_count"`
	GroupCount    int   `json:"group_count"`
	DatasetCount  int   `json:"dataset_count"`
	DatatypeCount int   `json:"datatype_count"`
	ChunkCount    int   `json:"chunk_count"`
	StorageSize   int64 `json:"storage_size"`
	PendingCount  int   `json:"pending_count"`
	DeletedCount  int   `json:"deleted_count"`
}

// Graph is the object graph: five global indexes plus per-root
// collections, all sharing record identity with s3keys.
type Graph struct {
	mu sync.RWMutex // guards concurrent reads from the HTTP status handler

	s3keys  map[string]*Record   // s3 key -> record; authoritative existence
	domains map[cmn.ObjID]*Record
	roots   map[cmn.ObjID]*Record
	groups, datasets, datatypes, chunks map[cmn.ObjID]*Record

	bytesInBucket int64
	deletedCount  int
	deletedObjIDs map[cmn.ObjID]struct{}
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		s3keys:        make(map[string]*Record),
		domains:       make(map[cmn.ObjID]*Record),
		roots:         make(map[cmn.ObjID]*Record),
		groups:        make(map[cmn.ObjID]*Record),
		datasets:      make(map[cmn.ObjID]*Record),
		datatypes:     make(map[cmn.ObjID]*Record),
		chunks:        make(map[cmn.ObjID]*Record),
		deletedObjIDs: make(map[cmn.ObjID]struct{}),
	}
}

func (g *Graph) collectionFor(k cmn.Kind) map[cmn.ObjID]*Record {
	switch k {
	case cmn.KindGroup:
		return g.groups
	case cmn.KindDataset:
		return g.datasets
	case cmn.KindDatatype:
		return g.datatypes
	case cmn.KindChunk:
		return g.chunks
	default:
		return nil
	}
}

// Lock/Unlock/RLock/RUnlock expose the graph's mutex to callers that need
// a multi-step read-modify-write under one critical section (the engine,
// running single-threaded, is the only writer).
func (g *Graph) Lock()    { g.mu.Lock() }
func (g *Graph) Unlock()  { g.mu.Unlock() }
func (g *Graph) RLock()   { g.mu.RLock() }
func (g *Graph) RUnlock() { g.mu.RUnlock() }

// BytesInBucket returns the current derived total.
func (g *Graph) BytesInBucket() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bytesInBucket
}

// Stats computes the bucket_stats snapshot.
func (g *Graph) Stats(pendingCount int) BucketStats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return BucketStats{
		ObjectCount:   len(g.s3keys),
		DomainCount:   len(g.domains),
		RootCount:     len(g.roots),
		GroupCount:    len(g.groups),
		DatasetCount:  len(g.datasets),
		DatatypeCount: len(g.datatypes),
		ChunkCount:    len(g.chunks),
		StorageSize:   g.bytesInBucket,
		PendingCount:  pendingCount,
		DeletedCount:  g.deletedCount,
	}
}

// LookupKey returns the record stored under an object-store key.
func (g *Graph) LookupKey(key string) (*Record, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.s3keys[key]
	return r, ok
}

// LookupDomain returns the domain record for a domain id.
func (g *Graph) LookupDomain(id cmn.ObjID) (*Record, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.domains[id]
	return r, ok
}

// LookupRoot returns the root-group record for a root UUID.
func (g *Graph) LookupRoot(id cmn.ObjID) (*Record, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.roots[id]
	return r, ok
}

// Lookup returns the record for a group/dataset/datatype/chunk id from its
// global kind index.
func (g *Graph) Lookup(id cmn.ObjID) (*Record, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	col := g.collectionFor(cmn.ClassifyID(id))
	if col == nil {
		return nil, false
	}
	r, ok := col[id]
	return r, ok
}

// Domains returns a snapshot slice of every domain id currently indexed.
func (g *Graph) Domains() []cmn.ObjID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]cmn.ObjID, 0, len(g.domains))
	for d := range g.domains {
		out = append(out, d)
	}
	return out
}

// DeletedObjIDs returns a snapshot of the deleted-id audit set.
func (g *Graph) DeletedObjIDs() []cmn.ObjID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]cmn.ObjID, 0, len(g.deletedObjIDs))
	for id := range g.deletedObjIDs {
		out = append(out, id)
	}
	return out
}

// MarkDeleted records objid in the deleted-id audit set (objDelete).
func (g *Graph) MarkDeleted(id cmn.ObjID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletedObjIDs[id] = struct{}{}
}

// EnsureRoot returns the root record for rootid, lazily creating an empty
// placeholder (StatUnknown) and installing it in s3keys+roots if absent —
// the orphan-insert edge case: a subsequent scan fills in the placeholder's
// real stats.
func (g *Graph) EnsureRoot(rootID cmn.ObjID) *Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.roots[rootID]; ok {
		return r
	}
	r := newRootRecord(rootID)
	g.roots[rootID] = r
	key := cmn.KeyOf(rootID)
	if _, exists := g.s3keys[key]; !exists {
		g.s3keys[key] = r
	}
	return r
}

// EnsureDataset returns the dataset record for dsetID within root,
// lazily creating an empty placeholder in s3keys, the global datasets
// index, and the root's Datasets collection if absent.
func (g *Graph) EnsureDataset(root *Record, dsetID cmn.ObjID) *Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	if d, ok := root.Datasets[dsetID]; ok {
		if d.Chunks == nil {
			d.Chunks = make(map[cmn.ObjID]*Record)
		}
		return d
	}
	key := cmn.KeyOf(dsetID)
	d, exists := g.s3keys[key]
	if !exists {
		d = &Record{ID: dsetID, Kind: cmn.KindDataset, Stat: StatUnknown, Chunks: make(map[cmn.ObjID]*Record)}
		g.s3keys[key] = d
	}
	if d.Chunks == nil {
		d.Chunks = make(map[cmn.ObjID]*Record)
	}
	root.Datasets[dsetID] = d
	g.datasets[dsetID] = d
	return d
}

// LookupDomainCollection returns the mutable per-root collection that
// should contain objid, creating intermediate empty root/dataset records
// per the orphan-insert edge case if they are not yet hydrated. ok is
// false only if objid's root cannot be determined at all (rootID empty).
func (g *Graph) LookupDomainCollection(objid cmn.ObjID, rootID cmn.ObjID) (col map[cmn.ObjID]*Record, ok bool) {
	if rootID == "" {
		return nil, false
	}
	root := g.EnsureRoot(rootID)
	if cmn.IsValidChunkID(objid) {
		dsetID, err := cmn.DatasetOf(objid)
		if err != nil {
			return nil, false
		}
		dset := g.EnsureDataset(root, dsetID)
		return dset.Chunks, true
	}
	switch cmn.KindOf(objid) {
	case cmn.KindGroup:
		return root.Groups, true
	case cmn.KindDataset:
		return root.Datasets, true
	case cmn.KindDatatype:
		return root.Datatypes, true
	default:
		return nil, false
	}
}

// PutDomain installs or refreshes a domain record (domainCreate / the
// Lister's hydrate of a domain key). If the domain is already present, its
// stat fields are replaced and Root is preserved unless withRoot is true,
// in which case rec.Root overwrites it.
func (g *Graph) PutDomain(domain cmn.ObjID, rec Record, withRoot bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := cmn.KeyOf(domain)
	existing, had := g.s3keys[key]
	if had {
		g.bytesInBucket -= existing.Size
		if !withRoot {
			rec.Root = existing.Root
		}
	}
	rec.ID = domain
	rec.Kind = cmn.KindDomain
	rec.Stat = StatKnown
	g.s3keys[key] = &rec
	g.domains[domain] = &rec
	g.bytesInBucket += rec.Size
}

// DeleteDomain removes a domain record (domainDelete). It does not cascade
// to the domain's objects — a subsequent scan observes them as unreachable.
func (g *Graph) DeleteDomain(domain cmn.ObjID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.domains[domain]; !ok {
		return false
	}
	key := cmn.KeyOf(domain)
	if existing, exists := g.s3keys[key]; exists {
		g.bytesInBucket -= existing.Size
		delete(g.s3keys, key)
	}
	delete(g.domains, domain)
	return true
}

// PutObject installs or replaces a group/dataset/datatype/chunk record in
// s3keys, its global kind index, and the owning per-root collection
// (objUpdate / the Lister's hydrate of a non-domain key). rootID must
// already be known to the caller (resolved via the Object-Store Client for
// PUT events, or carried over from the listing pass for a scan).
//
// preserveUsed distinguishes the Lister's idempotent re-hydrate ("existing
// records are refreshed but used and chunks sub-maps are preserved") from
// a genuine objUpdate PUT event ("default used=false" on replace, since a
// changed object is unconfirmed until the next Marker pass). The Lister
// passes true; the Applier passes false.
func (g *Graph) PutObject(id cmn.ObjID, rec Record, rootID cmn.ObjID, preserveUsed bool) {
	g.mu.Lock()
	key := cmn.KeyOf(id)
	old, had := g.s3keys[key]
	if had {
		g.bytesInBucket -= old.Size
		if rec.Extras == nil {
			rec.Extras = old.Extras
		}
		if old.Stat == StatKnown && rec.Stat == StatUnknown {
			rec.Stat = old.Stat
		}
		if cmn.ClassifyID(id) == cmn.KindDataset && rec.Chunks == nil {
			rec.Chunks = old.Chunks
		}
		if preserveUsed {
			rec.Used = old.Used
		}
	}
	rec.ID = id
	rec.Kind = cmn.ClassifyID(id)
	if rec.Kind == cmn.KindDataset && rec.Chunks == nil {
		rec.Chunks = make(map[cmn.ObjID]*Record)
	}
	stored := &rec
	g.s3keys[key] = stored
	g.bytesInBucket += stored.Size

	col := g.collectionFor(collectionKind(id))
	if col != nil {
		col[id] = stored
	}
	g.mu.Unlock()

	if domCol, ok := g.LookupDomainCollection(id, rootID); ok && domCol != nil {
		g.mu.Lock()
		domCol[id] = stored
		g.mu.Unlock()
	}
}

// PutChunk installs or replaces a chunk record directly under its parent
// dataset's Chunks map and the global chunk index. Unlike a group/dataset/
// datatype id, a chunk id encodes its owning dataset in the id itself
// (cmn.DatasetOf), so attaching it needs no root resolution at all — this
// is the path the Lister's flat key listing and the Applier's chunk PUT
// events both use instead of going through PutObject/LookupDomainCollection,
// which require a rootID neither caller has for a bare chunk key.
//
// preserveUsed has the same meaning as in PutObject.
func (g *Graph) PutChunk(id cmn.ObjID, rec Record, preserveUsed bool) error {
	dsetID, err := cmn.DatasetOf(id)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", cmn.ErrInvalidID, id, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	dkey := cmn.KeyOf(dsetID)
	dset, ok := g.s3keys[dkey]
	if !ok {
		dset = &Record{ID: dsetID, Kind: cmn.KindDataset, Stat: StatUnknown, Chunks: make(map[cmn.ObjID]*Record)}
		g.s3keys[dkey] = dset
		g.datasets[dsetID] = dset
	}
	if dset.Chunks == nil {
		dset.Chunks = make(map[cmn.ObjID]*Record)
	}

	key := cmn.KeyOf(id)
	old, had := g.s3keys[key]
	if had {
		g.bytesInBucket -= old.Size
		if rec.Extras == nil {
			rec.Extras = old.Extras
		}
		if old.Stat == StatKnown && rec.Stat == StatUnknown {
			rec.Stat = old.Stat
		}
		if preserveUsed {
			rec.Used = old.Used
		}
	}
	rec.ID = id
	rec.Kind = cmn.KindChunk
	stored := &rec
	g.s3keys[key] = stored
	g.bytesInBucket += stored.Size
	g.chunks[id] = stored
	dset.Chunks[id] = stored
	return nil
}

// DeleteChunk removes a chunk record from its dataset's Chunks map, the
// global chunk index, and s3keys — PutChunk's counterpart, used for a chunk
// DELETE event, whose removal needs no root to resolve. The sweeper removes
// chunks through RemoveSwept instead.
func (g *Graph) DeleteChunk(id cmn.ObjID) (*Record, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := cmn.KeyOf(id)
	r, had := g.s3keys[key]
	if !had {
		return nil, false
	}
	delete(g.s3keys, key)
	delete(g.chunks, id)
	g.bytesInBucket -= r.Size
	if dsetID, err := cmn.DatasetOf(id); err == nil {
		if dset, ok := g.s3keys[cmn.KeyOf(dsetID)]; ok && dset.Chunks != nil {
			delete(dset.Chunks, id)
		}
	}
	return r, true
}

func collectionKind(id cmn.ObjID) cmn.Kind {
	if cmn.IsValidChunkID(id) {
		return cmn.KindChunk
	}
	return cmn.KindOf(id)
}

// DeleteObject removes a group/dataset/datatype/chunk record from s3keys,
// its global kind index, and its owning per-root collection (objDelete).
// sweepObj's post-delete bookkeeping uses RemoveSwept instead.
func (g *Graph) DeleteObject(id cmn.ObjID, rootID cmn.ObjID) (removed *Record, ok bool) {
	g.mu.Lock()
	key := cmn.KeyOf(id)
	r, had := g.s3keys[key]
	if !had {
		g.mu.Unlock()
		return nil, false
	}
	delete(g.s3keys, key)
	g.bytesInBucket -= r.Size
	col := g.collectionFor(collectionKind(id))
	if col != nil {
		delete(col, id)
	}
	g.mu.Unlock()

	if domCol, ok := g.LookupDomainCollection(id, rootID); ok && domCol != nil {
		g.mu.Lock()
		delete(domCol, id)
		g.mu.Unlock()
	}
	return r, true
}

// RemoveSwept deletes a record that has just been confirmed deleted at the
// data node: from the kind index, from s3keys, and decrements
// bytesInBucket — step 4 of sweepObj. Unlike DeleteObject it does not try
// to resolve the owning domain collection again; the caller (space.Sweeper)
// already holds the dataset/root record it came from and removes it there
// directly.
func (g *Graph) RemoveSwept(id cmn.ObjID, size int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := cmn.KeyOf(id)
	delete(g.s3keys, key)
	col := g.collectionFor(collectionKind(id))
	if col != nil {
		delete(col, id)
	}
	g.bytesInBucket -= size
	g.deletedCount++
}

// RemoveRoot deletes a root record (and its entry in s3keys) outright —
// used by the Sweeper's root-delete cascade once every group/dataset/
// datatype/chunk beneath it has already been swept.
func (g *Graph) RemoveRoot(id cmn.ObjID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.roots[id]; !ok {
		return
	}
	delete(g.roots, id)
	key := cmn.KeyOf(id)
	if existing, ok := g.s3keys[key]; ok {
		g.bytesInBucket -= existing.Size
		delete(g.s3keys, key)
	}
	g.deletedCount++
}

// IncDeleted bumps the deleted-object counter by n without removing
// anything. The sweeper does not call it: RemoveSwept and RemoveRoot bump
// the counter themselves.
func (g *Graph) IncDeleted(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletedCount += n
}

// Datasets returns a snapshot of every dataset id in the global index.
func (g *Graph) Datasets() []cmn.ObjID { return g.kindSnapshot(g.datasets) }

// Datatypes returns a snapshot of every datatype id in the global index.
func (g *Graph) Datatypes() []cmn.ObjID { return g.kindSnapshot(g.datatypes) }

// Groups returns a snapshot of every group id in the global index.
func (g *Graph) Groups() []cmn.ObjID { return g.kindSnapshot(g.groups) }

func (g *Graph) kindSnapshot(m map[cmn.ObjID]*Record) []cmn.ObjID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]cmn.ObjID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

// AttachToRoot ensures id is present in the graph — creating an
// StatUnknown placeholder if this is the first time it has been seen — and
// installs it into root's matching per-kind collection as well as the
// global kind index. It only ever adds the one id; the Marker's
// updateLinks rebuild step uses RebuildRootLinks, which replaces root's
// collections wholesale.
func (g *Graph) AttachToRoot(root *Record, id cmn.ObjID) *Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	kind := cmn.KindOf(id)
	key := cmn.KeyOf(id)
	rec, ok := g.s3keys[key]
	if !ok {
		rec = &Record{ID: id, Kind: kind, Stat: StatUnknown}
		if kind == cmn.KindDataset {
			rec.Chunks = make(map[cmn.ObjID]*Record)
		}
		g.s3keys[key] = rec
	}
	if col := g.collectionFor(kind); col != nil {
		col[id] = rec
	}
	switch kind {
	case cmn.KindGroup:
		root.Groups[id] = rec
	case cmn.KindDataset:
		root.Datasets[id] = rec
	case cmn.KindDatatype:
		root.Datatypes[id] = rec
	}
	return rec
}

// RebuildRootLinks replaces root's Groups/Datasets/Datatypes collections
// wholesale with the ids named in groups/datasets/datatypes — the
// updateLinks rebuild step. Unlike AttachToRoot, which only ever adds a
// single id, this drops any id that used to be in one of root's
// collections but is no longer named in the freshly fetched link
// metadata: a dataset unlinked from its root must stop being reachable on
// the very same pass that notices the unlink, not linger until some
// unrelated future insert happens to overwrite it. Dropped ids stay in
// the graph's global kind index — they still exist as objects, just no
// longer attached to this root — so ResetUsed/markRoot's walk is what
// actually turns them unreachable.
func (g *Graph) RebuildRootLinks(root *Record, groups, datasets, datatypes []cmn.ObjID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	root.Groups = g.rebuildCollection(groups, cmn.KindGroup)
	root.Datasets = g.rebuildCollection(datasets, cmn.KindDataset)
	root.Datatypes = g.rebuildCollection(datatypes, cmn.KindDatatype)
}

// rebuildCollection resolves ids to their (possibly newly placeholdered)
// records in the global kind index and returns a fresh collection map
// containing exactly those ids. Caller holds g.mu.
func (g *Graph) rebuildCollection(ids []cmn.ObjID, kind cmn.Kind) map[cmn.ObjID]*Record {
	next := make(map[cmn.ObjID]*Record, len(ids))
	for _, id := range ids {
		key := cmn.KeyOf(id)
		rec, ok := g.s3keys[key]
		if !ok {
			rec = &Record{ID: id, Kind: kind, Stat: StatUnknown}
			if kind == cmn.KindDataset {
				rec.Chunks = make(map[cmn.ObjID]*Record)
			}
			g.s3keys[key] = rec
		}
		if col := g.collectionFor(kind); col != nil {
			col[id] = rec
		}
		next[id] = rec
	}
	return next
}

// ConfirmRoot promotes root to StatKnown with freshly observed stat fields.
// A root's bare-UUID key never classifies to a known kind on a flat bucket
// listing (cmn.ClassifyID requires the g-/d-/t- prefix the Lister relies
// on), so the Lister can never hydrate it the way it hydrates every other
// object; the Marker's per-pass root stat (markRoot) is the only place a
// root is ever confirmed to really exist, which is what lets the Sweeper's
// orphan-root cascade eventually remove it.
func (g *Graph) ConfirmRoot(root *Record, etag string, size, lastModified int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bytesInBucket += size - root.Size
	root.ETag = etag
	root.Size = size
	root.LastModified = lastModified
	root.Stat = StatKnown
}

// SetUsed sets rec.Used under the graph's write lock — the Marker's
// primitive mutation, kept on Graph rather than left to callers poking an
// exported field unlocked, since the status handler may be reading
// concurrently.
func (g *Graph) SetUsed(rec *Record, used bool) {
	g.mu.Lock()
	rec.Used = used
	g.mu.Unlock()
}

// ResetUsed clears Used on every group/dataset/datatype/chunk record and
// every root record (not domains, which are never sweep candidates) ahead
// of a Marker pass —
// GC's conventional clear-then-mark-reachable discipline, needed so a
// record unlinked since the previous mark does not retain a stale
// used=true.
func (g *Graph) ResetUsed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range []map[cmn.ObjID]*Record{g.groups, g.datasets, g.datatypes, g.chunks} {
		for _, r := range m {
			r.Used = false
		}
	}
	for _, r := range g.roots {
		r.Used = false
	}
}

// DomainOf resolves the domain that currently owns id by scanning each
// domain's root collections — the "stored parent chain" lookup the
// Applier's dirty-set bookkeeping relies on. ok is false if id is
// not (yet) attached to any root, e.g. a fresh orphan the next scan's
// Marker.updateLinks pass will attach.
func (g *Graph) DomainOf(id cmn.ObjID) (domain cmn.ObjID, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	target := id
	if cmn.IsValidChunkID(id) {
		if dsetID, err := cmn.DatasetOf(id); err == nil {
			target = dsetID
		}
	}
	for dom, rec := range g.domains {
		if rec.Root == "" {
			continue
		}
		root, ok := g.roots[rec.Root]
		if !ok {
			continue
		}
		if _, found := root.Groups[target]; found {
			return dom, true
		}
		if _, found := root.Datasets[target]; found {
			return dom, true
		}
		if _, found := root.Datatypes[target]; found {
			return dom, true
		}
	}
	return "", false
}

// Roots returns a snapshot of every root id in the graph.
func (g *Graph) Roots() []cmn.ObjID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]cmn.ObjID, 0, len(g.roots))
	for id := range g.roots {
		out = append(out, id)
	}
	return out
}
