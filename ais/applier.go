package ais

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/hdfgroup/hsds-an/cmn"
	"github.com/hdfgroup/hsds-an/graph"
	"github.com/hdfgroup/hsds-an/objstore"
	"github.com/hdfgroup/hsds-an/xs"
)

// domainDoc mirrors reb's domain JSON shape — kept as an unexported
// duplicate here rather than an import of reb, since this is the only
// field ais needs from it and reb is otherwise a scan-layer concern.
type domainDoc struct {
	Root string `json:"root"`
}

// objDoc is the ancillary-metadata fallback used when an incoming PUT
// references an object the graph hasn't attached to any root yet — some
// object documents carry their owning domain alongside their own fields.
type objDoc struct {
	Domain string `json:"domain"`
}

// Applier drains the event queue and folds PUT/DELETE notifications into
// the graph.
type Applier struct {
	Client objstore.Client
}

// NewApplier returns an Applier bound to client.
func NewApplier(client objstore.Client) *Applier {
	return &Applier{Client: client}
}

// Apply drains events in order, applying each to g, and returns the
// per-domain dirty-set map the Publisher needs for its incremental pass.
func (a *Applier) Apply(ctx context.Context, g *graph.Graph, events []Event) xs.DirtySet {
	dirty := make(xs.DirtySet)
	mark := func(domain, id cmn.ObjID) {
		if domain == "" {
			return
		}
		if dirty[domain] == nil {
			dirty[domain] = make(map[cmn.ObjID]bool)
		}
		dirty[domain][id] = true
	}

	for _, ev := range events {
		switch ev.Action {
		case ActionPut:
			domain, err := a.ObjUpdate(ctx, g, ev.ObjID)
			if err != nil {
				glog.Warningf("ais: objUpdate %s: %v", ev.ObjID, err)
				continue
			}
			mark(domain, ev.ObjID)
		case ActionDelete:
			domain, err := a.ObjDelete(ctx, g, ev.ObjID)
			if err != nil {
				glog.Warningf("ais: objDelete %s: %v", ev.ObjID, err)
			}
			mark(domain, ev.ObjID)
		}
	}
	return dirty
}

// ObjUpdate folds a PUT notification into the graph. It returns the
// domain the object resolves to, for dirty-set bookkeeping; an empty
// domain means the object could not yet be attributed to one.
func (a *Applier) ObjUpdate(ctx context.Context, g *graph.Graph, id cmn.ObjID) (cmn.ObjID, error) {
	kind := cmn.ClassifyID(id)
	if kind == cmn.KindInvalid {
		return "", fmt.Errorf("%w: %s", cmn.ErrInvalidID, id)
	}
	if kind == cmn.KindDomain {
		return "", nil // domains are handled by DomainCreate/DomainDelete, not this path
	}

	key := cmn.KeyOf(id)
	st, err := a.Client.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return "", fmt.Errorf("%w: %s vanished before stat", cmn.ErrStaleEvent, id)
		}
		return "", fmt.Errorf("%w: stat %s: %v", cmn.ErrStoreIO, id, err)
	}

	domain, _ := g.DomainOf(id)
	rec := graph.Record{ETag: st.ETag, Size: st.Size, LastModified: st.LastModified, Stat: graph.StatKnown}

	if kind == cmn.KindChunk {
		// A chunk id encodes its dataset directly, so it attaches to the
		// dataset's Chunks map without resolving a root at all.
		if err := g.PutChunk(id, rec, false); err != nil {
			return "", err
		}
	} else {
		var rootID cmn.ObjID
		if domain != "" {
			if dom, ok := g.LookupDomain(domain); ok {
				rootID = dom.Root
			}
		}
		g.PutObject(id, rec, rootID, false)
	}

	if domain == "" {
		domain = a.refetchDomainHint(ctx, id)
	}
	return domain, nil
}

// ObjDelete folds a DELETE notification into the graph, returning the
// domain it resolved to before removal (for dirty-set bookkeeping) and
// recording id in the deleted-id audit set.
func (a *Applier) ObjDelete(_ context.Context, g *graph.Graph, id cmn.ObjID) (cmn.ObjID, error) {
	kind := cmn.ClassifyID(id)
	if kind == cmn.KindInvalid {
		return "", fmt.Errorf("%w: %s", cmn.ErrInvalidID, id)
	}
	if kind == cmn.KindDomain {
		return "", nil
	}

	domain, _ := g.DomainOf(id)

	if kind == cmn.KindChunk {
		if _, ok := g.DeleteChunk(id); !ok {
			return domain, fmt.Errorf("%w: %s was already absent", cmn.ErrStaleEvent, id)
		}
		g.MarkDeleted(id)
		return domain, nil
	}

	var rootID cmn.ObjID
	if domain != "" {
		if dom, ok := g.LookupDomain(domain); ok {
			rootID = dom.Root
		}
	}

	if _, ok := g.DeleteObject(id, rootID); !ok {
		return domain, fmt.Errorf("%w: %s was already absent", cmn.ErrStaleEvent, id)
	}
	g.MarkDeleted(id)
	return domain, nil
}

// DomainCreate installs a domain record, fetching its JSON to learn the
// root UUID.
func (a *Applier) DomainCreate(ctx context.Context, g *graph.Graph, domain cmn.ObjID) error {
	if cmn.ClassifyID(domain) != cmn.KindDomain {
		return fmt.Errorf("%w: %s", cmn.ErrInvalidID, domain)
	}
	key := cmn.KeyOf(domain)
	st, err := a.Client.Stat(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", cmn.ErrStoreIO, domain, err)
	}
	var doc domainDoc
	if err := a.Client.GetJSON(ctx, key, &doc); err != nil && !errors.Is(err, objstore.ErrNotFound) {
		return fmt.Errorf("%w: fetch domain json %s: %v", cmn.ErrStoreIO, domain, err)
	}
	rec := graph.Record{ETag: st.ETag, Size: st.Size, LastModified: st.LastModified}
	if doc.Root != "" {
		rec.Root = cmn.ObjID(doc.Root)
	}
	g.PutDomain(domain, rec, doc.Root != "")
	return nil
}

// DomainDelete removes a domain record without cascading to its objects —
// a subsequent scan observes them as unreachable and sweeps them, TTL
// permitting.
func (a *Applier) DomainDelete(_ context.Context, g *graph.Graph, domain cmn.ObjID) error {
	if cmn.ClassifyID(domain) != cmn.KindDomain {
		return fmt.Errorf("%w: %s", cmn.ErrInvalidID, domain)
	}
	if !g.DeleteDomain(domain) {
		return fmt.Errorf("%w: %s was already absent", cmn.ErrStaleEvent, domain)
	}
	return nil
}

// refetchDomainHint is the "re-fetching the object JSON as a fallback"
// step of dirty-set resolution: an object not yet attached to any
// root may still carry its owning domain in its own document.
func (a *Applier) refetchDomainHint(ctx context.Context, id cmn.ObjID) cmn.ObjID {
	var doc objDoc
	if err := a.Client.GetJSON(ctx, cmn.KeyOf(id), &doc); err != nil {
		return ""
	}
	return cmn.ObjID(doc.Domain)
}
