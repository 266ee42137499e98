package ais

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/hdfgroup/hsds-an/cluster"
	"github.com/hdfgroup/hsds-an/cmn"
	"github.com/hdfgroup/hsds-an/graph"
	"github.com/hdfgroup/hsds-an/objstore"
	"github.com/hdfgroup/hsds-an/reb"
	"github.com/hdfgroup/hsds-an/space"
	"github.com/hdfgroup/hsds-an/xs"
)

// NodeState is the AN's own lifecycle state, reported at GET /, GET /info.
type NodeState int

const (
	StateInitializing NodeState = iota
	StateWaiting
	StateReady
)

func (s NodeState) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StateReady:
		return "READY"
	default:
		return "INITIALIZING"
	}
}

// Node is the Engine: a single struct owning the graph, the queue,
// configuration, and every collaborator, passed explicitly to every
// method rather than reached for as a package global.
type Node struct {
	Config    cmn.Config
	Graph     *graph.Graph
	Queue     *Queue
	Applier   *Applier
	Lister    *reb.Lister
	Marker    *reb.Marker
	Sweeper   *space.Sweeper
	Publisher *xs.Publisher
	Cluster   *cluster.Client

	NodeID    string
	StartTime time.Time

	mu    sync.RWMutex
	state NodeState
}

// NewNode wires every collaborator from a single
// object-store client, a DN client, and a configuration.
func NewNode(cfg cmn.Config, store objstore.Client, dn objstore.DNClient, cl *cluster.Client) *Node {
	return &Node{
		Config:    cfg,
		Graph:     graph.New(),
		Queue:     NewQueue(),
		Applier:   NewApplier(store),
		Lister:    reb.NewLister(store),
		Marker:    reb.NewMarker(store, true),
		Sweeper:   space.NewSweeper(dn, cfg.HeadURL(), cfg.AnonymousTTL),
		// Force=true matches the original asyncnode.py's
		// FORCE_CONTENT_LIST_CREATION default: the skip-if-exists path is
		// there but disabled, since an incremental republish must actually
		// update a manifest that already exists.
		Publisher: xs.NewPublisher(store, true),
		Cluster:   cl,
		NodeID:    uuid.NewString(),
		StartTime: time.Now(),
		state:     StateInitializing,
	}
}

func (n *Node) setState(s NodeState) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
}

// State returns the node's current lifecycle state.
func (n *Node) State() NodeState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// Run is the Reconciliation Loop: wait for READY, run the initial
// cycle, then alternate steady ticks and full rescans until ctx is
// canceled. The whole loop is single-goroutine by construction — callers
// must not call Run concurrently with itself.
func (n *Node) Run(ctx context.Context) error {
	if err := n.waitReady(ctx); err != nil {
		return err
	}
	n.runFullCycle(ctx)

	steady := time.NewTicker(n.Config.AsyncSleepTime)
	defer steady.Stop()
	rescan := time.NewTicker(n.Config.S3SyncInterval)
	defer rescan.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rescan.C:
			n.runFullCycle(ctx)
		case <-steady.C:
			n.runSteadyTick(ctx)
		}
	}
}

func (n *Node) waitReady(ctx context.Context) error {
	n.setState(StateInitializing)
	if n.Cluster != nil {
		if err := n.Cluster.Register(ctx, n.NodeID); err != nil {
			glog.Warningf("ais: register with head node: %v", err)
		}
	}
	n.setState(StateWaiting)

	if n.Cluster == nil {
		n.setState(StateReady)
		return nil
	}

	ticker := time.NewTicker(n.Config.NodeSleepTime)
	defer ticker.Stop()
	for {
		state, err := n.Cluster.NodeState(ctx)
		if err != nil {
			glog.Warningf("ais: nodestate: %v", err)
		} else if state == cluster.StateReady {
			n.setState(StateReady)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// runFullCycle runs the Lister, Marker (all domains), Sweeper,
// Publisher (all domains), stats refresh.
func (n *Node) runFullCycle(ctx context.Context) {
	glog.Infof("ais: full cycle starting")
	if err := n.Lister.List(ctx, n.Graph); err != nil {
		glog.Warningf("ais: list: %v", err)
	}
	if err := n.Marker.Mark(ctx, n.Graph); err != nil {
		glog.Warningf("ais: mark: %v", err)
	}
	n.Sweeper.Sweep(ctx, n.Graph)
	n.Publisher.PublishAll(ctx, n.Graph)
	glog.Infof("ais: full cycle done: %+v", n.Graph.Stats(n.Queue.Len()))
}

// runSteadyTick drains the pending queue, folds it into the graph building
// the dirty-set map, and republishes only dirty domains. This runs every
// steady tick, not only once at startup.
func (n *Node) runSteadyTick(ctx context.Context) {
	events := n.Queue.Drain()
	if len(events) == 0 {
		return
	}
	dirty := n.Applier.Apply(ctx, n.Graph, events)
	n.Publisher.PublishDirty(ctx, n.Graph, dirty)
}
