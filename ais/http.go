package ais

import (
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/hdfgroup/hsds-an/cmn"
	"github.com/hdfgroup/hsds-an/graph"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler builds the HTTP surface over a ServeMux in a minimal-dependency
// style — no router library, method checks inline per handler.
func (n *Node) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/async_info", n.handleAsyncInfo)
	mux.HandleFunc("/objects", n.handleObjects)
	mux.HandleFunc("/info", n.handleStatus)
	mux.HandleFunc("/", n.handleStatus)
	return mux
}

type asyncInfoResponse struct {
	BucketStats graph.BucketStats `json:"bucket_stats"`
}

func (n *Node) handleAsyncInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, asyncInfoResponse{BucketStats: n.Graph.Stats(n.Queue.Len())})
}

type objectsRequest struct {
	ObjIDs []string `json:"objids"`
}

func (n *Node) handleObjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		n.enqueueObjects(w, r, ActionPut)
	case http.MethodDelete:
		n.enqueueObjects(w, r, ActionDelete)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// enqueueObjects implements the validation rule: the whole batch is
// rejected with 400 if the body is missing, objids is missing/empty, or
// any id classifies as neither a domain nor a UUID/chunk. Domain ids pass
// validation but are silently dropped rather than enqueued.
func (n *Node) enqueueObjects(w http.ResponseWriter, r *http.Request, action Action) {
	var body objectsRequest
	if r.Body == nil {
		http.Error(w, fmt.Sprintf("%v: missing body", cmn.ErrBadRequest), http.StatusBadRequest)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("%v: %v", cmn.ErrBadRequest, err), http.StatusBadRequest)
		return
	}
	if len(body.ObjIDs) == 0 {
		http.Error(w, fmt.Sprintf("%v: objids missing", cmn.ErrBadRequest), http.StatusBadRequest)
		return
	}

	ids := make([]cmn.ObjID, 0, len(body.ObjIDs))
	for _, raw := range body.ObjIDs {
		id := cmn.ObjID(raw)
		if cmn.ClassifyID(id) == cmn.KindInvalid {
			http.Error(w, fmt.Sprintf("%v: %q", cmn.ErrInvalidID, raw), http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	for _, id := range ids {
		if cmn.ClassifyID(id) == cmn.KindDomain {
			continue
		}
		n.Queue.Enqueue(id, action)
	}
	w.WriteHeader(http.StatusOK)
}

type nodeStatusResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Uptime     float64 `json:"uptime"`
	NodeState  string `json:"node_state"`
	NodeNumber int     `json:"node_number"`
	NodeCount  int     `json:"node_count"`
}

func (n *Node) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := nodeStatusResponse{
		ID:         n.NodeID,
		Type:       "an",
		Uptime:     time.Since(n.StartTime).Seconds(),
		NodeState:  n.State().String(),
		NodeNumber: 0,
		NodeCount:  1,
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "internal error encoding response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
