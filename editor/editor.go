// Package editor keeps the in-memory state of the free-form family graph and
// applies user gestures to it against a remote store.
//
// Every gesture stamps the entities it touches with a number from one
// monotonic sequence. A response is applied only while the stamp it was
// issued under is still the newest for that entity, so a slow answer never
// overwrites a later change.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"familytree/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const DefaultReconcileDelay = time.Second

var ErrUnknownNode = errors.New("node does not exist")

// Store is the remote side of the editor. *client.Client satisfies it.
type Store interface {
	GetGraph(ctx context.Context) (*domain.FamilyGraph, error)
	CreateNode(ctx context.Context, form *domain.NodeForm) (*domain.TreeNode, error)
	UpdateNode(ctx context.Context, nodeID string, form *domain.NodeForm) (*domain.TreeNode, error)
	SaveGraph(ctx context.Context, graph *domain.FamilyGraph) error
	DeleteNode(ctx context.Context, nodeID string) (*domain.DeleteSummary, error)
	ClearAll(ctx context.Context, phrase string) (*domain.DeleteSummary, error)
	WipeAll(ctx context.Context, phrase string) (*domain.DeleteSummary, error)
}

// Notifier tells the user about failures that were rolled back.
type Notifier interface {
	Notify(message string)
}

type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

type Editor struct {
	// ReconcileDelay is how long after a delete or wipe the full graph is
	// fetched again.
	ReconcileDelay time.Duration

	store  Store
	notify Notifier
	log    logrus.FieldLogger
	now    func() time.Time

	mu       sync.Mutex
	nodes    []domain.TreeNode
	edges    []domain.TreeEdge
	seq      uint64
	versions map[string]uint64
	pending  map[string]uint64 // adds awaiting the store, by node id
	loadSeq  uint64
	timers   []*time.Timer
	closed   bool
}

func New(store Store, notify Notifier, log logrus.FieldLogger) *Editor {
	if notify == nil {
		notify = NotifierFunc(func(string) {})
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Editor{
		ReconcileDelay: DefaultReconcileDelay,
		store:          store,
		notify:         notify,
		log:            log,
		now:            time.Now,
		nodes:          []domain.TreeNode{},
		edges:          []domain.TreeEdge{},
		versions:       map[string]uint64{},
		pending:        map[string]uint64{},
	}
}

// stamp issues the next sequence number and records it for ids.
// Callers hold e.mu.
func (e *Editor) stamp(ids ...string) uint64 {
	e.seq++
	for _, id := range ids {
		e.versions[id] = e.seq
	}
	return e.seq
}

func (e *Editor) current(id string, seq uint64) bool {
	return e.versions[id] == seq
}

func (e *Editor) nodeIndex(id string) int {
	for i := range e.nodes {
		if e.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// Nodes returns a copy of the current node set.
func (e *Editor) Nodes() []domain.TreeNode {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.TreeNode, len(e.nodes))
	copy(out, e.nodes)
	return out
}

// Edges returns a copy of the current edge set.
func (e *Editor) Edges() []domain.TreeEdge {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.TreeEdge, len(e.edges))
	copy(out, e.edges)
	return out
}

func (e *Editor) Node(id string) (domain.TreeNode, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.nodeIndex(id); i >= 0 {
		return e.nodes[i], true
	}
	return domain.TreeNode{}, false
}

// Load replaces the local graph with the store's. Entities changed locally
// after the fetch was issued keep their local state, and so do nodes whose
// creation the store has not acknowledged yet.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	seq := e.stamp()
	e.loadSeq = seq
	e.mu.Unlock()

	graph, err := e.store.GetGraph(ctx)
	if err != nil {
		e.log.WithError(err).Warn("failed to load family graph")
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadSeq != seq {
		e.log.WithField("seq", seq).Debug("discarding superseded graph load")
		return nil
	}

	newer := func(id string) bool { return e.versions[id] > seq }
	pending := func(id string) bool { return e.pending[id] != 0 }

	nodes := make([]domain.TreeNode, 0, len(graph.Nodes))
	seen := make(map[string]bool, len(graph.Nodes))
	for _, n := range graph.Nodes {
		seen[n.ID] = true
		if !newer(n.ID) {
			nodes = append(nodes, n)
			continue
		}
		if i := e.nodeIndex(n.ID); i >= 0 {
			nodes = append(nodes, e.nodes[i])
		}
	}
	for _, n := range e.nodes {
		if !seen[n.ID] && (newer(n.ID) || pending(n.ID)) {
			nodes = append(nodes, n)
		}
	}

	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}
	edges := make([]domain.TreeEdge, 0, len(graph.Edges))
	seenEdges := make(map[string]bool, len(graph.Edges))
	for _, ed := range graph.Edges {
		seenEdges[ed.ID] = true
		if present[ed.Source] && present[ed.Target] && !newer(ed.ID) {
			edges = append(edges, ed)
		}
	}
	for _, ed := range e.edges {
		if seenEdges[ed.ID] && !newer(ed.ID) {
			continue
		}
		local := newer(ed.ID) || pending(ed.Source) || pending(ed.Target)
		if local && present[ed.Source] && present[ed.Target] {
			edges = append(edges, ed)
		}
	}

	e.nodes, e.edges = nodes, edges
	return nil
}

// Connect links two existing nodes. The choice is normally one of
// domain.RelationshipTypes; anything else, including an empty choice, is
// tagged RelationOther. Edges between the same pair are not merged.
func (e *Editor) Connect(source, target string, rt domain.RelationshipType) (domain.TreeEdge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range []string{source, target} {
		if e.nodeIndex(id) < 0 {
			return domain.TreeEdge{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
		}
	}

	edge := domain.NewEdge(source, target, rt, e.now())
	for e.hasEdge(edge.ID) {
		edge.ID += "-" + uuid.NewString()[:8]
	}
	e.stamp(edge.ID)
	e.edges = append(e.edges, edge)
	return edge, nil
}

func (e *Editor) hasEdge(id string) bool {
	for _, ed := range e.edges {
		if ed.ID == id {
			return true
		}
	}
	return false
}

// MoveNode records a drag of the node to pos.
func (e *Editor) MoveNode(id string, pos domain.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	e.stamp(id)
	e.nodes[i].Position = pos
	return nil
}

// AddNode shows the node at the next top-row slot right away and then asks
// the store to create it. On success the server's copy (with its photo
// reference) replaces the speculative one; on failure the node is removed
// and the user is notified.
func (e *Editor) AddNode(ctx context.Context, form *domain.NodeForm) (*domain.TreeNode, error) {
	if strings.TrimSpace(form.Name) == "" {
		return nil, fmt.Errorf("%w: Name is required", domain.ErrValidation)
	}

	e.mu.Lock()
	if form.NodeID == "" {
		form.NodeID = uuid.NewString()
	}
	if form.Position == nil {
		pos := domain.TopRowSlot(len(e.nodes))
		form.Position = &pos
	}
	id := form.NodeID
	speculative := domain.TreeNode{
		ID:       id,
		Type:     domain.NodeTypeFamilyMember,
		Position: *form.Position,
		Data:     form.NodeData(),
	}
	seq := e.stamp(id)
	e.pending[id] = seq
	e.nodes = append(e.nodes, speculative)
	e.mu.Unlock()

	created, err := e.store.CreateNode(ctx, form)

	e.mu.Lock()
	defer e.mu.Unlock()
	stillPending := e.pending[id] == seq
	if stillPending {
		delete(e.pending, id)
	}
	i := e.nodeIndex(id)

	if err != nil {
		if i >= 0 {
			e.nodes = append(e.nodes[:i], e.nodes[i+1:]...)
			e.dropEdgesTouching(id)
		}
		e.log.WithError(err).WithField("node", id).Warn("rolled back speculative node")
		e.notify.Notify(fmt.Sprintf("Failed to add %s: %v", speculative.Data.Name, err))
		return nil, err
	}

	if i < 0 {
		if !stillPending {
			// Deleted or cleared locally while the request was in flight.
			return created, nil
		}
		node := *created
		if node.Type == "" {
			node.Type = domain.NodeTypeFamilyMember
		}
		e.nodes = append(e.nodes, node)
		return created, nil
	}
	if e.current(id, seq) {
		pos := e.nodes[i].Position
		e.nodes[i] = *created
		e.nodes[i].Position = pos
		if e.nodes[i].Type == "" {
			e.nodes[i].Type = domain.NodeTypeFamilyMember
		}
	} else {
		e.nodes[i].Data.Photo = created.Data.Photo
	}
	return created, nil
}

// EditNode changes a node's details. Nothing changes locally until the store
// confirms.
func (e *Editor) EditNode(ctx context.Context, id string, form *domain.NodeForm) (*domain.TreeNode, error) {
	e.mu.Lock()
	if e.nodeIndex(id) < 0 {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	seq := e.stamp(id)
	e.mu.Unlock()

	updated, err := e.store.UpdateNode(ctx, id, form)
	if err != nil {
		e.log.WithError(err).WithField("node", id).Warn("failed to update node")
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(id, seq) {
		e.log.WithField("node", id).Debug("discarding superseded node update")
		return updated, nil
	}
	if i := e.nodeIndex(id); i >= 0 {
		e.nodes[i].Data = updated.Data
	}
	return updated, nil
}

// DeleteNode removes the node and every edge touching it once the store has
// confirmed, then schedules a full reload to catch anything the store
// removed besides.
func (e *Editor) DeleteNode(ctx context.Context, id string) (*domain.DeleteSummary, error) {
	summary, err := e.store.DeleteNode(ctx, id)
	if err != nil {
		e.log.WithError(err).WithField("node", id).Warn("failed to delete node")
		return nil, err
	}

	e.mu.Lock()
	e.stamp(id)
	delete(e.pending, id)
	if i := e.nodeIndex(id); i >= 0 {
		e.nodes = append(e.nodes[:i], e.nodes[i+1:]...)
	}
	e.dropEdgesTouching(id)
	e.mu.Unlock()

	e.scheduleReconcile()
	return summary, nil
}

func (e *Editor) dropEdgesTouching(id string) {
	kept := e.edges[:0]
	for _, ed := range e.edges {
		if !ed.Touches(id) {
			kept = append(kept, ed)
		}
	}
	e.edges = kept
}

// Save pushes the whole local graph to the store.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	graph := &domain.FamilyGraph{
		Nodes: make([]domain.TreeNode, len(e.nodes)),
		Edges: make([]domain.TreeEdge, len(e.edges)),
	}
	copy(graph.Nodes, e.nodes)
	copy(graph.Edges, e.edges)
	e.mu.Unlock()

	if err := e.store.SaveGraph(ctx, graph); err != nil {
		e.log.WithError(err).Warn("failed to save family graph")
		return err
	}
	return nil
}

// ClearAll empties the account's graph. Unless typed is exactly
// domain.ClearAllPhrase nothing is sent and ok is false.
func (e *Editor) ClearAll(ctx context.Context, typed string) (ok bool, err error) {
	if typed != domain.ClearAllPhrase {
		return false, nil
	}
	if _, err := e.store.ClearAll(ctx, typed); err != nil {
		e.log.WithError(err).Warn("failed to clear family graph")
		return false, err
	}
	e.reset()
	return true, nil
}

// WipeAll deletes every graph of every account. Unless typed is exactly
// domain.WipeAllPhrase nothing is sent and ok is false.
func (e *Editor) WipeAll(ctx context.Context, typed string) (ok bool, err error) {
	if typed != domain.WipeAllPhrase {
		return false, nil
	}
	if _, err := e.store.WipeAll(ctx, typed); err != nil {
		e.log.WithError(err).Warn("failed to wipe family graph data")
		return false, err
	}
	e.reset()
	e.scheduleReconcile()
	return true, nil
}

func (e *Editor) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadSeq = e.stamp()
	e.pending = map[string]uint64{}
	e.nodes = []domain.TreeNode{}
	e.edges = []domain.TreeEdge{}
}

func (e *Editor) scheduleReconcile() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	t := time.AfterFunc(e.ReconcileDelay, func() {
		if err := e.Load(context.Background()); err != nil {
			e.log.WithError(err).Warn("reconcile after delete failed")
		}
	})
	e.timers = append(e.timers, t)
}

// Close stops pending reloads.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for _, t := range e.timers {
		t.Stop()
	}
	e.timers = nil
}
