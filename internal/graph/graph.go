// Package graph keeps the users and friendships relations in process and answers the
// friend-count aggregates with explicit hash-set operations.
package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/jason-s-yu/friendgraph/internal/friends"
	"github.com/jason-s-yu/friendgraph/internal/models"
)

// Graph is an in-memory edge relation. Writers take the write lock; every snapshot
// holds the read lock for its whole lifetime so a lookup never observes a
// half-applied mutation.
type Graph struct {
	mu    sync.RWMutex
	users map[int64]models.User
	// edges[owner][friend] = status
	edges map[int64]map[int64]models.FriendshipStatus
}

func New() *Graph {
	return &Graph{
		users: make(map[int64]models.User),
		edges: make(map[int64]map[int64]models.FriendshipStatus),
	}
}

// AddUser inserts or replaces a user record.
func (g *Graph) AddUser(u models.User) error {
	if u.ID <= 0 {
		return fmt.Errorf("user id must be positive, got %d", u.ID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[u.ID] = u
	return nil
}

// SetEdge upserts the directed edge userID -> friendUserID.
func (g *Graph) SetEdge(userID, friendUserID int64, status models.FriendshipStatus) error {
	if userID <= 0 || friendUserID <= 0 {
		return fmt.Errorf("edge ids must be positive, got %d -> %d", userID, friendUserID)
	}
	if userID == friendUserID {
		return fmt.Errorf("user %d cannot befriend themselves", userID)
	}
	if !status.Valid() {
		return fmt.Errorf("unknown friendship status %q", status)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out, ok := g.edges[userID]
	if !ok {
		out = make(map[int64]models.FriendshipStatus)
		g.edges[userID] = out
	}
	out[friendUserID] = status
	return nil
}

// ReadSnapshot runs fn under the read lock.
func (g *Graph) ReadSnapshot(ctx context.Context, fn func(friends.Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", friends.ErrStorageUnavailable, err)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(snapshot{g: g})
}

// snapshot reads g without locking; it is only handed out while the read lock is held.
type snapshot struct {
	g *Graph
}

func (s snapshot) AcceptedEdge(ctx context.Context, userID, friendUserID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", friends.ErrStorageUnavailable, err)
	}
	return s.g.edges[userID][friendUserID] == models.StatusAccepted, nil
}

func (s snapshot) User(ctx context.Context, id int64) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", friends.ErrStorageUnavailable, err)
	}
	u, ok := s.g.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %d", friends.ErrNotFound, id)
	}
	return u, nil
}

func (s snapshot) TotalFriendCount(ctx context.Context, userID int64) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, fmt.Errorf("%w: %v", friends.ErrStorageUnavailable, err)
	}
	n := len(s.g.acceptedSet(userID))
	return int64(n), n > 0, nil
}

func (s snapshot) TotalFriendCounts(ctx context.Context) (map[int64]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", friends.ErrStorageUnavailable, err)
	}
	view := make(map[int64]int64)
	for owner := range s.g.edges {
		if n := len(s.g.acceptedSet(owner)); n > 0 {
			view[owner] = int64(n)
		}
	}
	return view, nil
}

func (s snapshot) MutualFriendCount(ctx context.Context, viewerID, targetID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", friends.ErrStorageUnavailable, err)
	}
	common := intersect(s.g.acceptedSet(viewerID), s.g.acceptedSet(targetID))
	excludePair(common, viewerID, targetID)
	return int64(len(common)), nil
}

// acceptedSet returns the distinct users userID owns an accepted edge to.
func (g *Graph) acceptedSet(userID int64) map[int64]struct{} {
	set := make(map[int64]struct{})
	for friendID, status := range g.edges[userID] {
		if status == models.StatusAccepted {
			set[friendID] = struct{}{}
		}
	}
	return set
}

// intersect returns a new set holding the members present in both a and b.
func intersect(a, b map[int64]struct{}) map[int64]struct{} {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[int64]struct{}, len(a))
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// excludePair removes the viewer and the target from a mutual set. Neither is ever
// a mutual friend of the pair, even when the edges among the three of them would
// otherwise put them in the intersection.
func excludePair(set map[int64]struct{}, viewerID, targetID int64) {
	delete(set, viewerID)
	delete(set, targetID)
}
