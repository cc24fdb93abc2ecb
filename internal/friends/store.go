package friends

import (
	"context"

	"github.com/jason-s-yu/friendgraph/internal/models"
)

// Snapshot is a consistent, read-only view of the users and friendships relations.
// Every read made through one Snapshot observes the same version of the graph.
type Snapshot interface {
	// AcceptedEdge reports whether userID -> friendUserID exists with status accepted.
	AcceptedEdge(ctx context.Context, userID, friendUserID int64) (bool, error)

	// User returns the identity fields of id. A missing user is ErrNotFound.
	User(ctx context.Context, id int64) (models.User, error)

	// TotalFriendCount returns userID's entry in the total-friend-count view.
	// ok is false when the user owns no accepted edge; the count is then meaningless.
	TotalFriendCount(ctx context.Context, userID int64) (count int64, ok bool, err error)

	// TotalFriendCounts materializes the whole total-friend-count view.
	TotalFriendCounts(ctx context.Context) (map[int64]int64, error)

	// MutualFriendCount counts the users that both viewerID and targetID own an
	// accepted edge to, excluding viewerID and targetID themselves.
	MutualFriendCount(ctx context.Context, viewerID, targetID int64) (int64, error)
}

// Store opens read-only snapshots. fn runs while the snapshot is held; the snapshot
// must not be used after fn returns.
type Store interface {
	ReadSnapshot(ctx context.Context, fn func(Snapshot) error) error
}

// ProfileQuerier is implemented by stores that can answer the whole friend profile
// with a single composed query. Lookup prefers it over composing Snapshot reads.
type ProfileQuerier interface {
	QueryFriendProfile(ctx context.Context, viewerID, targetID int64) (models.FriendProfile, error)
}
