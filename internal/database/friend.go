// internal/database/friend.go

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/friendgraph/internal/friends"
	"github.com/jason-s-yu/friendgraph/internal/models"
)

// Every lookup reads one snapshot: total and mutual counts must describe the same
// version of the friendships table.
var snapshotTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

// totalFriendCountView is the total-friend-count aggregate over every owner, with the
// accepted status bound to the given placeholder. Owners without an accepted edge
// produce no row.
func totalFriendCountView(status string) string {
	return `
		SELECT user_id, COUNT(DISTINCT friend_user_id) AS total_friend_count
		FROM friendships
		WHERE status = ` + status + `
		GROUP BY user_id
	`
}

// mutualFriendCountView counts the target ($2) accepted friends that are also among
// the viewer ($1) accepted friends. The NOT IN filter drops the pair itself.
const mutualFriendCountView = `
	SELECT COUNT(DISTINCT target_edges.friend_user_id) AS mutual_friend_count
	FROM friendships AS target_edges
	WHERE target_edges.user_id = $2
	  AND target_edges.status = $3
	  AND target_edges.friend_user_id IN (
	      SELECT viewer_edges.friend_user_id
	      FROM friendships AS viewer_edges
	      WHERE viewer_edges.user_id = $1
	        AND viewer_edges.status = $3
	  )
	  AND target_edges.friend_user_id NOT IN ($1, $2)
`

var (
	friendProfileQuery = `
		SELECT friends.id,
		       friends.full_name,
		       friends.phone_number,
		       total.total_friend_count,
		       mutual.mutual_friend_count
		FROM friendships
		JOIN users AS friends ON friends.id = friendships.friend_user_id
		JOIN (` + totalFriendCountView("$3") + `) AS total ON total.user_id = friends.id
		CROSS JOIN (` + mutualFriendCountView + `) AS mutual
		WHERE friendships.user_id = $1
		  AND friendships.friend_user_id = $2
		  AND friendships.status = $3
	`

	totalFriendCountQuery = `
		SELECT total.total_friend_count
		FROM (` + totalFriendCountView("$2") + `) AS total
		WHERE total.user_id = $1
	`

	totalFriendCountsQuery = `
		SELECT total.user_id, total.total_friend_count
		FROM (` + totalFriendCountView("$1") + `) AS total
	`
)

const acceptedEdgeQuery = `
	SELECT EXISTS (
		SELECT 1 FROM friendships
		WHERE user_id = $1 AND friend_user_id = $2 AND status = $3
	)
`

var accepted = string(models.StatusAccepted)

// FriendStore answers the friend-profile aggregates from Postgres.
type FriendStore struct {
	pool Pool
}

func NewFriendStore(pool Pool) *FriendStore {
	return &FriendStore{pool: pool}
}

// ReadSnapshot runs fn inside a read-only repeatable-read transaction.
func (s *FriendStore) ReadSnapshot(ctx context.Context, fn func(friends.Snapshot) error) error {
	return s.inSnapshot(ctx, func(tx pgx.Tx) error {
		return fn(txSnapshot{tx: tx})
	})
}

// QueryFriendProfile resolves the whole profile with one composed statement.
func (s *FriendStore) QueryFriendProfile(ctx context.Context, viewerID, targetID int64) (models.FriendProfile, error) {
	var profile models.FriendProfile
	err := s.inSnapshot(ctx, func(tx pgx.Tx) error {
		err := pgxscan.Get(ctx, tx, &profile, friendProfileQuery, viewerID, targetID, accepted)
		if pgxscan.NotFound(err) {
			// Either no accepted viewer->target edge, or the target owns no accepted edge.
			return fmt.Errorf("%w: no friend profile %d for viewer %d", friends.ErrNotFound, targetID, viewerID)
		}
		return err
	})
	if err != nil {
		return models.FriendProfile{}, err
	}
	return profile, nil
}

func (s *FriendStore) inSnapshot(ctx context.Context, f func(tx pgx.Tx) error) error {
	if err := beginTxFunc(ctx, s.pool, snapshotTxOptions, f); err != nil {
		return classify(err)
	}
	return nil
}

// txSnapshot serves the individual aggregates from an open snapshot transaction.
type txSnapshot struct {
	tx pgx.Tx
}

func (s txSnapshot) AcceptedEdge(ctx context.Context, userID, friendUserID int64) (bool, error) {
	var ok bool
	if err := s.tx.QueryRow(ctx, acceptedEdgeQuery, userID, friendUserID, accepted).Scan(&ok); err != nil {
		return false, classify(fmt.Errorf("accepted edge %d -> %d: %w", userID, friendUserID, err))
	}
	return ok, nil
}

func (s txSnapshot) User(ctx context.Context, id int64) (models.User, error) {
	u, err := getUserByID(ctx, s.tx, id)
	if err != nil {
		return models.User{}, classify(err)
	}
	return *u, nil
}

func (s txSnapshot) TotalFriendCount(ctx context.Context, userID int64) (int64, bool, error) {
	var n int64
	err := s.tx.QueryRow(ctx, totalFriendCountQuery, userID, accepted).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, classify(fmt.Errorf("total friend count for %d: %w", userID, err))
	}
	return n, true, nil
}

func (s txSnapshot) TotalFriendCounts(ctx context.Context) (map[int64]int64, error) {
	var rows []struct {
		UserID           int64 `db:"user_id"`
		TotalFriendCount int64 `db:"total_friend_count"`
	}
	if err := pgxscan.Select(ctx, s.tx, &rows, totalFriendCountsQuery, accepted); err != nil {
		return nil, classify(fmt.Errorf("total friend counts: %w", err))
	}
	view := make(map[int64]int64, len(rows))
	for _, r := range rows {
		view[r.UserID] = r.TotalFriendCount
	}
	return view, nil
}

func (s txSnapshot) MutualFriendCount(ctx context.Context, viewerID, targetID int64) (int64, error) {
	var n int64
	if err := s.tx.QueryRow(ctx, mutualFriendCountView, viewerID, targetID, accepted).Scan(&n); err != nil {
		return 0, classify(fmt.Errorf("mutual friend count %d/%d: %w", viewerID, targetID, err))
	}
	return n, nil
}
