package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/friendgraph/internal/auth"
	"github.com/jason-s-yu/friendgraph/internal/graph"
)

const (
	upsertSeedUserQuery = `
		INSERT INTO users (id, full_name, phone_number, email, password)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		ON CONFLICT (id)
		DO UPDATE SET full_name = EXCLUDED.full_name,
		              phone_number = EXCLUDED.phone_number,
		              email = EXCLUDED.email,
		              password = EXCLUDED.password
	`

	upsertFriendshipQuery = `
		INSERT INTO friendships (user_id, friend_user_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, friend_user_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
	`

	// keeps BIGSERIAL ahead of the explicit ids written above
	resetUserSequenceQuery = `
		SELECT setval(pg_get_serial_sequence('users', 'id'), GREATEST((SELECT MAX(id) FROM users), 1))
	`
)

// SeedFixture writes every user and friendship in f within one transaction.
// Plain-text fixture passwords are hashed before they are stored.
func SeedFixture(ctx context.Context, pool Pool, f *graph.Fixture) error {
	return beginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, u := range f.Users {
			password := u.Password
			if password != "" {
				hash, err := auth.CreateHash(password, auth.Params)
				if err != nil {
					return fmt.Errorf("hash password for user %d: %w", u.ID, err)
				}
				password = hash
			}
			if _, err := tx.Exec(ctx, upsertSeedUserQuery, u.ID, u.FullName, u.PhoneNumber, u.Email, password); err != nil {
				return fmt.Errorf("upsert user %d: %w", u.ID, err)
			}
		}
		for _, e := range f.Friendships {
			if !e.Status.Valid() {
				return fmt.Errorf("friendship %d -> %d has unknown status %q", e.UserID, e.FriendUserID, e.Status)
			}
			if _, err := tx.Exec(ctx, upsertFriendshipQuery, e.UserID, e.FriendUserID, string(e.Status)); err != nil {
				return fmt.Errorf("upsert friendship %d -> %d: %w", e.UserID, e.FriendUserID, err)
			}
		}
		if _, err := tx.Exec(ctx, resetUserSequenceQuery); err != nil {
			return fmt.Errorf("reset user sequence: %w", err)
		}
		return nil
	})
}
