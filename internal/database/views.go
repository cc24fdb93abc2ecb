package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/friendgraph/internal/models"
)

const insertProfileViewQuery = `
	INSERT INTO profile_views (id, viewer_id, target_id, viewed_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO NOTHING
`

// InsertProfileViews persists a batch of view records in one transaction. Records
// are idempotent on their id, so a redelivered batch is harmless.
func InsertProfileViews(ctx context.Context, pool Pool, views []models.ProfileView) error {
	if len(views) == 0 {
		return nil
	}
	err := beginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, v := range views {
			if _, err := tx.Exec(ctx, insertProfileViewQuery, v.ID, v.ViewerID, v.TargetID, v.ViewedAt()); err != nil {
				return fmt.Errorf("insert profile view %s: %w", v.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return classify(err)
	}
	return nil
}
