package database

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jason-s-yu/friendgraph/internal/friends"
)

// classify maps a driver error onto the friends error taxonomy. Errors that already
// carry a friends sentinel pass through untouched.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, friends.ErrNotFound),
		errors.Is(err, friends.ErrInvalidInput),
		errors.Is(err, friends.ErrStorageUnavailable):
		return err
	case errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err):
		return fmt.Errorf("%w: %v", friends.ErrNotFound, err)
	case unavailable(err):
		return fmt.Errorf("%w: %w", friends.ErrStorageUnavailable, err)
	}
	return err
}

func unavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "08", // connection exception
			"53", // insufficient resources
			"57": // operator intervention, includes query_canceled
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
