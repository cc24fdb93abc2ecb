// internal/handlers/friend.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friendgraph/internal/friends"
	"github.com/jason-s-yu/friendgraph/internal/middleware"
	"github.com/jason-s-yu/friendgraph/internal/models"
)

// ProfileLookup is the friend profile operation the handler serves.
type ProfileLookup interface {
	GetFriendProfile(ctx context.Context, viewerID, targetID int64) (*models.FriendProfile, error)
}

// ViewPublisher receives a record of every profile served. Optional.
type ViewPublisher interface {
	PublishView(ctx context.Context, viewerID, targetID int64) error
}

// FriendProfileParam is the chi URL parameter holding the target user id.
const FriendProfileParam = "friendUserID"

// GetFriendProfileHandler serves GET /friends/{friendUserID} for the authenticated viewer.
//
// Response payload:
//
//	{
//	  "id": 2,
//	  "fullName": "Bob",
//	  "phoneNumber": "+15550002",
//	  "totalFriendCount": 2,
//	  "mutualFriendCount": 1
//	}
//
// 400 for a malformed or self-referencing id, 401 without a valid session, 404 when
// the two users are not accepted friends, 503 when the store is unavailable.
func GetFriendProfileHandler(logger logrus.FieldLogger, lookup ProfileLookup, views ViewPublisher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context(), logger)

		viewerID, err := viewerFromRequest(r)
		if err != nil {
			log.WithError(err).Debug("rejected unauthenticated profile request")
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid session")
			return
		}

		targetID, err := strconv.ParseInt(chi.URLParam(r, FriendProfileParam), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "friend user id must be an integer")
			return
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		log = log.WithFields(logrus.Fields{"viewer_id": viewerID, "target_id": targetID})
		profile, err := lookup.GetFriendProfile(ctx, viewerID, targetID)
		switch {
		case err == nil:
		case errors.Is(err, friends.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		case errors.Is(err, friends.ErrNotFound):
			log.WithError(err).Debug("friend profile not found")
			writeError(w, http.StatusNotFound, "NOT_FOUND", "friend not found")
			return
		case errors.Is(err, friends.ErrStorageUnavailable):
			log.WithError(err).Error("friend profile lookup failed: storage unavailable")
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "storage unavailable, retry later")
			return
		default:
			log.WithError(err).Error("friend profile lookup failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
			return
		}

		if views != nil {
			if err := views.PublishView(r.Context(), viewerID, targetID); err != nil {
				log.WithError(err).Warn("failed to publish profile view")
			}
		}

		writeJSON(w, http.StatusOK, profile)
	}
}
