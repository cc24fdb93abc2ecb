// internal/friends/lookup.go
package friends

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friendgraph/internal/models"
)

// pairRequest carries the lookup arguments through the validator so that the rules
// live next to the fields they constrain.
type pairRequest struct {
	ViewerID int64 `validate:"gt=0"`
	TargetID int64 `validate:"gt=0,nefield=ViewerID"`
}

// Lookup answers friend profile requests against a Store. It holds no per-request
// state and is safe for concurrent use.
type Lookup struct {
	store    Store
	validate *validator.Validate
	logger   logrus.FieldLogger
}

// NewLookup wires a Lookup to store. A nil logger discards output.
func NewLookup(store Store, logger logrus.FieldLogger) *Lookup {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Lookup{
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

// ValidatePair rejects a pair before any query executes.
func (l *Lookup) ValidatePair(viewerID, targetID int64) error {
	err := l.validate.Struct(pairRequest{ViewerID: viewerID, TargetID: targetID})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch {
		case fe.Tag() == "nefield":
			return fmt.Errorf("%w: viewer and target are the same user (%d)", ErrInvalidInput, viewerID)
		default:
			return fmt.Errorf("%w: %s must be a positive id, got %v", ErrInvalidInput, fe.Field(), fe.Value())
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// GetFriendProfile returns targetID's profile as seen by viewerID.
//
// It fails with ErrInvalidInput for a bad pair, ErrNotFound when no accepted
// viewer->target edge exists or the target owns no accepted edge, and
// ErrStorageUnavailable when the store cannot answer.
func (l *Lookup) GetFriendProfile(ctx context.Context, viewerID, targetID int64) (*models.FriendProfile, error) {
	if err := l.ValidatePair(viewerID, targetID); err != nil {
		return nil, err
	}

	var (
		profile models.FriendProfile
		err     error
	)
	if pq, ok := l.store.(ProfileQuerier); ok {
		profile, err = pq.QueryFriendProfile(ctx, viewerID, targetID)
	} else {
		err = l.store.ReadSnapshot(ctx, func(s Snapshot) error {
			var composeErr error
			profile, composeErr = ComposeProfile(ctx, s, viewerID, targetID)
			return composeErr
		})
	}
	if err != nil {
		return nil, err
	}

	if err := l.validate.Struct(profile); err != nil {
		return nil, fmt.Errorf("friend profile %d for viewer %d is malformed: %w", targetID, viewerID, err)
	}

	l.logger.WithFields(logrus.Fields{
		"viewer_id":     viewerID,
		"target_id":     targetID,
		"total_friends": profile.TotalFriendCount,
		"mutual":        profile.MutualFriendCount,
	}).Debug("friend profile resolved")

	return &profile, nil
}

// ComposeProfile builds the profile from individual reads on one snapshot. Stores
// without a composed query fall back to this.
func ComposeProfile(ctx context.Context, s Snapshot, viewerID, targetID int64) (models.FriendProfile, error) {
	ok, err := s.AcceptedEdge(ctx, viewerID, targetID)
	if err != nil {
		return models.FriendProfile{}, err
	}
	if !ok {
		return models.FriendProfile{}, fmt.Errorf("%w: no accepted friendship %d -> %d", ErrNotFound, viewerID, targetID)
	}

	target, err := s.User(ctx, targetID)
	if err != nil {
		return models.FriendProfile{}, err
	}

	total, ok, err := s.TotalFriendCount(ctx, targetID)
	if err != nil {
		return models.FriendProfile{}, err
	}
	if !ok {
		return models.FriendProfile{}, fmt.Errorf("%w: user %d has no accepted friendships", ErrNotFound, targetID)
	}

	mutual, err := s.MutualFriendCount(ctx, viewerID, targetID)
	if err != nil {
		return models.FriendProfile{}, err
	}

	return models.FriendProfile{
		ID:                target.ID,
		FullName:          target.FullName,
		PhoneNumber:       target.PhoneNumber,
		TotalFriendCount:  total,
		MutualFriendCount: mutual,
	}, nil
}
