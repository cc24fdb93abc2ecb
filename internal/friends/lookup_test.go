package friends_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/friendgraph/internal/friends"
	"github.com/jason-s-yu/friendgraph/internal/graph"
	"github.com/jason-s-yu/friendgraph/internal/models"
)

const (
	alice int64 = iota + 1
	bob
	carol
	dave
)

func newGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for id, name := range map[int64]string{alice: "Alice", bob: "Bob", carol: "Carol", dave: "Dave"} {
		require.NoError(t, g.AddUser(models.User{ID: id, FullName: name, PhoneNumber: fmt.Sprintf("+1555000%d", id)}))
	}
	return g
}

func befriend(t *testing.T, g *graph.Graph, a, b int64) {
	t.Helper()
	require.NoError(t, g.SetEdge(a, b, models.StatusAccepted))
	require.NoError(t, g.SetEdge(b, a, models.StatusAccepted))
}

// countingStore records how many snapshots were opened.
type countingStore struct {
	friends.Store
	opened int
}

func (c *countingStore) ReadSnapshot(ctx context.Context, fn func(friends.Snapshot) error) error {
	c.opened++
	return c.Store.ReadSnapshot(ctx, fn)
}

func TestGetFriendProfileTriangle(t *testing.T) {
	g := newGraph(t)
	befriend(t, g, alice, bob)
	befriend(t, g, alice, carol)
	befriend(t, g, bob, carol)

	profile, err := friends.NewLookup(g, nil).GetFriendProfile(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Equal(t, &models.FriendProfile{
		ID:                bob,
		FullName:          "Bob",
		PhoneNumber:       "+15550002",
		TotalFriendCount:  2,
		MutualFriendCount: 1,
	}, profile)
}

func TestGetFriendProfileSinglePair(t *testing.T) {
	g := newGraph(t)
	befriend(t, g, alice, bob)

	profile, err := friends.NewLookup(g, nil).GetFriendProfile(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.TotalFriendCount)
	assert.Equal(t, int64(0), profile.MutualFriendCount)
}

func TestGetFriendProfileNotFriends(t *testing.T) {
	g := newGraph(t)
	befriend(t, g, alice, bob)
	require.NoError(t, g.SetEdge(alice, dave, models.StatusPending))

	_, err := friends.NewLookup(g, nil).GetFriendProfile(context.Background(), alice, dave)
	assert.ErrorIs(t, err, friends.ErrNotFound)

	require.NoError(t, g.SetEdge(alice, dave, models.StatusDeclined))
	_, err = friends.NewLookup(g, nil).GetFriendProfile(context.Background(), alice, dave)
	assert.ErrorIs(t, err, friends.ErrNotFound)
}

func TestGetFriendProfileFriendOfViewerOnly(t *testing.T) {
	g := newGraph(t)
	befriend(t, g, alice, bob)
	befriend(t, g, alice, carol)

	profile, err := friends.NewLookup(g, nil).GetFriendProfile(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.TotalFriendCount)
	assert.Equal(t, int64(0), profile.MutualFriendCount)
}

func TestGetFriendProfileTargetWithoutAcceptedEdges(t *testing.T) {
	g := newGraph(t)
	// half-accepted: alice accepted bob, bob never accepted anyone
	require.NoError(t, g.SetEdge(alice, bob, models.StatusAccepted))
	require.NoError(t, g.SetEdge(bob, alice, models.StatusPending))

	_, err := friends.NewLookup(g, nil).GetFriendProfile(context.Background(), alice, bob)
	assert.ErrorIs(t, err, friends.ErrNotFound)
}

func TestGetFriendProfileInvalidInput(t *testing.T) {
	store := &countingStore{Store: newGraph(t)}
	lookup := friends.NewLookup(store, nil)

	cases := []struct {
		name           string
		viewer, target int64
	}{
		{"self", alice, alice},
		{"zero viewer", 0, bob},
		{"negative target", alice, -3},
		{"both zero", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lookup.GetFriendProfile(context.Background(), tc.viewer, tc.target)
			assert.ErrorIs(t, err, friends.ErrInvalidInput)
		})
	}
	assert.Zero(t, store.opened, "no snapshot may be opened for a rejected pair")
}

func TestGetFriendProfileIsIdempotent(t *testing.T) {
	g := newGraph(t)
	befriend(t, g, alice, bob)
	befriend(t, g, alice, carol)
	befriend(t, g, bob, carol)
	lookup := friends.NewLookup(g, nil)

	first, err := lookup.GetFriendProfile(context.Background(), alice, bob)
	require.NoError(t, err)
	second, err := lookup.GetFriendProfile(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetFriendProfileStorageUnavailable(t *testing.T) {
	g := newGraph(t)
	befriend(t, g, alice, bob)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := friends.NewLookup(g, nil).GetFriendProfile(ctx, alice, bob)
	assert.ErrorIs(t, err, friends.ErrStorageUnavailable)
}

// querierStore answers with a canned profile and fails the snapshot path.
type querierStore struct {
	profile models.FriendProfile
	err     error
	calls   int
}

func (q *querierStore) ReadSnapshot(context.Context, func(friends.Snapshot) error) error {
	return errors.New("snapshot path must not be used")
}

func (q *querierStore) QueryFriendProfile(_ context.Context, viewerID, targetID int64) (models.FriendProfile, error) {
	q.calls++
	return q.profile, q.err
}

func TestGetFriendProfilePrefersComposedQuery(t *testing.T) {
	want := models.FriendProfile{ID: bob, FullName: "Bob", PhoneNumber: "+2", TotalFriendCount: 3, MutualFriendCount: 1}
	store := &querierStore{profile: want}

	got, err := friends.NewLookup(store, nil).GetFriendProfile(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
	assert.Equal(t, 1, store.calls)
}

func TestGetFriendProfilePassesStoreErrors(t *testing.T) {
	store := &querierStore{err: fmt.Errorf("%w: dial tcp", friends.ErrStorageUnavailable)}
	_, err := friends.NewLookup(store, nil).GetFriendProfile(context.Background(), alice, bob)
	assert.ErrorIs(t, err, friends.ErrStorageUnavailable)
}

func TestGetFriendProfileRejectsMalformedRow(t *testing.T) {
	store := &querierStore{profile: models.FriendProfile{ID: bob, FullName: "", PhoneNumber: "+2", TotalFriendCount: 1}}
	_, err := friends.NewLookup(store, nil).GetFriendProfile(context.Background(), alice, bob)
	require.Error(t, err)
	assert.NotErrorIs(t, err, friends.ErrNotFound)
	assert.NotErrorIs(t, err, friends.ErrInvalidInput)
}

func TestValidatePairMessages(t *testing.T) {
	lookup := friends.NewLookup(graph.New(), nil)
	assert.NoError(t, lookup.ValidatePair(alice, bob))
	assert.ErrorContains(t, lookup.ValidatePair(alice, alice), "same user")
	assert.ErrorContains(t, lookup.ValidatePair(0, bob), "ViewerID")
}
