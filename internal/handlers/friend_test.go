// internal/handlers/friend_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/friendgraph/internal/auth"
	"github.com/jason-s-yu/friendgraph/internal/friends"
	"github.com/jason-s-yu/friendgraph/internal/models"
)

type fakeLookup struct {
	profile *models.FriendProfile
	err     error

	viewer, target int64
	deadline       bool
}

func (f *fakeLookup) GetFriendProfile(ctx context.Context, viewerID, targetID int64) (*models.FriendProfile, error) {
	f.viewer, f.target = viewerID, targetID
	_, f.deadline = ctx.Deadline()
	return f.profile, f.err
}

type fakeViews struct {
	published [][2]int64
	err       error
}

func (f *fakeViews) PublishView(_ context.Context, viewerID, targetID int64) error {
	f.published = append(f.published, [2]int64{viewerID, targetID})
	return f.err
}

type fakeUsers struct {
	token string
}

func (f *fakeUsers) AuthenticateUser(_ context.Context, email, password string) (string, error) {
	if email == "alice@example.com" && password == "password" {
		return f.token, nil
	}
	return "", errors.New("invalid credentials")
}

func newTestRouter(t *testing.T, lookup ProfileLookup, views ViewPublisher) http.Handler {
	t.Helper()
	require.NoError(t, auth.Init("1h"))
	logger, _ := test.NewNullLogger()
	rc := RouterConfig{
		Logger:        logger,
		Lookup:        lookup,
		LookupTimeout: time.Second,
		Users:         &fakeUsers{token: "issued"},
	}
	if views != nil {
		rc.Views = views
	}
	return NewRouter(rc)
}

func profileRequest(t *testing.T, viewerID int64, target string) *http.Request {
	t.Helper()
	token, err := auth.CreateJWT(viewerID)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/friends/"+target, nil)
	req.Header.Set("Cookie", "auth_token="+token)
	return req
}

func TestGetFriendProfileOK(t *testing.T) {
	lookup := &fakeLookup{profile: &models.FriendProfile{
		ID: 2, FullName: "Bob", PhoneNumber: "+15550002", TotalFriendCount: 2, MutualFriendCount: 1,
	}}
	views := &fakeViews{}
	router := newTestRouter(t, lookup, views)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, profileRequest(t, 1, "2"))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"id":2,"fullName":"Bob","phoneNumber":"+15550002","totalFriendCount":2,"mutualFriendCount":1}`, w.Body.String())
	assert.Equal(t, int64(1), lookup.viewer)
	assert.Equal(t, int64(2), lookup.target)
	assert.True(t, lookup.deadline, "lookup runs under the configured timeout")
	assert.Equal(t, [][2]int64{{1, 2}}, views.published)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGetFriendProfileBearerToken(t *testing.T) {
	lookup := &fakeLookup{profile: &models.FriendProfile{ID: 2, FullName: "Bob", PhoneNumber: "+2", TotalFriendCount: 1}}
	router := newTestRouter(t, lookup, nil)

	token, err := auth.CreateJWT(7)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/friends/2", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), lookup.viewer)
}

func TestGetFriendProfilePublishFailureIsIgnored(t *testing.T) {
	lookup := &fakeLookup{profile: &models.FriendProfile{ID: 2, FullName: "Bob", PhoneNumber: "+2", TotalFriendCount: 1}}
	router := newTestRouter(t, lookup, &fakeViews{err: errors.New("redis down")})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, profileRequest(t, 1, "2"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetFriendProfileErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		target     string
		wantStatus int
		wantCode   string
	}{
		{"not friends", fmt.Errorf("%w: no edge", friends.ErrNotFound), "4", http.StatusNotFound, "NOT_FOUND"},
		{"self", fmt.Errorf("%w: same user", friends.ErrInvalidInput), "1", http.StatusBadRequest, "BAD_REQUEST"},
		{"unavailable", fmt.Errorf("%w: dial tcp", friends.ErrStorageUnavailable), "2", http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"unexpected", errors.New("malformed row"), "2", http.StatusInternalServerError, "INTERNAL"},
		{"non-numeric id", nil, "bob", http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			views := &fakeViews{}
			router := newTestRouter(t, &fakeLookup{err: tc.err}, views)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, profileRequest(t, 1, tc.target))

			assert.Equal(t, tc.wantStatus, w.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.wantCode, body.Code)
			assert.Empty(t, views.published, "failed lookups are not recorded")
			if tc.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "1", w.Header().Get("Retry-After"))
			}
		})
	}
}

func TestGetFriendProfileUnauthenticated(t *testing.T) {
	lookup := &fakeLookup{}
	router := newTestRouter(t, lookup, nil)

	for _, header := range []string{"", "auth_token=garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/friends/2", nil)
		if header != "" {
			req.Header.Set("Cookie", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	assert.Zero(t, lookup.target, "lookup must not run without a viewer")
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t, &fakeLookup{}, nil)

	body, _ := json.Marshal(loginRequest{Email: "alice@example.com", Password: "password"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"issued"}`, w.Body.String())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authCookieName, cookies[0].Name)
	assert.Equal(t, "issued", cookies[0].Value)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	body, _ = json.Marshal(loginRequest{Email: "alice@example.com", Password: "nope"})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewReader(body)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewReader([]byte(`{`))))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPing(t *testing.T) {
	router := newTestRouter(t, &fakeLookup{}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestViewerCookieMatchesExactName(t *testing.T) {
	lookup := &fakeLookup{profile: &models.FriendProfile{ID: 2, FullName: "Bob", PhoneNumber: "+2", TotalFriendCount: 1}}
	router := newTestRouter(t, lookup, nil)

	token, err := auth.CreateJWT(1)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/friends/2", nil)
	req.Header.Set("Cookie", "legacy_auth_token=stale; auth_token="+token+"; theme=dark")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), lookup.viewer)

	// a sibling cookie alone is not a session
	lookup = &fakeLookup{}
	router = newTestRouter(t, lookup, nil)
	req = httptest.NewRequest(http.MethodGet, "/friends/2", nil)
	req.Header.Set("Cookie", "legacy_auth_token="+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
