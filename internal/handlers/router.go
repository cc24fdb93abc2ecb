package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friendgraph/internal/middleware"
)

// RouterConfig collects what NewRouter wires together.
type RouterConfig struct {
	Logger        logrus.FieldLogger
	Lookup        ProfileLookup
	Views         ViewPublisher // nil disables profile-view events
	Users         Authenticator // nil disables /user/login
	LookupTimeout time.Duration

	// AllowedOrigins defaults to any http(s) origin when empty.
	AllowedOrigins []string
}

// NewRouter builds the service's HTTP routes.
func NewRouter(rc RouterConfig) http.Handler {
	origins := rc.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(middleware.LogMiddleware(rc.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if rc.Users != nil {
		r.Post("/user/login", LoginHandler(rc.Logger, rc.Users))
	}
	r.Get("/friends/{"+FriendProfileParam+"}", GetFriendProfileHandler(rc.Logger, rc.Lookup, rc.Views, rc.LookupTimeout))

	return r
}
