package handlers

import (
	"net/http"
	"reflect"
	"strings"

	"communityboard/internal/access"
	"communityboard/internal/config"
	"communityboard/internal/middleware"
	"communityboard/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	AuthService         service.AuthService
	UserService         service.UserService
	CommunityService    service.CommunityService
	PostService         service.PostService
	CommentService      service.CommentService
	VoteService         service.VoteService
	SubscriptionService service.SubscriptionService
	BanService          service.BanService
	TablesService       service.TablesService
	Cfg                 *config.Config
	Validate            *validator.Validate
	Log                 logrus.FieldLogger
}

func NewHandlers(services *service.Service, cfg *config.Config, log logrus.FieldLogger) *Handlers {
	return &Handlers{
		AuthService:         services.Auth,
		UserService:         services.User,
		CommunityService:    services.Community,
		PostService:         services.Post,
		CommentService:      services.Comment,
		VoteService:         services.Vote,
		SubscriptionService: services.Subscription,
		BanService:          services.Ban,
		TablesService:       services.Tables,
		Cfg:                 cfg,
		Validate:            NewValidator(),
		Log:                 log,
	}
}

// NewValidator reports field errors under their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RouterOptions carries the infrastructure the router needs besides the
// handlers themselves.
type RouterOptions struct {
	Limiter  middleware.Limiter
	Observer middleware.RequestObserver
	Metrics  http.Handler
	// nil trusts no proxy and keys clients by peer address
	Proxies middleware.Proxies
}

// Router builds the full HTTP surface with its middleware stack.
func (h *Handlers) Router(opts RouterOptions) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, "route not found", "not_found", http.StatusNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, "method not allowed", "method_not_allowed", http.StatusMethodNotAllowed)
	})
	if opts.Observer != nil {
		router.Use(mux.MiddlewareFunc(middleware.Metrics(opts.Observer)))
	}

	// operations
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.Use(h.pathIDs)

	// auth
	auth := api.PathPrefix("/auth").Subrouter()
	if opts.Limiter != nil {
		auth.Use(mux.MiddlewareFunc(middleware.RateLimit(opts.Limiter, h.Log)))
	}
	auth.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", h.RefreshToken).Methods(http.MethodPost)
	auth.Handle("/logout", authed(h.Logout)).Methods(http.MethodPost)
	auth.Handle("/sessions", authed(h.ListSessions)).Methods(http.MethodGet)
	auth.Handle("/sessions/{sessionID}", authed(h.RevokeSession)).Methods(http.MethodDelete)
	auth.Handle("/password", authed(h.ChangePassword)).Methods(http.MethodPut)

	// current user
	api.Handle("/me", authed(h.GetCurrentUser)).Methods(http.MethodGet)
	api.Handle("/me", authed(h.UpdateCurrentUser)).Methods(http.MethodPatch)
	api.Handle("/me/posts", authed(h.GetMyPosts)).Methods(http.MethodGet)
	api.Handle("/me/subscriptions", authed(h.GetMySubscriptions)).Methods(http.MethodGet)

	// users
	api.Handle("/users", authed(h.ListUsers)).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}", h.GetUser).Methods(http.MethodGet)
	api.Handle("/users/{userID}/deactivate", authed(h.DeactivateUser)).Methods(http.MethodPost)

	// communities
	api.HandleFunc("/communities", h.ListCommunities).Methods(http.MethodGet)
	api.Handle("/communities", authed(h.CreateCommunity)).Methods(http.MethodPost)
	api.HandleFunc("/communities/{communityID}", h.GetCommunity).Methods(http.MethodGet)
	api.Handle("/communities/{communityID}", authed(h.UpdateCommunity)).Methods(http.MethodPut)
	api.Handle("/communities/{communityID}", authed(h.DeleteCommunity)).Methods(http.MethodDelete)
	api.Handle("/communities/{communityID}/restore", authed(h.RestoreCommunity)).Methods(http.MethodPost)
	api.HandleFunc("/communities/{communityID}/moderators", h.ListModerators).Methods(http.MethodGet)
	api.Handle("/communities/{communityID}/moderators", authed(h.AssignModerator)).Methods(http.MethodPost)
	api.Handle("/communities/{communityID}/moderators/{userID}", authed(h.RemoveModerator)).Methods(http.MethodDelete)
	api.Handle("/communities/{communityID}/subscription", authed(h.Subscribe)).Methods(http.MethodPost)
	api.Handle("/communities/{communityID}/subscription", authed(h.Unsubscribe)).Methods(http.MethodDelete)
	api.Handle("/communities/{communityID}/bans", authed(h.ListBans)).Methods(http.MethodGet)
	api.Handle("/communities/{communityID}/bans", authed(h.IssueBan)).Methods(http.MethodPost)

	// bans
	api.Handle("/bans/{banID}", authed(h.GetBan)).Methods(http.MethodGet)
	api.Handle("/bans/{banID}", authed(h.UpdateBan)).Methods(http.MethodPut)
	api.Handle("/bans/{banID}", authed(h.LiftBan)).Methods(http.MethodDelete)

	// posts
	api.HandleFunc("/posts", h.GetPosts).Methods(http.MethodGet)
	api.Handle("/posts", authed(h.CreatePost)).Methods(http.MethodPost)
	api.HandleFunc("/posts/{postID}", h.GetPost).Methods(http.MethodGet)
	api.Handle("/posts/{postID}", authed(h.UpdatePost)).Methods(http.MethodPut)
	api.Handle("/posts/{postID}", authed(h.DeletePost)).Methods(http.MethodDelete)
	api.Handle("/posts/{postID}/restore", authed(h.RestorePost)).Methods(http.MethodPost)
	api.Handle("/posts/{postID}/status", authed(h.PublishPost)).Methods(http.MethodPatch)
	api.Handle("/posts/{postID}/images", authed(h.AddImage)).Methods(http.MethodPost)
	api.Handle("/posts/{postID}/images/{imageID}", authed(h.DeleteImage)).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{postID}/comments", h.GetComments).Methods(http.MethodGet)
	api.Handle("/posts/{postID}/comments", authed(h.CreateComment)).Methods(http.MethodPost)
	api.Handle("/posts/{postID}/vote", authed(h.VotePost)).Methods(http.MethodPut)
	api.Handle("/posts/{postID}/vote", authed(h.RetractPostVote)).Methods(http.MethodDelete)

	// comments
	api.Handle("/comments/{commentID}", authed(h.UpdateComment)).Methods(http.MethodPut)
	api.Handle("/comments/{commentID}", authed(h.DeleteComment)).Methods(http.MethodDelete)
	api.Handle("/comments/{commentID}/vote", authed(h.VoteComment)).Methods(http.MethodPut)
	api.Handle("/comments/{commentID}/vote", authed(h.RetractCommentVote)).Methods(http.MethodDelete)

	return middleware.Chain(
		router,
		middleware.RealIP(opts.Proxies),
		middleware.Logging(h.Log),
		middleware.CORS(h.Cfg.CORSAllowedOrigin),
		middleware.Authenticate(h.AuthService),
	)
}

func authed(f http.HandlerFunc) http.Handler {
	return middleware.RequireActor(f)
}

func actorFrom(r *http.Request) access.Actor {
	return access.ActorFromContext(r.Context())
}

func clientFrom(r *http.Request) service.Client {
	return service.Client{UserAgent: r.UserAgent(), IPAddress: middleware.ClientIP(r)}
}
