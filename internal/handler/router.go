package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/epyson/internal/middleware"
)

// DBPinger はヘルスチェック用のDB疎通確認インターフェース。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	StatusRecorder    middleware.StatusRecorder // nil可
	MaxPageSize       int                       // 0以下は無制限

	// 運用
	DB             DBPinger
	MetricsHandler http.Handler // nil可

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	FeedService         FeedServiceInterface
	UserService         UserServiceInterface
	TopicService        TopicServiceInterface
	PostService         PostServiceInterface
	CommentService      CommentServiceInterface
	SubscriptionService SubscriptionServiceInterface
	NotificationService NotificationServiceInterface

	// 外部コラボレーター
	ComplaintReporter ComplaintReporter
	ContentMetrics    ContentMetrics // nil可
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Logging → OptionalAuth → RateLimit(General) → PageSizeLimit
//
// 認証必須エンドポイントはRequireAuthを、書き込みエンドポイントは
// 書き込み専用レート制限を追加で通す。/healthと/metricsはレート制限の外。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	feedHandler := NewFeedHandler(deps.FeedService)
	userHandler := NewUserHandler(deps.UserService, feedHandler)
	topicHandler := NewTopicHandler(deps.TopicService, feedHandler)
	postHandler := NewPostHandler(deps.PostService, feedHandler)
	commentHandler := NewCommentHandler(deps.CommentService)
	subHandler := NewSubscriptionHandler(deps.SubscriptionService)
	notificationHandler := NewNotificationHandler(deps.NotificationService)
	contentHandler := NewContentHandler(deps.ComplaintReporter, deps.ContentMetrics, deps.Logger)

	// --- 運用エンドポイント（レート制限の外）---

	r.Get("/health", newHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- APIエンドポイント ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewPageSizeLimitMiddleware(deps.MaxPageSize))

		requireAuth := middleware.NewRequireAuthMiddleware(deps.TokenVerifier)
		writeLimit := deps.RateLimiter.WriteMiddleware()

		r.Route("/auth", func(r chi.Router) {
			r.With(writeLimit).Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/refresh", authHandler.Refresh)
		})

		r.Route("/feed", func(r chi.Router) {
			r.Get("/popular", feedHandler.Popular)
			r.Get("/new", feedHandler.New)
			r.Get("/my", feedHandler.My)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(requireAuth).Get("/profile", userHandler.GetProfile)
			r.With(requireAuth).Patch("/profile", userHandler.UpdateProfile)
			r.With(requireAuth).Patch("/profile/avatar", userHandler.UpdateAvatar)
			r.With(requireAuth).Patch("/profile/cover", userHandler.UpdateCover)
			r.Get("/search", userHandler.Search)
			r.Post("/confirm", authHandler.Confirm)
			r.With(requireAuth, writeLimit).Post("/subscription", subHandler.UserSubscription)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.GetByID)
				r.Get("/info", subHandler.UserInfo)
				r.Get("/info/subscribers", subHandler.UserSubscribers)
				r.Get("/info/subscriptions", subHandler.UserSubscriptions)
				r.Get("/feed", userHandler.Feed)
			})
		})

		r.Route("/topics", func(r chi.Router) {
			r.Get("/all", topicHandler.All)
			r.Get("/", topicHandler.List)
			r.With(requireAuth, writeLimit).Post("/", topicHandler.Create)
			r.With(requireAuth, writeLimit).Post("/subscription", subHandler.TopicSubscription)

			// 同じパスパラメータがトピック詳細ではスラッグ、
			// サブルートでは数値IDを運ぶ
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", topicHandler.BySlug)
				r.Get("/feed", topicHandler.Feed)
				r.Get("/info", subHandler.TopicInfo)
				r.Get("/info/subscribers", subHandler.TopicSubscribers)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.With(requireAuth, writeLimit).Post("/", postHandler.Create)
			r.Get("/sitemap", postHandler.Sitemap)
			r.Get("/search", postHandler.Search)
			r.Get("/tag", postHandler.ByTag)
			r.With(requireAuth, writeLimit).Post("/reaction", postHandler.React)
			r.Get("/comments/{comment_id}", commentHandler.Get)
			r.With(requireAuth).Delete("/comments/{comment_id}", commentHandler.Delete)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.Detail)
				r.With(requireAuth).Patch("/", postHandler.Update)
				r.With(requireAuth).Delete("/", postHandler.Delete)
				r.Get("/info", postHandler.Info)
				r.Get("/recommendations", postHandler.Recommendations)
				r.With(requireAuth, writeLimit).Post("/comments", commentHandler.Create)
				r.Get("/comments", commentHandler.List)
				r.Get("/comments/replies", commentHandler.Replies)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", notificationHandler.List)
			r.Get("/info", notificationHandler.Info)
		})

		r.Route("/content", func(r chi.Router) {
			r.With(writeLimit).Post("/complaint", contentHandler.Complaint)
		})
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db DBPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
