package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilythestrangee/cheffry/backend/internal/ai"
	"github.com/emilythestrangee/cheffry/backend/internal/auth"
	"github.com/emilythestrangee/cheffry/backend/internal/cache"
	"github.com/emilythestrangee/cheffry/backend/internal/chef"
	"github.com/emilythestrangee/cheffry/backend/internal/config"
	"github.com/emilythestrangee/cheffry/backend/internal/database"
	"github.com/emilythestrangee/cheffry/backend/internal/feed"
	"github.com/emilythestrangee/cheffry/backend/internal/handlers"
	"github.com/emilythestrangee/cheffry/backend/internal/interactions"
	"github.com/emilythestrangee/cheffry/backend/internal/logging"
	"github.com/emilythestrangee/cheffry/backend/internal/middleware"
	"github.com/emilythestrangee/cheffry/backend/internal/notify"
	"github.com/emilythestrangee/cheffry/backend/internal/pikado"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
	"github.com/emilythestrangee/cheffry/backend/internal/store/docstore"
	"github.com/emilythestrangee/cheffry/backend/internal/store/sqlstore"
)

type Server struct {
	cfg     *config.Config
	store   store.Store
	db      database.Service // nil for the doc backend
	cache   *cache.RedisCache
	tokens  *auth.Issuer
	limiter *middleware.IPRateLimiter
	authLim *middleware.IPRateLimiter
	handler *handlers.Handler
	stop    chan struct{}

	closeOnce sync.Once
	closeErr  error

	HTTP *http.Server
}

// NewServer wires storage, caches and AI clients and builds the HTTP server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		tokens: auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		stop:   make(chan struct{}),
	}

	var err error
	if s.store, s.db, err = OpenStore(cfg); err != nil {
		return nil, err
	}

	var affinity feed.AffinityCache
	var invalidator interactions.AffinityInvalidator
	var resets handlers.ResetCodes
	if cfg.Redis.Enabled() {
		s.cache = cache.NewRedisCache(cfg.Redis)
		if err := s.cache.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		affinity, invalidator, resets = s.cache, s.cache, s.cache
		logging.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	} else {
		logging.Warn().Msg("redis not configured: affinity cache and password reset disabled")
	}

	openAI := ai.NewOpenAI(cfg.AI)
	if !openAI.Configured() {
		logging.Warn().Msg("openai api key not set: chef and recipe wizard disabled")
	}
	gemini, err := ai.NewGemini(ctx, cfg.AI, "")
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if !gemini.Configured() {
		logging.Warn().Msg("gemini api key not set: recipe finder disabled")
	}

	s.handler = handlers.NewHandler(handlers.Deps{
		Store:      s.store,
		Feed:       feed.NewService(s.store, affinity, cfg.Feed.Limit),
		Toggler:    interactions.NewToggler(s.store, invalidator),
		Chef:       chef.NewManager(s.store, openAI),
		Pikado:     pikado.NewService(openAI, gemini),
		Tokens:     s.tokens,
		ResetCodes: resets,
		SMS:        notify.New(cfg.Twilio),
	})

	s.limiter = middleware.NewIPRateLimiter(cfg.Server.AIRatePerMinute, cfg.Server.AIBurst)
	go s.limiter.Run(5*time.Minute, s.stop)
	s.authLim = middleware.NewIPRateLimiter(cfg.Server.AuthRatePerMinute, cfg.Server.AuthBurst)
	go s.authLim.Run(5*time.Minute, s.stop)

	s.HTTP = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  cfg.Server.IdleTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

// OpenStore opens the configured persistence backend. The database
// service is nil for the doc backend.
func OpenStore(cfg *config.Config) (store.Store, database.Service, error) {
	switch cfg.Store.Backend {
	case "doc":
		ds, err := docstore.Open(cfg.Store.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		logging.Info().Str("path", cfg.Store.BadgerPath).Msg("document store opened")
		return ds, nil, nil
	default:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return sqlstore.New(db.GetDB()), db, nil
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), middleware.SecurityHeaders())

	r.Use(cors.New(corsConfig(s.cfg.Server.CORSOrigins)))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := s.handler
	aiLimit := s.limiter.Middleware()
	authLimit := s.authLim.Middleware()

	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(s.tokens))
	{
		// Auth routes (public)
		api.POST("/register", h.Auth.Register)
		api.POST("/login", h.Auth.Login)
		api.POST("/auth/forgot-password", authLimit, h.Auth.ForgotPassword)
		api.POST("/auth/reset-password", authLimit, h.Auth.ResetPassword)

		// Catalogs
		api.GET("/countries", h.Pikado.Countries)
		api.GET("/pik-a-do/ingredients", h.Pikado.Ingredients)

		// Post routes (public reads, ranked for a signed-in viewer)
		api.GET("/posts", h.Post.GetPosts)
		api.GET("/posts/:id", h.Post.GetPost)
		api.GET("/posts/:id/comments", h.Comment.GetComments)

		// User routes (public reads)
		api.GET("/users/:id", h.User.GetUserProfile)
		api.GET("/users/:id/posts", h.User.GetUserPosts)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.tokens))
		{
			protected.GET("/me", h.Auth.GetMe)
			protected.PUT("/users/me", h.User.UpdateProfile)
			protected.PUT("/users/me/password", h.Auth.ChangePassword)
			protected.DELETE("/users/me", h.Auth.DeleteAccount)

			protected.POST("/posts", h.Post.CreatePost)
			protected.PUT("/posts/:id", h.Post.UpdatePost)
			protected.DELETE("/posts/:id", h.Post.DeletePost)
			protected.POST("/posts/:id/interactions", h.Post.ToggleInteraction)
			protected.POST("/posts/:id/comments", h.Comment.CreateComment)

			protected.GET("/chef/chats", h.Chef.ListChats)
			protected.POST("/chef/chats", h.Chef.CreateChat)
			protected.GET("/chef/chats/:id/messages", h.Chef.Messages)
			protected.DELETE("/chef/chats/:id", h.Chef.DeleteChat)
			protected.POST("/chef", aiLimit, h.Chef.Send)

			protected.POST("/pik-a-do/suggest-meals", aiLimit, h.Pikado.SuggestMeals)
			protected.POST("/pik-a-do/get-recipe", aiLimit, h.Pikado.GetRecipe)
			protected.POST("/recipes", aiLimit, h.Pikado.Recipes)
		}
	}

	return r
}

// corsConfig allows credentials only for an explicit origin list.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := gin.H{"status": "ok", "store": s.cfg.Store.Backend}

	if err := s.store.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		resp["status"] = "degraded"
		resp["store_error"] = err.Error()
	}
	if s.db != nil {
		resp["database"] = s.db.Health()
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			resp["status"] = "degraded"
			resp["redis_error"] = err.Error()
		} else {
			resp["redis"] = "up"
		}
	}
	c.JSON(status, resp)
}

// Shutdown drains in-flight requests, then releases storage and cache.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTP.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return errors.Join(err, s.Close())
}

// Close releases storage and cache connections. It is safe to call twice.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		var errs []error
		if s.cache != nil {
			errs = append(errs, s.cache.Close())
		}
		if s.store != nil {
			errs = append(errs, s.store.Close())
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
