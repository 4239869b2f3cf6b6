package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/sngm3741/friendlyeats/api/internal/config"
	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
	"github.com/sngm3741/friendlyeats/api/internal/metrics"
	adminhttp "github.com/sngm3741/friendlyeats/api/internal/interfaces/http/admin"
	commonhttp "github.com/sngm3741/friendlyeats/api/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/friendlyeats/api/internal/interfaces/http/public"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the infrastructure pieces the server is composed from.
type Deps struct {
	Store application.Store
	// Pinger is checked by /healthz; nil means always healthy.
	Pinger Pinger
	// RateLimiter throttles review submissions; nil disables throttling.
	RateLimiter publichttp.RateLimiter
	// Closers run in order on shutdown.
	Closers []func(ctx context.Context) error
}

// Server は HTTP サーバーのライフサイクルを管理し、Public/Admin の各ハンドラへアプリケーションサービスを注入するコンポジションルート。
type Server struct {
	logger         *logrus.Logger
	deps           Deps
	metrics        *metrics.Metrics
	jwtConfigs     []config.JWTConfig
	jwtAudience    string
	addr           string
	allowedOrigins []string

	restaurantQueries  application.RestaurantQueryService
	restaurantCommands application.RestaurantCommandService
	reviewQueries      application.ReviewQueryService
	reviewCommands     application.ReviewCommandService
}

type authenticatedUser = commonhttp.AuthenticatedUser

// New は Config とインフラ依存を受け取り、アプリケーションサービスを組み立てた Server を返す。
func New(cfg config.Config, deps Deps) *Server {
	m := metrics.New()
	srv := &Server{
		logger:         cfg.Logger,
		deps:           deps,
		metrics:        m,
		jwtConfigs:     append([]config.JWTConfig(nil), cfg.JWTConfigs...),
		jwtAudience:    cfg.JWTAudience,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}
	srv.restaurantQueries = application.NewRestaurantQueryService(deps.Store, m)
	srv.restaurantCommands = application.NewRestaurantCommandService(deps.Store)
	srv.reviewQueries = application.NewReviewQueryService(deps.Store, m)
	srv.reviewCommands = application.NewRatingAggregator(deps.Store, cfg.ReviewRetry, m, cfg.Logger.WithField("component", "rating_aggregator"))
	return srv
}

// Handler はミドルウェアとルーティングを組み立てたルータを返す。
// JWT 設定が無い場合は書き込み系ルートをマウントしない。
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	var auth func(http.Handler) http.Handler
	if len(s.jwtConfigs) > 0 {
		auth = s.authMiddleware
	} else {
		s.logger.Warn("no JWT secret configured, write endpoints are disabled")
	}

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:         s.logger,
		Restaurants:    s.restaurantQueries,
		ReviewQueries:  s.reviewQueries,
		ReviewCommands: s.reviewCommands,
		RateLimiter:    s.deps.RateLimiter,
		AllowedOrigins: s.allowedOrigins,
	})
	publicHandler.Register(router, auth)

	if auth != nil {
		adminHandler := adminhttp.NewHandler(adminhttp.Config{
			Logger:   s.logger,
			Commands: s.restaurantCommands,
		})
		router.Route("/admin", func(r chi.Router) {
			r.Use(auth)
			adminHandler.Register(r)
		})
	}
	return router
}

// Run は HTTP サーバーを起動し、SIGINT/SIGTERM を受けるまで待ってから graceful shutdown する。
func (s *Server) Run() error {
	// Live queries hijack their connections, so Shutdown cannot drain them.
	// Cancelling the base context ends their streams instead.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("HTTP server listening")
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, cancelBase, s)
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// requestLogger はリクエストごとに logrus でログを出し、ルートパターン単位でメトリクスを数える。
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.HTTPRequest(route, strconv.Itoa(status/100)+"xx")

		entry := s.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"route":      route,
			"status":     status,
			"duration":   time.Since(start).String(),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("request served")
			return
		}
		entry.Debug("request served")
	})
}

// healthHandler はストアへの疎通確認のみを行い、ドメインの状態は返さない。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := s.deps.Pinger.Ping(ctx); err != nil {
				commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"error":  err.Error(),
				})
				return
			}
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// authMiddleware は Authorization ヘッダーから JWT を検証し、認証済みユーザーをコンテキストへ詰める。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			s.unauthorized(w, "missing Authorization header")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			s.unauthorized(w, "expected a Bearer token")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			s.unauthorized(w, "empty access token")
			return
		}

		claims, err := s.parseAuthToken(tokenString)
		if err != nil {
			s.unauthorized(w, err.Error())
			return
		}

		user := authenticatedUser{
			ID:       claims.Subject,
			Name:     claims.Name,
			Username: claims.PreferredUsername,
			Picture:  claims.Picture,
		}

		ctx := commonhttp.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) unauthorized(w http.ResponseWriter, message string) {
	commonhttp.WriteJSON(s.logger, w, http.StatusUnauthorized, commonhttp.ErrorResponse{Error: message})
}

// parseAuthToken は複数の JWT 設定を順番に試し、署名・Issuer・Audience・Subject を検証する。
// いずれの設定にも一致しない場合は認証エラーを返す。
func (s *Server) parseAuthToken(tokenString string) (*authClaims, error) {
	if len(s.jwtConfigs) == 0 {
		return nil, errors.New("authentication is not configured")
	}

	for _, cfg := range s.jwtConfigs {
		claims := &authClaims{}
		opts := []jwt.ParserOption{
			jwt.WithLeeway(30 * time.Second),
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		}
		if cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(cfg.Issuer))
		}
		if s.jwtAudience != "" {
			opts = append(opts, jwt.WithAudience(s.jwtAudience))
		}

		token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
			return cfg.Secret, nil
		}, opts...)
		if err != nil || !token.Valid {
			continue
		}
		if claims.Subject == "" {
			continue
		}
		return claims, nil
	}

	return nil, errors.New("invalid access token")
}

type authClaims struct {
	jwt.RegisteredClaims
	Name              string `json:"name,omitempty"`
	Picture           string `json:"picture,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// shutdown は Closers をタイムアウト付きで順に実行し、プロセス終了時のリソースリークを防ぐ。
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, closeFn := range s.deps.Closers {
		if err := closeFn(shutdownCtx); err != nil {
			s.logger.WithError(err).Warn("error while releasing resources")
		}
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, cancelBase context.CancelFunc, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case sig := <-sigChan:
		srv.logger.WithField("signal", sig.String()).Info("shutting down")
		cancelBase()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.WithError(err).Warn("error during HTTP shutdown")
		}
	}

	srv.shutdown(context.Background())
	return runErr
}
