package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/service"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/store"
	"github.com/aussiebroadwan/matrixstore/pkg/httpx"
	"github.com/aussiebroadwan/matrixstore/pkg/jwtx"
	"github.com/aussiebroadwan/matrixstore/pkg/metricsx"
	"github.com/aussiebroadwan/matrixstore/pkg/slogx"

	_ "github.com/aussiebroadwan/matrixstore/api/matrix" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metricsx.Metrics
	limits       httpx.RateLimits

	store          store.Store
	TokenService   *service.TokenService
	AccountService *service.AccountService
	MatrixService  *service.MatrixService
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	metrics *metricsx.Metrics,
	limits httpx.RateLimits,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		metrics:      metrics,
		limits:       limits,
	}

	// Default middleware chain. Metrics reads r.Pattern after the mux has
	// set it.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	if metrics != nil {
		r.middlewares = append(r.middlewares, metrics.HTTPMiddleware)
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerMatrices()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Matrix Store API
//	@version		0.1.0
//	@description	Account creation, login and per-user storage of column transformation matrices.
//	@description
//	@description				Matrix endpoints require a bearer token obtained from /api/login. Tokens expire one hour after issuance.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/matrixstore
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	createHandler := &CreateAccountHandler{AccountService: r.AccountService}
	loginHandler := &LoginHandler{AccountService: r.AccountService}

	// POST /api/create-account - strict rate limit by IP (public signup)
	r.Mux.Handle("POST /api/create-account",
		httpx.Chain(createHandler,
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)

	// POST /api/login - strict rate limit by IP + email to slow credential stuffing
	r.Mux.Handle("POST /api/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, "email"),
		),
	)
}

func (r *Router) registerMatrices() {
	saveHandler := &SaveMatrixHandler{MatrixService: r.MatrixService}
	listHandler := &MatrixListHandler{MatrixService: r.MatrixService}
	getHandler := &MatrixHandler{MatrixService: r.MatrixService}

	// POST /api/save-matrix - moderate rate limit by user
	securedSave := httpx.Chain(saveHandler,
		httpx.AuthnMiddleware(r.TokenService),
		httpx.RateLimitByUser(r.limits.Moderate),
	)

	// Reads - lenient rate limit by user
	securedList := httpx.Chain(listHandler,
		httpx.AuthnMiddleware(r.TokenService),
		httpx.RateLimitByUser(r.limits.Lenient),
	)
	securedGet := httpx.Chain(getHandler,
		httpx.AuthnMiddleware(r.TokenService),
		httpx.RateLimitByUser(r.limits.Lenient),
	)

	r.Mux.Handle("POST /api/save-matrix", securedSave)
	r.Mux.Handle("GET /api/get-matrix-list", securedList)
	r.Mux.Handle("GET /api/get-matrix/{matrixId}", securedGet)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys.KeySet),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)

	if r.metrics != nil {
		r.Mux.Handle("GET /metrics", r.metrics.Handler())
	}
}
