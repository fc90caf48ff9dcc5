package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wandering-ai/wecom-agent/internal/relay/service"
	"github.com/wandering-ai/wecom-agent/internal/relay/store"
	"github.com/wandering-ai/wecom-agent/pkg/cryptox"
	"github.com/wandering-ai/wecom-agent/pkg/httpx"
	"github.com/wandering-ai/wecom-agent/pkg/slogx"

	_ "github.com/wandering-ai/wecom-agent/api/relay" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *cryptox.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	Agent           service.CredentialSource
	DispatchService *service.DispatchService
}

func NewRouter(
	keys *cryptox.KeySet,
	buildVersion string,
	st store.Store,
	agent service.CredentialSource,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		Agent:        agent,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerMessages()
	r.registerCredential()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpx.Chain(httpSwagger.Handler(),
		httpx.RateLimitByIP(httpx.PublicLimit),
	))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			WeCom Agent Relay API
//	@version		0.1.0
//	@description	Sends WeCom application messages on behalf of internal callers. The relay owns the
//	@description	corp secret and access token; callers authenticate with relay API keys.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Relay API key. Format: "Bearer {key}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerMessages() {
	h := &MessagesHandler{DispatchService: r.DispatchService}

	// Sends cost a vendor call, reads only hit the ledger.
	r.Mux.Handle("POST /v1/messages",
		httpx.Chain(http.HandlerFunc(h.HandleSend),
			httpx.APIKeyMiddleware(r.keys),
			httpx.RateLimitByAPIKey(httpx.SendLimit),
		),
	)
	r.Mux.Handle("GET /v1/messages",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.APIKeyMiddleware(r.keys),
			httpx.RateLimitByAPIKey(httpx.ReadLimit),
		),
	)
	r.Mux.Handle("GET /v1/messages/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.APIKeyMiddleware(r.keys),
			httpx.RateLimitByAPIKey(httpx.ReadLimit),
		),
	)
}

func (r *Router) registerCredential() {
	h := &CredentialHandler{Agent: r.Agent}

	r.Mux.Handle("POST /v1/credential/refresh",
		httpx.Chain(h,
			httpx.APIKeyMiddleware(r.keys),
			httpx.RateLimitByAPIKey(httpx.RefreshLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Agent),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
