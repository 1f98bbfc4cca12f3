package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/luma/backend/internal/handler/chat"
	"github.com/zhouzirui/luma/backend/internal/handler/persona"
	"github.com/zhouzirui/luma/backend/internal/handler/stream"
	"github.com/zhouzirui/luma/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/luma/backend/internal/middleware"
	personaModel "github.com/zhouzirui/luma/backend/internal/model/persona"
	chatService "github.com/zhouzirui/luma/backend/internal/service/chat"
	emotionservice "github.com/zhouzirui/luma/backend/internal/service/emotion"
	"github.com/zhouzirui/luma/backend/internal/service/reply"
	"github.com/zhouzirui/luma/backend/pkg/utils"
)

// Services 汇总路由需要的核心服务。
type Services struct {
	Personas personaModel.Store
	Sessions chatService.Store
	Emotions *emotionservice.Service
	Replies  *reply.Service
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":       "ok",
			"emotionModel": svc.Emotions.Enabled(),
		})
	})

	personaHandler := persona.New(svc.Personas)
	chatHandler := chat.New(svc.Sessions, svc.Personas, svc.Replies, svc.Emotions)
	streamHandler := stream.New(svc.Replies)
	wsHandler := ws.New(svc.Replies, svc.Sessions)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
