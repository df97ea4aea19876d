package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/z-assistant/backend/internal/handler/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/handler/persona"
	"github.com/zhouzirui/z-assistant/backend/internal/handler/stream"
	"github.com/zhouzirui/z-assistant/backend/internal/handler/web"
	"github.com/zhouzirui/z-assistant/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/z-assistant/backend/internal/middleware"
	personaModel "github.com/zhouzirui/z-assistant/backend/internal/model/persona"
	chatService "github.com/zhouzirui/z-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/service/render"
	"github.com/zhouzirui/z-assistant/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, webOpts web.Options) (http.Handler, error) {
	renderer := render.NewRenderer()

	pages, err := web.New(chatSvc, personas, renderer, webOpts)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": chatSvc.Len()})
	})

	pages.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.CORS)

		persona.New(personas).RegisterRoutes(api)
		chat.New(chatSvc, personas, renderer).RegisterRoutes(api)
		stream.New(chatSvc).RegisterRoutes(api)
		ws.New(chatSvc).RegisterRoutes(api)
	})

	return r, nil
}
