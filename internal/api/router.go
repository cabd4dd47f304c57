package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/minsukang/tft-guide/internal/api/handlers"
)

// setupRoutes mounts every handler under /api plus the websocket
// endpoint.
func (s *Server) setupRoutes() {
	statusHandler := handlers.NewStatusHandler(s.service)
	boardHandler := handlers.NewBoardHandler(s.service, s.wsHub)
	poolHandler := handlers.NewPoolHandler(s.service)
	championsHandler := handlers.NewChampionsHandler(s.service)
	llmHandler := handlers.NewLLMHandler(s.service, s.advisor, s.llmClient)
	metaHandler := handlers.NewMetaHandler(s.updater, s.wsHub)
	systemHandler := handlers.NewSystemHandler(s.version)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", systemHandler.Health)

		r.Get("/status", statusHandler.GetStatus)
		r.Post("/recommend", statusHandler.Recommend)

		r.Post("/select_champion", boardHandler.SelectChampion)
		r.Post("/set_level", boardHandler.SetLevel)
		r.Get("/opponents", boardHandler.GetOpponents)
		r.Post("/opponents", boardHandler.SetOpponents)
		r.Post("/shop", boardHandler.SetShop)
		r.Post("/reset", boardHandler.Reset)

		r.Get("/pool", poolHandler.GetPool)
		r.Get("/champions", championsHandler.List)

		r.Post("/llm/analyze", llmHandler.Analyze)
		r.Get("/llm/status", llmHandler.Status)

		r.Post("/update", metaHandler.Update)
		r.Get("/last_updated", metaHandler.LastUpdated)
	})

	s.router.Get("/ws", s.wsHub.ServeWs)
}
