package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facetrace/internal/web/handlers"
)

func (s *Server) setupRoutes(stores Stores, m handlers.MatchService, extractor handlers.FeatureExtractor, index handlers.EmbeddingSearcher) {
	personsHandler := handlers.NewPersonsHandler(stores.Missing, stores.Unidentified)
	matchHandler := handlers.NewMatchHandler(m, stores.Missing, stores.Unidentified)
	searchHandler := handlers.NewSearchHandler(extractor, index)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Missing person reports
		r.Get("/missing", personsHandler.ListMissing)
		r.Post("/missing", personsHandler.CreateMissing)
		r.Get("/missing/{id}", personsHandler.GetMissing)
		r.Put("/missing/{id}/status", personsHandler.UpdateMissingStatus)
		r.Post("/missing/{id}/matches", matchHandler.FindMatches)

		// Unidentified person records
		r.Get("/unidentified", personsHandler.ListUnidentified)
		r.Post("/unidentified", personsHandler.CreateUnidentified)

		// Search
		r.Get("/search", personsHandler.SearchMissing)
		r.Post("/search-by-image", searchHandler.SearchByImage)

		// Direct comparison
		r.Post("/compare", matchHandler.Compare)
	})
}
