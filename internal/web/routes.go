package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/dormwatch/dormwatch/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	roomsHandler := handlers.NewRoomsHandler(s.rooms)
	peopleHandler := handlers.NewPeopleHandler(s.people)
	monitorHandler := handlers.NewMonitorHandler(s.monitor)
	eventsHandler := handlers.NewEventsHandler(s.hub, s.monitor)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Rooms
		r.Get("/rooms", roomsHandler.List)
		r.Post("/rooms", roomsHandler.Create)
		r.Get("/rooms/{id}", roomsHandler.Get)
		r.Delete("/rooms/{id}", roomsHandler.Delete)
		r.Post("/rooms/{id}/members", roomsHandler.AddMember)
		r.Delete("/rooms/{id}/members/{name}", roomsHandler.RemoveMember)

		// People search for membership pickers
		r.Get("/people", peopleHandler.Search)

		// Monitor controls and state
		r.Post("/monitor/camera/start", monitorHandler.StartCamera)
		r.Post("/monitor/camera/stop", monitorHandler.StopCamera)
		r.Post("/monitor/start", monitorHandler.StartMonitoring)
		r.Post("/monitor/stop", monitorHandler.StopMonitoring)
		r.Put("/monitor/room", monitorHandler.SetRoom)
		r.Put("/monitor/display", monitorHandler.SetDisplay)
		r.Get("/monitor/state", monitorHandler.State)
		r.Get("/monitor/overlay.png", monitorHandler.Overlay)

		// Live state stream
		r.Get("/monitor/events", eventsHandler.Serve)
	})
}
