package controller

import (
	"net/http"

	"brewtracker/internal/modules/fermentation/repository"
	"brewtracker/internal/modules/fermentation/service"
	"brewtracker/internal/units"
)

type FermentationController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type fermentationControllerImpl struct {
	repository    repository.FermentationRepository
	service       *service.Service
	defaultSystem units.System
}

func NewFermentationController(repository repository.FermentationRepository, service *service.Service, defaultSystem units.System) FermentationController {
	return &fermentationControllerImpl{repository: repository, service: service, defaultSystem: defaultSystem}
}

func (c *fermentationControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/devices", c.handleDevices)
	mux.HandleFunc("GET /api/v1/devices/{id}/latest", c.handleLatest)
	mux.HandleFunc("GET /api/v1/devices/{id}/readings", c.handleReadings)

	mux.HandleFunc("GET /api/v1/sessions", c.handleSessions)
	mux.HandleFunc("POST /api/v1/sessions", c.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", c.handleSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/end", c.handleEndSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/stats", c.handleSessionStats)

	mux.HandleFunc("GET /api/v1/convert", c.handleConvert)

	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /partials/current", c.handleCurrentPartial)
	mux.HandleFunc("GET /partials/history", c.handleHistoryPartial)
}
