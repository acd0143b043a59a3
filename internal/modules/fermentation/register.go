package fermentation

import (
	"database/sql"
	"log/slog"
	"net/http"

	"brewtracker/internal/modules/fermentation/controller"
	"brewtracker/internal/modules/fermentation/repository"
	"brewtracker/internal/modules/fermentation/service"
	"brewtracker/internal/mqtt"
	"brewtracker/internal/units"
)

// RegisterFeature wires the fermentation module's routes and, when a
// subscriber is given, its telemetry handler.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, subscriber *mqtt.Subscriber, defaultSystem units.System, logger *slog.Logger) {
	fermentationRepository := repository.NewRepository(db)
	fermentationService := service.NewService(fermentationRepository, logger)
	if subscriber != nil {
		fermentationService.Register(subscriber)
	}
	fermentationController := controller.NewFermentationController(fermentationRepository, fermentationService, defaultSystem)
	fermentationController.RegisterRoutes(mux)
}
