package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/services"
	"github.com/grvbrk/vidcatalog/internal/utils"
)

type DashboardHandler struct {
	Catalog *services.CatalogService
	Logger  zerolog.Logger
}

func NewDashboardHandler(catalog *services.CatalogService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		Catalog: catalog,
		Logger:  logger,
	}
}

// HandlerGetDashboard lists videos newest first, one page at a time.
func (dh *DashboardHandler) HandlerGetDashboard(w http.ResponseWriter, r *http.Request) {
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		n, err := strconv.Atoi(pageStr)
		if err != nil || n < 1 {
			utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"error": "Bad Request"})
			return
		}
		page = n
	}

	result, err := dh.Catalog.ListPage(r.Context(), page)
	if err != nil {
		writeError(w, r, err, "error getting dashboard page")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": result})
}
