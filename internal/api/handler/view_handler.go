package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/atlasconseil/opsboard/internal/api/metrics"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

type ViewHandler struct {
	views ports.ViewService
}

func NewViewHandler(views ports.ViewService) *ViewHandler {
	return &ViewHandler{views: views}
}

// BuildView composes one role-scoped view. Filters arrive as query params:
// from, to, granularity, mission_id.
//
// @Summary      Build a view
// @Tags         views
// @Produce      json
// @Param        kind         path   string  true   "View kind"  Enums(mission_progress, capacity_vs_load, cra_summary, board_financial_synthesis)
// @Param        from         query  string  false  "Start date (YYYY-MM-DD)"
// @Param        to           query  string  false  "End date (YYYY-MM-DD)"
// @Param        granularity  query  string  false  "day, week, or month"
// @Param        mission_id   query  int     false  "Narrow to one mission"
// @Success      200  {object}  ports.ViewPayload
// @Failure      403  {object}  map[string]string
// @Router       /views/{kind} [get]
func (h *ViewHandler) BuildView(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	kind := ports.ViewKind(c.Param("kind"))
	filters := ports.ViewFilters{
		DateFrom:    c.QueryParam("from"),
		DateTo:      c.QueryParam("to"),
		Granularity: ports.Granularity(c.QueryParam("granularity")),
	}
	if raw := c.QueryParam("mission_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "mission_id must be a positive integer")
		}
		filters.MissionID = id
	}

	start := time.Now()
	payload, err := h.views.BuildView(c.Request().Context(), actor, kind, filters)
	if err != nil {
		return err
	}
	metrics.ViewBuildDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, payload)
}
