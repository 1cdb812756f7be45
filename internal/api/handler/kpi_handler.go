package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atlasconseil/opsboard/internal/api/metrics"
	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

type KPIHandler struct {
	kpi ports.KPIService
}

func NewKPIHandler(kpi ports.KPIService) *KPIHandler {
	return &KPIHandler{kpi: kpi}
}

type kpiRunRequest struct {
	Query       string `json:"query" validate:"required"`
	MissionCode string `json:"mission_code"`
	DateFrom    string `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo      string `json:"date_to"   validate:"omitempty,datetime=2006-01-02"`
}

// Run executes one named KPI query within the caller's role and scope.
//
// @Summary      Run a KPI query
// @Tags         kpi
// @Accept       json
// @Produce      json
// @Param        body  body      kpiRunRequest  true  "Query name and params"
// @Success      200   {object}  ports.KPIResult
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /kpi/run [post]
func (h *KPIHandler) Run(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req kpiRunRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.kpi.Run(c.Request().Context(), actor, ports.KPIQuery(req.Query), ports.KPIParams{
		MissionCode: req.MissionCode,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
	})
	if err != nil {
		outcome := "error"
		var denied *domain.AccessDenied
		if errors.As(err, &denied) {
			outcome = "denied"
		}
		metrics.KPIQueriesTotal.WithLabelValues(req.Query, outcome).Inc()
		return err
	}

	metrics.KPIQueriesTotal.WithLabelValues(req.Query, "ok").Inc()
	return c.JSON(http.StatusOK, result)
}

// Catalog lists the queries the caller's role may invoke.
//
// @Summary      List available KPI queries
// @Tags         kpi
// @Produce      json
// @Success      200  {array}  ports.KPIInfo
// @Router       /kpi/catalog [get]
func (h *KPIHandler) Catalog(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.kpi.Catalog(actor.Role))
}
