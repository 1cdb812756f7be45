package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

type ReferentialHandler struct {
	referential ports.ReferentialService
}

func NewReferentialHandler(referential ports.ReferentialService) *ReferentialHandler {
	return &ReferentialHandler{referential: referential}
}

// CreateClient adds a client to the referential. Admin only.
//
// @Summary      Create a client
// @Tags         referential
// @Accept       json
// @Produce      json
// @Param        body  body      createClientRequest  true  "Client"
// @Success      201   {object}  domain.Client
// @Failure      403   {object}  map[string]string
// @Router       /clients [post]
func (h *ReferentialHandler) CreateClient(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	client, err := h.referential.CreateClient(c.Request().Context(), actor, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, client)
}

// ListClients returns the client referential.
//
// @Summary      List clients
// @Tags         referential
// @Produce      json
// @Success      200  {array}  domain.Client
// @Failure      403  {object}  map[string]string
// @Router       /clients [get]
func (h *ReferentialHandler) ListClients(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	clients, err := h.referential.ListClients(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	if clients == nil {
		clients = []*domain.Client{}
	}
	return c.JSON(http.StatusOK, clients)
}

// CreateMission adds a mission. Admin only; this is the only write path for
// financial fields.
//
// @Summary      Create a mission
// @Tags         referential
// @Accept       json
// @Produce      json
// @Param        body  body      missionRequest  true  "Mission"
// @Success      201   {object}  missionResponse
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /missions [post]
func (h *ReferentialHandler) CreateMission(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req missionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	mission, err := h.referential.CreateMission(c.Request().Context(), actor, missionInputFrom(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, missionResponseFrom(mission))
}

// UpdateMission replaces a mission's attributes. Admin only.
//
// @Summary      Update a mission
// @Tags         referential
// @Accept       json
// @Param        id    path  int             true  "Mission id"
// @Param        body  body  missionRequest  true  "Mission"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /missions/{id} [put]
func (h *ReferentialHandler) UpdateMission(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req missionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.referential.UpdateMission(c.Request().Context(), actor, id, missionInputFrom(req)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMissions returns the missions in the caller's scope, financial block
// masked per role.
//
// @Summary      List missions
// @Tags         referential
// @Produce      json
// @Success      200  {array}  missionResponse
// @Failure      403  {object}  map[string]string
// @Router       /missions [get]
func (h *ReferentialHandler) ListMissions(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	missions, err := h.referential.ListMissions(c.Request().Context(), actor)
	if err != nil {
		return err
	}

	out := make([]missionResponse, 0, len(missions))
	for _, m := range missions {
		out = append(out, missionResponseFrom(m))
	}
	return c.JSON(http.StatusOK, out)
}

// SetLead names a mission lead. Admin only.
//
// @Summary      Set mission lead
// @Tags         referential
// @Accept       json
// @Param        id    path  int             true  "Mission id"
// @Param        body  body  setLeadRequest  true  "Lead"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /missions/{id}/lead [put]
func (h *ReferentialHandler) SetLead(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req setLeadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.referential.SetLead(c.Request().Context(), actor, id, req.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Assign staffs a user on a mission. Admin only.
//
// @Summary      Assign a user to a mission
// @Tags         referential
// @Accept       json
// @Param        id    path  int            true  "Mission id"
// @Param        body  body  assignRequest  true  "Assignment"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /missions/{id}/assignments [post]
func (h *ReferentialHandler) Assign(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.referential.Assign(c.Request().Context(), actor, id, req.UserID,
		req.StartDate, req.EndDate, req.AllocationPct); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetDemo wipes operational data and reloads the demo dataset. Admin only.
//
// @Summary      Reset demo data
// @Tags         admin
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /admin/reset-demo [post]
func (h *ReferentialHandler) ResetDemo(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.referential.ResetDemo(c.Request().Context(), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func missionInputFrom(req missionRequest) ports.MissionInput {
	return ports.MissionInput{
		ClientID:      req.ClientID,
		Code:          req.Code,
		Name:          req.Name,
		Status:        domain.MissionStatus(req.Status),
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		SoldDays:      req.SoldDays,
		SoldAmountEUR: req.SoldAmountEUR,
		DailyCostEUR:  req.DailyCostEUR,
		Notes:         req.Notes,
	}
}

func missionResponseFrom(m *ports.MissionSummary) missionResponse {
	out := missionResponse{
		ID:        m.ID,
		Code:      m.Code,
		Name:      m.Name,
		ClientID:  m.ClientID,
		Status:    string(m.Status),
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		SoldDays:  m.SoldDays,
		Notes:     m.Notes,
	}
	if m.Financial != nil {
		out.Financial = &financialResponse{
			SoldAmountEUR: m.Financial.SoldAmountEUR,
			DailyCostEUR:  m.Financial.DailyCostEUR,
		}
	}
	return out
}
