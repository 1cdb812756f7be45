package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atlasconseil/opsboard/internal/api/metrics"
	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
	"github.com/atlasconseil/opsboard/internal/infrastructure/csvio"
)

type TimesheetHandler struct {
	timesheets  ports.TimesheetService
	csvEncoding string
}

func NewTimesheetHandler(timesheets ports.TimesheetService, csvEncoding string) *TimesheetHandler {
	return &TimesheetHandler{timesheets: timesheets, csvEncoding: csvEncoding}
}

// LogTime records one CRA entry for the caller (or, for an admin, on behalf
// of another user).
//
// @Summary      Log time
// @Tags         cra
// @Accept       json
// @Produce      json
// @Param        body  body      logTimeRequest  true  "Entry"
// @Success      201   {object}  domain.TimeEntry
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /cra/entries [post]
func (h *TimesheetHandler) LogTime(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req logTimeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry, err := h.timesheets.LogTime(c.Request().Context(), actor, ports.LogTimeInput{
		UserID:      req.UserID,
		EntryDate:   req.EntryDate,
		MissionID:   req.MissionID,
		Category:    domain.Category(req.Category),
		Hours:       req.Hours,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	metrics.CRAEntriesWrittenTotal.WithLabelValues(string(entry.Category)).Inc()
	return c.JSON(http.StatusCreated, entry)
}

// DeleteEntry removes one CRA entry within the caller's write scope.
//
// @Summary      Delete a time entry
// @Tags         cra
// @Param        id  path  int  true  "Entry id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /cra/entries/{id} [delete]
func (h *TimesheetHandler) DeleteEntry(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.timesheets.DeleteEntry(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListEntries returns entries within the caller's visibility, optionally
// narrowed by ?from= and ?to= ISO dates.
//
// @Summary      List time entries
// @Tags         cra
// @Produce      json
// @Param        from  query  string  false  "Start date (YYYY-MM-DD)"
// @Param        to    query  string  false  "End date (YYYY-MM-DD)"
// @Success      200   {array}  domain.TimeEntry
// @Failure      403   {object}  map[string]string
// @Router       /cra/entries [get]
func (h *TimesheetHandler) ListEntries(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	entries, err := h.timesheets.ListEntries(c.Request().Context(), actor, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*domain.TimeEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

// ImportCSV ingests a CRA batch from an uploaded CSV file. The whole batch
// commits or nothing does; replaying the same Idempotency-Key acknowledges
// without writing.
//
// @Summary      Import CRA entries from CSV
// @Tags         cra
// @Accept       multipart/form-data
// @Produce      json
// @Param        file             formData  file    true  "CSV file"
// @Param        Idempotency-Key  header    string  true  "Batch key"
// @Success      200  {object}  importResponse
// @Failure      403  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /cra/import [post]
func (h *TimesheetHandler) ImportCSV(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	key := c.Request().Header.Get("Idempotency-Key")
	if key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing Idempotency-Key header")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file upload")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file upload")
	}
	defer f.Close()

	rows, err := csvio.ParseTimeEntries(f, h.csvEncoding)
	if err != nil {
		metrics.ImportBatchesTotal.WithLabelValues("rejected").Inc()
		return err
	}

	result, err := h.timesheets.ImportBatch(c.Request().Context(), actor, ports.ImportInput{
		IdempotencyKey: key,
		Rows:           rows,
	})
	if err != nil {
		metrics.ImportBatchesTotal.WithLabelValues("rejected").Inc()
		return err
	}

	outcome := "imported"
	if result.AlreadyProcessed {
		outcome = "replayed"
	}
	metrics.ImportBatchesTotal.WithLabelValues(outcome).Inc()
	return c.JSON(http.StatusOK, importResponse{
		Imported:         result.Imported,
		AlreadyProcessed: result.AlreadyProcessed,
	})
}

// ExportCSV streams the caller's visible entries in the exchange format.
//
// @Summary      Export CRA entries to CSV
// @Tags         cra
// @Produce      text/csv
// @Param        from  query  string  false  "Start date (YYYY-MM-DD)"
// @Param        to    query  string  false  "End date (YYYY-MM-DD)"
// @Success      200
// @Failure      403  {object}  map[string]string
// @Router       /cra/export [get]
func (h *TimesheetHandler) ExportCSV(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	rows, err := h.timesheets.ExportEntries(c.Request().Context(), actor, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="cra_export.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return csvio.WriteTimeEntries(c.Response(), rows, h.csvEncoding)
}

// SetCapacityOverride sets a per-day capacity for one user.
//
// @Summary      Override daily capacity
// @Tags         cra
// @Accept       json
// @Param        body  body  capacityOverrideRequest  true  "Override"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /cra/capacity [put]
func (h *TimesheetHandler) SetCapacityOverride(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req capacityOverrideRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.timesheets.SetCapacityOverride(c.Request().Context(), actor, ports.CapacityOverrideInput{
		UserID:    req.UserID,
		Date:      req.Date,
		CapacityH: req.CapacityH,
		Reason:    req.Reason,
	}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
