package queue

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinicq/clinicq/internal/platform/apperr"
	"github.com/clinicq/clinicq/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/queue")
	g.POST("", h.AddToQueue)
	g.GET("", h.ListQueue)
	g.GET("/next", h.NextPatient)
	g.GET("/stats/summary", h.QueueStats)
	g.GET("/:id", h.GetEntry)
	g.PUT("/:id", h.UpdateEntry)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.DELETE("/:id", h.RemoveEntry)
}

func entryID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid queue entry id")
	}
	return id, nil
}

func (h *Handler) AddToQueue(c echo.Context) error {
	var in AddInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.Add(c.Request().Context(), in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) ListQueue(c echo.Context) error {
	pg := pagination.FromContext(c)

	var f ListFilter
	if raw := c.QueryParam("status"); raw != "" {
		if status, ok := ParseStatus(raw); ok {
			f.Status = &status
		}
		// unknown status filters are ignored
	}
	if raw := c.QueryParam("priority"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || !ValidPriority(p) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid priority filter")
		}
		f.Priority = &p
	}

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) NextPatient(c echo.Context) error {
	e, err := h.svc.Next(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) QueueStats(c echo.Context) error {
	stats, err := h.svc.Statistics(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetEntry(c echo.Context) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}
	e, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) UpdateEntry(c echo.Context) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, e)
}

type statusUpdateRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}
	var req statusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	status, ok := ParseStatus(req.Status)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status: "+req.Status)
	}
	e, err := h.svc.UpdateStatus(c.Request().Context(), id, status, req.Notes)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) RemoveEntry(c echo.Context) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Remove(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
