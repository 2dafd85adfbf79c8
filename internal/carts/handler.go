package carts

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
)

// Handler exposes cart recovery endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if !httpx.IsClientError(err) && h.logger != nil {
		h.logger.Error(msg, slog.Any("error", err), slog.String("request_id", middleware.GetReqID(r.Context())))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var in SaveInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Save(r.Context(), in)
	if err != nil {
		h.fail(w, r, "save cart failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) abandoned(w http.ResponseWriter, r *http.Request) {
	req := ListRequest{
		Page:    httpx.QueryInt(r, "page", 1),
		PerPage: httpx.QueryInt(r, "per_page", 0),
	}
	if raw := r.URL.Query().Get("idle"); raw != "" {
		idle, err := time.ParseDuration(raw)
		if err != nil || idle <= 0 {
			httpx.RespondError(w, httpx.FieldErrors{"idle": "must be a positive duration such as 90m or 24h"})
			return
		}
		req.IdleFor = idle
	}
	resp, err := h.service.ListAbandoned(r.Context(), req)
	if err != nil {
		h.fail(w, r, "list abandoned carts failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get cart failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) markRecovered(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.MarkRecovered(r.Context(), id)
	if err != nil {
		h.fail(w, r, "recover cart failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) remind(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.SendReminder(r.Context(), id)
	if err != nil {
		h.fail(w, r, "send cart reminder failed", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, c)
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ScanAbandoned(r.Context())
	if err != nil {
		h.fail(w, r, "scan abandoned carts failed", err)
		return
	}
	if h.logger != nil {
		h.logger.Info("abandoned cart scan", slog.Int("candidates", res.Candidates), slog.Int("queued", res.Queued))
	}
	httpx.JSON(w, http.StatusAccepted, res)
}
