package orders

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/odyssey-erp/commerce-console/internal/orders/status"
	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
)

// IdempotencyHeader carries the client supplied idempotency key.
const IdempotencyHeader = "Idempotency-Key"

// Handler manages order, draft and pricing HTTP endpoints.
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

func (h *Handler) previewPricing(w http.ResponseWriter, r *http.Request) {
	var in DraftInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.PreviewPricing(in))
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	var in DraftInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.CreateDraft(r.Context(), in)
	if err != nil {
		h.fail(w, r, "create draft failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.GetDraft(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get draft failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in DraftInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.UpdateDraft(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, "update draft failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteDraft(r.Context(), id); err != nil {
		h.fail(w, r, "delete draft failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitDraft(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.SubmitDraft(r.Context(), id)
	if err != nil {
		h.fail(w, r, "submit draft failed", err)
		return
	}
	h.logger.Info("order submitted", slog.Int64("order_id", order.ID), slog.String("number", order.Number))
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListRequest{
		OrderStatus:       status.OrderStatus(q.Get("order_status")),
		PaymentStatus:     status.PaymentStatus(q.Get("payment_status")),
		FulfillmentStatus: status.FulfillmentStatus(q.Get("fulfillment_status")),
		Search:            q.Get("search"),
		Page:              httpx.QueryInt(r, "page", 1),
		PerPage:           httpx.QueryInt(r, "per_page", 0),
	}
	fields := httpx.FieldErrors{}
	if req.OrderStatus != "" && !req.OrderStatus.IsValid() {
		fields["order_status"] = "unknown order status"
	}
	if req.PaymentStatus != "" && !req.PaymentStatus.IsValid() {
		fields["payment_status"] = "unknown payment status"
	}
	if req.FulfillmentStatus != "" && !req.FulfillmentStatus.IsValid() {
		fields["fulfillment_status"] = "unknown fulfillment status"
	}
	if len(fields) > 0 {
		httpx.RespondError(w, fields)
		return
	}

	resp, err := h.service.List(r.Context(), req)
	if err != nil {
		h.fail(w, r, "list orders failed", err)
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
	summary, err := h.service.Summary(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get order failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	changes, err := h.service.History(r.Context(), id)
	if err != nil {
		h.fail(w, r, "order history failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": changes})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req StatusUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	resp, err := h.service.UpdateStatus(r.Context(), id, req, key)
	if err != nil {
		h.fail(w, r, "update order status failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func draftID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, httpx.FieldErrors{"id": "must be a valid draft id"}
	}
	return id, nil
}
