package material

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/construction-crm/internal"
	"github.com/frahmantamala/construction-crm/internal/transport"
	"github.com/frahmantamala/construction-crm/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListMaterials() []Material
	ListRequests() []MaterialRequest
	GetRequest(id string) (MaterialRequest, bool)
	CostByUserForMonth(year, month int, usernameFilter string) CostByUser
	CreateRequest(ctx context.Context, req MaterialRequest) error
	RespondToRequest(ctx context.Context, requestID, status, message string) error
	UpdateMaterialPrice(ctx context.Context, materialID string, priceIDR int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"materials": h.Service.ListMaterials(),
	})
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": h.Service.ListRequests(),
	})
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	req, ok := h.Service.GetRequest(requestID)
	if !ok {
		h.HandleServiceError(w, internal.ErrRequestNotFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) GetCosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, err := ParseCostQuery(q.Get("year"), q.Get("month"), q.Get("q"))
	if err != nil {
		h.Logger.Error("GetCosts: invalid query", "error", err)
		h.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidMonth))
		return
	}

	costs := h.Service.CostByUserForMonth(query.Year, query.Month, query.UsernameFilter)

	h.WriteJSON(w, http.StatusOK, CostResponse{
		Year:           query.Year,
		Month:          query.Month,
		UsernameFilter: query.UsernameFilter,
		CostByUser:     costs,
	})
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var dto CreateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateRequest: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	req := dto.ToRequest()
	if err := h.Service.CreateRequest(r.Context(), req); err != nil {
		h.Logger.Error("CreateRequest: service error", "error", err, "request_id", dto.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) RespondToRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		h.WriteError(w, http.StatusBadRequest, "invalid request ID")
		return
	}

	var dto RespondDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RespondToRequest: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.RespondToRequest(r.Context(), requestID, dto.Status, dto.Message); err != nil {
		h.Logger.Error("RespondToRequest: service error", "error", err, "request_id", requestID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"request_id": requestID,
		"status":     dto.Status,
	})
}

func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	materialID := chi.URLParam(r, "id")
	if materialID == "" {
		h.WriteError(w, http.StatusBadRequest, "invalid material ID")
		return
	}

	var dto UpdatePriceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdatePrice: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.UpdateMaterialPrice(r.Context(), materialID, dto.UnitPriceIDR); err != nil {
		h.Logger.Error("UpdatePrice: service error", "error", err, "material_id", materialID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"material_id":    materialID,
		"unit_price_idr": dto.UnitPriceIDR,
	})
}
