package payroll

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/construction-crm/internal"
	payrollDatamodel "github.com/frahmantamala/construction-crm/internal/core/datamodel/payroll"
	"github.com/frahmantamala/construction-crm/internal/transport"
	"github.com/frahmantamala/construction-crm/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	MonthView(year, month int, textFilter string, sortState SortState) []ViewRow
	GetRecord(employeeID, month string) (PayrollRecord, bool)
	SaveRecord(ctx context.Context, record PayrollRecord) error
	BulkMarkPaid(ctx context.Context, month string, employeeIDs []string) BulkResult
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

// GetView serves the reconciled month view. Employees without a record
// are included with derived defaults, not omitted.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, err := ParseViewQuery(q.Get("month"), q.Get("q"), q.Get("sort_by"), q.Get("order"))
	if err != nil {
		h.Logger.Error("GetView: invalid query", "error", err)
		h.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeMalformedPayrollMonth))
		return
	}

	rows := h.Service.MonthView(query.Year, query.Month, query.TextFilter, query.Sort)

	h.WriteJSON(w, http.StatusOK, ViewResponse{
		Month:      payrollDatamodel.MonthKey(query.Year, query.Month),
		TextFilter: query.TextFilter,
		Sort:       query.Sort,
		Rows:       rows,
	})
}

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	month := chi.URLParam(r, "month")
	if _, _, err := ParseMonthKey(month); err != nil {
		h.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeMalformedPayrollMonth))
		return
	}

	record, ok := h.Service.GetRecord(employeeID, month)
	if !ok {
		// Absence is a valid state, surfaced as an empty record body.
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"employee_id": employeeID,
			"month":       month,
			"exists":      false,
		})
		return
	}

	h.WriteJSON(w, http.StatusOK, NewRecordResponse(record))
}

func (h *Handler) SaveRecord(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	month := chi.URLParam(r, "month")
	if _, _, err := ParseMonthKey(month); err != nil {
		h.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeMalformedPayrollMonth))
		return
	}

	var dto SaveRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("SaveRecord: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	record := dto.ToRecord(employeeID, month)
	if err := h.Service.SaveRecord(r.Context(), record); err != nil {
		h.Logger.Error("SaveRecord: service error", "error", err, "employee_id", employeeID, "month", month)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewRecordResponse(record))
}

func (h *Handler) BulkMarkPaid(w http.ResponseWriter, r *http.Request) {
	var dto BulkMarkPaidDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("BulkMarkPaid: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, internal.NewValidationError(err.Error(), internal.ErrCodeEmptyBulkSelection))
		return
	}

	result := h.Service.BulkMarkPaid(r.Context(), dto.Month, dto.EmployeeIDs)

	h.Logger.Info("BulkMarkPaid: batch dispatched",
		"month", dto.Month,
		"updated", len(result.Updated),
		"skipped", len(result.Skipped))

	h.WriteJSON(w, http.StatusAccepted, result)
}
