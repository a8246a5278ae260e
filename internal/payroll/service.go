package payroll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/construction-crm/internal"
	payrollDatamodel "github.com/frahmantamala/construction-crm/internal/core/datamodel/payroll"
	"github.com/frahmantamala/construction-crm/internal/core/events"
	"github.com/frahmantamala/construction-crm/internal/employee"
	"github.com/frahmantamala/construction-crm/internal/material"
	"github.com/frahmantamala/construction-crm/internal/realtime"
)

// DirectoryAPI is the employee roster the reconciler joins against.
type DirectoryAPI interface {
	List() []employee.Employee
	Get(id string) (employee.Employee, bool)
}

// CostProvider supplies the derived per-user material spend for a month.
type CostProvider interface {
	CostByUserForMonth(year, month int, usernameFilter string) material.CostByUser
}

// FeedWriter dispatches fire-and-forget partial updates against the feed.
type FeedWriter interface {
	Enqueue(op realtime.WriteOp) bool
}

// saveTimeout bounds a single record write against the feed.
const saveTimeout = 5 * time.Second

// BulkResult reports which ids a bulk transition dispatched. Skipped holds
// ids with no record for the month and ids whose write a saturated queue
// rejected; accepted writes are best-effort and callers observe the outcome
// through the records subscription.
type BulkResult struct {
	Month     string   `json:"month"`
	Requested []string `json:"requested"`
	Updated   []string `json:"updated"`
	Skipped   []string `json:"skipped"`
}

// Service joins the roster, the record store, and the cost aggregation
// into the reconciled payroll view, and applies bulk status transitions.
// It owns the payroll_records subscription handle.
type Service struct {
	store     *Store
	directory DirectoryAPI
	costs     CostProvider
	feed      realtime.Feed
	writer    FeedWriter
	bus       *events.EventBus
	logger    *slog.Logger

	mu          sync.Mutex
	unsubscribe realtime.Unsubscribe
}

func NewService(
	store *Store,
	directory DirectoryAPI,
	costs CostProvider,
	feed realtime.Feed,
	writer FeedWriter,
	bus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:     store,
		directory: directory,
		costs:     costs,
		feed:      feed,
		writer:    writer,
		bus:       bus,
		logger:    logger,
	}
}

func (s *Service) Start() {
	unsub := s.feed.Subscribe(realtime.CollectionPayrollRecords,
		func(snapshot realtime.Snapshot) {
			s.store.ApplySnapshot(snapshot)
			s.logger.Debug("payroll records snapshot applied", "count", s.store.Len())
		},
		func(err error) {
			s.logger.Error("payroll_records subscription failed, keeping last snapshot", "error", err)
		})

	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()
}

func (s *Service) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// MonthView recomputes the reconciled view for a month from the current
// snapshots. Nothing is cached between calls.
func (s *Service) MonthView(year, month int, textFilter string, sortState SortState) []ViewRow {
	monthKey := payrollDatamodel.MonthKey(year, month)
	return BuildView(
		s.directory.List(),
		s.store.ForMonth(monthKey),
		s.costs.CostByUserForMonth(year, month, ""),
		textFilter,
		sortState,
	)
}

// GetRecord reads one record, ok=false meaning no payroll computed yet.
func (s *Service) GetRecord(employeeID, month string) (PayrollRecord, bool) {
	return s.store.Get(employeeID, month)
}

// SaveRecord writes or replaces the record for (employee, month). This is
// the edit flow's entry point; net salary is derived on read, so the
// stored document never carries it.
func (s *Service) SaveRecord(ctx context.Context, record PayrollRecord) error {
	if record.PaymentStatus == "" {
		record.PaymentStatus = PaymentStatusPending
	}

	writeCtx, cancel := internal.WithTimeout(ctx, saveTimeout)
	defer cancel()

	docID := payrollDatamodel.Key(record.EmployeeID, record.Month)
	if err := s.feed.Set(writeCtx, realtime.CollectionPayrollRecords, docID, ToDataModel(record)); err != nil {
		s.logger.Error("failed to save payroll record",
			"employee_id", record.EmployeeID,
			"month", record.Month,
			"error", err)
		return internal.NewInternalError("failed to save payroll record", err)
	}

	s.logger.Info("payroll record saved",
		"employee_id", record.EmployeeID,
		"month", record.Month,
		"payment_status", record.PaymentStatus,
		"net_salary_idr", record.NetSalaryIDR(),
		"actor", internal.UserIDFromContext(ctx))
	return nil
}

// BulkMarkPaid transitions every selected employee that has a record for
// the month to paid, unconditionally, even from disputed. Ids without a
// record are skipped, never fabricated. Each update is dispatched as an
// independent write; partial completion is possible and not rolled back.
func (s *Service) BulkMarkPaid(ctx context.Context, month string, employeeIDs []string) BulkResult {
	result := BulkResult{Month: month, Requested: employeeIDs, Updated: []string{}, Skipped: []string{}}

	for _, id := range employeeIDs {
		if _, ok := s.store.Get(id, month); !ok {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		accepted := s.writer.Enqueue(realtime.WriteOp{
			Collection: realtime.CollectionPayrollRecords,
			DocID:      payrollDatamodel.Key(id, month),
			Partial:    map[string]interface{}{"payment_status": PaymentStatusPaid},
		})
		if !accepted {
			s.logger.Warn("write queue full, mark paid not dispatched",
				"employee_id", id, "month", month)
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Updated = append(result.Updated, id)
	}

	s.logger.Info("bulk mark paid dispatched",
		"month", month,
		"requested", len(result.Requested),
		"updated", len(result.Updated),
		"skipped", len(result.Skipped),
		"actor", internal.UserIDFromContext(ctx))

	if s.bus != nil {
		event := events.NewBulkMarkedPaidEvent(month, employeeIDs, len(result.Updated), len(result.Skipped))
		if err := s.bus.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish bulk marked paid event", "month", month, "error", err)
		}
	}

	return result
}
