package payroll

import (
	"sync"

	payrollDatamodel "github.com/frahmantamala/construction-crm/internal/core/datamodel/payroll"
	"github.com/frahmantamala/construction-crm/internal/realtime"
)

// Store is the keyed container of payroll records, addressable by
// (employee, month). It holds whatever the latest payroll_records snapshot
// delivered; reads of missing records return an absent sentinel, never an
// error.
type Store struct {
	mu      sync.RWMutex
	records map[string]PayrollRecord
}

func NewStore() *Store {
	return &Store{records: make(map[string]PayrollRecord)}
}

// ApplySnapshot replaces the whole container with the snapshot's records,
// discarding prior cached state.
func (s *Store) ApplySnapshot(snapshot realtime.Snapshot) {
	records := make(map[string]PayrollRecord, len(snapshot))
	for _, dm := range payrollDatamodel.DecodeSnapshot(snapshot) {
		records[payrollDatamodel.Key(dm.EmployeeID, dm.Month)] = FromDataModel(dm)
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
}

// Get returns the record for the employee and month, with ok=false when no
// payroll has been computed yet.
func (s *Store) Get(employeeID, month string) (PayrollRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[payrollDatamodel.Key(employeeID, month)]
	return r, ok
}

// ForMonth returns all records of one month keyed by employee id.
func (s *Store) ForMonth(month string) map[string]PayrollRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]PayrollRecord)
	for _, r := range s.records {
		if r.Month == month {
			out[r.EmployeeID] = r
		}
	}
	return out
}

// Len reports how many records the latest snapshot carries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
