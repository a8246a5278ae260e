package employee

import (
	"log/slog"
	"sort"
	"sync"

	employeeDatamodel "github.com/frahmantamala/construction-crm/internal/core/datamodel/employee"
	"github.com/frahmantamala/construction-crm/internal/realtime"
)

// Directory is the read-only roster cache fed by the users subscription.
// Each snapshot callback replaces the cached roster wholesale.
type Directory struct {
	mu        sync.RWMutex
	employees []Employee
	byID      map[string]Employee

	feed   realtime.Feed
	logger *slog.Logger

	unsubscribe realtime.Unsubscribe
}

func NewDirectory(feed realtime.Feed, logger *slog.Logger) *Directory {
	return &Directory{
		feed:   feed,
		byID:   make(map[string]Employee),
		logger: logger,
	}
}

func (d *Directory) Start() {
	unsub := d.feed.Subscribe(realtime.CollectionUsers,
		d.applySnapshot,
		func(err error) {
			d.logger.Error("users subscription failed, keeping last snapshot", "error", err)
		})

	d.mu.Lock()
	d.unsubscribe = unsub
	d.mu.Unlock()
}

func (d *Directory) Close() {
	d.mu.Lock()
	unsub := d.unsubscribe
	d.unsubscribe = nil
	d.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (d *Directory) applySnapshot(snapshot realtime.Snapshot) {
	employees := make([]Employee, 0, len(snapshot))
	byID := make(map[string]Employee, len(snapshot))
	for _, dm := range employeeDatamodel.DecodeSnapshot(snapshot) {
		e := FromDataModel(dm)
		employees = append(employees, e)
		byID[e.ID] = e
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })

	d.mu.Lock()
	d.employees = employees
	d.byID = byID
	d.mu.Unlock()

	d.logger.Debug("employee roster snapshot applied", "count", len(employees))
}

func (d *Directory) List() []Employee {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Employee, len(d.employees))
	copy(out, d.employees)
	return out
}

func (d *Directory) Get(id string) (Employee, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.byID[id]
	return e, ok
}
