package material

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/construction-crm/internal"
	materialDatamodel "github.com/frahmantamala/construction-crm/internal/core/datamodel/material"
	"github.com/frahmantamala/construction-crm/internal/core/events"
	"github.com/frahmantamala/construction-crm/internal/realtime"
)

// Service owns the materials and material_requests subscriptions and
// exposes the derived cost view. Snapshots are replaced wholesale on every
// feed callback; derived values are recomputed from current snapshots on
// each read, never cached across snapshot updates.
type Service struct {
	mu        sync.RWMutex
	materials []Material
	requests  []MaterialRequest

	feed     realtime.Feed
	bus      *events.EventBus
	logger   *slog.Logger
	location *time.Location

	unsubscribes []realtime.Unsubscribe
}

func NewService(feed realtime.Feed, bus *events.EventBus, location *time.Location, logger *slog.Logger) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		feed:     feed,
		bus:      bus,
		logger:   logger,
		location: location,
	}
}

// Start attaches the snapshot subscriptions. Each handle is owned by the
// service and revoked on Close.
func (s *Service) Start() {
	unsubMaterials := s.feed.Subscribe(realtime.CollectionMaterials,
		s.applyMaterialsSnapshot,
		func(err error) {
			s.logger.Error("materials subscription failed, keeping last snapshot", "error", err)
		})

	unsubRequests := s.feed.Subscribe(realtime.CollectionMaterialRequests,
		s.applyRequestsSnapshot,
		func(err error) {
			s.logger.Error("material_requests subscription failed, keeping last snapshot", "error", err)
		})

	s.mu.Lock()
	s.unsubscribes = append(s.unsubscribes, unsubMaterials, unsubRequests)
	s.mu.Unlock()
}

func (s *Service) Close() {
	s.mu.Lock()
	unsubs := s.unsubscribes
	s.unsubscribes = nil
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (s *Service) applyMaterialsSnapshot(snapshot realtime.Snapshot) {
	materials := make([]Material, 0, len(snapshot))
	for _, dm := range materialDatamodel.DecodeMaterialSnapshot(snapshot) {
		materials = append(materials, FromDataModel(dm))
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].ID < materials[j].ID })

	s.mu.Lock()
	s.materials = materials
	s.mu.Unlock()

	s.logger.Debug("materials snapshot applied", "count", len(materials))
}

func (s *Service) applyRequestsSnapshot(snapshot realtime.Snapshot) {
	requests := make([]MaterialRequest, 0, len(snapshot))
	for _, dm := range materialDatamodel.DecodeRequestSnapshot(snapshot) {
		requests = append(requests, RequestFromDataModel(dm))
	}
	sort.Slice(requests, func(i, j int) bool {
		if requests[i].RequestedAt != requests[j].RequestedAt {
			return requests[i].RequestedAt > requests[j].RequestedAt
		}
		return requests[i].ID < requests[j].ID
	})

	s.mu.Lock()
	s.requests = requests
	s.mu.Unlock()

	s.logger.Debug("material requests snapshot applied", "count", len(requests))
}

// Pricing builds the index from the latest materials snapshot. Cost always
// uses the current price at read time, not the price at request time.
func (s *Service) Pricing() PricingIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BuildPricingIndex(s.materials)
}

// CostByUserForMonth recomputes the derived cost mapping for the reporting
// month from current snapshots.
func (s *Service) CostByUserForMonth(year, month int, usernameFilter string) CostByUser {
	s.mu.RLock()
	requests := s.requests
	index := BuildPricingIndex(s.materials)
	s.mu.RUnlock()

	window := NewReportingWindow(year, month, s.location)
	return AggregateCost(requests, index, window, usernameFilter)
}

func (s *Service) ListMaterials() []Material {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Material, len(s.materials))
	copy(out, s.materials)
	return out
}

func (s *Service) ListRequests() []MaterialRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MaterialRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Service) GetRequest(id string) (MaterialRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.ID == id {
			return r, true
		}
	}
	return MaterialRequest{}, false
}

// CreateRequest writes a new requisition document. The id is assigned by
// the caller (CRM screens pass generated ids through).
func (s *Service) CreateRequest(ctx context.Context, req MaterialRequest) error {
	if req.RequestedAt == 0 {
		req.RequestedAt = time.Now().UnixMilli()
	}
	if req.Status == "" {
		req.Status = StatusPending
	}

	if err := s.feed.Set(ctx, realtime.CollectionMaterialRequests, req.ID, req); err != nil {
		s.logger.Error("failed to create material request", "request_id", req.ID, "error", err)
		return internal.NewInternalError("failed to create material request", err)
	}

	s.logger.Info("material request created",
		"request_id", req.ID,
		"material_id", req.MaterialID,
		"username", req.Username,
		"quantity", req.Quantity)
	return nil
}

// RespondToRequest records the approval workflow's decision. The response
// timestamp is what places the request inside a reporting window.
func (s *Service) RespondToRequest(ctx context.Context, requestID, status, message string) error {
	partial := map[string]interface{}{
		"status":           status,
		"response_message": message,
		"responded_at":     time.Now().UnixMilli(),
	}

	if err := s.feed.Update(ctx, realtime.CollectionMaterialRequests, requestID, partial); err != nil {
		if errors.Is(err, realtime.ErrDocNotFound) {
			return internal.ErrRequestNotFound
		}
		s.logger.Error("failed to respond to material request", "request_id", requestID, "error", err)
		return internal.NewInternalError("failed to respond to material request", err)
	}

	s.logger.Info("material request responded", "request_id", requestID, "status", status)

	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.NewRequestRespondedEvent(requestID, status, message)); err != nil {
			s.logger.Error("failed to publish request responded event", "request_id", requestID, "error", err)
		}
	}

	return nil
}

// UpdateMaterialPrice edits the current unit price. Historical months'
// reported cost changes retroactively with it; that is the documented
// pricing model.
func (s *Service) UpdateMaterialPrice(ctx context.Context, materialID string, priceIDR int64) error {
	partial := map[string]interface{}{
		"unit_price_idr": priceIDR,
	}

	if err := s.feed.Update(ctx, realtime.CollectionMaterials, materialID, partial); err != nil {
		if errors.Is(err, realtime.ErrDocNotFound) {
			return internal.ErrMaterialNotFound
		}
		s.logger.Error("failed to update material price", "material_id", materialID, "error", err)
		return internal.NewInternalError("failed to update material price", err)
	}

	s.logger.Info("material price updated", "material_id", materialID, "price_idr", priceIDR)

	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.NewPriceUpdatedEvent(materialID, priceIDR)); err != nil {
			s.logger.Error("failed to publish price updated event", "material_id", materialID, "error", err)
		}
	}

	return nil
}
