package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeSnapshotChanged = "snapshot.changed"

	EventTypeBulkMarkedPaid   = "payroll.bulk_marked_paid"
	EventTypeRequestResponded = "material_request.responded"
	EventTypePriceUpdated     = "material.price_updated"
)

// SnapshotChangedEvent is published by the feed hub every time a collection
// is replaced with a new full snapshot.
type SnapshotChangedEvent struct {
	BaseEvent
	Collection string `json:"collection"`
	DocCount   int    `json:"doc_count"`
}

func NewSnapshotChangedEvent(collection string, docCount int) *SnapshotChangedEvent {
	return &SnapshotChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeSnapshotChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"collection": collection,
				"doc_count":  docCount,
			},
		},
		Collection: collection,
		DocCount:   docCount,
	}
}

type BulkMarkedPaidEvent struct {
	BaseEvent
	Month       string   `json:"month"`
	EmployeeIDs []string `json:"employee_ids"`
	Updated     int      `json:"updated"`
	Skipped     int      `json:"skipped"`
}

func NewBulkMarkedPaidEvent(month string, employeeIDs []string, updated, skipped int) *BulkMarkedPaidEvent {
	return &BulkMarkedPaidEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBulkMarkedPaid,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"month":        month,
				"employee_ids": employeeIDs,
				"updated":      updated,
				"skipped":      skipped,
			},
		},
		Month:       month,
		EmployeeIDs: employeeIDs,
		Updated:     updated,
		Skipped:     skipped,
	}
}

type RequestRespondedEvent struct {
	BaseEvent
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

func NewRequestRespondedEvent(requestID, status, message string) *RequestRespondedEvent {
	return &RequestRespondedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRequestResponded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id": requestID,
				"status":     status,
				"message":    message,
			},
		},
		RequestID: requestID,
		Status:    status,
		Message:   message,
	}
}

type PriceUpdatedEvent struct {
	BaseEvent
	MaterialID string `json:"material_id"`
	PriceIDR   int64  `json:"price_idr"`
}

func NewPriceUpdatedEvent(materialID string, priceIDR int64) *PriceUpdatedEvent {
	return &PriceUpdatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePriceUpdated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"material_id": materialID,
				"price_idr":   priceIDR,
			},
		},
		MaterialID: materialID,
		PriceIDR:   priceIDR,
	}
}
