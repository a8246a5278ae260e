package material

import (
	materialDatamodel "github.com/frahmantamala/construction-crm/internal/core/datamodel/material"
)

const (
	StatusPending  = materialDatamodel.StatusPending
	StatusApproved = materialDatamodel.StatusApproved
	StatusRejected = materialDatamodel.StatusRejected
)

type Material struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UnitPriceIDR int64  `json:"unit_price_idr"`
}

// MaterialRequest is a requisition raised on site. RespondedAt is epoch
// milliseconds, 0 while the approval workflow has not responded.
type MaterialRequest struct {
	ID              string `json:"id"`
	MaterialID      string `json:"material_id"`
	Quantity        int64  `json:"quantity"`
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	RequestedAt     int64  `json:"requested_at"`
	RespondedAt     int64  `json:"responded_at"`
	Status          string `json:"status"`
	ResponseMessage string `json:"response_message"`
}

func (r MaterialRequest) IsApproved() bool {
	return r.Status == StatusApproved
}

func FromDataModel(m materialDatamodel.Material) Material {
	return Material{
		ID:           m.ID,
		Name:         m.Name,
		UnitPriceIDR: m.UnitPriceIDR,
	}
}

func RequestFromDataModel(r materialDatamodel.MaterialRequest) MaterialRequest {
	return MaterialRequest{
		ID:              r.ID,
		MaterialID:      r.MaterialID,
		Quantity:        r.Quantity,
		UserID:          r.UserID,
		Username:        r.Username,
		RequestedAt:     r.RequestedAt,
		RespondedAt:     r.RespondedAt,
		Status:          r.Status,
		ResponseMessage: r.ResponseMessage,
	}
}

// PricingIndex maps material id to its current unit price. Missing ids
// resolve to price 0 so a request against a deleted material contributes
// zero cost instead of failing.
type PricingIndex map[string]int64

func BuildPricingIndex(materials []Material) PricingIndex {
	index := make(PricingIndex, len(materials))
	for _, m := range materials {
		if m.ID == "" {
			continue
		}
		price := m.UnitPriceIDR
		if price < 0 {
			price = 0
		}
		index[m.ID] = price
	}
	return index
}

func (p PricingIndex) UnitPrice(materialID string) int64 {
	return p[materialID]
}
