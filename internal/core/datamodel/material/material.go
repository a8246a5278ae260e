package material

import "encoding/json"

// Request statuses as written by the external approval workflow. Status is
// free-form on the wire; only the exact string "approved" counts toward cost.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Material is the document shape of the `materials` collection. Unit price
// is the current price; cost reports always use the price at read time.
type Material struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UnitPriceIDR int64  `json:"unit_price_idr"`
}

// MaterialRequest is the document shape of the `material_requests`
// collection. RespondedAt is epoch milliseconds, 0 while unresponded.
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

func DecodeMaterial(docID string, raw json.RawMessage) Material {
	var m Material
	_ = json.Unmarshal(raw, &m)
	if m.ID == "" {
		m.ID = docID
	}
	if m.UnitPriceIDR < 0 {
		m.UnitPriceIDR = 0
	}
	return m
}

func DecodeMaterialSnapshot(docs map[string]json.RawMessage) []Material {
	out := make([]Material, 0, len(docs))
	for id, raw := range docs {
		out = append(out, DecodeMaterial(id, raw))
	}
	return out
}

func DecodeRequest(docID string, raw json.RawMessage) MaterialRequest {
	var r MaterialRequest
	_ = json.Unmarshal(raw, &r)
	if r.ID == "" {
		r.ID = docID
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.Quantity < 0 {
		r.Quantity = 0
	}
	return r
}

func DecodeRequestSnapshot(docs map[string]json.RawMessage) []MaterialRequest {
	out := make([]MaterialRequest, 0, len(docs))
	for id, raw := range docs {
		out = append(out, DecodeRequest(id, raw))
	}
	return out
}
