package employee

import "encoding/json"

// Employee is the document shape of the `users` collection. The directory
// itself is managed by the external CRM screens; this service only reads it.
type Employee struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

// Decode unmarshals a feed document. Malformed documents degrade to
// zero-valued fields, they never abort a snapshot.
func Decode(docID string, raw json.RawMessage) Employee {
	var e Employee
	_ = json.Unmarshal(raw, &e)
	if e.ID == "" {
		e.ID = docID
	}
	return e
}

// DecodeSnapshot converts a full collection snapshot into employees.
func DecodeSnapshot(docs map[string]json.RawMessage) []Employee {
	out := make([]Employee, 0, len(docs))
	for id, raw := range docs {
		out = append(out, Decode(id, raw))
	}
	return out
}
