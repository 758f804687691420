package bitable

import "encoding/json"

// Field type codes used by the remote service.
const (
	TypeText        = 1
	TypeNumber      = 2
	TypeSelect      = 3
	TypeMultiSelect = 4
	TypeDateTime    = 5
	TypeLink        = 18
	TypeDuplexLink  = 21
)

// MaxBatchSize is the largest record count accepted by the batch endpoints.
const MaxBatchSize = 500

// Page size ceilings per listing endpoint.
const (
	FieldPageSize  = 100
	RecordPageSize = 500
)

// FieldProperty is the subset of a field's type-specific configuration
// the sync engine reads.
type FieldProperty struct {
	TableID   string `json:"table_id,omitempty"`
	FieldName string `json:"field_name,omitempty"`
	Multiple  *bool  `json:"multiple,omitempty"`
	// RelationType is "one" for single-valued duplex links.
	RelationType string `json:"relation_type,omitempty"`
}

// IsMultiple reports whether the property marks the field multi-valued.
func (p *FieldProperty) IsMultiple() bool {
	return p != nil && p.Multiple != nil && *p.Multiple
}

// Field is a remote field definition.
type Field struct {
	ID       string         `json:"field_id"`
	Name     string         `json:"field_name"`
	Type     int            `json:"type"`
	Property *FieldProperty `json:"property,omitempty"`
}

// RelatedTableID returns the related-table id carried by the field's
// property, or "".
func (f Field) RelatedTableID() string {
	if f.Property == nil {
		return ""
	}
	return f.Property.TableID
}

// Record is a remote record.
type Record struct {
	ID     string                `json:"record_id,omitempty"`
	Fields map[string]FieldValue `json:"fields"`
}

// RecordUpdate is one element of a batch update call.
type RecordUpdate struct {
	ID     string                `json:"record_id"`
	Fields map[string]FieldValue `json:"fields"`
}

// ListRecordsOptions narrows a record listing.
type ListRecordsOptions struct {
	// FieldNames restricts the returned fields. Empty means all.
	FieldNames []string
	// PageSize is clamped to RecordPageSize.
	PageSize int
}

// envelope is the common response wrapper.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// page is one page of a paginated listing.
type page[T any] struct {
	HasMore   bool   `json:"has_more"`
	PageToken string `json:"page_token"`
	Total     int    `json:"total"`
	Items     []T    `json:"items"`
}
