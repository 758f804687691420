package bitable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

func (c *Client) tablePath(tableID string, parts ...string) string {
	var b strings.Builder
	b.WriteString("/bitable/v1/apps/")
	b.WriteString(url.PathEscape(c.appToken))
	b.WriteString("/tables/")
	b.WriteString(url.PathEscape(tableID))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(p)
	}
	return b.String()
}

// ListFields returns every field of tableID.
func (c *Client) ListFields(ctx context.Context, tableID string) ([]Field, error) {
	fields, err := Paginate[Field](ctx, c, c.tablePath(tableID, "fields"), nil, FieldPageSize, FieldPageSize)
	if err != nil {
		return nil, fmt.Errorf("list fields of %s: %w", tableID, err)
	}
	return fields, nil
}

type createFieldRequest struct {
	FieldName string         `json:"field_name"`
	Type      int            `json:"type"`
	Property  *FieldProperty `json:"property,omitempty"`
}

type fieldResponse struct {
	Field Field `json:"field"`
}

// CreateField adds a field named name of fieldType to tableID.
func (c *Client) CreateField(ctx context.Context, tableID, name string, fieldType int, property *FieldProperty) (Field, error) {
	var resp fieldResponse
	req := createFieldRequest{FieldName: name, Type: fieldType, Property: property}
	if err := c.Execute(ctx, http.MethodPost, c.tablePath(tableID, "fields"), nil, req, &resp); err != nil {
		return Field{}, fmt.Errorf("create field %q: %w", name, err)
	}
	return resp.Field, nil
}

// ListRecords returns every record of tableID.
func (c *Client) ListRecords(ctx context.Context, tableID string, opts ListRecordsOptions) ([]Record, error) {
	query := url.Values{}
	if len(opts.FieldNames) > 0 {
		names, err := json.Marshal(opts.FieldNames)
		if err != nil {
			return nil, fmt.Errorf("encode field names: %w", err)
		}
		query.Set("field_names", string(names))
	}
	records, err := Paginate[Record](ctx, c, c.tablePath(tableID, "records"), query, opts.PageSize, RecordPageSize)
	if err != nil {
		return nil, fmt.Errorf("list records of %s: %w", tableID, err)
	}
	return records, nil
}

type recordBody struct {
	Fields map[string]FieldValue `json:"fields"`
}

type recordResponse struct {
	Record Record `json:"record"`
}

// CreateRecord creates one record and returns it with its id.
func (c *Client) CreateRecord(ctx context.Context, tableID string, fields map[string]FieldValue) (Record, error) {
	var resp recordResponse
	if err := c.Execute(ctx, http.MethodPost, c.tablePath(tableID, "records"), nil, recordBody{Fields: fields}, &resp); err != nil {
		return Record{}, fmt.Errorf("create record: %w", err)
	}
	return resp.Record, nil
}

// UpdateRecord overwrites the given fields of recordID.
func (c *Client) UpdateRecord(ctx context.Context, tableID, recordID string, fields map[string]FieldValue) (Record, error) {
	var resp recordResponse
	path := c.tablePath(tableID, "records", url.PathEscape(recordID))
	if err := c.Execute(ctx, http.MethodPut, path, nil, recordBody{Fields: fields}, &resp); err != nil {
		return Record{}, fmt.Errorf("update record %s: %w", recordID, err)
	}
	return resp.Record, nil
}

type batchCreateRequest struct {
	Records []recordBody `json:"records"`
}

type batchUpdateRequest struct {
	Records []RecordUpdate `json:"records"`
}

type batchResponse struct {
	Records []Record `json:"records"`
}

// BatchCreateRecords creates up to MaxBatchSize records in one call and
// returns them in request order.
func (c *Client) BatchCreateRecords(ctx context.Context, tableID string, records []map[string]FieldValue) ([]Record, error) {
	if len(records) > MaxBatchSize {
		return nil, fmt.Errorf("batch create of %d records exceeds limit of %d", len(records), MaxBatchSize)
	}
	req := batchCreateRequest{Records: make([]recordBody, len(records))}
	for i, f := range records {
		req.Records[i] = recordBody{Fields: f}
	}
	var resp batchResponse
	if err := c.Execute(ctx, http.MethodPost, c.tablePath(tableID, "records", "batch_create"), nil, req, &resp); err != nil {
		return nil, fmt.Errorf("batch create %d records: %w", len(records), err)
	}
	return resp.Records, nil
}

// BatchUpdateRecords updates up to MaxBatchSize records in one call.
func (c *Client) BatchUpdateRecords(ctx context.Context, tableID string, updates []RecordUpdate) ([]Record, error) {
	if len(updates) > MaxBatchSize {
		return nil, fmt.Errorf("batch update of %d records exceeds limit of %d", len(updates), MaxBatchSize)
	}
	var resp batchResponse
	if err := c.Execute(ctx, http.MethodPost, c.tablePath(tableID, "records", "batch_update"), nil, batchUpdateRequest{Records: updates}, &resp); err != nil {
		return nil, fmt.Errorf("batch update %d records: %w", len(updates), err)
	}
	return resp.Records, nil
}
