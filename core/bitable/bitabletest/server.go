// Package bitabletest provides an in-memory bitable API server for tests.
package bitabletest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"table-sync/core/bitable"
)

const bitablePrefix = "/bitable/v1/apps/"

// Fault makes matching requests fail. A request matches when Method is
// empty or equal and the path ends with Suffix.
type Fault struct {
	Method string
	Suffix string
	// Status is the HTTP status to answer with. Zero means 200.
	Status int
	// Code is the envelope code. Zero with Status 200 is a no-op fault.
	Code int
	Msg  string
	// Times is how many requests the fault applies to. Zero means forever.
	Times int
}

// Call is a request the server has seen.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

type table struct {
	fields  []bitable.Field
	records []bitable.Record
}

// Server is a fake bitable API backed by httptest.Server.
type Server struct {
	*httptest.Server

	// AppToken is the only app the server knows.
	AppToken string
	// PageLimit caps page sizes below the client's request when positive.
	PageLimit int
	// TokenExpire is returned as the token lifetime in seconds.
	TokenExpire int

	mu            sync.Mutex
	tables        map[string]*table
	faults        []*Fault
	calls         []Call
	tokenRequests int
	nextID        int
}

// New starts a Server for appToken. Callers must Close it.
func New(appToken string) *Server {
	s := &Server{
		AppToken:    appToken,
		TokenExpire: 7200,
		tables:      make(map[string]*table),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Config returns a client configuration pointing at the server.
func (s *Server) Config() bitable.Config {
	return bitable.Config{
		BaseURL:        s.URL,
		AppID:          "cli_test",
		AppSecret:      "secret",
		AppToken:       s.AppToken,
		TimeoutSeconds: 5,
		MaxAttempts:    bitable.DefaultMaxAttempts,
		RetryableCodes: "9,9999",
	}
}

// AddTable registers tableID with the given fields. Field ids are assigned
// when empty.
func (s *Server) AddTable(tableID string, fields ...bitable.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &table{}
	for _, f := range fields {
		if f.ID == "" {
			s.nextID++
			f.ID = fmt.Sprintf("fld%d", s.nextID)
		}
		t.fields = append(t.fields, f)
	}
	s.tables[tableID] = t
}

// AddRecord stores a record in tableID and returns its id.
func (s *Server) AddRecord(tableID string, fields map[string]bitable.FieldValue) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(s.tables[tableID], fields)
}

// Records returns a copy of the records of tableID.
func (s *Server) Records(tableID string) []bitable.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableID]
	if !ok {
		return nil
	}
	out := make([]bitable.Record, len(t.records))
	for i, r := range t.records {
		out[i] = bitable.Record{ID: r.ID, Fields: copyFields(r.Fields)}
	}
	return out
}

// Fields returns a copy of the fields of tableID.
func (s *Server) Fields(tableID string) []bitable.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableID]
	if !ok {
		return nil
	}
	return append([]bitable.Field(nil), t.fields...)
}

// Fail installs a fault.
func (s *Server) Fail(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc := f
	s.faults = append(s.faults, &fc)
}

// Calls returns the API calls seen so far, excluding token requests.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CountCalls counts calls with method whose path ends with suffix.
func (s *Server) CountCalls(method, suffix string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && strings.HasSuffix(c.Path, suffix) {
			n++
		}
	}
	return n
}

// TokenRequests returns how many token exchanges were made.
func (s *Server) TokenRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenRequests
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/auth/v3/tenant_access_token/internal" {
		s.serveToken(w, r)
		return
	}

	var body []byte
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			body = raw
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: body})

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer t-") {
		writeEnvelope(w, http.StatusBadRequest, 99991663, "invalid access token", nil)
		return
	}

	if f := s.matchFault(r.Method, r.URL.Path); f != nil {
		status := f.Status
		if status == 0 {
			status = http.StatusOK
		}
		writeEnvelope(w, status, f.Code, f.Msg, nil)
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, bitablePrefix)
	if !ok {
		http.NotFound(w, r)
		return
	}
	parts := strings.Split(rest, "/")
	// {app}/tables/{table}/{collection}[/{id}]
	if len(parts) < 4 || parts[0] != s.AppToken || parts[1] != "tables" {
		http.NotFound(w, r)
		return
	}
	t, ok := s.tables[parts[2]]
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case parts[3] == "fields" && len(parts) == 4 && r.Method == http.MethodGet:
		s.listFields(w, r, t)
	case parts[3] == "fields" && len(parts) == 4 && r.Method == http.MethodPost:
		s.createField(w, t, body)
	case parts[3] == "records" && len(parts) == 4 && r.Method == http.MethodGet:
		s.listRecords(w, r, t)
	case parts[3] == "records" && len(parts) == 4 && r.Method == http.MethodPost:
		s.createRecord(w, t, body)
	case parts[3] == "records" && len(parts) == 5 && parts[4] == "batch_create" && r.Method == http.MethodPost:
		s.batchCreate(w, t, body)
	case parts[3] == "records" && len(parts) == 5 && parts[4] == "batch_update" && r.Method == http.MethodPost:
		s.batchUpdate(w, t, body)
	case parts[3] == "records" && len(parts) == 5 && r.Method == http.MethodPut:
		s.updateRecord(w, t, parts[4], body)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) serveToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppID     string `json:"app_id"`
		AppSecret string `json:"app_secret"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	s.tokenRequests++
	n := s.tokenRequests
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if req.AppID == "" || req.AppSecret == "" {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 10003, "msg": "invalid param"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":                0,
		"msg":                 "ok",
		"tenant_access_token": fmt.Sprintf("t-%d", n),
		"expire":              s.TokenExpire,
	})
}

func (s *Server) matchFault(method, path string) *Fault {
	for i, f := range s.faults {
		if f.Method != "" && f.Method != method {
			continue
		}
		if !strings.HasSuffix(path, f.Suffix) {
			continue
		}
		if f.Times > 0 {
			f.Times--
			if f.Times == 0 {
				s.faults = append(s.faults[:i], s.faults[i+1:]...)
			}
		}
		return f
	}
	return nil
}

func (s *Server) pageBounds(r *http.Request, total int) (start, end int, next string) {
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if size <= 0 {
		size = 20
	}
	if s.PageLimit > 0 && size > s.PageLimit {
		size = s.PageLimit
	}
	start, _ = strconv.Atoi(r.URL.Query().Get("page_token"))
	if start > total {
		start = total
	}
	end = start + size
	if end > total {
		end = total
	}
	if end < total {
		next = strconv.Itoa(end)
	}
	return start, end, next
}

func (s *Server) listFields(w http.ResponseWriter, r *http.Request, t *table) {
	start, end, next := s.pageBounds(r, len(t.fields))
	writeEnvelope(w, http.StatusOK, 0, "success", map[string]any{
		"has_more":   next != "",
		"page_token": next,
		"total":      len(t.fields),
		"items":      t.fields[start:end],
	})
}

func (s *Server) createField(w http.ResponseWriter, t *table, body []byte) {
	var req struct {
		FieldName string                 `json:"field_name"`
		Type      int                    `json:"type"`
		Property  *bitable.FieldProperty `json:"property"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.FieldName == "" {
		writeEnvelope(w, http.StatusBadRequest, 1254001, "WrongRequestBody", nil)
		return
	}
	for _, f := range t.fields {
		if f.Name == req.FieldName {
			writeEnvelope(w, http.StatusBadRequest, 1254014, "FieldNameDuplicated", nil)
			return
		}
	}
	s.nextID++
	f := bitable.Field{ID: fmt.Sprintf("fld%d", s.nextID), Name: req.FieldName, Type: req.Type, Property: req.Property}
	t.fields = append(t.fields, f)
	writeEnvelope(w, http.StatusOK, 0, "success", map[string]any{"field": f})
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request, t *table) {
	var names map[string]struct{}
	if raw := r.URL.Query().Get("field_names"); raw != "" {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			writeEnvelope(w, http.StatusBadRequest, 1254001, "WrongRequestBody", nil)
			return
		}
		names = make(map[string]struct{}, len(list))
		for _, n := range list {
			names[n] = struct{}{}
		}
	}

	start, end, next := s.pageBounds(r, len(t.records))
	items := make([]bitable.Record, 0, end-start)
	for _, rec := range t.records[start:end] {
		fields := make(map[string]bitable.FieldValue)
		for k, v := range rec.Fields {
			if names != nil {
				if _, ok := names[k]; !ok {
					continue
				}
			}
			fields[k] = v
		}
		items = append(items, bitable.Record{ID: rec.ID, Fields: fields})
	}
	writeEnvelope(w, http.StatusOK, 0, "success", map[string]any{
		"has_more":   next != "",
		"page_token": next,
		"total":      len(t.records),
		"items":      items,
	})
}

type recordBody struct {
	RecordID string                        `json:"record_id"`
	Fields   map[string]bitable.FieldValue `json:"fields"`
}

func (s *Server) createRecord(w http.ResponseWriter, t *table, body []byte) {
	var req recordBody
	if err := json.Unmarshal(body, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, 1254001, "WrongRequestBody", nil)
		return
	}
	if msg := s.validate(t, req.Fields); msg != "" {
		writeEnvelope(w, http.StatusBadRequest, 1254045, msg, nil)
		return
	}
	id := s.insert(t, req.Fields)
	writeEnvelope(w, http.StatusOK, 0, "success", map[string]any{
		"record": bitable.Record{ID: id, Fields: req.Fields},
	})
}

func (s *Server) updateRecord(w http.ResponseWriter, t *table, id string, body []byte) {
	var req recordBody
	if err := json.Unmarshal(body, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, 1254001, "WrongRequestBody", nil)
		return
	}
	if msg := s.validate(t, req.Fields); msg != "" {
		writeEnvelope(w, http.StatusBadRequest, 1254045, msg, nil)
		return
	}
	rec := find(t, id)
	if rec == nil {
		writeEnvelope(w, http.StatusBadRequest, 1254043, "RecordIdNotFound", nil)
		return
	}
	for k, v := range req.Fields {
		rec.Fields[k] = v
	}
	writeEnvelope(w, http.StatusOK, 0, "success", map[string]any{"record": *rec})
}

func (s *Server) batchCreate(w http.ResponseWriter, t *table, body []byte) {
	var req struct {
		Records []recordBody `json:"records"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, 1254001, "WrongRequestBody", nil)
		return
	}
	for _, rec := range req.Records {
		if msg := s.validate(t, rec.Fields); msg != "" {
			writeEnvelope(w, http.StatusBadRequest, 1254045, msg, nil)
			return
		}
	}
	out := make([]bitable.Record, 0, len(req.Records))
	for _, rec := range req.Records {
		id := s.insert(t, rec.Fields)
		out = append(out, bitable.Record{ID: id, Fields: rec.Fields})
	}
	writeEnvelope(w, http.StatusOK, 0, "success", map[string]any{"records": out})
}

func (s *Server) batchUpdate(w http.ResponseWriter, t *table, body []byte) {
	var req struct {
		Records []recordBody `json:"records"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, 1254001, "WrongRequestBody", nil)
		return
	}
	for _, rec := range req.Records {
		if find(t, rec.RecordID) == nil {
			writeEnvelope(w, http.StatusBadRequest, 1254043, "RecordIdNotFound", nil)
			return
		}
		if msg := s.validate(t, rec.Fields); msg != "" {
			writeEnvelope(w, http.StatusBadRequest, 1254045, msg, nil)
			return
		}
	}
	out := make([]bitable.Record, 0, len(req.Records))
	for _, rec := range req.Records {
		stored := find(t, rec.RecordID)
		for k, v := range rec.Fields {
			stored.Fields[k] = v
		}
		out = append(out, *stored)
	}
	writeEnvelope(w, http.StatusOK, 0, "success", map[string]any{"records": out})
}

// validate rejects writes to unknown fields, mirroring the real API.
func (s *Server) validate(t *table, fields map[string]bitable.FieldValue) string {
	for name := range fields {
		known := false
		for _, f := range t.fields {
			if f.Name == name {
				known = true
				break
			}
		}
		if !known {
			return "FieldNameNotFound: " + name
		}
	}
	return ""
}

func (s *Server) insert(t *table, fields map[string]bitable.FieldValue) string {
	s.nextID++
	id := fmt.Sprintf("rec%d", s.nextID)
	t.records = append(t.records, bitable.Record{ID: id, Fields: copyFields(fields)})
	return id
}

func find(t *table, id string) *bitable.Record {
	for i := range t.records {
		if t.records[i].ID == id {
			return &t.records[i]
		}
	}
	return nil
}

func copyFields(in map[string]bitable.FieldValue) map[string]bitable.FieldValue {
	out := make(map[string]bitable.FieldValue, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func writeEnvelope(w http.ResponseWriter, status, code int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg, "data": data})
}
