package reconcile

import (
	"table-sync/core/bitable"
)

// FieldKind classifies a remote field for the write path.
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindDateTime
	KindSelect
	KindMultiSelect
	// KindRelationSingle links to one record and is written in a second call.
	KindRelationSingle
	// KindRelationMulti is never written.
	KindRelationMulti
	KindOther
)

var kindNames = map[FieldKind]string{
	KindText:           "text",
	KindNumber:         "number",
	KindDateTime:       "datetime",
	KindSelect:         "select",
	KindMultiSelect:    "multiselect",
	KindRelationSingle: "relation-single",
	KindRelationMulti:  "relation-multi",
	KindOther:          "other",
}

func (k FieldKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsRelation reports whether k is either relation kind.
func (k FieldKind) IsRelation() bool {
	return k == KindRelationSingle || k == KindRelationMulti
}

// RemoteField is a classified remote field.
type RemoteField struct {
	ID             string
	Name           string
	Type           int
	Kind           FieldKind
	RelatedTableID string
}

// Classify derives the kind of f. A related-table id in the property wins
// over the declared type code, which the API does not report reliably for
// links.
func Classify(f bitable.Field) RemoteField {
	rf := RemoteField{ID: f.ID, Name: f.Name, Type: f.Type, RelatedTableID: f.RelatedTableID()}

	switch {
	case rf.RelatedTableID != "":
		rf.Kind = KindRelationSingle
		if f.Property.IsMultiple() {
			rf.Kind = KindRelationMulti
		}
	case f.Type == bitable.TypeLink || f.Type == bitable.TypeDuplexLink:
		rf.Kind = KindRelationMulti
		if f.Property != nil && (f.Property.RelationType == "one" || !f.Property.IsMultiple()) {
			rf.Kind = KindRelationSingle
		}
	case f.Type == bitable.TypeNumber:
		rf.Kind = KindNumber
	case f.Type == bitable.TypeDateTime:
		rf.Kind = KindDateTime
	case f.Type == bitable.TypeSelect:
		rf.Kind = KindSelect
	case f.Type == bitable.TypeMultiSelect:
		rf.Kind = KindMultiSelect
	case f.Type == bitable.TypeText:
		rf.Kind = KindText
	default:
		rf.Kind = KindOther
	}
	return rf
}

// Schema is the classified field set of a table.
type Schema struct {
	fields []RemoteField
	byName map[string]int
}

// ResolveSchema classifies every field. On duplicate names the last wins.
func ResolveSchema(fields []bitable.Field) *Schema {
	s := &Schema{
		fields: make([]RemoteField, 0, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		rf := Classify(f)
		if i, ok := s.byName[rf.Name]; ok {
			s.fields[i] = rf
			continue
		}
		s.byName[rf.Name] = len(s.fields)
		s.fields = append(s.fields, rf)
	}
	return s
}

// Has reports whether the table has a field called name.
func (s *Schema) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Field returns the field called name.
func (s *Schema) Field(name string) (RemoteField, bool) {
	i, ok := s.byName[name]
	if !ok {
		return RemoteField{}, false
	}
	return s.fields[i], true
}

// Kind returns the kind of name, or KindOther when absent.
func (s *Schema) Kind(name string) FieldKind {
	if f, ok := s.Field(name); ok {
		return f.Kind
	}
	return KindOther
}

// Fields returns all fields in remote order.
func (s *Schema) Fields() []RemoteField {
	return append([]RemoteField(nil), s.fields...)
}

// SingleRelations returns the relation-single fields in remote order.
func (s *Schema) SingleRelations() []RemoteField {
	var out []RemoteField
	for _, f := range s.fields {
		if f.Kind == KindRelationSingle {
			out = append(out, f)
		}
	}
	return out
}

// Count returns the number of fields per kind.
func (s *Schema) Count() map[FieldKind]int {
	out := make(map[FieldKind]int)
	for _, f := range s.fields {
		out[f.Kind]++
	}
	return out
}
