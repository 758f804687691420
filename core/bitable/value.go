package bitable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the variant held by a FieldValue.
type ValueKind int

const (
	// ValueUnset is an absent or null cell.
	ValueUnset ValueKind = iota
	// ValueText is a plain string.
	ValueText
	// ValueNumber is a float64.
	ValueNumber
	// ValueDateTime is a timestamp, sent as epoch milliseconds.
	ValueDateTime
	// ValueList is an ordered list of strings (rich text segments, options, record ids).
	ValueList
)

// FieldValue is a typed record cell. The zero value is Unset.
type FieldValue struct {
	kind   ValueKind
	text   string
	number float64
	at     time.Time
	list   []string
}

// Unset returns an empty value.
func Unset() FieldValue { return FieldValue{} }

// Text returns a text value.
func Text(s string) FieldValue { return FieldValue{kind: ValueText, text: s} }

// Number returns a numeric value.
func Number(f float64) FieldValue { return FieldValue{kind: ValueNumber, number: f} }

// DateTime returns a timestamp value.
func DateTime(t time.Time) FieldValue { return FieldValue{kind: ValueDateTime, at: t} }

// List returns a list value.
func List(items ...string) FieldValue {
	cp := make([]string, len(items))
	copy(cp, items)
	return FieldValue{kind: ValueList, list: cp}
}

// Kind reports which variant v holds.
func (v FieldValue) Kind() ValueKind { return v.kind }

// IsUnset reports whether v carries no value.
func (v FieldValue) IsUnset() bool { return v.kind == ValueUnset }

// Float returns the numeric payload and whether v is a number.
func (v FieldValue) Float() (float64, bool) { return v.number, v.kind == ValueNumber }

// Items returns the list payload, or nil for non-list values.
func (v FieldValue) Items() []string {
	if v.kind != ValueList {
		return nil
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp
}

// String renders v in the normalized form used for comparison:
// unset is "", numbers use the shortest decimal form, lists are comma-joined.
func (v FieldValue) String() string {
	switch v.kind {
	case ValueText:
		return v.text
	case ValueNumber:
		return formatNumber(v.number)
	case ValueDateTime:
		return strconv.FormatInt(v.at.UnixMilli(), 10)
	case ValueList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// Equal compares two values by their normalized string form.
func (v FieldValue) Equal(other FieldValue) bool {
	return v.String() == other.String()
}

// MarshalJSON encodes v in the wire form the remote API accepts.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueText:
		return json.Marshal(v.text)
	case ValueNumber:
		return json.Marshal(v.number)
	case ValueDateTime:
		return json.Marshal(v.at.UnixMilli())
	case ValueList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a cell as returned by the record listing endpoint.
// Rich text arrives as a list of segments, links as objects carrying
// record ids; both collapse into List values.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Unset()
		return nil
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode field value: %w", err)
	}
	*v = fromRaw(raw)
	return nil
}

func fromRaw(raw any) FieldValue {
	switch x := raw.(type) {
	case nil:
		return Unset()
	case string:
		return Text(x)
	case bool:
		return Text(strconv.FormatBool(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Text(x.String())
		}
		return Number(f)
	case float64:
		return Number(x)
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			items = append(items, segmentText(item)...)
		}
		return List(items...)
	case map[string]any:
		items := segmentText(x)
		if len(items) == 1 {
			return Text(items[0])
		}
		return List(items...)
	default:
		return Text(fmt.Sprintf("%v", x))
	}
}

// segmentText extracts the display strings carried by one element of a
// composite cell.
func segmentText(raw any) []string {
	switch x := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		if ids, ok := x["link_record_ids"].([]any); ok {
			out := make([]string, 0, len(ids))
			for _, id := range ids {
				out = append(out, fromRaw(id).String())
			}
			return out
		}
		for _, key := range []string{"text", "name", "record_id", "id"} {
			if s, ok := x[key]; ok && s != nil {
				return []string{fromRaw(s).String()}
			}
		}
		b, _ := json.Marshal(x)
		return []string{string(b)}
	default:
		return []string{fromRaw(x).String()}
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
