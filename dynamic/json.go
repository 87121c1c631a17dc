package dynamic

import (
	"math"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

/*
JSON rendering is for people reading payloads, not for round trips. Struct
fields become a list of {"id", "value"} objects in wire order, since names are
not on the wire and an id may repeat. Map entries become a list of
{"key", "value"} objects because keys may be any type. Binary values render as text when they are valid UTF-8 and as base64
otherwise. Non-finite floats, which JSON cannot hold, render as strings.
*/

////////////////////////////////////////////////////////////////////////////////

// Plain converts v into maps, slices and scalars suitable for json.Marshal.
func Plain(v Value) any {
	switch v := v.(type) {
	case Void:
		return nil
	case Bool:
		return bool(v)
	case I8:
		return int8(v)
	case I16:
		return int16(v)
	case I32:
		return int32(v)
	case I64:
		return int64(v)
	case Double:
		return plainFloat(float64(v))
	case Float:
		return plainFloat(float64(v))
	case Binary:
		if utf8.Valid(v.Data) {
			return string(v.Data)
		}
		return v.Data
	case *Struct:
		out := make([]map[string]any, 0, len(v.Fields))
		for _, f := range v.Fields {
			out = append(out, map[string]any{
				"id":    f.ID,
				"value": Plain(f.Value),
			})
		}
		return out
	case *List:
		return plainItems(v.Items)
	case *Set:
		return plainItems(v.Items)
	case *Map:
		out := make([]map[string]any, 0, len(v.Entries))
		for _, e := range v.Entries {
			out = append(out, map[string]any{
				"key":   Plain(e.Key),
				"value": Plain(e.Value),
			})
		}
		return out
	default:
		return nil
	}
}

func plainItems(items []Value) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, Plain(item))
	}
	return out
}

func plainFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	default:
		return f
	}
}

// MarshalJSON renders the message envelope and body.
func (m *Message) MarshalJSON() ([]byte, error) {
	var body any = []any{}
	if m.Body != nil {
		body = Plain(m.Body)
	}
	return json.Marshal(map[string]any{
		"name":  m.Name,
		"type":  m.Type.String(),
		"seqid": m.SeqID,
		"body":  body,
	})
}

// MarshalValue renders a single value as JSON.
func MarshalValue(v Value) ([]byte, error) {
	return json.Marshal(Plain(v))
}
