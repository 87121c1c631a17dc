package dynamic

import (
	"fmt"

	"github.com/wkalt/tbin/binproto"
)

// WriteValue writes v. The write sequence depends only on v, so a value tree
// can be passed to binproto.Serialize through Encodable. Container elements
// are written as found; an element whose type disagrees with the declared
// element type produces a payload the peer will misread, the same as it would
// from generated code.
func WriteValue(w *binproto.Writer, v Value) {
	switch v := v.(type) {
	case Void:
	case Bool:
		w.WriteBool(bool(v))
	case I8:
		w.WriteI8(int8(v))
	case I16:
		w.WriteI16(int16(v))
	case I32:
		w.WriteI32(int32(v))
	case I64:
		w.WriteI64(int64(v))
	case Double:
		w.WriteDouble(float64(v))
	case Float:
		w.WriteFloat(float32(v))
	case Binary:
		w.WriteBinary(v.Data)
	case *Struct:
		WriteStruct(w, v)
	case *List:
		w.WriteListBegin(v.Elem, len(v.Items))
		for _, item := range v.Items {
			w.WriteListValueBegin()
			WriteValue(w, item)
		}
		w.WriteListEnd()
	case *Set:
		w.WriteSetBegin(v.Elem, len(v.Items))
		for _, item := range v.Items {
			w.WriteSetValueBegin()
			WriteValue(w, item)
		}
		w.WriteSetEnd()
	case *Map:
		w.WriteMapBegin(v.Key, v.Value, len(v.Entries))
		for _, e := range v.Entries {
			w.WriteMapKeyBegin()
			WriteValue(w, e.Key)
			w.WriteMapValueBegin()
			WriteValue(w, e.Value)
		}
		w.WriteMapEnd()
	default:
		panic(fmt.Sprintf("dynamic: cannot write %T", v))
	}
}

// WriteStruct writes s's fields followed by STOP.
func WriteStruct(w *binproto.Writer, s *Struct) {
	w.WriteStructBegin("")
	for _, f := range s.Fields {
		w.WriteFieldBegin("", f.Value.Type(), f.ID)
		WriteValue(w, f.Value)
		w.WriteFieldEnd()
	}
	w.WriteFieldStop()
	w.WriteStructEnd()
}

// Encodable adapts v for the two-pass serializer.
func Encodable(v Value) binproto.Encodable {
	return binproto.EncodeFunc(func(w *binproto.Writer) {
		WriteValue(w, v)
	})
}
