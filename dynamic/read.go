package dynamic

import (
	"errors"
	"fmt"

	"github.com/wkalt/tbin/binproto"
)

/*
ReadValue is recursive, unlike binproto's Skip, so it carries its own depth
bound: every struct, list, set or map entered counts one level against the
reader's MaxDepth. Element storage is sized from the declared count only after
checking that the bytes remaining could hold that many elements at their
smallest encoding, and never beyond maxPrealloc, so a forged count costs at
most one failed comparison.
*/

////////////////////////////////////////////////////////////////////////////////

var (
	// ErrMaxDepth is returned when a value nests deeper than the reader allows.
	ErrMaxDepth = errors.New("max depth exceeded")

	// ErrUnexpectedStop is returned when STOP appears where a value is expected.
	ErrUnexpectedStop = errors.New("unexpected stop")
)

const maxPrealloc = 1024

// ReadValue reads one value of type t.
func ReadValue(r *binproto.Reader, t binproto.TType) (Value, error) {
	return readValue(r, t, 0)
}

// ReadStruct reads a struct body up to and including its STOP.
func ReadStruct(r *binproto.Reader) (*Struct, error) {
	return readStruct(r, 0)
}

func readValue(r *binproto.Reader, t binproto.TType, depth int) (Value, error) { // nolint: funlen
	switch t {
	case binproto.VOID:
		return Void{}, nil
	case binproto.BOOL:
		v, err := r.ReadBool()
		return Bool(v), err
	case binproto.BYTE:
		v, err := r.ReadI8()
		return I8(v), err
	case binproto.I16:
		v, err := r.ReadI16()
		return I16(v), err
	case binproto.I32:
		v, err := r.ReadI32()
		return I32(v), err
	case binproto.I64:
		v, err := r.ReadI64()
		return I64(v), err
	case binproto.DOUBLE:
		v, err := r.ReadDouble()
		return Double(v), err
	case binproto.FLOAT:
		v, err := r.ReadFloat()
		return Float(v), err
	case binproto.STRING, binproto.UTF8, binproto.UTF16:
		data, err := r.ReadBinary()
		if err != nil {
			return nil, err
		}
		return Binary{Tag: t, Data: data}, nil
	case binproto.STRUCT:
		return readStruct(r, depth)
	case binproto.LIST, binproto.SET:
		return readCollection(r, t, depth)
	case binproto.MAP:
		return readMap(r, depth)
	case binproto.STOP:
		return nil, ErrUnexpectedStop
	case binproto.STREAM:
		return nil, binproto.ErrStreamUnsupported
	default:
		return nil, binproto.InvalidTypeError{Code: int8(t)}
	}
}

func enter(r *binproto.Reader, depth int) (int, error) {
	depth++
	if depth > r.MaxDepth() {
		return 0, fmt.Errorf("%w: limit %d", ErrMaxDepth, r.MaxDepth())
	}
	return depth, nil
}

func readStruct(r *binproto.Reader, depth int) (*Struct, error) {
	depth, err := enter(r, depth)
	if err != nil {
		return nil, err
	}
	if err := r.ReadStructBegin(); err != nil {
		return nil, err
	}
	s := &Struct{}
	for {
		typ, id, err := r.ReadFieldBegin()
		if err != nil {
			return nil, err
		}
		if typ == binproto.STOP {
			break
		}
		v, err := readValue(r, typ, depth)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", id, err)
		}
		if err := r.ReadFieldEnd(); err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, Field{ID: id, Value: v})
	}
	if err := r.ReadStructEnd(); err != nil {
		return nil, err
	}
	return s, nil
}

// checkCount fails with EOF if count elements of at least width bytes each
// cannot fit in what remains. Zero-width elements occupy no input, so their
// count is bounded by maxPrealloc instead.
func checkCount(r *binproto.Reader, what string, count, width int) error {
	if width == 0 {
		if count > maxPrealloc {
			return fmt.Errorf("%s of %d zero-width elements: %w", what, count, binproto.ErrInvalidDataLength)
		}
		return nil
	}
	if count > r.Remaining()/width {
		return binproto.ShortReadError{What: what, Want: count * width, Have: r.Remaining()}
	}
	return nil
}

func readCollection(r *binproto.Reader, t binproto.TType, depth int) (Value, error) {
	depth, err := enter(r, depth)
	if err != nil {
		return nil, err
	}
	var elem binproto.TType
	var count int
	if t == binproto.LIST {
		elem, count, err = r.ReadListBegin()
	} else {
		elem, count, err = r.ReadSetBegin()
	}
	if err != nil {
		return nil, err
	}
	if err := checkCount(r, t.String(), count, binproto.MinSize(elem)); err != nil {
		return nil, err
	}
	items := make([]Value, 0, min(count, maxPrealloc))
	for i := 0; i < count; i++ {
		v, err := readValue(r, elem, depth)
		if err != nil {
			return nil, fmt.Errorf("%s element %d: %w", t, i, err)
		}
		items = append(items, v)
	}
	if t == binproto.LIST {
		if err := r.ReadListEnd(); err != nil {
			return nil, err
		}
		return &List{Elem: elem, Items: items}, nil
	}
	if err := r.ReadSetEnd(); err != nil {
		return nil, err
	}
	return &Set{Elem: elem, Items: items}, nil
}

func readMap(r *binproto.Reader, depth int) (*Map, error) {
	depth, err := enter(r, depth)
	if err != nil {
		return nil, err
	}
	keyType, valueType, count, err := r.ReadMapBegin()
	if err != nil {
		return nil, err
	}
	width := binproto.MinSize(keyType) + binproto.MinSize(valueType)
	if err := checkCount(r, "map", count, width); err != nil {
		return nil, err
	}
	m := &Map{
		Key:     keyType,
		Value:   valueType,
		Entries: make([]MapEntry, 0, min(count, maxPrealloc)),
	}
	for i := 0; i < count; i++ {
		k, err := readValue(r, keyType, depth)
		if err != nil {
			return nil, fmt.Errorf("map key %d: %w", i, err)
		}
		v, err := readValue(r, valueType, depth)
		if err != nil {
			return nil, fmt.Errorf("map value %d: %w", i, err)
		}
		m.Entries = append(m.Entries, MapEntry{Key: k, Value: v})
	}
	if err := r.ReadMapEnd(); err != nil {
		return nil, err
	}
	return m, nil
}
