package binproto

import (
	"fmt"
	"math"
)

/*
The Writer emits the binary encoding of primitives and boundary markers to a
Sink, in exactly the order it is called. It has no knowledge of any schema;
generated or hand-written code calls it in a sequence mirroring the value being
encoded.

Write calls never fail. A Sink is either unbounded or has been sized in advance
by a SizeCounter pass over the identical call sequence (see Serialize). Anyone
adding an encoding on top of the Writer must keep that call sequence a pure
function of the value: the measuring pass and the writing pass have to agree
byte for byte, and a disagreement is a programming error that panics.

Only field headers, field stops, container headers and message headers emit
bytes of their own. The remaining begin/end markers are no-ops in this format
and exist so that callers can drive any protocol with the same sequence.
*/

////////////////////////////////////////////////////////////////////////////////

// Sink accepts encoded bytes. Fixed-width appends are big-endian.
type Sink interface {
	Append(p []byte)
	AppendString(s string)
	AppendUint8(v uint8)
	AppendUint16(v uint16)
	AppendUint32(v uint32)
	AppendUint64(v uint64)
}

// Writer encodes primitives onto a Sink.
type Writer struct {
	sink Sink
}

// NewWriter returns a writer appending to sink.
func NewWriter(sink Sink) *Writer {
	return &Writer{sink: sink}
}

// Sink returns the writer's underlying sink.
func (w *Writer) Sink() Sink {
	return w.sink
}

// WriteMessageBegin writes the version/type word, the method name and the
// sequence id. It panics if typ does not fit below the version bits.
func (w *Writer) WriteMessageBegin(name string, typ MessageType, seqid uint32) {
	if uint32(typ)&VersionMask != 0 {
		panic(fmt.Sprintf("binproto: message type %d overlaps the version word", typ))
	}
	w.sink.AppendUint32(Version1 | uint32(typ))
	w.WriteString(name)
	w.sink.AppendUint32(seqid)
}

func (w *Writer) WriteMessageEnd() {}

// WriteStructBegin is a no-op; struct names are not encoded.
func (w *Writer) WriteStructBegin(_ string) {}

func (w *Writer) WriteStructEnd() {}

// WriteFieldBegin writes a field header. Field names are not encoded; only the
// type and numeric id go on the wire.
func (w *Writer) WriteFieldBegin(_ string, typ TType, id int16) {
	w.sink.AppendUint8(uint8(typ))
	w.sink.AppendUint16(uint16(id))
}

func (w *Writer) WriteFieldEnd() {}

// WriteFieldStop terminates the fields of a struct.
func (w *Writer) WriteFieldStop() {
	w.sink.AppendUint8(uint8(STOP))
}

// WriteMapBegin writes a map header. size must equal the number of key/value
// pairs subsequently written.
func (w *Writer) WriteMapBegin(keyType, valueType TType, size int) {
	w.sink.AppendUint8(uint8(keyType))
	w.sink.AppendUint8(uint8(valueType))
	w.sink.AppendUint32(uint32(containerSize("map", size)))
}

func (w *Writer) WriteMapKeyBegin()   {}
func (w *Writer) WriteMapValueBegin() {}
func (w *Writer) WriteMapEnd()        {}

// WriteListBegin writes a list header. size must equal the number of elements
// subsequently written.
func (w *Writer) WriteListBegin(elemType TType, size int) {
	w.sink.AppendUint8(uint8(elemType))
	w.sink.AppendUint32(uint32(containerSize("list", size)))
}

func (w *Writer) WriteListValueBegin() {}
func (w *Writer) WriteListEnd()        {}

// WriteSetBegin writes a set header. size must equal the number of elements
// subsequently written.
func (w *Writer) WriteSetBegin(elemType TType, size int) {
	w.sink.AppendUint8(uint8(elemType))
	w.sink.AppendUint32(uint32(containerSize("set", size)))
}

func (w *Writer) WriteSetValueBegin() {}
func (w *Writer) WriteSetEnd()        {}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.sink.AppendUint8(1)
	} else {
		w.sink.AppendUint8(0)
	}
}

// WriteI8 writes a BYTE value.
func (w *Writer) WriteI8(v int8) {
	w.sink.AppendUint8(uint8(v))
}

func (w *Writer) WriteI16(v int16) {
	w.sink.AppendUint16(uint16(v))
}

func (w *Writer) WriteI32(v int32) {
	w.sink.AppendUint32(uint32(v))
}

func (w *Writer) WriteI64(v int64) {
	w.sink.AppendUint64(uint64(v))
}

func (w *Writer) WriteDouble(v float64) {
	w.sink.AppendUint64(math.Float64bits(v))
}

func (w *Writer) WriteFloat(v float32) {
	w.sink.AppendUint32(math.Float32bits(v))
}

// WriteString writes a length-prefixed string. The bytes are written as-is;
// the caller is responsible for the string being UTF-8.
func (w *Writer) WriteString(v string) {
	w.sink.AppendUint32(uint32(containerSize("string", len(v))))
	w.sink.AppendString(v)
}

// WriteBinary writes a length-prefixed byte string.
func (w *Writer) WriteBinary(v []byte) {
	w.sink.AppendUint32(uint32(containerSize("binary", len(v))))
	w.sink.Append(v)
}

// containerSize checks that a size fits the wire's signed 32-bit length. An
// out of range size cannot come from a decoded peer, only from the calling
// code, so it panics.
func containerSize(what string, size int) int32 {
	if size < 0 || size > math.MaxInt32 {
		panic(fmt.Sprintf("binproto: %s size %d overflows int32", what, size))
	}
	return int32(size)
}
