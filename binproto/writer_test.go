package binproto_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wkalt/tbin/binproto"
	"github.com/wkalt/tbin/util/bufext"
	"github.com/wkalt/tbin/util/testutils"
)

func write(fn func(w *binproto.Writer)) []byte {
	buf := bufext.NewBuffer(0)
	fn(binproto.NewWriter(buf))
	return buf.Bytes()
}

func TestWriter(t *testing.T) {
	cases := []struct {
		assertion string
		fn        func(w *binproto.Writer)
		expected  []byte
	}{
		{
			"bool true",
			func(w *binproto.Writer) { w.WriteBool(true) },
			[]byte{1},
		},
		{
			"bool false",
			func(w *binproto.Writer) { w.WriteBool(false) },
			[]byte{0},
		},
		{
			"byte",
			func(w *binproto.Writer) { w.WriteI8(-2) },
			[]byte{0xfe},
		},
		{
			"i16",
			func(w *binproto.Writer) { w.WriteI16(0x0102) },
			[]byte{1, 2},
		},
		{
			"i32",
			func(w *binproto.Writer) { w.WriteI32(-1) },
			[]byte{0xff, 0xff, 0xff, 0xff},
		},
		{
			"i64",
			func(w *binproto.Writer) { w.WriteI64(math.MinInt64) },
			[]byte{0x80, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			"double",
			func(w *binproto.Writer) { w.WriteDouble(1) },
			testutils.F64b(1),
		},
		{
			"float",
			func(w *binproto.Writer) { w.WriteFloat(-2.5) },
			testutils.F32b(-2.5),
		},
		{
			"string",
			func(w *binproto.Writer) { w.WriteString("hi") },
			[]byte{0, 0, 0, 2, 'h', 'i'},
		},
		{
			"empty binary",
			func(w *binproto.Writer) { w.WriteBinary(nil) },
			[]byte{0, 0, 0, 0},
		},
		{
			"field header",
			func(w *binproto.Writer) { w.WriteFieldBegin("ignored", binproto.I64, -3) },
			[]byte{10, 0xff, 0xfd},
		},
		{
			"field stop",
			func(w *binproto.Writer) { w.WriteFieldStop() },
			[]byte{0},
		},
		{
			"map header",
			func(w *binproto.Writer) { w.WriteMapBegin(binproto.STRING, binproto.LIST, 258) },
			[]byte{11, 15, 0, 0, 1, 2},
		},
		{
			"list header",
			func(w *binproto.Writer) { w.WriteListBegin(binproto.STRUCT, 1) },
			[]byte{12, 0, 0, 0, 1},
		},
		{
			"set header",
			func(w *binproto.Writer) { w.WriteSetBegin(binproto.BOOL, 0) },
			[]byte{2, 0, 0, 0, 0},
		},
		{
			"message header",
			func(w *binproto.Writer) { w.WriteMessageBegin("f", binproto.REPLY, 1) },
			[]byte{0x80, 0x01, 0x00, 0x02, 0, 0, 0, 1, 'f', 0, 0, 0, 1},
		},
		{
			"markers emit nothing",
			func(w *binproto.Writer) {
				w.WriteMessageEnd()
				w.WriteStructBegin("s")
				w.WriteStructEnd()
				w.WriteFieldEnd()
				w.WriteMapKeyBegin()
				w.WriteMapValueBegin()
				w.WriteMapEnd()
				w.WriteListValueBegin()
				w.WriteListEnd()
				w.WriteSetValueBegin()
				w.WriteSetEnd()
			},
			[]byte{},
		},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			require.Equal(t, c.expected, write(c.fn))
		})
	}
}

func TestWriterFieldNamesNotEncoded(t *testing.T) {
	a := write(func(w *binproto.Writer) { w.WriteFieldBegin("alpha", binproto.I32, 1) })
	b := write(func(w *binproto.Writer) { w.WriteFieldBegin("", binproto.I32, 1) })
	require.Equal(t, a, b)
}

func TestWriterPanicsOnNegativeSize(t *testing.T) {
	require.Panics(t, func() {
		write(func(w *binproto.Writer) { w.WriteListBegin(binproto.I32, -1) })
	})
}

func TestWriterPanicsOnWideMessageType(t *testing.T) {
	require.Panics(t, func() {
		write(func(w *binproto.Writer) { w.WriteMessageBegin("ping", binproto.MessageType(0x10000), 1) })
	})
	require.NotPanics(t, func() {
		write(func(w *binproto.Writer) { w.WriteMessageBegin("ping", binproto.MessageType(0xffff), 1) })
	})
}

func TestSizeCounter(t *testing.T) {
	counter := binproto.NewSizeCounter()
	w := binproto.NewWriter(counter)
	w.WriteMessageBegin("ping", binproto.CALL, 7)
	require.Equal(t, 16, counter.Len())
	w.WriteI8(1)
	w.WriteI16(1)
	w.WriteI32(1)
	w.WriteI64(1)
	w.WriteBinary([]byte{1, 2, 3})
	require.Equal(t, 16+1+2+4+8+7, counter.Len())
	counter.Reset()
	require.Zero(t, counter.Len())
}
