package binproto_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wkalt/tbin/binproto"
	"github.com/wkalt/tbin/util/bufext"
	"github.com/wkalt/tbin/util/testutils"
)

// sources returns data as a contiguous slice and as a chain of one-byte
// chunks, so every multi-byte read goes through the copy path.
func sources(data []byte) map[string]func() binproto.Source {
	return map[string]func() binproto.Source{
		"slice": func() binproto.Source { return bufext.NewSliceSource(data) },
		"chain": func() binproto.Source {
			chunks := make([][]byte, len(data))
			for i := range data {
				chunks[i] = data[i : i+1]
			}
			return bufext.NewChainSource(chunks...)
		},
	}
}

func forEachSource(t *testing.T, data []byte, fn func(t *testing.T, r *binproto.Reader)) {
	t.Helper()
	for name, src := range sources(data) {
		t.Run(name, func(t *testing.T) {
			fn(t, binproto.NewReader(src()))
		})
	}
}

func TestReadPrimitives(t *testing.T) {
	data := testutils.Flatten(
		testutils.Boolb(true),
		[]byte{7},
		testutils.I8b(-5),
		testutils.I16b(-300),
		testutils.I32b(123456),
		testutils.I64b(math.MinInt64),
		testutils.F64b(math.Pi),
		testutils.F32b(1.5),
		testutils.PrefixedString("héllo"),
		testutils.PrefixedString("\xff\x00"),
	)
	forEachSource(t, data, func(t *testing.T, r *binproto.Reader) {
		b, err := r.ReadBool()
		require.NoError(t, err)
		require.True(t, b)

		b, err = r.ReadBool()
		require.NoError(t, err)
		require.True(t, b, "any nonzero byte is true")

		i8, err := r.ReadI8()
		require.NoError(t, err)
		require.Equal(t, int8(-5), i8)

		i16, err := r.ReadI16()
		require.NoError(t, err)
		require.Equal(t, int16(-300), i16)

		i32, err := r.ReadI32()
		require.NoError(t, err)
		require.Equal(t, int32(123456), i32)

		i64, err := r.ReadI64()
		require.NoError(t, err)
		require.Equal(t, int64(math.MinInt64), i64)

		f64, err := r.ReadDouble()
		require.NoError(t, err)
		require.Equal(t, math.Pi, f64)

		f32, err := r.ReadFloat()
		require.NoError(t, err)
		require.Equal(t, float32(1.5), f32)

		s, err := r.ReadString()
		require.NoError(t, err)
		require.Equal(t, "héllo", s)

		bin, err := r.ReadBinary()
		require.NoError(t, err)
		require.Equal(t, []byte{0xff, 0x00}, bin)

		require.Zero(t, r.Remaining())
		_, err = r.ReadBool()
		require.ErrorIs(t, err, binproto.ErrEOF)
	})
}

func TestReadFixedWidthEOF(t *testing.T) {
	cases := []struct {
		assertion string
		width     int
		read      func(r *binproto.Reader) error
	}{
		{"bool", 1, func(r *binproto.Reader) error { _, err := r.ReadBool(); return err }},
		{"byte", 1, func(r *binproto.Reader) error { _, err := r.ReadI8(); return err }},
		{"i16", 2, func(r *binproto.Reader) error { _, err := r.ReadI16(); return err }},
		{"i32", 4, func(r *binproto.Reader) error { _, err := r.ReadI32(); return err }},
		{"i64", 8, func(r *binproto.Reader) error { _, err := r.ReadI64(); return err }},
		{"double", 8, func(r *binproto.Reader) error { _, err := r.ReadDouble(); return err }},
		{"float", 4, func(r *binproto.Reader) error { _, err := r.ReadFloat(); return err }},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			src := bufext.NewSliceSource(make([]byte, c.width-1))
			r := binproto.NewReader(src)
			err := c.read(r)
			require.ErrorIs(t, err, binproto.ErrEOF)
			var short binproto.ShortReadError
			require.True(t, errors.As(err, &short))
			require.Equal(t, c.width, short.Want)
			require.Equal(t, c.width-1, short.Have)
			require.Equal(t, c.width-1, r.Remaining(), "nothing consumed")
		})
	}
}

func TestReadString(t *testing.T) {
	t.Run("invalid utf-8", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(testutils.PrefixedString("\xc3\x28")))
		_, err := r.ReadString()
		require.ErrorIs(t, err, binproto.ErrInvalidUTF8)
		require.Contains(t, err.Error(), "binary")
	})
	t.Run("invalid utf-8 reads as binary", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(testutils.PrefixedString("\xc3\x28")))
		b, err := r.ReadBinary()
		require.NoError(t, err)
		require.Equal(t, []byte{0xc3, 0x28}, b)
	})
	t.Run("negative length", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(testutils.I32b(-1)))
		_, err := r.ReadString()
		require.ErrorIs(t, err, binproto.ErrInvalidDataLength)
		r = binproto.NewReader(bufext.NewSliceSource(testutils.I32b(math.MinInt32)))
		_, err = r.ReadBinary()
		require.ErrorIs(t, err, binproto.ErrInvalidDataLength)
	})
	t.Run("length exceeds remaining", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(testutils.Flatten(testutils.I32b(10), []byte("abc"))))
		_, err := r.ReadBinary()
		require.ErrorIs(t, err, binproto.ErrEOF)
	})
	t.Run("length limit", func(t *testing.T) {
		data := testutils.PrefixedString("abcdef")
		r := binproto.NewReader(bufext.NewSliceSource(data), binproto.WithMaxStringLength(5))
		_, err := r.ReadString()
		require.ErrorIs(t, err, binproto.ErrInvalidDataLength)

		r = binproto.NewReader(bufext.NewSliceSource(data), binproto.WithMaxStringLength(6))
		s, err := r.ReadString()
		require.NoError(t, err)
		require.Equal(t, "abcdef", s)
	})
}

func TestReadBinaryView(t *testing.T) {
	data := testutils.PrefixedString("abc")
	t.Run("contiguous view aliases source", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(data))
		view, err := r.ReadBinaryView()
		require.NoError(t, err)
		require.Equal(t, []byte("abc"), view)
		require.Same(t, &data[4], &view[0])
	})
	t.Run("segmented view is copied", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewChainSource(data[:5], data[5:]))
		view, err := r.ReadBinaryView()
		require.NoError(t, err)
		require.Equal(t, []byte("abc"), view)
		require.Zero(t, r.Remaining())
	})
	t.Run("binary always copies", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(data))
		b, err := r.ReadBinary()
		require.NoError(t, err)
		b[0] = 'z'
		require.Equal(t, byte('a'), data[4])
	})
}

func TestReadMessageBegin(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		forEachSource(t, testutils.MessageHeader("getUser", binproto.ONEWAY, 99), func(t *testing.T, r *binproto.Reader) {
			name, typ, seqid, err := r.ReadMessageBegin()
			require.NoError(t, err)
			require.Equal(t, "getUser", name)
			require.Equal(t, binproto.ONEWAY, typ)
			require.Equal(t, uint32(99), seqid)
			require.NoError(t, r.ReadMessageEnd())
		})
	})
	t.Run("zero copy name", func(t *testing.T) {
		data := testutils.MessageHeader("abc", binproto.CALL, 1)
		r := binproto.NewReader(bufext.NewSliceSource(data))
		var name []byte
		_, _, err := r.ReadMessageBeginFunc(func(b []byte) { name = b })
		require.NoError(t, err)
		require.Same(t, &data[8], &name[0])
	})
	t.Run("bad version", func(t *testing.T) {
		for _, word := range []uint32{0, 0x80020001, 0x00010001, 0xffff0001, 0x7fff0001} {
			data := testutils.Flatten(testutils.U32b(word), testutils.PrefixedString("x"), testutils.U32b(1))
			r := binproto.NewReader(bufext.NewSliceSource(data))
			_, _, _, err := r.ReadMessageBegin()
			require.ErrorIs(t, err, binproto.ErrBadVersion, "word %#x", word)
		}
	})
	t.Run("bad version wins over everything else", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(testutils.U32b(0x12340099)))
		_, _, _, err := r.ReadMessageBegin()
		require.ErrorIs(t, err, binproto.ErrBadVersion)
	})
	t.Run("invalid message type", func(t *testing.T) {
		data := testutils.Flatten(testutils.U32b(binproto.Version1|9), testutils.PrefixedString("x"), testutils.U32b(1))
		r := binproto.NewReader(bufext.NewSliceSource(data))
		_, _, _, err := r.ReadMessageBegin()
		require.ErrorIs(t, err, binproto.ErrInvalidMessageType)
	})
	t.Run("negative name length", func(t *testing.T) {
		data := testutils.Flatten(testutils.U32b(binproto.Version1|1), testutils.I32b(-4))
		r := binproto.NewReader(bufext.NewSliceSource(data))
		_, _, _, err := r.ReadMessageBegin()
		require.ErrorIs(t, err, binproto.ErrInvalidDataLength)
	})
	t.Run("name longer than buffer", func(t *testing.T) {
		data := testutils.Flatten(testutils.U32b(binproto.Version1|1), testutils.I32b(100), []byte("ab"))
		r := binproto.NewReader(bufext.NewSliceSource(data))
		_, _, _, err := r.ReadMessageBegin()
		require.ErrorIs(t, err, binproto.ErrEOF)
	})
}

func TestReadHeaders(t *testing.T) {
	t.Run("field", func(t *testing.T) {
		forEachSource(t, testutils.Flatten(testutils.FieldHeader(binproto.MAP, -7), testutils.Stop()), func(t *testing.T, r *binproto.Reader) {
			typ, id, err := r.ReadFieldBegin()
			require.NoError(t, err)
			require.Equal(t, binproto.MAP, typ)
			require.Equal(t, int16(-7), id)

			typ, id, err = r.ReadFieldBegin()
			require.NoError(t, err)
			require.Equal(t, binproto.STOP, typ)
			require.Zero(t, id)
			require.Zero(t, r.Remaining())
		})
	})
	t.Run("invalid field type", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource([]byte{7, 0, 1}))
		_, _, err := r.ReadFieldBegin()
		require.ErrorIs(t, err, binproto.ErrInvalidType)
	})
	t.Run("map", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(testutils.MapHeader(binproto.I64, binproto.STRUCT, 3)))
		k, v, n, err := r.ReadMapBegin()
		require.NoError(t, err)
		require.Equal(t, binproto.I64, k)
		require.Equal(t, binproto.STRUCT, v)
		require.Equal(t, 3, n)
	})
	t.Run("set", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(testutils.ListHeader(binproto.STRING, 0)))
		elem, n, err := r.ReadSetBegin()
		require.NoError(t, err)
		require.Equal(t, binproto.STRING, elem)
		require.Zero(t, n)
	})
	t.Run("negative counts", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(testutils.ListHeader(binproto.I32, -1)))
		_, _, err := r.ReadListBegin()
		require.ErrorIs(t, err, binproto.ErrInvalidDataLength)

		r = binproto.NewReader(bufext.NewSliceSource(testutils.ListHeader(binproto.I32, math.MinInt32)))
		_, _, err = r.ReadSetBegin()
		require.ErrorIs(t, err, binproto.ErrInvalidDataLength)

		r = binproto.NewReader(bufext.NewSliceSource(testutils.MapHeader(binproto.I32, binproto.I32, -2)))
		_, _, _, err = r.ReadMapBegin()
		require.ErrorIs(t, err, binproto.ErrInvalidDataLength)
	})
}

func TestReaderOptions(t *testing.T) {
	r := binproto.NewReader(bufext.NewSliceSource(nil))
	require.Equal(t, binproto.DefaultRecursionDepth, r.MaxDepth())

	r = binproto.NewReader(bufext.NewSliceSource(nil), binproto.WithMaxDepth(3))
	require.Equal(t, 3, r.MaxDepth())

	r = binproto.NewReader(bufext.NewSliceSource(nil), binproto.WithMaxDepth(0))
	require.Equal(t, binproto.DefaultRecursionDepth, r.MaxDepth())

	r = binproto.NewReader(bufext.NewSliceSource([]byte{1, 2}))
	require.True(t, r.CanAdvance(2))
	require.False(t, r.CanAdvance(3))
	require.False(t, r.CanAdvance(-1))
}
