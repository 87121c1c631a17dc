package dynamic_test

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/tbin/binproto"
	"github.com/wkalt/tbin/dynamic"
	"github.com/wkalt/tbin/util/bufext"
	"github.com/wkalt/tbin/util/testutils"
)

func sample() *dynamic.Struct {
	return &dynamic.Struct{Fields: []dynamic.Field{
		{ID: 1, Value: dynamic.Bool(true)},
		{ID: 2, Value: dynamic.I8(-1)},
		{ID: 3, Value: dynamic.I16(300)},
		{ID: 4, Value: dynamic.I32(-70000)},
		{ID: 5, Value: dynamic.I64(1 << 40)},
		{ID: 6, Value: dynamic.Double(2.5)},
		{ID: 7, Value: dynamic.Float(-0.5)},
		{ID: 8, Value: dynamic.NewString("héllo")},
		{ID: 9, Value: dynamic.Binary{Tag: binproto.UTF8, Data: []byte("u")}},
		{ID: 10, Value: &dynamic.List{Elem: binproto.I32, Items: []dynamic.Value{
			dynamic.I32(1), dynamic.I32(2),
		}}},
		{ID: 11, Value: &dynamic.Set{Elem: binproto.STRING, Items: []dynamic.Value{
			dynamic.NewString("a"),
		}}},
		{ID: 12, Value: &dynamic.Map{Key: binproto.STRING, Value: binproto.STRUCT, Entries: []dynamic.MapEntry{
			{Key: dynamic.NewString("k"), Value: &dynamic.Struct{Fields: []dynamic.Field{
				{ID: 1, Value: &dynamic.List{Elem: binproto.LIST, Items: []dynamic.Value{
					&dynamic.List{Elem: binproto.BOOL, Items: []dynamic.Value{}},
				}}},
			}}},
		}}},
		{ID: 13, Value: dynamic.Void{}},
		{ID: -1, Value: &dynamic.Struct{}},
	}}
}

func TestRoundTrip(t *testing.T) {
	s := sample()
	data := binproto.Serialize(dynamic.Encodable(s))

	r := binproto.NewReader(bufext.NewSliceSource(data))
	decoded, err := dynamic.ReadValue(r, binproto.STRUCT)
	require.NoError(t, err)
	require.Zero(t, r.Remaining())
	require.Equal(t, s, decoded)

	require.Equal(t, data, binproto.Serialize(dynamic.Encodable(decoded)))
}

func TestReadValueMatchesHandBuiltBytes(t *testing.T) {
	data := testutils.Flatten(
		testutils.FieldHeader(binproto.I32, 1), testutils.I32b(42),
		testutils.FieldHeader(binproto.MAP, 2), testutils.MapHeader(binproto.I16, binproto.STRING, 1),
		testutils.I16b(7), testutils.PrefixedString("seven"),
		testutils.Stop(),
	)
	r := binproto.NewReader(bufext.NewSliceSource(data))
	s, err := dynamic.ReadStruct(r)
	require.NoError(t, err)

	v, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, dynamic.I32(42), v)

	v, ok = s.Get(2)
	require.True(t, ok)
	m := testutils.Must[*dynamic.Map](t, v)
	require.Equal(t, binproto.I16, m.Key)
	require.Equal(t, []dynamic.MapEntry{
		{Key: dynamic.I16(7), Value: dynamic.Binary{Tag: binproto.STRING, Data: []byte("seven")}},
	}, m.Entries)

	_, ok = s.Get(3)
	require.False(t, ok)
}

func TestReadValueErrors(t *testing.T) {
	cases := []struct {
		assertion string
		typ       binproto.TType
		data      []byte
		expected  error
	}{
		{
			"stop",
			binproto.STOP,
			[]byte{},
			dynamic.ErrUnexpectedStop,
		},
		{
			"stream",
			binproto.STREAM,
			[]byte{},
			binproto.ErrStreamUnsupported,
		},
		{
			"invalid",
			binproto.TType(9),
			[]byte{},
			binproto.ErrInvalidType,
		},
		{
			"count exceeds remaining",
			binproto.LIST,
			testutils.Flatten(testutils.ListHeader(binproto.I64, 2_000_000_000), testutils.I64b(1)),
			binproto.ErrEOF,
		},
		{
			"struct count exceeds remaining",
			binproto.SET,
			testutils.ListHeader(binproto.STRUCT, 10),
			binproto.ErrEOF,
		},
		{
			"map count exceeds remaining",
			binproto.MAP,
			testutils.Flatten(testutils.MapHeader(binproto.STRING, binproto.STRING, 2), testutils.PrefixedString("a")),
			binproto.ErrEOF,
		},
		{
			"many voids",
			binproto.LIST,
			testutils.ListHeader(binproto.VOID, 1_000_000),
			binproto.ErrInvalidDataLength,
		},
		{
			"negative count",
			binproto.MAP,
			testutils.MapHeader(binproto.STRING, binproto.STRING, -1),
			binproto.ErrInvalidDataLength,
		},
		{
			"stop element",
			binproto.LIST,
			testutils.ListHeader(binproto.STOP, 1),
			dynamic.ErrUnexpectedStop,
		},
		{
			"nested field error",
			binproto.STRUCT,
			testutils.Flatten(testutils.FieldHeader(binproto.STRING, 4), testutils.I32b(-3)),
			binproto.ErrInvalidDataLength,
		},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			r := binproto.NewReader(bufext.NewSliceSource(c.data))
			_, err := dynamic.ReadValue(r, c.typ)
			require.ErrorIs(t, err, c.expected)
		})
	}
}

func TestReadValueDepth(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(testutils.NestedLists(9)), binproto.WithMaxDepth(10))
		_, err := dynamic.ReadValue(r, binproto.LIST)
		require.NoError(t, err)
	})
	t.Run("beyond limit", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(testutils.NestedLists(10)), binproto.WithMaxDepth(10))
		_, err := dynamic.ReadValue(r, binproto.LIST)
		require.ErrorIs(t, err, dynamic.ErrMaxDepth)
	})
	t.Run("adversarial", func(t *testing.T) {
		r := binproto.NewReader(bufext.NewSliceSource(testutils.NestedLists(100_000)))
		_, err := dynamic.ReadValue(r, binproto.LIST)
		require.ErrorIs(t, err, dynamic.ErrMaxDepth)
	})
}

func TestMessage(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		msg := &dynamic.Message{
			Name:  "getUser",
			Type:  binproto.REPLY,
			SeqID: 12,
			Body: &dynamic.Struct{Fields: []dynamic.Field{
				{ID: 0, Value: dynamic.NewString("ok")},
			}},
		}
		data := binproto.Serialize(msg)
		decoded := &dynamic.Message{}
		require.NoError(t, binproto.Deserialize(data, decoded))
		require.Equal(t, msg, decoded)
	})
	t.Run("nil body", func(t *testing.T) {
		msg := &dynamic.Message{Name: "ping", Type: binproto.CALL, SeqID: 7}
		data := binproto.Serialize(msg)
		require.Equal(t, testutils.Flatten(
			testutils.MessageHeader("ping", binproto.CALL, 7),
			testutils.Stop(),
		), data)
	})
	t.Run("truncated body", func(t *testing.T) {
		data := testutils.Flatten(
			testutils.MessageHeader("ping", binproto.CALL, 7),
			testutils.FieldHeader(binproto.I32, 1),
		)
		err := binproto.Deserialize(data, &dynamic.Message{})
		require.ErrorIs(t, err, binproto.ErrEOF)
		require.Contains(t, err.Error(), "ping")
	})
}

func TestJSON(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		msg := &dynamic.Message{
			Name:  "f",
			Type:  binproto.CALL,
			SeqID: 1,
			Body: &dynamic.Struct{Fields: []dynamic.Field{
				{ID: 1, Value: dynamic.NewString("text")},
				{ID: 2, Value: dynamic.Binary{Tag: binproto.STRING, Data: []byte{0xff, 0x00}}},
				{ID: 3, Value: &dynamic.Map{Key: binproto.I32, Value: binproto.BOOL, Entries: []dynamic.MapEntry{
					{Key: dynamic.I32(5), Value: dynamic.Bool(true)},
				}}},
				{ID: 4, Value: &dynamic.List{Elem: binproto.DOUBLE, Items: []dynamic.Value{
					dynamic.Double(1.5), dynamic.Double(math.Inf(-1)),
				}}},
				{ID: 5, Value: dynamic.Void{}},
			}},
		}
		data, err := json.Marshal(msg)
		require.NoError(t, err)
		require.JSONEq(t, `{
			"name": "f",
			"type": "call",
			"seqid": 1,
			"body": [
				{"id": 1, "value": "text"},
				{"id": 2, "value": "/wA="},
				{"id": 3, "value": [{"key": 5, "value": true}]},
				{"id": 4, "value": [1.5, "-Inf"]},
				{"id": 5, "value": null}
			]
		}`, string(data))
	})
	t.Run("repeated field ids", func(t *testing.T) {
		data := testutils.Flatten(
			testutils.FieldHeader(binproto.I32, 1), testutils.I32b(2),
			testutils.FieldHeader(binproto.I32, 1), testutils.I32b(3),
			testutils.Stop(),
		)
		v, err := dynamic.ReadValue(binproto.NewReader(bufext.NewSliceSource(data)), binproto.STRUCT)
		require.NoError(t, err)
		out, err := dynamic.MarshalValue(v)
		require.NoError(t, err)
		require.JSONEq(t, `[{"id": 1, "value": 2}, {"id": 1, "value": 3}]`, string(out))
	})
	t.Run("empty body", func(t *testing.T) {
		data, err := json.Marshal(&dynamic.Message{Name: "f", Type: binproto.ONEWAY})
		require.NoError(t, err)
		require.JSONEq(t, `{"name": "f", "type": "oneway", "seqid": 0, "body": []}`, string(data))
	})
	t.Run("value", func(t *testing.T) {
		data, err := dynamic.MarshalValue(&dynamic.Set{Elem: binproto.FLOAT, Items: []dynamic.Value{
			dynamic.Float(float32(math.NaN())),
		}})
		require.NoError(t, err)
		require.JSONEq(t, `["NaN"]`, string(data))
	})
}

func FuzzReadValue(f *testing.F) {
	f.Add(int8(binproto.STRUCT), binproto.Serialize(dynamic.Encodable(sample())))
	f.Add(int8(binproto.LIST), testutils.NestedLists(3))
	f.Fuzz(func(t *testing.T, code int8, data []byte) {
		src := bufext.NewSliceSource(data)
		r := binproto.NewReader(src)
		v, err := dynamic.ReadValue(r, binproto.TType(code))
		if err != nil {
			return
		}
		require.LessOrEqual(t, src.Offset(), len(data))

		// Bools normalize on the first pass, so compare the second encoding
		// against the first.
		encoded := binproto.Serialize(dynamic.Encodable(v))
		again, err := dynamic.ReadValue(binproto.NewReader(bufext.NewSliceSource(encoded)), binproto.TType(code))
		require.NoError(t, err)
		require.Equal(t, encoded, binproto.Serialize(dynamic.Encodable(again)))
	})
}
