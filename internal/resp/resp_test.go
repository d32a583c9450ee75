package resp

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	buf := Marshal(v)
	got, err := Read(bufio.NewReader(bytes.NewReader(buf)))
	require.NoError(t, err)
	return got
}

func TestSimpleRoundTrip(t *testing.T) {
	v := NewSimple("foo bar")
	require.Equal(t, []byte("+foo bar\r\n"), Marshal(v))
	require.Equal(t, v, roundTrip(t, v))
}

func TestErrorRoundTrip(t *testing.T) {
	v := NewError("foo bar")
	require.Equal(t, []byte("-foo bar\r\n"), Marshal(v))
	require.Equal(t, v, roundTrip(t, v))
}

func TestIntegerRoundTrip(t *testing.T) {
	v := NewInteger(1234567890)
	require.Equal(t, []byte(":1234567890\r\n"), Marshal(v))
	require.Equal(t, v, roundTrip(t, v))
}

func TestBulkRoundTrip(t *testing.T) {
	v := NewBulk([]byte("1234567890"))
	require.Equal(t, []byte("$10\r\n1234567890\r\n"), Marshal(v))
	require.Equal(t, v, roundTrip(t, v))
}

func TestNullBulkRoundTrip(t *testing.T) {
	v := NewNullBulk()
	require.Equal(t, []byte("$-1\r\n"), Marshal(v))
	require.Equal(t, v, roundTrip(t, v))
}

func TestNullArrayRoundTrip(t *testing.T) {
	v := NewNullArray()
	require.Equal(t, []byte("*-1\r\n"), Marshal(v))
	require.Equal(t, v, roundTrip(t, v))
}

func TestNestedArrayRoundTrip(t *testing.T) {
	inner := NewArray([]Value{
		NewBulk([]byte("bulk")),
		NewSimple("str"),
		NewError("err"),
		NewInteger(1),
		NewNullBulk(),
		NewNullArray(),
	})
	outer := NewArray([]Value{
		NewSimple("str"),
		NewError("err"),
		inner,
		NewInteger(1),
		NewNullBulk(),
		NewNullArray(),
	})
	require.Equal(t, outer, roundTrip(t, outer))
}

func TestRequestShapeAndAsStrings(t *testing.T) {
	req := Request("set", "k1", "v1")
	strs, ok := AsStrings(req)
	require.True(t, ok)
	require.Equal(t, []string{"set", "k1", "v1"}, strs)
}

func TestAsStringsRejectsNonArray(t *testing.T) {
	_, ok := AsStrings(NewInteger(1))
	require.False(t, ok)
}

func TestReadMultipleValuesSequentially(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Marshal(NewSimple("a")))
	buf.Write(Marshal(NewInteger(42)))

	r := bufio.NewReader(&buf)
	v1, err := Read(r)
	require.NoError(t, err)
	require.Equal(t, NewSimple("a"), v1)

	v2, err := Read(r)
	require.NoError(t, err)
	require.Equal(t, NewInteger(42), v2)
}
