package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestItemIDRoundTrip(t *testing.T) {
	for _, k := range Kinds {
		id := ItemID(k, "sales.daily")
		kind, name, err := ParseItemID(id)
		require.NoError(t, err)
		require.Equal(t, k, kind)
		require.Equal(t, "sales.daily", name)
	}
	require.Equal(t, "LineageEdges.etl", ItemID(KindLineageEdge, "etl"))
}

func TestParseItemID_Malformed(t *testing.T) {
	for _, id := range []string{"", "Nodes", "Nodes.", "Widgets.x", "nodes.x"} {
		_, _, err := ParseItemID(id)
		require.True(t, IsCode(err, CodeInvalidArgument), "id %q: %v", id, err)
	}
}

func TestTagNormalizeWidensIntegers(t *testing.T) {
	for _, v := range []any{int8(-3), int16(300), int32(7), int(9), uint8(1), uint16(2), uint32(3), uint(4), uint64(math.MaxInt64)} {
		tag := Tag{Key: "n", Value: v, ValueType: TypeInteger}.Normalize()
		require.IsType(t, int64(0), tag.Value, "%T", v)
		require.NoError(t, tag.Validate(), "%T", v)
	}
	require.Equal(t, int64(-3), Tag{Value: int8(-3)}.Normalize().Value)

	huge := Tag{Key: "n", Value: uint64(math.MaxInt64) + 1, ValueType: TypeInteger}.Normalize()
	require.IsType(t, uint64(0), huge.Value)
	require.True(t, IsCode(huge.Validate(), CodeInvalidArgument))
}

func TestTagValidate(t *testing.T) {
	require.NoError(t, Tag{Key: "rows", Value: int64(5), ValueType: TypeInteger}.Validate())
	require.NoError(t, Tag{Key: "flag"}.Validate())
	require.NoError(t, Tag{Key: "n", Value: 7, ValueType: TypeInteger}.Normalize().Validate())

	bad := []Tag{
		{Key: "", Value: "x", ValueType: TypeString},
		{Key: "rows", Value: int64(5), ValueType: TypeString},
		{Key: "rows", Value: "5"},
		{Key: "rows", ValueType: TypeInteger},
		{Key: "rows", Value: 1.5, ValueType: "FLOAT"},
	}
	for _, tag := range bad {
		require.True(t, IsCode(tag.Validate(), CodeInvalidArgument), "tag %+v", tag)
	}
}

func TestTagValueEncoding(t *testing.T) {
	cases := []Tag{
		{Key: "s", Value: "hello", ValueType: TypeString},
		{Key: "i", Value: int64(-42), ValueType: TypeInteger},
		{Key: "b", Value: true, ValueType: TypeBoolean},
		{Key: "none"},
	}
	for _, tag := range cases {
		v, err := DecodeTagValue(tag.EncodeValue(), tag.ValueType)
		require.NoError(t, err)
		require.Equal(t, tag.Value, v)
	}
	_, err := DecodeTagValue(Tag{Value: "x", ValueType: TypeString}.EncodeValue(), TypeInteger)
	require.True(t, IsCode(err, CodeBackendFailure))
}

func TestTagUnmarshalJSON(t *testing.T) {
	var tags map[string]Tag
	require.NoError(t, json.Unmarshal([]byte(`{
		"rows": {"key": "rows", "value": 5, "valueType": "integer"},
		"owner": {"key": "owner", "value": "etl", "valueType": "STRING"},
		"bare": {"key": "bare"}
	}`), &tags))
	require.Equal(t, Tag{Key: "rows", Value: int64(5), ValueType: TypeInteger}, tags["rows"])
	require.Equal(t, Tag{Key: "owner", Value: "etl", ValueType: TypeString}, tags["owner"])
	require.Equal(t, Tag{Key: "bare"}, tags["bare"])

	var tag Tag
	require.Error(t, json.Unmarshal([]byte(`{"key":"x","value":1.5,"valueType":"INTEGER"}`), &tag))
}

func TestRichVersionJSONKeepsAbsentAndEmptyApart(t *testing.T) {
	raw, err := json.Marshal(RichVersion{Parameters: map[string]string{}})
	require.NoError(t, err)
	require.JSONEq(t, `{"tags":null,"parameters":{}}`, string(raw))

	var rv RichVersion
	require.NoError(t, json.Unmarshal(raw, &rv))
	require.Nil(t, rv.Tags)
	require.NotNil(t, rv.Parameters)
	require.Nil(t, rv.Reference)
}

func TestErrorWrapPreservesCode(t *testing.T) {
	orig := Errorf(CodeNotFound, "op", "missing %s", "Nodes.x")
	require.Same(t, orig, Wrap(CodeBackendFailure, "other", orig))

	wrapped := Wrap(CodeBackendFailure, "op", errors.New("boom"))
	require.Equal(t, CodeBackendFailure, CodeOf(wrapped))
	require.Equal(t, "op: boom (backend_failure)", wrapped.Error())
	require.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestSortedIDs(t *testing.T) {
	require.Nil(t, SortedIDs(nil))
	require.Equal(t, []string{"a", "b"}, SortedIDs([]string{"b", "a", "b"}))
}
