package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType is the closed set of primitive types a tag value or structure attribute may declare.
type ValueType string

const (
	TypeString  ValueType = "STRING"
	TypeInteger ValueType = "INTEGER"
	TypeBoolean ValueType = "BOOLEAN"
)

func ParseValueType(s string) (ValueType, error) {
	switch vt := ValueType(strings.ToUpper(strings.TrimSpace(s))); vt {
	case TypeString, TypeInteger, TypeBoolean:
		return vt, nil
	default:
		return "", Errorf(CodeInvalidArgument, "domain.ParseValueType", "unknown value type %q", s)
	}
}

func (vt ValueType) Valid() bool {
	switch vt {
	case TypeString, TypeInteger, TypeBoolean:
		return true
	default:
		return false
	}
}

// Tag is one typed key/value annotation on a rich version.
// Value holds a string, int64 or bool; a tag may also carry a key with no value and no type.
type Tag struct {
	VersionID string    `json:"versionId,omitempty"`
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	ValueType ValueType `json:"valueType,omitempty"`
}

// Normalize widens Go integer kinds to int64 so values compare and encode uniformly.
// Unsigned values above math.MaxInt64 are left as they are and fail Validate.
func (t Tag) Normalize() Tag {
	switch v := t.Value.(type) {
	case int:
		t.Value = int64(v)
	case int8:
		t.Value = int64(v)
	case int16:
		t.Value = int64(v)
	case int32:
		t.Value = int64(v)
	case uint8:
		t.Value = int64(v)
	case uint16:
		t.Value = int64(v)
	case uint32:
		t.Value = int64(v)
	case uint:
		if uint64(v) <= math.MaxInt64 {
			t.Value = int64(v)
		}
	case uint64:
		if v <= math.MaxInt64 {
			t.Value = int64(v)
		}
	}
	return t
}

// Validate checks that the value agrees with the declared value type.
func (t Tag) Validate() error {
	const op = "domain.Tag.Validate"
	if strings.TrimSpace(t.Key) == "" {
		return Errorf(CodeInvalidArgument, op, "tag key is required")
	}
	if t.Value == nil {
		if t.ValueType != "" {
			return Errorf(CodeInvalidArgument, op, "tag %q declares type %s but has no value", t.Key, t.ValueType)
		}
		return nil
	}
	if t.ValueType == "" {
		return Errorf(CodeInvalidArgument, op, "tag %q has a value but no value type", t.Key)
	}
	if !t.ValueType.Valid() {
		return Errorf(CodeInvalidArgument, op, "tag %q has unknown value type %q", t.Key, t.ValueType)
	}
	ok := false
	switch t.Value.(type) {
	case string:
		ok = t.ValueType == TypeString
	case int64:
		ok = t.ValueType == TypeInteger
	case bool:
		ok = t.ValueType == TypeBoolean
	}
	if !ok {
		return Errorf(CodeInvalidArgument, op, "tag %q value %v is not a %s", t.Key, t.Value, t.ValueType)
	}
	return nil
}

// EncodeValue renders the value as stored text; nil means no value.
func (t Tag) EncodeValue() *string {
	var s string
	switch v := t.Value.(type) {
	case nil:
		return nil
	case string:
		s = v
	case int64:
		s = strconv.FormatInt(v, 10)
	case bool:
		s = strconv.FormatBool(v)
	default:
		s = fmt.Sprint(v)
	}
	return &s
}

// DecodeTagValue parses stored text back into the typed value.
func DecodeTagValue(raw *string, vt ValueType) (any, error) {
	const op = "domain.DecodeTagValue"
	if raw == nil {
		return nil, nil
	}
	switch vt {
	case TypeString:
		return *raw, nil
	case TypeInteger:
		i, err := strconv.ParseInt(*raw, 10, 64)
		if err != nil {
			return nil, NewError(CodeBackendFailure, op, "stored integer tag is corrupt", err)
		}
		return i, nil
	case TypeBoolean:
		b, err := strconv.ParseBool(*raw)
		if err != nil {
			return nil, NewError(CodeBackendFailure, op, "stored boolean tag is corrupt", err)
		}
		return b, nil
	default:
		return nil, Errorf(CodeBackendFailure, op, "stored tag has unknown value type %q", vt)
	}
}

// UnmarshalJSON keeps the JSON shape of the value (string, integer, boolean, null) without
// coercing it to the declared type; agreement is checked by Validate.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var aux struct {
		VersionID string          `json:"versionId"`
		Key       string          `json:"key"`
		Value     json.RawMessage `json:"value"`
		ValueType string          `json:"valueType"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.VersionID = aux.VersionID
	t.Key = aux.Key
	t.ValueType = ValueType(strings.ToUpper(strings.TrimSpace(aux.ValueType)))
	t.Value = nil

	raw := bytes.TrimSpace(aux.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			t.Value = i
		} else {
			return fmt.Errorf("tag %q: value %s is not an integer", aux.Key, x.String())
		}
	case string, bool:
		t.Value = x
	default:
		return fmt.Errorf("tag %q: value must be a string, integer or boolean", aux.Key)
	}
	return nil
}
