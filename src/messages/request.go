package messages

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fielder is implemented by values that know their wire rendering.
type Fielder interface {
	ToField() string
}

// -----------------------------------------------------------------------------
// RequestMessage
// -----------------------------------------------------------------------------

// RequestMessage is an ordered sequence of string fields. Position is the
// schema: the gateway has no field names.
type RequestMessage struct {
	fields []string
}

// NewRequestMessage starts a message with its type id as field 0.
func NewRequestMessage(kind OutgoingMessages) *RequestMessage {
	m := &RequestMessage{fields: make([]string, 0, 32)}
	return m.Push(kind)
}

// Push appends each value rendered with ToField.
func (m *RequestMessage) Push(values ...interface{}) *RequestMessage {
	for _, v := range values {
		m.fields = append(m.fields, ToField(v))
	}
	return m
}

// PushRaw appends already rendered fields.
func (m *RequestMessage) PushRaw(fields ...string) *RequestMessage {
	m.fields = append(m.fields, fields...)
	return m
}

func (m *RequestMessage) Len() int {
	return len(m.fields)
}

// Field returns field i, or "" when out of range.
func (m *RequestMessage) Field(i int) string {
	if i < 0 || i >= len(m.fields) {
		return ""
	}
	return m.fields[i]
}

// Fields returns a copy of the field sequence.
func (m *RequestMessage) Fields() []string {
	out := make([]string, len(m.fields))
	copy(out, m.fields)
	return out
}

// Type returns the outgoing id held in field 0.
func (m *RequestMessage) Type() OutgoingMessages {
	if len(m.fields) == 0 {
		return 0
	}
	n, _ := strconv.Atoi(m.fields[0])
	return OutgoingMessages(n)
}

// Encode renders the payload: every field NUL terminated.
func (m *RequestMessage) Encode() []byte {
	var sb strings.Builder
	for _, f := range m.fields {
		sb.WriteString(f)
		sb.WriteByte(0)
	}
	return []byte(sb.String())
}

func (m *RequestMessage) String() string {
	return strings.Join(m.fields, "|")
}

// -----------------------------------------------------------------------------
// Field rendering
// -----------------------------------------------------------------------------

// ToField renders a single value in wire form.
func ToField(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case Fielder:
		return val.ToField()
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return FormatDouble(val)
	case *int32:
		if val == nil {
			return ""
		}
		return strconv.FormatInt(int64(*val), 10)
	case *float64:
		if val == nil {
			return ""
		}
		return FormatDouble(*val)
	case *string:
		if val == nil {
			return ""
		}
		return *val
	default:
		return fmt.Sprint(val)
	}
}

// FormatDouble renders a float in its shortest form; MaxFloat64 means unset.
func FormatDouble(v float64) string {
	if v == math.MaxFloat64 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
