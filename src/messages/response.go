package messages

import (
	"bytes"
	"strconv"
	"strings"

	"gateway-stream/src/helpers"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// ResponseMessage
// -----------------------------------------------------------------------------

// ResponseMessage is one record received from the gateway. Decoders consume it
// positionally through a cursor; reading past the last field fails.
type ResponseMessage struct {
	fields []string
	i      int
}

// NewResponseMessage wraps already split fields.
func NewResponseMessage(fields []string) *ResponseMessage {
	return &ResponseMessage{fields: fields}
}

// ParseResponse splits a NUL terminated payload into fields.
func ParseResponse(payload []byte) *ResponseMessage {
	payload = bytes.TrimSuffix(payload, []byte{0})
	if len(payload) == 0 {
		return &ResponseMessage{}
	}
	parts := bytes.Split(payload, []byte{0})
	fields := make([]string, len(parts))
	for i, p := range parts {
		fields[i] = string(p)
	}
	return &ResponseMessage{fields: fields}
}

// FromSimple builds a message from "|" separated fields.
func FromSimple(s string) *ResponseMessage {
	return &ResponseMessage{fields: strings.Split(s, "|")}
}

// -----------------------------------------------------------------------------

// MessageType returns the id held in field 0 without moving the cursor.
func (m *ResponseMessage) MessageType() IncomingMessages {
	if len(m.fields) == 0 {
		return NotValid
	}
	return ParseIncoming(m.fields[0])
}

func (m *ResponseMessage) Len() int {
	return len(m.fields)
}

// Peek returns field i without moving the cursor, "" when out of range.
func (m *ResponseMessage) Peek(i int) string {
	if i < 0 || i >= len(m.fields) {
		return ""
	}
	return m.fields[i]
}

// Fields returns a copy of the raw fields.
func (m *ResponseMessage) Fields() []string {
	out := make([]string, len(m.fields))
	copy(out, m.fields)
	return out
}

// Remaining is the number of unread fields.
func (m *ResponseMessage) Remaining() int {
	return len(m.fields) - m.i
}

// Rewind moves the cursor back to field 0.
func (m *ResponseMessage) Rewind() {
	m.i = 0
}

// RequestID reads the request id from its routing position.
func (m *ResponseMessage) RequestID(serverVersion int32) (int32, bool) {
	return m.idAt(RequestIDIndex(serverVersion, m.MessageType()))
}

// OrderID reads the order id from its routing position.
func (m *ResponseMessage) OrderID() (int32, bool) {
	return m.idAt(OrderIDIndex(m.MessageType()))
}

func (m *ResponseMessage) idAt(index int) (int32, bool) {
	if index < 0 || index >= len(m.fields) {
		return 0, false
	}
	n, err := strconv.ParseInt(m.fields[index], 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

// Unexpected builds the shape-mismatch error for this message.
func (m *ResponseMessage) Unexpected() error {
	return &helpers.UnexpectedResponseError{MessageType: int32(m.MessageType()), Fields: m.Fields()}
}

func (m *ResponseMessage) String() string {
	return strings.Join(m.fields, "|")
}

// -----------------------------------------------------------------------------
// Cursor reads
// -----------------------------------------------------------------------------

func (m *ResponseMessage) next() (string, error) {
	if m.i >= len(m.fields) {
		return "", helpers.NewParseError(nil, "field %d missing from %s message (%d fields)", m.i, m.MessageType(), len(m.fields))
	}
	field := m.fields[m.i]
	m.i++
	return field, nil
}

// Skip advances past one field.
func (m *ResponseMessage) Skip() error {
	_, err := m.next()
	return err
}

func (m *ResponseMessage) NextString() (string, error) {
	return m.next()
}

func (m *ResponseMessage) NextInt() (int32, error) {
	field, err := m.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(field, 10, 32)
	if err != nil {
		return 0, helpers.NewParseError(err, "field %d of %s message is not an int: %q", m.i-1, m.MessageType(), field)
	}
	return int32(n), nil
}

// NextOptionalInt treats an empty field as absent.
func (m *ResponseMessage) NextOptionalInt() (*int32, error) {
	if m.i < len(m.fields) && m.fields[m.i] == "" {
		m.i++
		return nil, nil
	}
	n, err := m.NextInt()
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (m *ResponseMessage) NextLong() (int64, error) {
	field, err := m.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, helpers.NewParseError(err, "field %d of %s message is not a long: %q", m.i-1, m.MessageType(), field)
	}
	return n, nil
}

// NextDouble reads a float; an empty field is 0.
func (m *ResponseMessage) NextDouble() (float64, error) {
	field, err := m.next()
	if err != nil {
		return 0, err
	}
	if field == "" || field == "0" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, helpers.NewParseError(err, "field %d of %s message is not a double: %q", m.i-1, m.MessageType(), field)
	}
	return v, nil
}

// NextBool accepts 1/0, true/false and empty (false).
func (m *ResponseMessage) NextBool() (bool, error) {
	field, err := m.next()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(field) {
	case "1", "true":
		return true, nil
	case "0", "false", "":
		return false, nil
	default:
		return false, helpers.NewParseError(nil, "field %d of %s message is not a bool: %q", m.i-1, m.MessageType(), field)
	}
}

// NextDecimal reads a quantity; an empty field is zero.
func (m *ResponseMessage) NextDecimal() (decimal.Decimal, error) {
	field, err := m.next()
	if err != nil {
		return decimal.Zero, err
	}
	if field == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(field)
	if err != nil {
		return decimal.Zero, helpers.NewParseError(err, "field %d of %s message is not a decimal: %q", m.i-1, m.MessageType(), field)
	}
	return d, nil
}
