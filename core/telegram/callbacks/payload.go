// Package callbacks encodes button payloads as a namespace plus typed fields.
//
// Wire form: "<namespace>" or "<namespace>|<url-encoded fields>". Field values
// are query-escaped, so they may contain the separator or any other byte
// without breaking decoding.
package callbacks

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// MaxLen is the Telegram limit for callback_data in bytes.
const MaxLen = 64

const separator = "|"

// ErrMalformed reports a payload that cannot be decoded.
var ErrMalformed = errors.New("callbacks: malformed payload")

// Payload is a decoded button token.
type Payload struct {
	Namespace string
	Fields    url.Values
}

// New starts a payload in the given namespace.
func New(namespace string) Payload {
	return Payload{Namespace: namespace, Fields: url.Values{}}
}

// With returns a copy of p with key set to value.
func (p Payload) With(key, value string) Payload {
	fields := url.Values{}
	for k, v := range p.Fields {
		fields[k] = append([]string(nil), v...)
	}
	fields.Set(key, value)
	return Payload{Namespace: p.Namespace, Fields: fields}
}

// WithInt64 is With for integer values.
func (p Payload) WithInt64(key string, value int64) Payload {
	return p.With(key, strconv.FormatInt(value, 10))
}

// Get returns the first value of key or an empty string.
func (p Payload) Get(key string) string {
	return p.Fields.Get(key)
}

// Int64 parses the value of key as a base-10 integer.
func (p Payload) Int64(key string) (int64, error) {
	raw := p.Fields.Get(key)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %q", ErrMalformed, key)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformed, key)
	}
	return v, nil
}

// Encode renders the token, rejecting bad namespaces and tokens over MaxLen.
func (p Payload) Encode() (string, error) {
	if !validNamespace(p.Namespace) {
		return "", fmt.Errorf("%w: invalid namespace %q", ErrMalformed, p.Namespace)
	}
	out := p.Namespace
	if len(p.Fields) > 0 {
		out += separator + p.Fields.Encode()
	}
	if len(out) > MaxLen {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrMalformed, len(out), MaxLen)
	}
	return out, nil
}

// String encodes p and panics on failure; meant for payloads built from constants.
func (p Payload) String() string {
	s, err := p.Encode()
	if err != nil {
		panic(err)
	}
	return s
}

// Decode parses a token produced by Encode. A leading telebot "\f" marker is ignored.
func Decode(token string) (Payload, error) {
	token = strings.TrimPrefix(strings.TrimSpace(token), "\f")
	ns, rawFields, hasFields := strings.Cut(token, separator)
	if !validNamespace(ns) {
		return Payload{}, fmt.Errorf("%w: invalid namespace %q", ErrMalformed, ns)
	}
	p := New(ns)
	if !hasFields {
		return p, nil
	}
	fields, err := url.ParseQuery(rawFields)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	p.Fields = fields
	return p, nil
}

func validNamespace(ns string) bool {
	if ns == "" {
		return false
	}
	for _, r := range ns {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}
