// Package encoding provides content addressing utilities for story records.
//
// Recording packets and authored beat markers are identified by hashes of
// their canonical form, so identical inputs always yield identical ids.
package encoding

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// CanonicalJSON produces deterministic JSON output inspired by RFC 8785 (JCS):
//   - object keys sorted lexicographically
//   - no insignificant whitespace
//   - strings (keys and values) normalized to Unicode NFC
//   - HTML characters left unescaped
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, raw); err != nil {
		return nil, fmt.Errorf("encode canonical: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		byNormalized := make(map[string]any, len(val))
		for k, item := range val {
			nk := norm.NFC.String(k)
			keys = append(keys, nk)
			byNormalized[nk] = item
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, byNormalized[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case string:
		return writeString(buf, norm.NFC.String(val))

	case json.Number:
		buf.WriteString(val.String())
		return nil

	default:
		encoded, err := marshalWithoutHTMLEscape(val)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	}
}

func writeString(buf *bytes.Buffer, value string) error {
	encoded, err := marshalWithoutHTMLEscape(value)
	if err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}

// marshalWithoutHTMLEscape marshals a scalar without HTML escaping.
func marshalWithoutHTMLEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// Fingerprint computes the full SHA-256 hex digest of the canonical JSON
// representation of v.
func Fingerprint(v any) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("canonical json: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// ContentHash computes the canonical SHA-256 digest truncated to 128 bits
// (32 hex characters) for a compact content-addressed identity.
func ContentHash(v any) (string, error) {
	fingerprint, err := Fingerprint(v)
	if err != nil {
		return "", err
	}
	return fingerprint[:32], nil
}
