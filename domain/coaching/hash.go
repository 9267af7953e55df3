package coaching

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	appErrors "chessmate-backend/pkg/errors"
)

// ComputePayloadHash canonicalizes a JSON payload and returns the lowercase
// hex SHA-256 of the canonical form. Object keys are sorted lexicographically
// at every depth, array order is preserved, so payloads that differ only in
// key order hash identically. An empty or whitespace payload hashes to the
// digest of the empty string.
func ComputePayloadHash(payload string) (string, error) {
	if strings.TrimSpace(payload) == "" {
		return sha256Hex(""), nil
	}

	decoder := json.NewDecoder(strings.NewReader(payload))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return "", appErrors.NewValidation("request payload is not valid JSON")
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, value); err != nil {
		return "", err
	}
	return sha256Hex(buf.String()), nil
}

// ComputeOperationID derives the stable operation identity from the
// idempotency key and payload hash. Pure function, no side effects.
func ComputeOperationID(idempotencyKey, payloadHash string) string {
	return sha256Hex(idempotencyKey + ":" + payloadHash)
}

func writeCanonical(buf *bytes.Buffer, value interface{}) error {
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encoded, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(encoded)
			buf.WriteByte(':')
			if err := writeCanonical(buf, v[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case []interface{}:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case json.Number:
		// Numbers keep their source representation so canonicalization
		// never changes numeric precision.
		buf.WriteString(v.String())
		return nil

	case string:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil

	case bool:
		buf.WriteString(strconv.FormatBool(v))
		return nil

	case nil:
		buf.WriteString("null")
		return nil

	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	}
}

func sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
