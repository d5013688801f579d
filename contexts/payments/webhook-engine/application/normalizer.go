package application

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"paygate/contexts/payments/webhook-engine/domain/entities"
	domainerrors "paygate/contexts/payments/webhook-engine/domain/errors"
)

// NormalizePayload decodes an inbound notification body into a RawEvent.
// Form encoding is the gateway's documented default, so it is attempted first;
// JSON is the fallback when form decoding yields no recognizable gateway
// field. The content-type hint is advisory only: gateways have been observed
// sending form bodies under a JSON content type and vice versa.
func NormalizePayload(body []byte, contentType string) (entities.RawEvent, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return entities.RawEvent{}, fmt.Errorf("%w: empty body", domainerrors.ErrMalformedPayload)
	}

	if !strings.Contains(strings.ToLower(contentType), "json") {
		if fields, ok := decodeForm(trimmed); ok {
			return entities.RawEvent{Fields: fields, Raw: body}, nil
		}
	}
	if fields, ok := decodeJSON(body); ok {
		return entities.RawEvent{Fields: fields, Raw: body}, nil
	}
	if fields, ok := decodeForm(trimmed); ok {
		return entities.RawEvent{Fields: fields, Raw: body}, nil
	}
	return entities.RawEvent{}, fmt.Errorf("%w: no decoding strategy produced a recognizable event", domainerrors.ErrMalformedPayload)
}

// EventFromValues wraps an already-parsed mapping, covering framework adapters
// and test harnesses that pre-parse the body. The raw bytes should be the
// original body when available so signature verification still works.
func EventFromValues(values map[string]string, raw []byte) (entities.RawEvent, error) {
	fields := make(map[string]string, len(values))
	for key, value := range values {
		fields[strings.TrimSpace(key)] = value
	}
	if !recognizable(fields) {
		return entities.RawEvent{}, fmt.Errorf("%w: mapping carries no recognizable gateway field", domainerrors.ErrMalformedPayload)
	}
	return entities.RawEvent{Fields: fields, Raw: raw}, nil
}

func decodeForm(body string) (map[string]string, bool) {
	values, err := url.ParseQuery(body)
	if err != nil {
		return nil, false
	}
	fields := make(map[string]string, len(values))
	for key, value := range values {
		if len(value) == 0 {
			continue
		}
		fields[key] = value[0]
	}
	if !recognizable(fields) {
		return nil, false
	}
	return fields, true
}

func decodeJSON(body []byte) (map[string]string, bool) {
	var object map[string]any
	if err := json.Unmarshal(body, &object); err != nil {
		return nil, false
	}
	fields := make(map[string]string, len(object))
	for key, value := range object {
		fields[key] = stringifyScalar(value)
	}
	if !recognizable(fields) {
		return nil, false
	}
	return fields, true
}

func stringifyScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		raw, _ := json.Marshal(v)
		return string(raw)
	}
}

func recognizable(fields map[string]string) bool {
	for _, alias := range billCodeAliases {
		if strings.TrimSpace(fields[alias]) != "" {
			return true
		}
	}
	return false
}
