package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ikkim/udonggeum-storefront/pkg/apiclient"
)

// APIClient is the part of *apiclient.Client the remote repositories use
type APIClient interface {
	Get(ctx context.Context, path string, headers map[string]string) (*apiclient.Response, error)
	Post(ctx context.Context, path string, body interface{}, headers map[string]string) (*apiclient.Response, error)
	Delete(ctx context.Context, path string, headers map[string]string) (*apiclient.Response, error)
}

// envelopeFields are the wrapper keys the backend uses around list payloads
var envelopeFields = []string{"data", "items", "cart_items", "wishlists", "wishlist"}

// decodeList decodes a bare JSON array or an array nested under one of envelopeFields
func decodeList(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("unexpected list payload: %w", err)
	}
	for _, field := range envelopeFields {
		inner, ok := envelope[field]
		if !ok {
			continue
		}
		if field == "data" && len(inner) > 0 && inner[0] == '{' {
			return decodeList(inner, v)
		}
		return json.Unmarshal(inner, v)
	}
	return fmt.Errorf("unexpected list payload: no list field")
}

// decodeObject decodes an object, unwrapping a top-level "data" envelope when present
func decodeObject(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(data, &envelope) == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		return json.Unmarshal(envelope.Data, v)
	}
	return json.Unmarshal(data, v)
}

func idempotencyHeader(key string) map[string]string {
	if key == "" {
		return nil
	}
	return map[string]string{"Idempotency-Key": key}
}
