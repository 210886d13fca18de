package apiclient

import (
	"encoding/json"
	"fmt"
)

// Response is a parsed 2xx reply
type Response struct {
	Status int
	Data   json.RawMessage
}

// Decode unmarshals the response body into v. An empty body leaves v untouched.
func (r *Response) Decode(v interface{}) error {
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// errorBody is the error envelope returned by the commerce backend
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
