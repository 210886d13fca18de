package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GuestWishlistPrefix marks entries created while no user was signed in
const GuestWishlistPrefix = "guest-"

// FlexibleID decodes from a JSON string or number; the backend sends numbers, guest ids are strings
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

func (id FlexibleID) String() string {
	return string(id)
}

type WishlistEntry struct {
	WishlistID  FlexibleID      `json:"wishlistId"`
	ProductID   int64           `json:"productId"`
	VariantID   *int64          `json:"variantId,omitempty"`
	ProductName string          `json:"productName,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// IsGuest reports whether the entry was created in guest mode and has not reached the server yet
func (e WishlistEntry) IsGuest() bool {
	return strings.HasPrefix(string(e.WishlistID), GuestWishlistPrefix)
}

// GuestEntries keeps only guest-created entries
func GuestEntries(entries []WishlistEntry) []WishlistEntry {
	out := make([]WishlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsGuest() {
			out = append(out, e)
		}
	}
	return out
}
