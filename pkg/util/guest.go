package util

import (
	"strconv"
	"time"
)

// GuestWishlistID builds the id of a wishlist entry created without a signed-in user
func GuestWishlistID(now time.Time) string {
	return "guest-" + strconv.FormatInt(now.UnixMilli(), 10)
}
