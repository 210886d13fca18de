package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/udonggeum-storefront/pkg/apiclient"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]interface{}
}

// newTestAPI serves each request with handler and records it
func newTestAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*apiclient.Client, func() []recordedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		recorded []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		mu.Lock()
		recorded = append(recorded, rec)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := apiclient.NewClient(apiclient.Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	return client, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), recorded...)
	}
}

func TestServerCartRepository_FetchEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"productId":1,"quantity":2,"price":10}]`},
		{"data envelope", `{"data":[{"productId":1,"quantity":2,"price":10}]}`},
		{"nested items", `{"data":{"items":[{"productId":1,"quantity":2,"price":10}]}}`},
		{"cart_items", `{"cart_items":[{"productId":1,"quantity":2,"price":10}],"count":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, recorded := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			lines, err := NewServerCartRepository(client).Fetch(context.Background(), 9)
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assert.Equal(t, int64(1), lines[0].ProductID)
			assert.Equal(t, 2, lines[0].Quantity)
			assert.True(t, decimal.NewFromInt(10).Equal(lines[0].Price))
			assert.Equal(t, "/cart/9", recorded()[0].Path)
		})
	}
}

func TestServerCartRepository_AddItem(t *testing.T) {
	client, recorded := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := AddCartItemRequest{ProductID: 4, VariantID: int64Ptr(8), Quantity: 3, Price: decimal.RequireFromString("9.90")}
	require.NoError(t, NewServerCartRepository(client).AddItem(context.Background(), 2, req, "key-1"))

	require.Len(t, recorded(), 1)
	got := recorded()[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/cart/2/items", got.Path)
	assert.Equal(t, "key-1", got.Header.Get("Idempotency-Key"))
	assert.Equal(t, float64(4), got.Body["productId"])
	assert.Equal(t, float64(8), got.Body["variantId"])
	assert.Equal(t, float64(3), got.Body["quantity"])
	assert.Equal(t, 9.9, got.Body["price"])
}

func TestServerCartRepository_RemoveAndClear(t *testing.T) {
	client, recorded := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	repo := NewServerCartRepository(client)

	require.NoError(t, repo.RemoveProduct(context.Background(), 2, 4))
	require.NoError(t, repo.Clear(context.Background(), 2))

	require.Len(t, recorded(), 2)
	assert.Equal(t, "/cart/2/items/4", recorded()[0].Path)
	assert.Equal(t, http.MethodDelete, recorded()[0].Method)
	assert.Equal(t, "/cart/2", recorded()[1].Path)
}

func TestServerCartRepository_ErrorPropagates(t *testing.T) {
	client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewServerCartRepository(client).Fetch(context.Background(), 1)
	assert.ErrorIs(t, err, apiclient.ErrServer)
}

func TestServerWishlistRepository_FetchCoercesIDs(t *testing.T) {
	client, recorded := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"wishlistId":17,"productId":1},{"wishlistId":"18","productId":2}]`))
	})

	entries, err := NewServerWishlistRepository(client).Fetch(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "17", entries[0].WishlistID.String())
	assert.Equal(t, "18", entries[1].WishlistID.String())
	assert.Equal(t, "/wishlist/user/5", recorded()[0].Path)
}

func TestServerWishlistRepository_CreateFallsBackToRequest(t *testing.T) {
	client, recorded := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"wishlistId":99}}`))
	})

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	entry, err := NewServerWishlistRepository(client).Create(context.Background(), CreateWishlistRequest{
		UserID:    5,
		ProductID: 3,
		CreatedAt: created,
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "99", entry.WishlistID.String())
	assert.Equal(t, int64(3), entry.ProductID)
	assert.True(t, entry.CreatedAt.Equal(created))
	assert.False(t, entry.IsGuest())

	got := recorded()[0]
	assert.Equal(t, "/wishlist", got.Path)
	assert.Empty(t, got.Header.Get("Idempotency-Key"))
	assert.Equal(t, float64(5), got.Body["userId"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got.Body["createdAt"])
}

func TestServerWishlistRepository_Delete(t *testing.T) {
	client, recorded := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, NewServerWishlistRepository(client).Delete(context.Background(), "42"))
	assert.Equal(t, "/wishlist/42", recorded()[0].Path)
	assert.Equal(t, http.MethodDelete, recorded()[0].Method)
}

func TestAuthRepository_LoginShapes(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantUserID  int64
		wantAccess  string
		wantRefresh string
	}{
		{
			name:        "nested tokens",
			body:        `{"message":"Login successful","user":{"id":7,"email":"a@b.c","name":"Kim"},"tokens":{"access_token":"at","refresh_token":"rt"}}`,
			wantUserID:  7,
			wantAccess:  "at",
			wantRefresh: "rt",
		},
		{
			name:        "flat camel case",
			body:        `{"userId":8,"accessToken":"at2","refreshToken":"rt2"}`,
			wantUserID:  8,
			wantAccess:  "at2",
			wantRefresh: "rt2",
		},
		{
			name:       "token only",
			body:       `{"data":{"token":"t3"}}`,
			wantUserID: 0,
			wantAccess: "t3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, recorded := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			result, err := NewAuthRepository(client).Login(context.Background(), "a@b.c", "pw")
			require.NoError(t, err)
			assert.Equal(t, tt.wantUserID, result.User.UserID)
			assert.Equal(t, tt.wantAccess, result.Tokens.AccessToken)
			assert.Equal(t, tt.wantRefresh, result.Tokens.RefreshToken)
			assert.Equal(t, "a@b.c", result.User.Email)

			got := recorded()[0]
			assert.Equal(t, "/auth/login", got.Path)
			assert.Equal(t, "pw", got.Body["password"])
		})
	}
}

func TestAuthRepository_LoginRejected(t *testing.T) {
	client, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid credentials"}`))
	})

	_, err := NewAuthRepository(client).Login(context.Background(), "a@b.c", "bad")
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
}
