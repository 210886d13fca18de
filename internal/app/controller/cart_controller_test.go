package controller

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/errors"
	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/ikkim/udonggeum-storefront/pkg/cartsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartController_GuestAddAndGet(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"productId": 1, "quantity": 2, "price": 1000, "productName": "Ring"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"productId": 1, "quantity": 1, "price": 1000})
	require.Equal(t, http.StatusOK, w.Code)

	var resp CartResponse
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/cart", nil), &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Quantity)
	assert.Equal(t, "3000", resp.Summary.Subtotal.String())

	raw, err := env.store.Get(context.Background(), kvstore.KeyCartItems)
	require.NoError(t, err)
	assert.Contains(t, raw, `"quantity":3`)
}

func TestCartController_AddInvalid(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"quantity": 1})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body errors.ErrorResponse
	decodeBody(t, w, &body)
	assert.Equal(t, errors.CartInvalidLine, body.Error)
}

func TestCartController_RemoveAndClear(t *testing.T) {
	env := setupControllerTest(t)
	env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"productId": 1, "variantId": 1})
	env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"productId": 1, "variantId": 2})
	env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"productId": 2})

	var resp CartResponse
	w := env.do(t, http.MethodDelete, "/api/v1/cart/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Len(t, resp.Items, 1, "every variant of the product is removed")
	assert.Equal(t, int64(2), resp.Items[0].ProductID)

	w = env.do(t, http.MethodDelete, "/api/v1/cart/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.Empty(t, resp.Items)
}

func TestCartController_SetCartItems(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, http.MethodPut, "/api/v1/cart", gin.H{"items": []gin.H{
		{"productId": 5, "quantity": 1, "price": 10},
		{"productId": 6, "quantity": 4, "price": 1},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary model.CartSummary
	w = env.do(t, http.MethodGet, "/api/v1/cart/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &summary)
	assert.Equal(t, 2, summary.Lines)
	assert.Equal(t, 5, summary.Items)
	assert.Equal(t, "14", summary.Subtotal.String())
}

func TestCartController_AuthenticatedAddGoesToServer(t *testing.T) {
	env := setupControllerTest(t)
	env.login(t)

	w := env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"productId": 9, "quantity": 1, "price": 50})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env.backend.mu.Lock()
	assert.Len(t, env.backend.cart, 1)
	env.backend.mu.Unlock()
	_, err := env.store.Get(context.Background(), kvstore.KeyCartItems)
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)
}

func TestCartController_UpstreamFailure(t *testing.T) {
	env := setupControllerTest(t)
	env.login(t)
	env.backend.mu.Lock()
	env.backend.failAdd = true
	env.backend.mu.Unlock()

	w := env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"productId": 9})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body errors.ErrorResponse
	decodeBody(t, w, &body)
	assert.Equal(t, errors.UpstreamError, body.Error)
}

func TestCartController_Export(t *testing.T) {
	env := setupControllerTest(t)
	env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"productId": 3, "quantity": 2, "price": 700})

	w := env.do(t, http.MethodGet, "/api/v1/cart/export", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	lines, err := cartsheet.Read(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(3), lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
}
