package controller

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutController_SelectAndStep(t *testing.T) {
	env := setupControllerTest(t)
	env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"productId": 1, "quantity": 1, "price": 100})
	env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"productId": 2, "variantId": 9, "quantity": 2, "price": 10})

	var checkout CheckoutResponse
	w := env.do(t, http.MethodPost, "/api/v1/checkout/select", gin.H{"productIds": []int64{2}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &checkout)
	require.Len(t, checkout.Items, 1)
	assert.Nil(t, checkout.Address)

	w = env.do(t, http.MethodPost, "/api/v1/checkout/items/2/increment?variant_id=9", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &checkout)
	assert.Equal(t, 3, checkout.Items[0].Quantity)
	assert.Equal(t, "30", checkout.Summary.Subtotal.String())

	w = env.do(t, http.MethodPost, "/api/v1/checkout/items/2/decrement", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "the variant is part of the line identity")

	w = env.do(t, http.MethodPost, "/api/v1/checkout/items/2/increment?variant_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var cart CartResponse
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/cart", nil), &cart)
	assert.Equal(t, 2, cart.Items[1].Quantity, "live cart untouched")
}

func TestCheckoutController_SelectEmptyCart(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, http.MethodPost, "/api/v1/checkout/select", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body errors.ErrorResponse
	decodeBody(t, w, &body)
	assert.Equal(t, errors.CheckoutEmptySelection, body.Error)
}

func TestCheckoutController_Address(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, http.MethodPut, "/api/v1/checkout/address", gin.H{"line1": "1 Main"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/checkout/address", gin.H{"addressId": 3, "line1": "1 Main", "city": "Seoul"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var checkout CheckoutResponse
	decodeBody(t, w, &checkout)
	require.NotNil(t, checkout.Address)
	assert.Equal(t, model.FlexibleID("3"), checkout.Address.AddressID)
}

func TestCheckoutController_PlaceOrder(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, http.MethodPost, "/api/v1/checkout/orders", gin.H{"paymentMethod": "card"})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "guests cannot order")

	env.login(t)
	env.do(t, http.MethodPost, "/api/v1/cart", gin.H{"productId": 1, "quantity": 2, "price": 100})
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/checkout/select", nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/v1/checkout/address", gin.H{"line1": "1 Main", "city": "Seoul"}).Code)

	w = env.do(t, http.MethodPost, "/api/v1/checkout/orders", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/checkout/orders", gin.H{"paymentMethod": "card"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var confirmation model.OrderConfirmation
	decodeBody(t, w, &confirmation)
	assert.Equal(t, "501", confirmation.OrderID.String())

	env.backend.mu.Lock()
	require.Len(t, env.backend.orders, 1)
	assert.Equal(t, "card", env.backend.orders[0].PaymentMethod)
	assert.Empty(t, env.backend.cart)
	env.backend.mu.Unlock()

	var cart CartResponse
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/cart", nil), &cart)
	assert.Empty(t, cart.Items)
}
