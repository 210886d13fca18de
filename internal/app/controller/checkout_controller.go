package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/service"
	"github.com/ikkim/udonggeum-storefront/internal/errors"
	"github.com/ikkim/udonggeum-storefront/internal/middleware"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
}

func NewCheckoutController(checkoutService service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
	}
}

type SelectRequest struct {
	// ProductIDs empty selects the whole cart
	ProductIDs []int64 `json:"productIds"`
}

type PlaceOrderRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

type CheckoutResponse struct {
	Items   []model.CartLine  `json:"items"`
	Summary model.CartSummary `json:"summary"`
	Address *model.Address    `json:"address"`
}

func (ctrl *CheckoutController) respondWithCheckout(c *gin.Context, errContext string) {
	ctx := c.Request.Context()

	items, err := ctrl.checkoutService.Selection(ctx)
	if err != nil {
		errors.ParseAndRespond(c, err, errContext)
		return
	}
	addr, err := ctrl.checkoutService.Address(ctx)
	if err != nil {
		errors.ParseAndRespond(c, err, errContext)
		return
	}

	c.JSON(http.StatusOK, CheckoutResponse{
		Items:   items,
		Summary: model.Summarize(items),
		Address: addr,
	})
}

// Select snapshots cart lines into the checkout selection
// POST /api/v1/checkout/select
func (ctrl *CheckoutController) Select(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SelectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.BadRequest(c, errors.ValidationInvalidInput, "선택한 상품 형식이 올바르지 않습니다")
			return
		}
	}

	if _, err := ctrl.checkoutService.Select(c.Request.Context(), req.ProductIDs); err != nil {
		log.Warn("Failed to select checkout lines", map[string]interface{}{
			"product_ids": req.ProductIDs,
			"error":       err.Error(),
		})
		errors.ParseAndRespond(c, err, "checkout select")
		return
	}

	ctrl.respondWithCheckout(c, "checkout select")
}

// GetCheckout returns the selection, its totals and the delivery address
// GET /api/v1/checkout
func (ctrl *CheckoutController) GetCheckout(c *gin.Context) {
	ctrl.respondWithCheckout(c, "checkout")
}

// Increment raises the quantity of a selected line
// POST /api/v1/checkout/items/:product_id/increment
func (ctrl *CheckoutController) Increment(c *gin.Context) {
	ctrl.step(c, ctrl.checkoutService.Increment)
}

// Decrement lowers the quantity of a selected line, never below 1
// POST /api/v1/checkout/items/:product_id/decrement
func (ctrl *CheckoutController) Decrement(c *gin.Context) {
	ctrl.step(c, ctrl.checkoutService.Decrement)
}

type stepFunc func(ctx context.Context, productID int64, variantID *int64) ([]model.CartLine, error)

func (ctrl *CheckoutController) step(c *gin.Context, fn stepFunc) {
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}
	variantID, ok := parseVariantQuery(c)
	if !ok {
		return
	}

	if _, err := fn(c.Request.Context(), productID, variantID); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Checkout quantity change failed", map[string]interface{}{
			"product_id": productID,
			"variant_id": variantID,
			"error":      err.Error(),
		})
		errors.ParseAndRespond(c, err, "checkout")
		return
	}

	ctrl.respondWithCheckout(c, "checkout")
}

// SetAddress stores the delivery address
// PUT /api/v1/checkout/address
func (ctrl *CheckoutController) SetAddress(c *gin.Context) {
	var addr model.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		errors.BadRequest(c, errors.CheckoutInvalidAddress, "배송지 주소를 확인해주세요")
		return
	}

	if err := ctrl.checkoutService.SetAddress(c.Request.Context(), &addr); err != nil {
		errors.ParseAndRespond(c, err, "checkout address")
		return
	}

	ctrl.respondWithCheckout(c, "checkout address")
}

// PlaceOrder submits the selection as an order
// POST /api/v1/checkout/orders
func (ctrl *CheckoutController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.CheckoutPaymentRequired, "결제 수단을 선택해주세요")
		return
	}

	userID, _ := middleware.GetUserID(c)
	confirmation, err := ctrl.checkoutService.PlaceOrder(c.Request.Context(), req.PaymentMethod)
	if err != nil {
		log.Error("Failed to place order", err, map[string]interface{}{
			"user_id": userID,
		})
		errors.ParseAndRespond(c, err, "order")
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"user_id":  userID,
		"order_id": confirmation.OrderID,
	})
	c.JSON(http.StatusCreated, confirmation)
}
