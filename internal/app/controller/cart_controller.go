package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/service"
	"github.com/ikkim/udonggeum-storefront/internal/errors"
	"github.com/ikkim/udonggeum-storefront/internal/middleware"
	"github.com/ikkim/udonggeum-storefront/pkg/cartsheet"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID     int64           `json:"productId" binding:"required,gt=0"`
	VariantID     *int64          `json:"variantId"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	ProductName   string          `json:"productName"`
	Image         string          `json:"image"`
	SKU           string          `json:"sku"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Discount      decimal.Decimal `json:"discount"`
	Offer         string          `json:"offer"`
}

func (r AddToCartRequest) line() model.CartLine {
	return model.CartLine{
		ProductID:     r.ProductID,
		VariantID:     r.VariantID,
		Quantity:      r.Quantity,
		Price:         r.Price,
		ProductName:   r.ProductName,
		Image:         r.Image,
		SKU:           r.SKU,
		OriginalPrice: r.OriginalPrice,
		Discount:      r.Discount,
		Offer:         r.Offer,
	}
}

type SetCartItemsRequest struct {
	Items []model.CartLine `json:"items"`
}

type CartResponse struct {
	Items   []model.CartLine  `json:"items"`
	Summary model.CartSummary `json:"summary"`
}

func (ctrl *CartController) respondWithCart(c *gin.Context, status int) {
	items := ctrl.cartService.Items(c.Request.Context())
	c.JSON(status, CartResponse{
		Items:   items,
		Summary: model.Summarize(items),
	})
}

// GetCart returns the cart of the current session
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	ctrl.respondWithCart(c, http.StatusOK)
}

// GetSummary returns cart totals
// GET /api/v1/cart/summary
func (ctrl *CartController) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.cartService.Summary(c.Request.Context()))
}

// AddToCart adds a line or increments the matching one
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.CartInvalidLine, "상품 정보가 올바르지 않습니다")
		return
	}

	log.Debug("Adding item to cart", map[string]interface{}{
		"product_id": req.ProductID,
		"variant_id": req.VariantID,
		"quantity":   req.Quantity,
	})

	if err := ctrl.cartService.AddToCart(c.Request.Context(), req.line()); err != nil {
		log.Error("Failed to add item to cart", err, map[string]interface{}{
			"product_id": req.ProductID,
		})
		errors.ParseAndRespond(c, err, "add to cart")
		return
	}

	ctrl.respondWithCart(c, http.StatusOK)
}

// SetCartItems replaces the whole cart
// PUT /api/v1/cart
func (ctrl *CartController) SetCartItems(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SetCartItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid set cart request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "장바구니 형식이 올바르지 않습니다")
		return
	}

	if err := ctrl.cartService.SetCartItems(c.Request.Context(), req.Items); err != nil {
		log.Error("Failed to replace cart", err, map[string]interface{}{
			"count": len(req.Items),
		})
		errors.ParseAndRespond(c, err, "set cart")
		return
	}

	ctrl.respondWithCart(c, http.StatusOK)
}

// RemoveFromCart removes every line of a product
// DELETE /api/v1/cart/:product_id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	if err := ctrl.cartService.RemoveFromCart(c.Request.Context(), productID); err != nil {
		log.Error("Failed to remove item from cart", err, map[string]interface{}{
			"product_id": productID,
		})
		errors.ParseAndRespond(c, err, "remove from cart")
		return
	}

	ctrl.respondWithCart(c, http.StatusOK)
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if err := ctrl.cartService.ClearCart(c.Request.Context()); err != nil {
		log.Error("Failed to clear cart", err, nil)
		errors.ParseAndRespond(c, err, "clear cart")
		return
	}

	log.Info("Cart cleared", nil)
	ctrl.respondWithCart(c, http.StatusOK)
}

// ExportCart downloads the cart as an xlsx sheet
// GET /api/v1/cart/export
func (ctrl *CartController) ExportCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	items := ctrl.cartService.Items(c.Request.Context())
	var buf bytes.Buffer
	if err := cartsheet.Write(&buf, items); err != nil {
		log.Error("Failed to export cart", err, map[string]interface{}{
			"count": len(items),
		})
		errors.RespondWithError(c, http.StatusInternalServerError, errors.CartExportFailed, "장바구니를 내보내지 못했습니다")
		return
	}

	filename := fmt.Sprintf("cart-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
