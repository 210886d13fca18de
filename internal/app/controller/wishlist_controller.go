package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/service"
	"github.com/ikkim/udonggeum-storefront/internal/errors"
	"github.com/ikkim/udonggeum-storefront/internal/middleware"
	"github.com/shopspring/decimal"
)

type WishlistController struct {
	wishlistService service.WishlistService
}

func NewWishlistController(wishlistService service.WishlistService) *WishlistController {
	return &WishlistController{
		wishlistService: wishlistService,
	}
}

type ToggleWishlistRequest struct {
	ProductID   int64           `json:"productId" binding:"required,gt=0"`
	VariantID   *int64          `json:"variantId"`
	ProductName string          `json:"productName"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
}

type WishlistResponse struct {
	Items []model.WishlistEntry `json:"items"`
	Count int                   `json:"count"`
}

func (ctrl *WishlistController) respondWithWishlist(c *gin.Context, status int, extra gin.H) {
	items := ctrl.wishlistService.Items(c.Request.Context())
	body := gin.H{"items": items, "count": len(items)}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// GetWishlist returns the wishlist of the current session
// GET /api/v1/wishlist
func (ctrl *WishlistController) GetWishlist(c *gin.Context) {
	items := ctrl.wishlistService.Items(c.Request.Context())
	c.JSON(http.StatusOK, WishlistResponse{
		Items: items,
		Count: len(items),
	})
}

// ToggleWishlist favorites or unfavorites a product
// POST /api/v1/wishlist/toggle
func (ctrl *WishlistController) ToggleWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ToggleWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid wishlist toggle request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.WishlistInvalidEntry, "상품 정보가 올바르지 않습니다")
		return
	}

	favorited, err := ctrl.wishlistService.Toggle(c.Request.Context(), model.WishlistEntry{
		ProductID:   req.ProductID,
		VariantID:   req.VariantID,
		ProductName: req.ProductName,
		Image:       req.Image,
		Price:       req.Price,
	})
	if err != nil {
		log.Error("Failed to toggle wishlist", err, map[string]interface{}{
			"product_id": req.ProductID,
		})
		errors.ParseAndRespond(c, err, "toggle wishlist")
		return
	}

	log.Info("Wishlist toggled", map[string]interface{}{
		"product_id": req.ProductID,
		"favorited":  favorited,
	})
	ctrl.respondWithWishlist(c, http.StatusOK, gin.H{"favorited": favorited})
}

// RemoveFromWishlist unfavorites a product; unknown products are a no-op
// DELETE /api/v1/wishlist/:product_id
func (ctrl *WishlistController) RemoveFromWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	if err := ctrl.wishlistService.Remove(c.Request.Context(), productID); err != nil {
		log.Error("Failed to remove from wishlist", err, map[string]interface{}{
			"product_id": productID,
		})
		errors.ParseAndRespond(c, err, "remove from wishlist")
		return
	}

	ctrl.respondWithWishlist(c, http.StatusOK, nil)
}
