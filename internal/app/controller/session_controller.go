package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-storefront/internal/app/service"
	"github.com/ikkim/udonggeum-storefront/internal/errors"
	"github.com/ikkim/udonggeum-storefront/internal/middleware"
)

type SessionController struct {
	sessionService   service.SessionService
	migrationService service.MigrationService
}

func NewSessionController(sessionService service.SessionService, migrationService service.MigrationService) *SessionController {
	return &SessionController{
		sessionService:   sessionService,
		migrationService: migrationService,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LogoutRequest struct {
	// PreserveGuestData defaults to true when omitted
	PreserveGuestData *bool `json:"preserveGuestData"`
}

// GetSession reports the signed-in user and the guest data still waiting for migration
// GET /api/v1/session
func (ctrl *SessionController) GetSession(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	ctx := c.Request.Context()

	body := gin.H{"authenticated": false}
	if user, ok := ctrl.sessionService.Current(ctx); ok {
		body["authenticated"] = true
		body["user"] = user
	}

	cartLines, wishlistEntries, err := ctrl.migrationService.Pending(ctx)
	if err != nil {
		log.Warn("Failed to count pending guest data", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		body["pendingGuestCart"] = cartLines
		body["pendingGuestWishlist"] = wishlistEntries
	}

	c.JSON(http.StatusOK, body)
}

// Login signs in and migrates guest data
// POST /api/v1/session/login
func (ctrl *SessionController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.RespondWithValidationError(c, map[string]string{
			"email":    "이메일 형식을 확인해주세요",
			"password": "비밀번호를 입력해주세요",
		})
		return
	}

	outcome, err := ctrl.sessionService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn("Login failed", map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		errors.ParseAndRespond(c, err, "login")
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// Logout always answers 200; failures are logged and reported in the body
// POST /api/v1/session/logout
func (ctrl *SessionController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LogoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Warn("Invalid logout request, preserving guest data", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	preserve := req.PreserveGuestData == nil || *req.PreserveGuestData

	if err := ctrl.sessionService.Logout(c.Request.Context(), preserve); err != nil {
		log.Error("Logout did not complete", err, map[string]interface{}{
			"preserve_guest_data": preserve,
		})
		c.JSON(http.StatusOK, gin.H{
			"loggedOut": true,
			"complete":  false,
			"error":     errors.ParseError(err, "logout").Code,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loggedOut": true,
		"complete":  true,
	})
}

// Migrate retries guest data left behind by a partial migration
// POST /api/v1/session/migrate
func (ctrl *SessionController) Migrate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	report, err := ctrl.sessionService.ResumeMigration(c.Request.Context())
	if err != nil {
		log.Warn("Migration retry rejected", map[string]interface{}{
			"error": err.Error(),
		})
		errors.ParseAndRespond(c, err, "migrate")
		return
	}

	c.JSON(http.StatusOK, report)
}
