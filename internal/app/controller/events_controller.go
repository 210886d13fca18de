package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/service"
	"github.com/ikkim/udonggeum-storefront/internal/middleware"
	ws "github.com/ikkim/udonggeum-storefront/internal/websocket"
)

type EventsController struct {
	hub             *ws.Hub
	upgrader        websocket.Upgrader
	cartService     service.CartService
	wishlistService service.WishlistService
	sessionService  service.SessionService
}

func NewEventsController(
	hub *ws.Hub,
	allowedOrigins []string,
	cartService service.CartService,
	wishlistService service.WishlistService,
	sessionService service.SessionService,
) *EventsController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &EventsController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 같은 기기의 네이티브 셸은 Origin을 보내지 않음
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		cartService:     cartService,
		wishlistService: wishlistService,
		sessionService:  sessionService,
	}
}

// WebSocketHandler streams state change events to the UI shell
// GET /api/v1/ws
func (ctrl *EventsController) WebSocketHandler(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err, nil)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, uuid.NewString())

	// 등록 후에 현재 상태를 읽어야 그 사이에 발행된 이벤트를 놓치지 않음
	ctrl.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
	ctrl.sendSnapshot(c.Request.Context(), client)

	log.Info("WebSocket connection established", map[string]interface{}{
		"client_id": client.ID,
	})
}

// sendSnapshot 현재 세션, 장바구니, 위시리스트 상태를 클라이언트 하나에 전달
func (ctrl *EventsController) sendSnapshot(ctx context.Context, client *ws.Client) {
	user, authenticated := ctrl.sessionService.Current(ctx)
	session := service.SessionChanged{Authenticated: authenticated}
	if user != nil {
		session.UserID = user.UserID
	}
	ctrl.hub.SendTo(client, service.EventSessionChanged, session)

	items := ctrl.cartService.Items(ctx)
	ctrl.hub.SendTo(client, service.EventCartUpdated, service.CartChanged{Items: items, Summary: model.Summarize(items)})
	ctrl.hub.SendTo(client, service.EventWishlistUpdated, service.WishlistChanged{Items: ctrl.wishlistService.Items(ctx)})
}
