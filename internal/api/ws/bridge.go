// Package ws is the WebSocket bridge between page contexts and the
// router. Each connected page holds one socket; requests carry a
// client-chosen id and get exactly one response with the same id.
package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spendguard/spendguard/internal/infrastructure/logging"
	"github.com/spendguard/spendguard/internal/router"
	"github.com/spendguard/spendguard/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Page contexts connect from arbitrary shop origins.
		return true
	},
}

// Bridge manages WebSocket connections from page contexts.
type Bridge struct {
	registry *router.Registry
	log      *logging.Logger
}

// NewBridge creates a bridge over the registry.
func NewBridge(registry *router.Registry, log *logging.Logger) *Bridge {
	if log == nil {
		log = logging.NewNop()
	}
	return &Bridge{registry: registry, log: log}
}

// HandleConnection upgrades the request and serves the page's requests
// until the socket closes. A page torn down mid-request is normal; the
// response write just fails and the loop ends.
func (b *Bridge) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	pageID := "page_" + uuid.NewString()
	reqCtx := c.Request.Context()
	b.log.Info("page connected", zap.String("page_id", pageID))

	// Concurrent tool executions share the socket; writes serialize.
	var writeMu sync.Mutex

	for {
		var req types.WSRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.log.Warn("websocket read error", zap.String("page_id", pageID), zap.Error(err))
			}
			break
		}

		appCtx := &types.Context{PageID: &pageID}
		result, err := b.registry.Execute(reqCtx, req.ToolID, req.Params, appCtx)

		resp := types.WSResponse{ID: req.ID}
		switch {
		case err != nil:
			resp.Error = err.Error()
		case result.Error != nil:
			resp.Error = *result.Error
		default:
			resp.Success = result.Success
			resp.Data = result.Data
		}

		writeMu.Lock()
		writeErr := conn.WriteJSON(resp)
		writeMu.Unlock()
		if writeErr != nil {
			b.log.Debug("response dropped, page gone",
				zap.String("page_id", pageID),
				zap.String("request_id", req.ID))
			break
		}
	}

	b.log.Info("page disconnected", zap.String("page_id", pageID))
}
