package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"capex-lab/internal/analysis"
	"capex-lab/internal/observability"
)

const (
	exploreReadLimit = 1 << 20
	exploreWriteWait = 10 * time.Second
)

// ExploreReply is one websocket frame sent back to the client.
// Every request message gets exactly one reply with either Result or Error set.
type ExploreReply struct {
	Type   string           `json:"type"` // "result" or "error"
	Result *analysis.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
	Code   int              `json:"code,omitempty"`
}

// Explore handles GET /api/v1/explore.
// Each text message is a full analysis request; requests on one connection
// run one after another.
func (h *Handler) Explore(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("explore upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.exploreConns.Add(1)
	observability.ExploreSessionOpened()
	defer func() {
		h.exploreConns.Add(-1)
		observability.ExploreSessionClosed()
	}()

	conn.SetReadLimit(exploreReadLimit)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Info("explore connection closed", zap.Error(err))
			}
			return
		}
		observability.RecordExploreMessage("in")

		data, err := json.Marshal(h.explore(c, msg))
		if err != nil {
			h.logger.Error("encode explore reply", zap.Error(err))
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(exploreWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Info("explore write failed", zap.Error(err))
			return
		}
		observability.RecordExploreMessage("out")
	}
}

func (h *Handler) explore(c *gin.Context, msg []byte) ExploreReply {
	var req analysis.Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return ExploreReply{Type: "error", Error: "decode request: " + err.Error(), Code: CodeInvalidParameter}
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.runAnalysis(ctx, req)
	if err != nil {
		_, code := classify(err)
		return ExploreReply{Type: "error", Error: err.Error(), Code: code}
	}
	return ExploreReply{Type: "result", Result: res}
}
