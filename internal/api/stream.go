package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/analysis"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/middleware"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/service"
)

// Stream message types.
const (
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

// StreamMessage is one frame sent over the analysis websocket.
type StreamMessage struct {
	Type   string                    `json:"type"`
	Done   int                       `json:"done,omitempty"`
	Total  int                       `json:"total,omitempty"`
	Result *service.AnalysisResponse `json:"result,omitempty"`
	Error  *domain.AnalysisError     `json:"error,omitempty"`
}

const streamWriteTimeout = 10 * time.Second

// handleStreamAnalysis upgrades to a websocket, reads one AnalysisRequest,
// streams progress frames while the run is scored and finishes with a result
// or error frame.
func (s *Server) handleStreamAnalysis(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	correlationID := c.GetString(middleware.CorrelationIDKey)
	write := func(msg StreamMessage) error {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(msg)
	}

	var req service.AnalysisRequest
	if err := conn.ReadJSON(&req); err != nil {
		write(StreamMessage{
			Type:  MessageError,
			Error: domain.NewAnalysisError(domain.ErrInvalidInput, "Malformed analysis request", err.Error(), correlationID),
		})
		return
	}

	var step int
	progress := func(done, total int) {
		if step == 0 {
			step = total / 100
			if step < 1 {
				step = 1
			}
		}
		if done%step != 0 && done != total {
			return
		}
		// the collector goroutine is the only writer while the run is active
		if err := write(StreamMessage{Type: MessageProgress, Done: done, Total: total}); err != nil {
			s.logger.WithError(err).Debug("Dropping progress frame")
		}
	}

	ctx := analysis.ContextWithProgress(c.Request.Context(), progress)
	resp, err := s.analyses.Analyze(ctx, &req)
	if err != nil {
		write(StreamMessage{Type: MessageError, Error: toAnalysisError(err, correlationID)})
		return
	}
	if err := write(StreamMessage{Type: MessageResult, Result: resp}); err != nil {
		s.logger.WithError(err).Warn("Failed to send analysis result")
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
