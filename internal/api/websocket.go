// internal/api/websocket.go
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Corphon/StyleCritic/internal/errors"
	"github.com/Corphon/StyleCritic/internal/models"
	"github.com/Corphon/StyleCritic/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingPeriod   = (wsPongWait * 9) / 10
	wsMaxReadBytes = 4096
)

// Frame types sent to websocket clients.
const (
	FrameProgress = "progress"
	FrameResult   = "result"
	FrameError    = "error"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Frame is one server-to-client websocket message.
type Frame struct {
	Type      string                   `json:"type"`
	RequestID string                   `json:"requestId,omitempty"`
	Progress  int                      `json:"progress"`
	Message   string                   `json:"message,omitempty"`
	Status    string                   `json:"status,omitempty"`
	Data      *models.AnalysisResponse `json:"data,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Code      string                   `json:"code,omitempty"`
}

type analysisOutcome struct {
	resp *models.AnalysisResponse
	err  error
}

// AnalyzeWebSocket runs one analysis per connection and streams its progress.
func (h *Handler) AnalyzeWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", map[string]interface{}{
			"request_id": requestID(c),
			"error":      err.Error(),
		})
		return
	}
	defer conn.Close()

	id := requestID(c)
	write := func(f Frame) error {
		f.RequestID = id
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(f)
	}

	conn.SetReadLimit(wsMaxReadBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

	var req models.AnalysisRequest
	if err := conn.ReadJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		_ = write(Frame{Type: FrameError, Error: msgInvalidMessage, Code: ErrorInvalidMessage})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The reader only watches for disconnects and pongs; a read error aborts the analysis.
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	taskID := uuid.NewString()
	tracker := h.progress.CreateTracker(taskID)
	defer h.progress.Remove(taskID)
	updates := tracker.Subscribe()
	defer tracker.Unsubscribe(updates)

	done := make(chan analysisOutcome, 1)
	go func() {
		resp, err := h.critic.Critique(ctx, req, id, tracker.Reporter())
		if err != nil {
			tracker.Fail(errors.AsAppError(err).Code)
		} else {
			tracker.Complete("analysis complete")
		}
		done <- analysisOutcome{resp: resp, err: err}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	sendProgress := func(u services.ProgressUpdate) error {
		return write(Frame{Type: FrameProgress, Progress: u.Progress, Message: u.Message, Status: u.Status})
	}

	for {
		select {
		case u := <-updates:
			if err := sendProgress(u); err != nil {
				cancel()
				<-done
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				<-done
				return
			}
		case <-tracker.Done:
			// the final update is buffered before Done closes
			for drained := false; !drained; {
				select {
				case u := <-updates:
					if err := sendProgress(u); err != nil {
						<-done
						return
					}
				default:
					drained = true
				}
			}

			outcome := <-done
			if outcome.err != nil {
				h.writeErrorFrame(c, write, outcome.err)
			} else {
				_ = write(Frame{Type: FrameResult, Data: outcome.resp})
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return
		}
	}
}

func (h *Handler) writeErrorFrame(c *gin.Context, write func(Frame) error, err error) {
	appErr := errors.AsAppError(err)
	message := appErr.Message
	if appErr.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Error("websocket analysis failed", map[string]interface{}{
			"request_id": requestID(c),
			"code":       appErr.Code,
			"error":      appErr.Error(),
		})
		message = publicMessages[appErr.Code]
		if message == "" {
			message = msgInternalFailure
		}
	}
	_ = write(Frame{Type: FrameError, Error: sanitizeErrorMessage(message), Code: appErr.Code})
}
