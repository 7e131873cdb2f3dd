package controller

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"go-parley/internal/infrastructure/realtime"
	"go-parley/internal/pkg/chat/application/budget"
	"go-parley/internal/pkg/chat/application/usecase"
	chat "go-parley/internal/pkg/chat/domain"
	repoAdapter "go-parley/internal/pkg/chat/persistence/repository/adapter"
	"go-parley/internal/pkg/chat/presentation/middleware"
	"go-parley/internal/pkg/chat/provider"
	"go-parley/internal/pkg/chat/summarizer"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatSocketController handles the websocket streaming endpoint. It is the
// socket twin of the SSE endpoint: each inbound frame runs one streaming
// exchange, with events delivered as typed JSON frames. The budget gate and
// content filter run per frame, since route middleware only sees the
// upgrade request.
type ChatSocketController struct {
	streamUC *usecase.StreamMessageUseCase
	gate     *budget.Gate
}

func NewChatSocketController(pool *pgxpool.Pool, providers *provider.Registry, gate *budget.Gate) *ChatSocketController {
	repo := repoAdapter.NewPgChatRepository(pool)
	users := repoAdapter.NewPgUserRepository(pool)
	return &ChatSocketController{
		streamUC: usecase.NewStreamMessageUseCase(repo, users, providers, summarizer.New(providers, repo)),
		gate:     gate,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when a frontend origin is pinned.
		return true
	},
}

type inboundFrame struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
}

const defaultReadTimeout = 120 * time.Second

// Handle upgrades the HTTP connection and processes message frames until the
// client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		conn.Start()
		defer conn.Close(websocket.CloseNormalClosure, "session closed")

		ws.SetReadLimit(1 << 16)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		_ = conn.SendEvent("connected", gin.H{"connectionId": conn.ID})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				_ = conn.SendEvent("error", gin.H{"message": "invalid payload"})
				continue
			}

			filtered, err := middleware.FilterMessage(frame.Message)
			if err != nil {
				_ = conn.SendEvent("error", gin.H{"message": err.Error()})
				continue
			}

			if err := ctl.gate.Allow(c.Request.Context(), userID); err != nil {
				if errors.Is(err, chat.ErrBudgetExceeded) {
					_ = conn.SendEvent("error", gin.H{"message": "monthly token budget exceeded"})
					continue
				}
				// Aggregate failure: fail open, same as the HTTP gate.
				log.Printf("chat socket: budget gate: %v", err)
			}

			in := usecase.StreamMessageInput{
				UserID:         userID,
				ConversationID: frame.ConversationID,
				Message:        filtered,
				Provider:       frame.Provider,
				Model:          frame.Model,
			}
			if err := ctl.streamUC.Execute(c.Request.Context(), in, socketSink{conn}); err != nil {
				_ = conn.SendEvent("error", gin.H{"message": wsErrorMessage(err)})
			}
		}
	}
}

// socketSink adapts a realtime connection to the streaming session sink.
type socketSink struct {
	conn *realtime.Connection
}

func (s socketSink) Send(event string, data any) error {
	return s.conn.SendEvent(event, data)
}

func wsErrorMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrValidation):
		return "invalid request"
	case errors.Is(err, chat.ErrNotFound):
		return "not found"
	case errors.Is(err, chat.ErrForbidden):
		return "forbidden"
	case errors.Is(err, chat.ErrBudgetExceeded):
		return "monthly token budget exceeded"
	default:
		return "server error"
	}
}
