package app

import (
	"context"
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/repository"
	"github.com/dsneed123/another-social-media-app/pkg/logger"
	"github.com/dsneed123/another-social-media-app/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const pingInterval = 10 * time.Minute

// RelayWebsocketHandler owns the lifecycle of one websocket connection: it
// binds the verified identity to a registry subscription and pumps frames in
// both directions until either side goes away.
type RelayWebsocketHandler struct {
	registry *ConnectionRegistry
	eventUC  *EventUseCase
	presence repository.PresenceRepository
}

// NewRelayWebsocketHandler create RelayWebsocketHandler
func NewRelayWebsocketHandler(
	registry *ConnectionRegistry,
	eventUC *EventUseCase,
	presence repository.PresenceRepository,
) *RelayWebsocketHandler {
	return &RelayWebsocketHandler{
		registry: registry,
		eventUC:  eventUC,
		presence: presence,
	}
}

// HandleConnection is the entry point for one websocket connection. Identity
// comes from the token middleware, never from the request path. The call
// returns only when the connection is gone and its registration cleaned up.
func (h *RelayWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	userID, ok := conn.Locals(middlewares.TokenUserID).(string)
	if !ok || userID == "" {
		logger.Log.Error("websocket upgrade without verified identity")
		conn.Close()
		return
	}

	connID := uuid.NewString()
	logger.Log.Info("websocket connected",
		zap.String("userID", userID),
		zap.String("connID", connID),
	)

	events, unsubscribe := h.registry.Subscribe(userID)

	ticker := time.NewTicker(pingInterval)
	ctxClose, cancel := context.WithCancel(ctx)

	defer func() {
		ticker.Stop()
		cancel()
		unsubscribe()

		// Bounded so a dead redis cannot wedge the teardown.
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()

		if err := h.presence.UntrackConnection(cleanupCtx, userID, connID); err != nil {
			logger.Log.Error("failed to untrack connection", zap.String("userID", userID), zap.Error(err))
		}
		// Offline only when the last tracked connection is gone.
		conns, err := h.presence.GetConnections(cleanupCtx, userID)
		if err != nil {
			logger.Log.Error("failed to list connections", zap.String("userID", userID), zap.Error(err))
		} else if len(conns) == 0 {
			if err := h.presence.SetOffline(cleanupCtx, userID); err != nil {
				logger.Log.Error("failed to set offline", zap.String("userID", userID), zap.Error(err))
			}
		}

		logger.Log.Info("websocket closed", zap.String("userID", userID), zap.String("connID", connID))
		conn.Close()
	}()

	if err := h.presence.SetOnline(ctxClose, userID); err != nil {
		logger.Log.Error("failed to set online", zap.String("userID", userID), zap.Error(err))
	}
	if err := h.presence.TrackConnection(ctxClose, userID, connID); err != nil {
		logger.Log.Error("failed to track connection", zap.String("userID", userID), zap.Error(err))
	}

	// fiber answers close/ping/pong frames itself; the handlers only observe.
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("websocket close frame:", conn.RemoteAddr())
		return nil
	})
	conn.SetPongHandler(func(appData string) error {
		return nil
	})

	// Writer: the only goroutine touching conn for data frames going out.
	// A write failure means the peer is gone, so it cancels the whole
	// connection instead of retrying.
	go func() {
		for {
			select {
			case payload, open := <-events:
				if !open {
					return
				}
				if payload == nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					logger.Log.Errorf("websocket write error:", err)
					cancel()
					conn.Close()
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
					logger.Log.Errorf("ping error:", err)
					cancel()
					conn.Close()
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	// Reader: frames of one connection are handled strictly in order.
	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		h.eventUC.Handle(ctxClose, userID, message)
	}
}
