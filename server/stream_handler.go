package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/Digital-Creators-Team/bingo-game-module/errors"
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/Digital-Creators-Team/bingo-game-module/session"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Stream message types besides the session event types.
const (
	StreamConnected      = "connected"
	StreamHeartbeat      = "heartbeat"
	StreamJackpotUpdated = "jackpot_updated"
)

// StreamMessage is one WebSocket text frame.
type StreamMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// StreamHandler pushes session events and jackpot updates over WebSocket.
type StreamHandler struct {
	app             *App
	logger          zerolog.Logger
	heartbeatPeriod time.Duration
	pingPeriod      time.Duration
	writeDeadline   time.Duration
	upgrader        websocket.Upgrader
}

// NewStreamHandler creates a stream handler.
func NewStreamHandler(app *App) *StreamHandler {
	return &StreamHandler{
		app:             app,
		logger:          app.logger.With().Str("handler", "stream").Logger(),
		heartbeatPeriod: 30 * time.Second,
		pingPeriod:      30 * time.Second,
		writeDeadline:   10 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Stream opens a WebSocket and streams the caller's session.
// Route: GET /api/games/{game_code}/stream?bet_multiplier=1
//
// The first frame is "connected" with the session snapshot. Jackpot updates
// are limited to bet_multiplier when it is given.
func (h *StreamHandler) Stream(c *gin.Context) {
	pc := game.FromContext(c.Request.Context())
	if pc == nil || !pc.HasPlayer() {
		Unauthorized(c, apperrors.New(apperrors.ErrUnauthorized, "Invalid or missing authentication token"))
		return
	}

	onlyMultiplier := 0
	if raw := c.Query("bet_multiplier"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m <= 0 {
			BadRequest(c, apperrors.New(apperrors.ErrInvalidRequest, "invalid bet_multiplier"))
			return
		}
		onlyMultiplier = m
	}

	sess, release, err := h.app.sessions.Hold(c.Request.Context(), pc.PlayerID())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	defer release()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		pc.Logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}
	defer conn.Close() //nolint:errcheck

	logger := pc.Logger.With().Str("handler", "stream").Logger()
	s := &streamer{
		conn:          conn,
		logger:        logger,
		writeDeadline: h.writeDeadline,
		done:          make(chan struct{}),
	}
	go s.readUntilClosed()
	go s.ping(h.pingPeriod)

	ctx := c.Request.Context()
	events, cancelEvents := sess.Listen(ctx)
	defer cancelEvents()
	updates, cancelUpdates := sess.Ledger().Listen(ctx)
	defer cancelUpdates()

	if err := s.send(StreamConnected, sess.Snapshot(ctx)); err != nil {
		return
	}
	logger.Debug().Msg("Stream connected")

	heartbeat := time.NewTicker(h.heartbeatPeriod)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			logger.Debug().Msg("WebSocket connection closed, stopping stream")
			return
		case <-heartbeat.C:
			if err := s.send(StreamHeartbeat, nil); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				// the session was closed under us
				s.close(websocket.CloseGoingAway, "session closed")
				return
			}
			if err := s.sendEvent(ev); err != nil {
				return
			}
		case upd, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if onlyMultiplier != 0 && upd.Multiplier != onlyMultiplier {
				continue
			}
			if err := s.send(StreamJackpotUpdated, jackpotUpdate(sess.Ledger(), upd)); err != nil {
				return
			}
		}
	}
}

func jackpotUpdate(ledger *jackpot.Ledger, upd jackpot.Update) JackpotUpdate {
	return JackpotUpdate{
		BetMultiplier: upd.Multiplier,
		Count:         upd.Count,
		Payout:        upd.Count * ledger.PayoutMultiplier(),
		Reason:        upd.Reason,
	}
}

// streamer owns the write side of one connection. Only the Stream loop
// calls send; pings use WriteControl, which may run concurrently.
type streamer struct {
	conn          *websocket.Conn
	logger        zerolog.Logger
	writeDeadline time.Duration
	done          chan struct{}
}

func (s *streamer) readUntilClosed() {
	defer close(s.done)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn().Err(err).Msg("WebSocket connection closed unexpectedly")
			}
			return
		}
	}
}

func (s *streamer) ping(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeDeadline)); err != nil {
				s.logger.Debug().Err(err).Msg("Failed to send ping")
				return
			}
		}
	}
}

func (s *streamer) sendEvent(ev session.Event) error {
	return s.write(StreamMessage{Type: string(ev.Type), Timestamp: ev.Timestamp.UnixMilli(), Data: ev.Data})
}

func (s *streamer) send(msgType string, data interface{}) error {
	return s.write(StreamMessage{Type: msgType, Timestamp: time.Now().UnixMilli(), Data: data})
}

func (s *streamer) write(msg StreamMessage) error {
	select {
	case <-s.done:
		return io.EOF
	default:
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", msg.Type).Msg("Failed to marshal stream message")
		return err
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeDeadline)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to set write deadline")
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.logger.Debug().Err(err).Str("event_type", msg.Type).Msg("WebSocket closed during write")
		} else {
			s.logger.Warn().Err(err).Str("event_type", msg.Type).Int("payload_size", len(payload)).Msg("WebSocket write failed")
		}
		return err
	}
	return nil
}

func (s *streamer) close(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeDeadline))
}
