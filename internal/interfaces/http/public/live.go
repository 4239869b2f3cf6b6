package public

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
	"github.com/sngm3741/friendlyeats/api/internal/interfaces/http/common"
)

const liveWriteTimeout = 10 * time.Second

type liveSession struct {
	conn         *websocket.Conn
	logger       logrus.FieldLogger
	pingInterval time.Duration
}

func (h *Handler) liveSession(conn *websocket.Conn) liveSession {
	return liveSession{conn: conn, logger: h.logger, pingInterval: h.pingInterval}
}

// serveLive forwards stream updates to the websocket as JSON frames until the
// client disconnects, the request context ends or the stream finishes.
func serveLive[T any](ctx context.Context, cancel context.CancelFunc, s liveSession, updates <-chan application.Update[T], convert func([]T) any) {
	defer s.conn.Close()

	// The read loop only exists to notice the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := s.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.close(websocket.CloseGoingAway, "")
			return
		case update, ok := <-updates:
			if !ok {
				s.close(websocket.CloseNormalClosure, "stream ended")
				return
			}
			if !s.write(frameFor(update, convert)) {
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func frameFor[T any](update application.Update[T], convert func([]T) any) liveMessage {
	if update.Err != nil {
		message := update.Err.Error()
		if common.StatusForError(update.Err) >= http.StatusInternalServerError {
			message = "live query failed"
		}
		return liveMessage{Type: liveTypeError, Error: message}
	}
	return liveMessage{Type: liveTypeSnapshot, Items: convert(update.Items), Count: len(update.Items)}
}

func (s liveSession) write(msg liveMessage) bool {
	if msg.Type == liveTypeError {
		s.logger.WithField("error", msg.Error).Warn("live query update failed")
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.WithError(err).Debug("websocket write failed")
		return false
	}
	return true
}

func (s liveSession) close(code int, text string) {
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}

// originChecker mirrors the CORS allow list for websocket upgrades.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{})
	allowAll := len(origins) == 0
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
			continue
		}
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if allowAll || origin == "" {
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}
		// Same-origin requests are always fine.
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
