// Package gateway bridges the NATS changefeed to browser websockets. A client
// connects with its token, asks for the topics it wants, and receives feed
// events as JSON frames. The gateway is read-side only: message sends go over
// the HTTP API and never wait on any of this.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"LumeChat/logger"
	"LumeChat/service/feed"
	"LumeChat/tools/safe"
	jwtlib "LumeChat/tools/security"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// ParticipantChecker answers whether a user belongs to a conversation. The
// store implements it; the gateway needs nothing else from it.
type ParticipantChecker interface {
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
}

type Server struct {
	feed  *feed.Feed
	auth  jwtlib.Options
	parts ParticipantChecker
}

func NewServer(f *feed.Feed, auth jwtlib.Options, parts ParticipantChecker) *Server {
	return &Server{feed: f, auth: auth, parts: parts}
}

// canSubscribe enforces row-level authorization on the feed: message and
// reaction topics carry conversation content, so they require a conversation
// id and membership in it. Profile and story topics stay open to any
// authenticated client, matching what the HTTP read surface already serves.
func (s *Server) canSubscribe(userID string, topic feed.Topic) bool {
	switch topic.Table {
	case feed.TableMessages, feed.TableReactions:
	default:
		return true
	}
	if topic.ConversationID == "" {
		return false // the bare table spans every conversation
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	in, err := s.parts.IsParticipant(ctx, topic.ConversationID, userID)
	if err != nil {
		logger.Warnf("[gateway] participant check %s user=%s: %v", topic.ConversationID, userID, err)
		return false
	}
	return in
}

// clientFrame is what the browser sends: subscribe/unsubscribe per topic.
type clientFrame struct {
	Action         string `json:"action"` // subscribe | unsubscribe
	Table          string `json:"table"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type session struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}

	mu   sync.Mutex
	subs map[string]*feed.Subscription // topic subject -> sub
}

// HandleWS upgrades the connection. The token rides the query string because
// browsers cannot set headers on websocket dials.
func (s *Server) HandleWS(c *gin.Context) {
	userID, err := jwtlib.VerifySubject(s.auth, c.Query("token"))
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[gateway] upgrade failed: %v", err)
		return
	}

	sess := &session{
		userID: userID,
		conn:   ws,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		subs:   make(map[string]*feed.Subscription),
	}
	safe.Go(sess.writePump)
	s.readLoop(sess)
}

func (s *Server) readLoop(sess *session) {
	defer sess.close()
	sess.conn.SetReadLimit(1 << 16)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				return
			}
			logger.Infof("[gateway] read error user=%s: %v", sess.userID, err)
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Warnf("[gateway] drop malformed frame user=%s", sess.userID)
			continue
		}
		s.dispatch(sess, frame)
	}
}

func (s *Server) dispatch(sess *session, frame clientFrame) {
	topic := feed.Topic{Table: frame.Table, ConversationID: frame.ConversationID}
	key := frame.Table + "/" + frame.ConversationID

	switch frame.Action {
	case "subscribe":
		if !s.canSubscribe(sess.userID, topic) {
			logger.Warnf("[gateway] refused subscription %s user=%s", key, sess.userID)
			return
		}
		sess.mu.Lock()
		_, exists := sess.subs[key]
		sess.mu.Unlock()
		if exists {
			return
		}
		sub, err := s.feed.Subscribe(topic, func(ev feed.Event) {
			b, err := json.Marshal(ev)
			if err != nil {
				return
			}
			select {
			case sess.send <- b:
			default:
				// slow consumer: drop rather than block the feed; the
				// client reconciles by re-fetching
				logger.Warnf("[gateway] dropping event for slow consumer user=%s", sess.userID)
			}
		})
		if err != nil {
			logger.Errorf("[gateway] subscribe %s user=%s: %v", key, sess.userID, err)
			return
		}
		sess.mu.Lock()
		sess.subs[key] = sub
		sess.mu.Unlock()
	case "unsubscribe":
		sess.mu.Lock()
		sub, ok := sess.subs[key]
		delete(sess.subs, key)
		sess.mu.Unlock()
		if ok {
			_ = sub.Unsubscribe()
		}
	default:
		logger.Warnf("[gateway] unknown action %q user=%s", frame.Action, sess.userID)
	}
}

func (sess *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case b := <-sess.send:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sess.done:
			_ = sess.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}

// close releases every server-side subscription; safe to call once per
// session from the read loop's defer.
func (sess *session) close() {
	sess.mu.Lock()
	subs := sess.subs
	sess.subs = make(map[string]*feed.Subscription)
	sess.mu.Unlock()
	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}
	close(sess.done)
	_ = sess.conn.Close()
}
