package push

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/ali-shihab/marketreplay/internal/infrastructure"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Gateway streams replayed order actions to websocket clients. Clients
// subscribe per symbol; each symbol maps to one JetStream subject.
type Gateway struct {
	logger        *zap.Logger
	js            nats.JetStreamContext
	clients       map[*Client]bool
	subscriptions map[string]map[*Client]bool // symbol -> clients
	natsSubs      map[string]*nats.Subscription
	mu            sync.RWMutex
}

func NewGateway(js nats.JetStreamContext, logger *zap.Logger) *Gateway {
	return &Gateway{
		logger:        logger,
		js:            js,
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		natsSubs:      make(map[string]*nats.Subscription),
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("failed to upgrade websocket", zap.Error(err))
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}

	g.mu.Lock()
	g.clients[client] = true
	g.mu.Unlock()
	infrastructure.WSConnections.Inc()

	go g.writePump(client)
	g.readPump(client)
}

func (g *Gateway) readPump(c *Client) {
	defer func() {
		g.mu.Lock()
		delete(g.clients, c)
		for symbol, clients := range g.subscriptions {
			delete(clients, c)
			if len(clients) == 0 {
				g.dropSymbol(symbol)
			}
		}
		g.mu.Unlock()
		infrastructure.WSConnections.Dec()
		close(c.send)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var req struct {
			Action string `json:"action"` // "subscribe", "unsubscribe"
			Symbol string `json:"symbol"`
		}
		if err := json.Unmarshal(message, &req); err != nil || req.Symbol == "" {
			continue
		}

		g.mu.Lock()
		switch req.Action {
		case "subscribe":
			if g.subscriptions[req.Symbol] == nil {
				g.subscriptions[req.Symbol] = make(map[*Client]bool)
				if err := g.subscribeToNATS(req.Symbol); err != nil {
					g.logger.Error("failed to subscribe to NATS", zap.String("symbol", req.Symbol), zap.Error(err))
				}
			}
			g.subscriptions[req.Symbol][c] = true
			g.logger.Info("client subscribed to replay actions", zap.String("symbol", req.Symbol))
		case "unsubscribe":
			if clients, ok := g.subscriptions[req.Symbol]; ok {
				delete(clients, c)
				if len(clients) == 0 {
					g.dropSymbol(req.Symbol)
				}
			}
		}
		g.mu.Unlock()
	}
}

// dropSymbol tears down the NATS subscription for a symbol with no clients
// left. Callers must hold g.mu.
func (g *Gateway) dropSymbol(symbol string) {
	if sub, ok := g.natsSubs[symbol]; ok {
		sub.Unsubscribe()
		delete(g.natsSubs, symbol)
		g.logger.Info("unsubscribed from NATS as no clients left", zap.String("symbol", symbol))
	}
	delete(g.subscriptions, symbol)
}

func (g *Gateway) writePump(c *Client) {
	defer c.conn.Close()
	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

func (g *Gateway) subscribeToNATS(symbol string) error {
	subject := fmt.Sprintf("replay.actions.%s", symbol)
	sub, err := g.js.Subscribe(subject, func(msg *nats.Msg) {
		g.mu.RLock()
		clients := g.subscriptions[symbol]
		if clients == nil {
			g.mu.RUnlock()
			return
		}

		for c := range clients {
			select {
			case c.send <- msg.Data:
			default:
				// Do not block, just drop if channel is full
			}
		}
		g.mu.RUnlock()
		msg.Ack()
	}, nats.ManualAck())

	if err != nil {
		return err
	}

	g.natsSubs[symbol] = sub
	g.logger.Info("subscribed to NATS subject", zap.String("subject", subject))
	return nil
}
