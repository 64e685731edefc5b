package push

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestReadPumpClosesSendOnDisconnect(t *testing.T) {
	// The write pump blocks on the send channel; it must be released when the
	// read side tears the client down, or every disconnect leaks a goroutine.
	g := NewGateway(nil, zap.NewNop())
	clientCh := make(chan *Client, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		c := &Client{conn: conn, send: make(chan []byte, 1)}
		g.mu.Lock()
		g.clients[c] = true
		g.mu.Unlock()
		clientCh <- c
		g.readPump(c)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err)

	c := <-clientCh
	conn.Close()

	select {
	case _, ok := <-c.send:
		assert.False(t, ok, "send channel should be closed, not carrying data")
	case <-time.After(2 * time.Second):
		t.Fatal("send channel still open after client disconnect")
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	assert.NotContains(t, g.clients, c)
}
