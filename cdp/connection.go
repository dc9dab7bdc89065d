package cdp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/gorilla/websocket"
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
	"github.com/oxtoacart/bpool"

	"github.com/scrollfx/scrollfx/log"
)

const wsWriteBuffers = 4

// connection wraps the websocket transport to the browser's DevTools
// endpoint and frames cdproto messages on it.
type connection struct {
	ws     *websocket.Conn
	bufs   *bpool.BufferPool
	logger *log.Logger
}

func newConnection(ctx context.Context, wsURL string, logger *log.Logger) (*connection, error) {
	wd := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1 << 20,
		WriteBufferSize:  1 << 20,
		Proxy:            http.ProxyFromEnvironment,
	}
	ws, _, err := wd.DialContext(ctx, wsURL, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("dialing DevTools URL %q: %w", wsURL, err)
	}
	return &connection{
		ws:     ws,
		bufs:   bpool.NewBufferPool(wsWriteBuffers),
		logger: logger,
	}, nil
}

func (c *connection) readMessage() (*cdproto.Message, error) {
	_, buf, err := c.ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading websocket message: %w", err)
	}
	var msg cdproto.Message
	if err := easyjson.Unmarshal(buf, &msg); err != nil {
		return nil, fmt.Errorf("unmarshaling CDP message: %w", err)
	}
	return &msg, nil
}

func (c *connection) writeMessage(msg *cdproto.Message) error {
	var w jwriter.Writer
	msg.MarshalEasyJSON(&w)
	if w.Error != nil {
		return fmt.Errorf("marshaling CDP message %d: %w", msg.ID, w.Error)
	}

	buf := c.bufs.Get()
	defer c.bufs.Put(buf)
	if _, err := w.DumpTo(buf); err != nil {
		return fmt.Errorf("encoding CDP message %d: %w", msg.ID, err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, buf.Bytes()); err != nil {
		return fmt.Errorf("writing CDP message %d: %w", msg.ID, err)
	}
	return nil
}

// Close sends a close control frame and tears the websocket down.
func (c *connection) Close() error {
	if err := c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second),
	); err != nil && err != websocket.ErrCloseSent {
		c.logger.Debugf("cdp", "sending websocket close message: %v", err)
	}
	if err := c.ws.Close(); err != nil {
		return fmt.Errorf("closing websocket connection: %w", err)
	}
	return nil
}
