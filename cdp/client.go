// Package cdp drives a live page over the Chrome DevTools Protocol: it
// installs the IntersectionObserver bridge, republishes the entries the
// bridge posts into the viewport dispatcher, and applies controller DOM
// mutations back to the page.
package cdp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/chromedp/cdproto"
	cdppkg "github.com/chromedp/cdproto/cdp"
	"github.com/mailru/easyjson"
	"github.com/pkg/errors"

	"github.com/scrollfx/scrollfx/cdp/domains"
	"github.com/scrollfx/scrollfx/log"
)

var _ cdppkg.Executor = &Client{}

// Client manages CDP communication with one page target.
type Client struct {
	ctx    context.Context
	logger *log.Logger

	Page    domains.Page
	Runtime domains.Runtime

	conn    *connection
	msgID   int64
	sendCh  chan *cdproto.Message
	errorCh chan error
	done    chan struct{}

	msgSubsMu sync.Mutex
	msgSubs   map[int64]chan *cdproto.Message

	watcher *eventWatcher
	wsURL   string
}

// NewClient returns a new Client that is unusable until a CDP connection is
// established with Connect.
func NewClient(ctx context.Context, logger *log.Logger) *Client {
	c := &Client{
		ctx:     ctx,
		logger:  logger,
		sendCh:  make(chan *cdproto.Message, 32), // buffered to avoid blocking in Execute
		errorCh: make(chan error, 1),
		done:    make(chan struct{}),
		msgSubs: make(map[int64]chan *cdproto.Message),
		watcher: newEventWatcher(ctx, logger),
	}
	c.Page = domains.NewPage(c)
	c.Runtime = domains.NewRuntime(c)
	return c
}

// Connect to the page target that exposes a CDP API at wsURL.
func (c *Client) Connect(wsURL string) (err error) {
	if c.wsURL != "" {
		return errors.Errorf("CDP connection already established to %q", c.wsURL)
	}
	if c.conn, err = newConnection(c.ctx, wsURL, c.logger); err != nil {
		return err
	}
	c.logger.Infof("cdp", "established CDP connection to %q", wsURL)
	c.wsURL = wsURL

	go c.recvLoop()
	go c.sendLoop()

	return nil
}

// Disconnect from the page's CDP API.
func (c *Client) Disconnect() {
	close(c.done)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Subscribe returns a channel notified for the given CDP events and a
// cancellation function that unsubscribes it.
func (c *Client) Subscribe(events ...cdproto.MethodType) (<-chan *Event, func()) {
	return c.watcher.subscribe(events...)
}

// Execute implements cdp.Executor with a synchronous send and receive.
func (c *Client) Execute(ctx context.Context, method string, params easyjson.Marshaler, res easyjson.Unmarshaler) error {
	c.logger.Debugf("cdp", "execute method:%q", method)
	id := atomic.AddInt64(&c.msgID, 1)

	recvCh := make(chan *cdproto.Message, 1)
	c.msgSubsMu.Lock()
	c.msgSubs[id] = recvCh
	c.msgSubsMu.Unlock()
	defer func() {
		c.msgSubsMu.Lock()
		delete(c.msgSubs, id)
		c.msgSubsMu.Unlock()
	}()

	var buf []byte
	if params != nil {
		var err error
		if buf, err = easyjson.Marshal(params); err != nil {
			return fmt.Errorf("marshaling %q params: %w", method, err)
		}
	}
	msg := &cdproto.Message{
		ID:     id,
		Method: cdproto.MethodType(method),
		Params: buf,
	}

	select {
	case c.sendCh <- msg:
	case err := <-c.errorCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return c.ctx.Err()
	}

	select {
	case resp := <-recvCh:
		if resp.Error != nil {
			return resp.Error
		}
		if res != nil {
			return easyjson.Unmarshal(resp.Result, res)
		}
		return nil
	case err := <-c.errorCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

func (c *Client) recvLoop() {
	for {
		msg, err := c.conn.readMessage()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				c.logger.Errorf("cdp", "receiving CDP message: %v", err)
				select {
				case c.errorCh <- err:
				default:
				}
			}
			return
		}

		switch {
		case msg.Method != "":
			evt, err := cdproto.UnmarshalMessage(msg)
			if err != nil {
				c.logger.Errorf("cdp", "unmarshaling CDP event %s: %v", msg.Method, err)
				continue
			}
			c.watcher.notify(&Event{Name: msg.Method, Data: evt})
		case msg.ID > 0:
			c.msgSubsMu.Lock()
			ch := c.msgSubs[msg.ID]
			c.msgSubsMu.Unlock()
			if ch == nil {
				c.logger.Debugf("cdp", "no subscriber for CDP response %d", msg.ID)
				continue
			}
			select {
			case ch <- msg:
			case <-c.ctx.Done():
				return
			}
		default:
			c.logger.Errorf("cdp", "ignoring malformed CDP message (missing id and method): %#v", msg)
		}
	}
}

func (c *Client) sendLoop() {
	for {
		select {
		case msg := <-c.sendCh:
			if err := c.conn.writeMessage(msg); err != nil {
				select {
				case c.errorCh <- err:
				default:
				}
			}
		case <-c.done:
			return
		case <-c.ctx.Done():
			_ = c.conn.Close()
			return
		}
	}
}
