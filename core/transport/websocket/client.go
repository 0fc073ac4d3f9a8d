// Package websocket carries an agent session over one websocket stream.
// Sessions are opened and closed with HTTP requests; lifecycle events travel
// as JSON text frames and packets as binary frames.
package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/koscakluka/ema-link/core/events"
	"github.com/koscakluka/ema-link/core/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrNotConnected = errors.New("stream not connected")

// Client implements transport.Transport. One session is open at a time.
type Client struct {
	baseURL *url.URL
	options options

	mu      sync.Mutex
	conn    *gws.Conn
	session *openSession
	done    chan struct{}

	writeMu sync.Mutex
}

type openSession struct {
	id     string
	config transport.SessionConfig
}

var _ transport.Transport = (*Client)(nil)

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Client{baseURL: u, options: options}, nil
}

// Connect dials the stream, starts delivering incoming frames and then runs
// the ready callback.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "connect stream")
	defer span.End()

	streamURL := c.endpoint("/v1/stream")
	if c.baseURL.Scheme == "https" {
		streamURL.Scheme = "wss"
	} else {
		streamURL.Scheme = "ws"
	}
	span.SetAttributes(attribute.String("stream.url", streamURL.String()))

	conn, _, err := gws.DefaultDialer.DialContext(ctx, streamURL.String(), c.headers())
	if err != nil {
		err = fmt.Errorf("failed to open stream: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	done := make(chan struct{})
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		_ = conn.Close()
		return fmt.Errorf("stream already connected")
	}
	c.conn = conn
	c.done = done
	c.mu.Unlock()

	go c.readLoop(conn, done)
	logger.Info("stream connected", "url", streamURL.String())

	if err := c.options.onReady(ctx); err != nil {
		err = fmt.Errorf("ready callback failed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Close shuts the stream down and waits for the read loop to stop.
func (c *Client) Close() error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	err := conn.WriteControl(gws.CloseMessage,
		gws.FormatCloseMessage(gws.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	closeErr := conn.Close()
	<-done
	if errors.Is(err, gws.ErrCloseSent) {
		err = nil
	}
	return errors.Join(err, closeErr)
}

func (c *Client) OpenSession(ctx context.Context, config transport.SessionConfig) (string, error) {
	ctx, span := tracer.Start(ctx, "open session")
	defer span.End()

	attrs, err := marshalAttributes(config.Attributes)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	receive := slices.Sorted(maps.Keys(config.Receivers))
	body, err := json.Marshal(sessionRequest{
		BizCode:         config.BizCode,
		SendChannels:    config.SendChannels,
		ReceiveChannels: receive,
		Attributes:      attrs,
	})
	if err != nil {
		err = fmt.Errorf("failed to marshal session request: %w", err)
		span.RecordError(err)
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/v1/sessions").String(), bytes.NewReader(body))
	if err != nil {
		err = fmt.Errorf("failed to create session request: %w", err)
		span.RecordError(err)
		return "", err
	}
	req.Header = c.headers()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.options.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to send session request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err = fmt.Errorf("session request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(errorBody)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	var created sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		err = fmt.Errorf("failed to decode session response: %w", err)
		span.RecordError(err)
		return "", err
	}
	if created.SessionID == "" {
		err = fmt.Errorf("session response carried no session id")
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("session.id", created.SessionID))

	c.mu.Lock()
	c.session = &openSession{id: created.SessionID, config: config}
	c.mu.Unlock()
	return created.SessionID, nil
}

func (c *Client) CloseSession(ctx context.Context, sessionID string, reason transport.CloseReason) error {
	ctx, span := tracer.Start(ctx, "close session")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	c.mu.Lock()
	if c.session != nil && c.session.id == sessionID {
		c.session = nil
	}
	c.mu.Unlock()

	endpoint := c.endpoint("/v1/sessions/" + url.PathEscape(sessionID))
	endpoint.RawQuery = url.Values{"reason": {strconv.Itoa(int(reason))}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint.String(), nil)
	if err != nil {
		err = fmt.Errorf("failed to create close request: %w", err)
		span.RecordError(err)
		return err
	}
	req.Header = c.headers()

	resp, err := c.options.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to send close request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		err = fmt.Errorf("close request failed with status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *Client) StartEvent(ctx context.Context, sessionID, eventID string, attrs []transport.Attribute) error {
	return c.sendEvent(ctx, events.EventStart, sessionID, eventID, attrs)
}

func (c *Client) EndEventPayloads(ctx context.Context, sessionID, eventID string, attrs []transport.Attribute) error {
	return c.sendEvent(ctx, events.EventPayloadsEnd, sessionID, eventID, attrs)
}

func (c *Client) EndEvent(ctx context.Context, sessionID, eventID string, attrs []transport.Attribute) error {
	return c.sendEvent(ctx, events.EventEnd, sessionID, eventID, attrs)
}

func (c *Client) sendEvent(ctx context.Context, eventType events.EventType, sessionID, eventID string, attrs []transport.Attribute) error {
	raw, err := marshalAttributes(attrs)
	if err != nil {
		return err
	}
	b, err := json.Marshal(envelope{
		Type:       envelopeTypeEvent,
		Event:      eventType.String(),
		SessionID:  sessionID,
		EventID:    eventID,
		Attributes: raw,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := c.write(ctx, gws.TextMessage, b); err != nil {
		return fmt.Errorf("failed to send %s event: %w", eventType, err)
	}
	return nil
}

func (c *Client) SendPacket(ctx context.Context, channel transport.ChannelID, attr *transport.PacketAttr, head *transport.PacketHead, payload []byte) error {
	if attr == nil || head == nil {
		return fmt.Errorf("packet attr and head are required")
	}
	frame, err := encodePacket(channel, attr, head, payload)
	if err != nil {
		return fmt.Errorf("failed to encode packet: %w", err)
	}
	if err := c.write(ctx, gws.BinaryMessage, frame); err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}
	sentPacketCounter.Add(ctx, 1)
	return nil
}

func (c *Client) write(ctx context.Context, messageType int, data []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(c.options.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(deadline)
	return conn.WriteMessage(messageType, data)
}

// readLoop is the only goroutine delivering to session handlers.
func (c *Client) readLoop(conn *gws.Conn, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		close(done)
		c.options.onLost()
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if !gws.IsCloseError(err, gws.CloseNormalClosure) && !errors.Is(err, net.ErrClosed) {
				logger.Warn("stream read failed", "error", err)
			}
			return
		}

		switch messageType {
		case gws.BinaryMessage:
			c.deliverPacket(data)
		case gws.TextMessage:
			c.deliverEvent(data)
		}
	}
}

func (c *Client) deliverPacket(frame []byte) {
	channel, attr, head, payload, err := decodePacket(frame)
	if err != nil {
		droppedFrameCounter.Add(context.Background(), 1)
		logger.Warn("dropping undecodable packet", "error", err)
		return
	}

	receiver := c.receiver(channel)
	if receiver == nil {
		droppedFrameCounter.Add(context.Background(), 1)
		logger.Debug("dropping packet for unregistered channel", "channel", channel)
		return
	}
	if err := receiver(attr, head, payload); err != nil {
		logger.Warn("packet handler failed", "channel", channel, "error", err)
	}
}

func (c *Client) deliverEvent(data []byte) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil || e.Type != envelopeTypeEvent {
		droppedFrameCounter.Add(context.Background(), 1)
		logger.Debug("dropping unrecognized text frame", "error", err, "type", e.Type)
		return
	}
	eventType, ok := events.ParseEventType(e.Event)
	if !ok {
		droppedFrameCounter.Add(context.Background(), 1)
		logger.Warn("dropping unknown session event", "event", e.Event, "event_id", e.EventID)
		return
	}

	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil || session.config.OnEvent == nil || session.id != e.SessionID {
		droppedFrameCounter.Add(context.Background(), 1)
		logger.Debug("dropping event for another session", "session_id", e.SessionID, "event", e.Event)
		return
	}

	err := session.config.OnEvent(transport.Event{
		Type:      eventType,
		SessionID: e.SessionID,
		EventID:   e.EventID,
		Attrs:     e.Attributes,
	})
	if err != nil {
		logger.Warn("event handler failed", "event", e.Event, "error", err)
	}
}

func (c *Client) receiver(channel transport.ChannelID) transport.PacketHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.config.Receivers[channel]
}

func (c *Client) endpoint(path string) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return &u
}

func (c *Client) headers() http.Header {
	header := http.Header{}
	if c.options.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.options.apiKey)
	}
	if c.options.deviceID != "" {
		header.Set("X-Device-Id", c.options.deviceID)
	}
	return header
}
