package websocket

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type options struct {
	apiKey       string
	deviceID     string
	httpClient   *http.Client
	writeTimeout time.Duration
	onReady      func(ctx context.Context) error
	onLost       func()
}

func defaultOptions() options {
	return options{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
		writeTimeout: 5 * time.Second,
		onReady:      func(context.Context) error { return nil },
		onLost:       func() {},
	}
}

type Option func(*options)

func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

func WithDeviceID(id string) Option {
	return func(o *options) { o.deviceID = id }
}

// WithHTTPClient replaces the client used for session requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(o *options) { o.writeTimeout = timeout }
}

// WithLinkCallbacks registers hooks for the stream coming up and going down.
// onReady runs once the stream is connected; onLost runs after the read loop
// stops.
func WithLinkCallbacks(onReady func(ctx context.Context) error, onLost func()) Option {
	return func(o *options) {
		if onReady != nil {
			o.onReady = onReady
		}
		if onLost != nil {
			o.onLost = onLost
		}
	}
}
