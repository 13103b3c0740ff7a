package gammahook

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Timeouts bounds how long a relay can block the calling thread.
type Timeouts struct {
	Resolve time.Duration
	Connect time.Duration
	Send    time.Duration
	Receive time.Duration
}

// DefaultTimeouts are short enough that a dead coordinator doesn't noticeably
// stall the hooked application.
var DefaultTimeouts = Timeouts{
	Resolve: time.Second,
	Connect: time.Second,
	Send:    time.Second,
	Receive: time.Second,
}

func (t Timeouts) total() time.Duration {
	return t.Resolve + t.Connect + t.Send + t.Receive
}

// Dialer opens a [Transport].
type Dialer func(Timeouts) (Transport, error)

// Transport creates connections. Closing a transport with open connections may
// fail.
type Transport interface {
	Connect(host string, port uint16) (Connection, error)
	Close() error
}

// Connection sends requests to a single coordinator.
type Connection interface {
	// Send starts a bodyless request for path.
	Send(path string) (Request, error)
	Close() error
}

// Request is an in-flight request. Close must always be called.
type Request interface {
	// Wait waits for the response and discards it.
	Wait() error
	Close() error
}

type httpTransport struct {
	client *http.Client
	tr     *http.Transport
	conns  atomic.Int32
	closed atomic.Bool
}

type httpConnection struct {
	t      *httpTransport
	base   string
	closed atomic.Bool
}

type httpRequest struct {
	once   sync.Once
	done   chan struct{}
	resp   *http.Response
	err    error
	waited bool
}

// DialHTTP creates a [Transport] which sends plain HTTP requests without a
// proxy. Idle connections are kept alive between requests to the same
// coordinator.
func DialHTTP(t Timeouts) (Transport, error) {
	if t.total() <= 0 {
		return nil, fmt.Errorf("invalid timeouts")
	}
	tr := &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout: t.Resolve + t.Connect,
		}).DialContext,
		ResponseHeaderTimeout: t.Send + t.Receive,
		MaxIdleConnsPerHost:   1,
		IdleConnTimeout:       time.Minute,
		DisableCompression:    true,
	}
	return &httpTransport{
		client: &http.Client{
			Transport: tr,
			Timeout:   t.total(),
		},
		tr: tr,
	}, nil
}

func (t *httpTransport) Connect(host string, port uint16) (Connection, error) {
	if t.closed.Load() {
		return nil, os.ErrClosed
	}
	if host == "" {
		return nil, fmt.Errorf("connect: empty host")
	}
	base := "http://" + net.JoinHostPort(host, strconv.Itoa(int(port)))
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	t.conns.Add(1)
	return &httpConnection{t: t, base: base}, nil
}

func (t *httpTransport) Close() error {
	if n := t.conns.Load(); n != 0 {
		return fmt.Errorf("close transport: %d connections still open", n)
	}
	if !t.closed.CompareAndSwap(false, true) {
		return os.ErrClosed
	}
	t.tr.CloseIdleConnections()
	return nil
}

func (c *httpConnection) Send(path string) (Request, error) {
	if c.closed.Load() || c.t.closed.Load() {
		return nil, os.ErrClosed
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "") // don't send Go's default
	r := &httpRequest{done: make(chan struct{})}
	go func() {
		defer close(r.done)
		r.resp, r.err = c.t.client.Do(req)
	}()
	return r, nil
}

func (c *httpConnection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return os.ErrClosed
	}
	c.t.conns.Add(-1)
	return nil
}

func (r *httpRequest) Wait() error {
	<-r.done
	r.waited = true
	if r.err != nil {
		return r.err
	}
	r.drain()
	if r.resp.StatusCode < 200 || r.resp.StatusCode > 299 {
		return fmt.Errorf("response status %d", r.resp.StatusCode)
	}
	return nil
}

func (r *httpRequest) Close() error {
	if r.waited {
		return nil
	}
	go func() {
		<-r.done
		if r.err == nil {
			r.drain()
		}
	}()
	return nil
}

func (r *httpRequest) drain() {
	r.once.Do(func() {
		io.Copy(io.Discard, r.resp.Body)
		r.resp.Body.Close()
	})
}
