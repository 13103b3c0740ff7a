package gammahook

import (
	"errors"
	"sync"
	"time"

	"github.com/pgaskin/gammahook/redshift"
)

type fakePlatform struct {
	mu        sync.Mutex
	display   map[HDC]bool
	result    bool
	calls     []HDC
	lastError uint32
}

func newFakePlatform(display ...HDC) *fakePlatform {
	p := &fakePlatform{display: map[HDC]bool{}, result: true}
	for _, hdc := range display {
		p.display[hdc] = true
	}
	return p
}

func (p *fakePlatform) IsDisplayDC(hdc HDC) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.display[hdc]
}

func (p *fakePlatform) SetDeviceGammaRamp(hdc HDC, ramp *redshift.Ramp) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, hdc)
	return p.result
}

func (p *fakePlatform) SetLastError(code uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastError = code
}

func (p *fakePlatform) Calls() []HDC {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]HDC(nil), p.calls...)
}

// fakeNet records everything done through the transports it dials.
type fakeNet struct {
	mu         sync.Mutex
	dialErr    error
	connectErr error
	sendErr    error
	waitDelay  time.Duration
	transports []*fakeTransport
	requests   []string
	torn       int
	waits      int
	closes     int
}

type fakeTransport struct {
	n        *fakeNet
	timeouts Timeouts
	closed   bool
	closeErr error
	conns    []*fakeConn
}

type fakeConn struct {
	t        *fakeTransport
	cfg      SessionConfig
	closed   bool
	closeErr error
}

type fakeRequest struct {
	c *fakeConn
}

var errFake = errors.New("fake error")

func (n *fakeNet) Dial(t Timeouts) (Transport, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dialErr != nil {
		return nil, n.dialErr
	}
	ft := &fakeTransport{n: n, timeouts: t}
	n.transports = append(n.transports, ft)
	return ft, nil
}

func (n *fakeNet) Requests() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.requests...)
}

func (n *fakeNet) OpenConns() (open int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, t := range n.transports {
		for _, c := range t.conns {
			if !c.closed {
				open++
			}
		}
	}
	return open
}

func (t *fakeTransport) Connect(host string, port uint16) (Connection, error) {
	t.n.mu.Lock()
	defer t.n.mu.Unlock()
	if t.n.connectErr != nil {
		return nil, t.n.connectErr
	}
	c := &fakeConn{t: t, cfg: SessionConfig{host, port}}
	t.conns = append(t.conns, c)
	return c, nil
}

func (t *fakeTransport) Close() error {
	t.n.mu.Lock()
	defer t.n.mu.Unlock()
	if t.closeErr != nil {
		return t.closeErr
	}
	t.closed = true
	return nil
}

func (c *fakeConn) Send(path string) (Request, error) {
	c.t.n.mu.Lock()
	defer c.t.n.mu.Unlock()
	if c.closed || c.t.closed {
		c.t.n.torn++
	}
	if c.t.n.sendErr != nil {
		return nil, c.t.n.sendErr
	}
	c.t.n.requests = append(c.t.n.requests, path)
	return &fakeRequest{c}, nil
}

func (c *fakeConn) Close() error {
	c.t.n.mu.Lock()
	defer c.t.n.mu.Unlock()
	if c.closeErr != nil {
		return c.closeErr
	}
	c.closed = true
	return nil
}

func (r *fakeRequest) Wait() error {
	r.c.t.n.mu.Lock()
	d := r.c.t.n.waitDelay
	r.c.t.n.waits++
	r.c.t.n.mu.Unlock()
	time.Sleep(d)
	return nil
}

func (r *fakeRequest) Close() error {
	r.c.t.n.mu.Lock()
	defer r.c.t.n.mu.Unlock()
	r.c.t.n.closes++
	return nil
}
