package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"presale/pkg/logger"
	"presale/pkg/metrics"

	"github.com/puzpuzpuz/xsync/v3"
)

// Client is one live feed subscriber. Send is never closed; Done is closed
// when the client goes away.
type Client struct {
	id        uint64
	Send      chan []byte
	done      chan struct{}
	hub       *Hub
	closeOnce sync.Once
}

// Close unregisters the client. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.hub.clients.Delete(c.id)
		metrics.LiveFeedSubscribers.Dec()
		close(c.done)
	})
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Hub fans purchase events out to every subscriber. A subscriber whose
// buffer is full misses the event instead of blocking the publisher.
type Hub struct {
	clients *xsync.MapOf[uint64, *Client]
	nextID  atomic.Uint64
	buffer  int
}

func NewHub() *Hub {
	return &Hub{
		clients: xsync.NewMapOf[uint64, *Client](),
		buffer:  256,
	}
}

func (h *Hub) Register() *Client {
	c := &Client{
		id:   h.nextID.Add(1),
		Send: make(chan []byte, h.buffer),
		done: make(chan struct{}),
		hub:  h,
	}
	h.clients.Store(c.id, c)
	metrics.LiveFeedSubscribers.Inc()
	return c
}

// Publish sends event, JSON encoded, to all subscribers.
func (h *Hub) Publish(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Encoding live feed event failed", "error", err)
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.clients.Range(func(_ uint64, c *Client) bool {
		c.trySend(data)
		return true
	})
}

// trySend drops data when the buffer is full or the client already closed.
func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) ClientCount() int {
	return h.clients.Size()
}
