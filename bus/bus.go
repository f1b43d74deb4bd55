// Package bus is a tiny in-process pub/sub tree used to fan configuration
// and state around the firmware. Topics are string paths; messages published
// with Retained=true are replayed to late subscribers. Delivery never blocks
// the publisher: a full subscriber queue drops its oldest message, so a
// queue length of 1 behaves as a single-slot overwrite mailbox.
package bus

import (
	"sync"
)

// Topic is a path of string tokens, e.g. {"config", "sensors"}.
type Topic []string

// T builds a topic from its tokens.
func T(parts ...string) Topic { return Topic(parts) }

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
}

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection // owning connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

type Bus struct {
	mu   sync.Mutex
	root *node
	qLen int
}

// NewBus creates a bus whose subscriptions buffer queueLen messages.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{root: &node{}, qLen: queueLen}
}

// walk descends the trie to the node for topic. With create=false it returns
// nil when any token is missing; with create=true it materialises the path.
func (b *Bus) walk(topic Topic, create bool) *node {
	n := b.root
	for _, tok := range topic {
		child := n.children[tok]
		if child == nil {
			if !create {
				return nil
			}
			if n.children == nil {
				n.children = make(map[string]*node)
			}
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	return n
}

// offer enqueues without blocking, displacing the oldest queued message.
func offer(ch chan *Message, msg *Message) {
	for {
		select {
		case ch <- msg:
			return
		default:
			select {
			case <-ch: // drop oldest
			default:
			}
		}
	}
}

// Publish delivers a message to all subscribers of its exact topic and, for
// retained messages, stores it for future subscribers (nil payload clears).
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.walk(msg.Topic, msg.Retained)
	if n == nil {
		return // nobody listening, nothing to retain
	}
	for _, sub := range n.subs {
		offer(sub.ch, msg)
	}
	if msg.Retained {
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}
}

func (b *Bus) addSubscription(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.walk(topic, true)
	n.subs = append(n.subs, sub)
	if n.retained != nil {
		offer(sub.ch, n.retained)
	}
}

func (b *Bus) unsubscribe(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Record the path so empty nodes can be pruned bottom-up.
	path := make([]*node, 0, len(topic))
	n := b.root
	for _, tok := range topic {
		child := n.children[tok]
		if child == nil {
			return
		}
		path = append(path, n)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	for i := len(topic) - 1; i >= 0; i-- {
		parent, key := path[i], topic[i]
		child := parent.children[key]
		if len(child.subs) != 0 || len(child.children) != 0 || child.retained != nil {
			break
		}
		delete(parent.children, key)
	}
}

// Connection groups subscriptions under one owner so they can be torn down
// together.
type Connection struct {
	bus  *Bus
	mu   sync.Mutex
	subs []*Subscription
	id   string
}

func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

// NewMessage builds a message for Publish.
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.bus.addSubscription(topic, sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub.topic, sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions owned by this connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub.topic, sub)
		close(sub.ch)
	}
}
