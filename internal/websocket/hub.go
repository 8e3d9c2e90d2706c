package websocket

import (
	"sync"

	"github.com/charmbracelet/log"

	"DrawPoker/internal/utils"
)

type HubInterface interface {
	BroadcastToPlayers(ids []string, msg OutgoingMessage)
	ClientByPlayer(id string) (*Client, bool)
	SendToPlayer(id string, msg OutgoingMessage)
	Close()
}

type Hub struct {
	clients    map[string]*Client // playerID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastReq
	sendOne    chan sendReq
	incoming   chan IncomingMessage
	OnIncoming func(IncomingMessage)
	quit       chan struct{}
	mu         sync.RWMutex
	logger     *log.Logger
}

type broadcastReq struct {
	PlayerIDs []string
	Message   OutgoingMessage
}

type sendReq struct {
	PlayerID string
	Message  OutgoingMessage
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastReq),
		sendOne:    make(chan sendReq),
		incoming:   make(chan IncomingMessage),
		quit:       make(chan struct{}),
		logger:     utils.Logger("hub"),
	}
}

func (h *Hub) Run() {
	h.logger.Info("Hub started")

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			// 同一玩家重连：顶掉旧连接
			if old, ok := h.clients[c.PlayerID]; ok && old != c {
				close(old.Send)
			}
			h.clients[c.PlayerID] = c
			h.logger.Info("register", "player", c.PlayerID, "clients", len(h.clients))
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[c.PlayerID]; ok && cur == c {
				delete(h.clients, c.PlayerID)
				close(c.Send)
				h.logger.Info("unregister", "player", c.PlayerID, "clients", len(h.clients))
			}
			h.mu.Unlock()

		case req := <-h.broadcast:
			h.mu.RLock()
			for _, id := range req.PlayerIDs {
				if client, ok := h.clients[id]; ok {
					h.deliver(client, req.Message)
				}
			}
			h.mu.RUnlock()

		case req := <-h.sendOne:
			h.mu.RLock()
			if client, ok := h.clients[req.PlayerID]; ok {
				h.deliver(client, req.Message)
			}
			h.mu.RUnlock()

		case req := <-h.incoming:
			// 玩家消息统一转发给游戏层（Bridge）
			if h.OnIncoming != nil {
				h.OnIncoming(req)
			}

		case <-h.quit:
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register hands c to the hub loop. It reports false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// 慢客户端直接丢消息，不阻塞 Hub
func (h *Hub) deliver(c *Client, msg OutgoingMessage) {
	select {
	case c.Send <- msg:
	default:
		h.logger.Warn("send buffer full, dropping", "player", c.PlayerID, "event", msg.Event)
	}
}

// Broadcast to multiple players
func (h *Hub) BroadcastToPlayers(ids []string, msg OutgoingMessage) {
	select {
	case h.broadcast <- broadcastReq{PlayerIDs: ids, Message: msg}:
	case <-h.quit:
	}
}

// Send to a single player (safe concurrent)
func (h *Hub) SendToPlayer(id string, msg OutgoingMessage) {
	select {
	case h.sendOne <- sendReq{PlayerID: id, Message: msg}:
	case <-h.quit:
	}
}

// Lookup for a player client by id
func (h *Hub) ClientByPlayer(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

func (h *Hub) Close() {
	close(h.quit)
}
