package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(hub *Hub, id string) *Client {
	return &Client{PlayerID: id, Send: make(chan OutgoingMessage, 1), Hub: hub}
}

func recv(t *testing.T, c *Client) OutgoingMessage {
	t.Helper()
	select {
	case m := <-c.Send:
		return m
	case <-time.After(time.Second):
		t.Fatalf("%s received nothing", c.PlayerID)
	}
	return OutgoingMessage{}
}

func TestHubBroadcastToPlayers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c1 := newClient(hub, "A")
	c2 := newClient(hub, "B")
	hub.register <- c1
	hub.register <- c2

	hub.BroadcastToPlayers([]string{"A", "B"}, OutgoingMessage{
		Event: "showdown",
		Data:  map[string]any{"session": "s1"},
	})

	assert.Equal(t, "showdown", recv(t, c1).Event)
	assert.Equal(t, "showdown", recv(t, c2).Event)
}

func TestHubSendToPlayer(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c1 := newClient(hub, "A")
	c2 := newClient(hub, "B")
	hub.register <- c1
	hub.register <- c2

	hub.SendToPlayer("A", OutgoingMessage{Event: "hand_dealt", Data: "hello A"})

	received := recv(t, c1)
	assert.Equal(t, "hand_dealt", received.Event)
	assert.Equal(t, "hello A", received.Data)

	// B 什么都收不到
	select {
	case <-c2.Send:
		assert.Fail(t, "B should NOT receive anything")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c := newClient(hub, "A")
	hub.register <- c
	require.Eventually(t, func() bool {
		_, ok := hub.ClientByPlayer("A")
		return ok
	}, time.Second, 5*time.Millisecond, "client should be registered")

	hub.unregister <- c
	require.Eventually(t, func() bool {
		_, ok := hub.ClientByPlayer("A")
		return !ok
	}, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
}

// ✅ 重连会顶掉旧连接，旧连接的注销不影响新连接
func TestHubReconnectReplacesClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	old := newClient(hub, "A")
	hub.register <- old
	fresh := newClient(hub, "A")
	hub.register <- fresh

	_, open := <-old.Send
	assert.False(t, open)

	hub.unregister <- old
	hub.SendToPlayer("A", OutgoingMessage{Event: "ping"})
	assert.Equal(t, "ping", recv(t, fresh).Event)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c := newClient(hub, "A")
	hub.register <- c

	hub.SendToPlayer("A", OutgoingMessage{Event: "first"})
	hub.SendToPlayer("A", OutgoingMessage{Event: "second"})

	assert.Equal(t, "first", recv(t, c).Event)
	select {
	case m := <-c.Send:
		assert.Fail(t, "unexpected message", m.Event)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubIncomingGoesToCallback(t *testing.T) {
	hub := NewHub()
	got := make(chan IncomingMessage, 1)
	hub.OnIncoming = func(m IncomingMessage) { got <- m }
	go hub.Run()
	defer hub.Close()

	hub.incoming <- IncomingMessage{From: "A", Event: "chat", Data: "hi"}
	select {
	case m := <-got:
		assert.Equal(t, "A", m.From)
	case <-time.After(time.Second):
		t.Fatal("callback not called")
	}
}

func TestHubRegisterAfterClose(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Close()

	done := make(chan bool, 1)
	go func() { done <- hub.Register(newClient(hub, "A")) }()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Register blocked on a closed hub")
	}
}
