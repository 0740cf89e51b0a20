package hub

import (
	"encoding/json"
	"testing"
	"time"
)

func testClient(h *Hub) *Client {
	c := &Client{id: "test", hub: h, send: make(chan Message, 4)}
	h.register <- c
	return c
}

func recvMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return Message{}
	}
}

func TestHub_BroadcastFanOut(t *testing.T) {
	h := New("gaze")
	go h.Run()

	a := testClient(h)
	b := testClient(h)

	waitForClients(t, h, 2)

	h.BroadcastBinary([]byte{0x01, 0x02})

	for _, c := range []*Client{a, b} {
		msg := recvMessage(t, c)
		if msg.Type != BinaryMessage || len(msg.Data) != 2 {
			t.Errorf("client got %+v", msg)
		}
	}
}

func TestHub_BroadcastJSON(t *testing.T) {
	h := New("gaze")
	go h.Run()

	c := testClient(h)
	waitForClients(t, h, 1)

	if err := h.BroadcastJSON(map[string]float64{"x": 960, "y": 540}); err != nil {
		t.Fatal(err)
	}

	msg := recvMessage(t, c)
	if msg.Type != JSONMessage {
		t.Fatalf("expected JSON message, got %v", msg.Type)
	}
	var decoded map[string]float64
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("broadcast payload not JSON: %v", err)
	}
	if decoded["x"] != 960 {
		t.Errorf("payload = %v", decoded)
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := New("gaze")
	go h.Run()

	c := testClient(h)
	waitForClients(t, h, 1)

	h.unregister <- c
	waitForClients(t, h, 0)

	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want %d", h.ClientCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}
