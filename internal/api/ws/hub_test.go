package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/faceguard/internal/models"
)

func newTestClient(deviceID string) *Client {
	return &Client{send: make(chan []byte, 8), deviceID: deviceID}
}

func recv(t *testing.T, c *Client) *models.RecognitionMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg models.RecognitionMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	h := NewHub()
	go h.Run()

	c1 := newTestClient("")
	c2 := newTestClient("")
	h.register <- c1
	h.register <- c2

	h.BroadcastRecognition(&models.RecognitionMessage{
		DeviceID:      "cam1",
		ImageKey:      "images/cam1/a.jpg",
		FacesDetected: 1,
		Faces:         []models.RecognizedFace{{PersonName: "Alice", Status: models.StatusGreen}},
	})

	for _, c := range []*Client{c1, c2} {
		msg := recv(t, c)
		assert.Equal(t, "cam1", msg.DeviceID)
		require.Len(t, msg.Faces, 1)
		assert.Equal(t, "Alice", msg.Faces[0].PersonName)
	}
}

func TestHub_DeviceFilter(t *testing.T) {
	h := NewHub()
	go h.Run()

	all := newTestClient("")
	cam1 := newTestClient("cam1")
	cam2 := newTestClient("cam2")
	h.register <- all
	h.register <- cam1
	h.register <- cam2

	h.BroadcastRecognition(&models.RecognitionMessage{DeviceID: "cam1"})

	assert.Equal(t, "cam1", recv(t, all).DeviceID)
	assert.Equal(t, "cam1", recv(t, cam1).DeviceID)
	assertSilent(t, cam2)
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := newTestClient("")
	h.register <- c
	h.unregister <- c

	h.BroadcastRecognition(&models.RecognitionMessage{DeviceID: "cam1"})

	// The send channel is closed on unregister, so a zero read means
	// the client was removed before the broadcast.
	select {
	case data, ok := <-c.send:
		assert.False(t, ok, "expected closed channel, got message: %s", data)
	case <-time.After(50 * time.Millisecond):
		t.Fatal("send channel was not closed")
	}
}
