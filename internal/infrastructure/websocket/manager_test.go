package websocket

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hajzi/pkg/errors"
)

type stubHandler struct {
	allowed map[string]bool
	sent    []SendMessageData
}

func (h *stubHandler) AuthorizeJoin(ctx context.Context, identity, chatID string) error {
	if !h.allowed[identity+"/"+chatID] {
		return errors.Forbidden("User is not a participant in this chat", nil)
	}
	return nil
}

func (h *stubHandler) SendMessage(ctx context.Context, identity string, data SendMessageData) error {
	if data.Content == "" && data.MediaURL == "" {
		return errors.Validation("content is required", nil)
	}
	h.sent = append(h.sent, data)
	return nil
}

func nextFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.Send:
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	default:
		t.Fatalf("no frame queued for %s", c.Identity)
		return Frame{}
	}
}

func TestPublishReachesOnlyRoomMembers(t *testing.T) {
	m := NewManager(10)
	alice := NewClient(nil, "alice@x.com", 10)
	bob := NewClient(nil, "bob@x.com", 10)
	m.Register(alice)
	m.Register(bob)

	m.Join(alice, "chat-1")
	m.Join(bob, "chat-2")

	require.NoError(t, m.Publish(context.Background(), "chat-1", "receive_message", map[string]string{"content": "hi"}))

	f := nextFrame(t, alice)
	assert.Equal(t, "receive_message", f.Event)
	assert.Equal(t, "chat-1", f.ChatID)
	assert.JSONEq(t, `{"content":"hi"}`, string(f.Data))
	assert.Len(t, bob.Send, 0)
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	m := NewManager(10)
	c := NewClient(nil, "alice@x.com", 10)
	m.Register(c)
	m.Join(c, "chat-1")
	m.Join(c, "chat-2")

	m.Unregister(c)

	assert.Equal(t, 0, m.RoomSize("chat-1"))
	assert.Equal(t, 0, m.RoomSize("chat-2"))
	assert.Equal(t, 0, m.ClientCount())
	assert.Equal(t, 0, m.BroadcastLocal("chat-1", []byte(`{}`)))
}

func TestSlowClientIsDropped(t *testing.T) {
	m := NewManager(10)
	c := NewClient(nil, "alice@x.com", 10)
	m.Register(c)
	m.Join(c, "chat-1")

	for i := 0; i < sendBufferSize; i++ {
		require.Equal(t, 1, m.BroadcastLocal("chat-1", []byte(`{}`)))
	}

	assert.Equal(t, 0, m.BroadcastLocal("chat-1", []byte(`{}`)))
	assert.Equal(t, 0, m.RoomSize("chat-1"))
}

func TestJoinRequiresAuthorization(t *testing.T) {
	m := NewManager(10)
	m.SetHandler(&stubHandler{allowed: map[string]bool{"alice@x.com/chat-1": true}})

	alice := NewClient(nil, "alice@x.com", 10)
	mallory := NewClient(nil, "mallory@x.com", 10)
	m.Register(alice)
	m.Register(mallory)

	m.HandleClientMessage(context.Background(), alice, []byte(`{"event":"join_chat","chatId":"chat-1"}`))
	m.HandleClientMessage(context.Background(), mallory, []byte(`{"event":"join_chat","chatId":"chat-1"}`))

	assert.Equal(t, EventJoined, nextFrame(t, alice).Event)

	f := nextFrame(t, mallory)
	assert.Equal(t, EventError, f.Event)
	var data ErrorData
	require.NoError(t, json.Unmarshal(f.Data, &data))
	assert.Equal(t, errors.CodeForbidden, data.Code)

	assert.Equal(t, 1, m.RoomSize("chat-1"))
}

func TestSendMessageFrame(t *testing.T) {
	h := &stubHandler{}
	m := NewManager(10)
	m.SetHandler(h)
	c := NewClient(nil, "alice@x.com", 10)
	m.Register(c)

	m.HandleClientMessage(context.Background(), c,
		[]byte(`{"event":"send_message","chatId":"chat-1","data":{"receiverEmail":"bob@x.com","content":"hello"}}`))

	require.Len(t, h.sent, 1)
	assert.Equal(t, "chat-1", h.sent[0].ChatID)
	assert.Equal(t, "hello", h.sent[0].Content)
	assert.Len(t, c.Send, 0)

	m.HandleClientMessage(context.Background(), c,
		[]byte(`{"event":"send_message","chatId":"chat-1","data":{"receiverEmail":"bob@x.com"}}`))
	f := nextFrame(t, c)
	assert.Equal(t, EventError, f.Event)
}

func TestPingAndMalformedFrames(t *testing.T) {
	m := NewManager(10)
	c := NewClient(nil, "alice@x.com", 10)
	m.Register(c)

	m.HandleClientMessage(context.Background(), c, []byte(`{"event":"ping"}`))
	assert.Equal(t, EventPong, nextFrame(t, c).Event)

	m.HandleClientMessage(context.Background(), c, []byte(`not json`))
	f := nextFrame(t, c)
	assert.Equal(t, EventError, f.Event)

	var data ErrorData
	require.NoError(t, json.Unmarshal(f.Data, &data))
	assert.Equal(t, errors.CodeValidation, data.Code)
}

func TestInboundFramesAreRateLimited(t *testing.T) {
	m := NewManager(2)
	c := NewClient(nil, "alice@x.com", 2)
	m.Register(c)

	for i := 0; i < 3; i++ {
		m.HandleClientMessage(context.Background(), c, []byte(`{"event":"ping"}`))
	}

	assert.Equal(t, EventPong, nextFrame(t, c).Event)
	assert.Equal(t, EventPong, nextFrame(t, c).Event)

	f := nextFrame(t, c)
	var data ErrorData
	require.NoError(t, json.Unmarshal(f.Data, &data))
	assert.Equal(t, errors.CodeTooManyRequests, data.Code)
}
