package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hajzi/internal/domain/entity"
	"hajzi/internal/infrastructure/firebase"
	ws "hajzi/internal/infrastructure/websocket"
	"hajzi/pkg/errors"
)

type messageBody struct {
	ID             string `json:"_id"`
	Seq            int64  `json:"seq"`
	Content        string `json:"content"`
	MediaURL       string `json:"mediaUrl"`
	SenderEmail    string `json:"senderEmail"`
	SenderUsername string `json:"senderUsername"`
	Redacted       bool   `json:"redacted"`
}

func createChat(t *testing.T, s *testServer) entity.Chat {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/v1/chats", alice, map[string]string{"ownerEmail": shop})
	require.Contains(t, []int{http.StatusCreated, http.StatusOK}, rec.Code, rec.Body.String())

	var chat entity.Chat
	decode(t, env, &chat)
	return chat
}

func sendText(t *testing.T, s *testServer, chatID, from, to, content string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	return s.do(t, http.MethodPost, "/v1/chats/"+chatID+"/messages", from, map[string]string{
		"receiverEmail": to,
		"content":       content,
	})
}

func TestCreateChat(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/v1/chats", alice, map[string]string{"ownerEmail": shop})
	require.Equal(t, http.StatusCreated, rec.Code)
	var first entity.Chat
	decode(t, env, &first)
	assert.Equal(t, shop, first.Owner)
	require.Len(t, first.Users, 2)
	assert.Equal(t, "Alice", first.Users[0].Username)

	rec, env = s.do(t, http.MethodPost, "/v1/chats", alice, map[string]string{"ownerEmail": "Shop1@X.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	var again entity.Chat
	decode(t, env, &again)
	assert.Equal(t, first.ID, again.ID)

	rec, env = s.do(t, http.MethodPost, "/v1/chats", alice, map[string]string{"ownerEmail": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeValidation, errorCode(env))

	rec, env = s.do(t, http.MethodPost, "/v1/chats", alice, map[string]string{"ownerEmail": alice})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeValidation, errorCode(env))

	rec, env = s.do(t, http.MethodPost, "/v1/chats", "", map[string]string{"ownerEmail": shop})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errors.CodeUnauthorized, errorCode(env))
}

func TestGetUserChats(t *testing.T) {
	s := newTestServer(t)
	createChat(t, s)
	_, _ = s.do(t, http.MethodPost, "/v1/chats", alice, map[string]string{"ownerEmail": bob})

	rec, env := s.do(t, http.MethodGet, "/v1/chats", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var chats []entity.Chat
	decode(t, env, &chats)
	assert.Len(t, chats, 2)

	rec, env = s.do(t, http.MethodGet, "/v1/chats?page=2&limit=1", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items      []entity.Chat `json:"items"`
		Total      int64         `json:"total"`
		TotalPages int           `json:"totalPages"`
	}
	decode(t, env, &page)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.TotalPages)

	rec, env = s.do(t, http.MethodGet, "/v1/chats", shop, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, env, &chats)
	assert.Len(t, chats, 1)
}

func TestSendAndListMessages(t *testing.T) {
	s := newTestServer(t)
	chat := createChat(t, s)

	rec, env := sendText(t, s, chat.ID, alice, shop, "Is 9am free?")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sent messageBody
	decode(t, env, &sent)
	assert.Equal(t, "Alice", sent.SenderUsername)
	assert.Equal(t, int64(1), sent.Seq)

	rec, env = sendText(t, s, chat.ID, shop, alice, "Yes")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/v1/chats/"+chat.ID+"/messages", shop, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var messages []messageBody
	decode(t, env, &messages)
	require.Len(t, messages, 2)
	assert.Equal(t, "Is 9am free?", messages[0].Content)
	assert.Equal(t, "Yes", messages[1].Content)
	assert.Equal(t, "Shop One", messages[1].SenderUsername)

	rec, env = s.do(t, http.MethodGet, "/v1/chats/"+chat.ID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary entity.Chat
	decode(t, env, &summary)
	require.NotNil(t, summary.LastMessage)
	assert.Equal(t, "Yes", *summary.LastMessage)
}

func TestSendMessageRejections(t *testing.T) {
	s := newTestServer(t)
	chat := createChat(t, s)

	rec, env := sendText(t, s, chat.ID, alice, bob, "hi")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errors.CodeReceiverNotInChat, errorCode(env))

	rec, env = sendText(t, s, chat.ID, bob, shop, "hi")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errors.CodeForbidden, errorCode(env))

	rec, env = sendText(t, s, chat.ID, alice, shop, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeValidation, errorCode(env))

	rec, env = sendText(t, s, "missing", alice, shop, "hi")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.CodeNotFound, errorCode(env))

	rec, env = s.do(t, http.MethodGet, "/v1/chats/"+chat.ID+"/messages", bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errors.CodeForbidden, errorCode(env))
}

func TestRedactMessage(t *testing.T) {
	s := newTestServer(t)
	chat := createChat(t, s)

	_, env := sendText(t, s, chat.ID, alice, shop, "wrong slot")
	var sent messageBody
	decode(t, env, &sent)

	rec, env := s.do(t, http.MethodDelete, "/v1/messages/"+sent.ID, shop, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errors.CodeForbidden, errorCode(env))

	rec, env = s.do(t, http.MethodDelete, "/v1/messages/"+sent.ID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var redacted messageBody
	decode(t, env, &redacted)
	assert.Equal(t, sent.ID, redacted.ID)
	assert.Equal(t, "", redacted.Content)
	assert.True(t, redacted.Redacted)

	rec, _ = s.do(t, http.MethodDelete, "/v1/messages/unknown", alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkChatAsRead(t *testing.T) {
	s := newTestServer(t)
	chat := createChat(t, s)

	_, env := sendText(t, s, chat.ID, alice, shop, "ping")
	var sent messageBody
	decode(t, env, &sent)

	rec, env := s.do(t, http.MethodPut, "/v1/chats/"+chat.ID+"/read", shop, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		MessageIDs []string `json:"messageIds"`
	}
	decode(t, env, &result)
	assert.Equal(t, []string{sent.ID}, result.MessageIDs)

	rec, env = s.do(t, http.MethodPut, "/v1/chats/"+chat.ID+"/read", shop, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, env, &result)
	assert.Empty(t, result.MessageIDs)
}

func mediaRequest(t *testing.T, chatID, identity, receiver, filename string, data []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("receiverEmail", receiver))
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/chats/"+chatID+"/media", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+firebase.DevTokenPrefix+identity)
	return req
}

func TestSendMedia(t *testing.T) {
	s := newTestServer(t)
	chat := createChat(t, s)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	rec, env := s.serve(t, mediaRequest(t, chat.ID, alice, shop, "photo.png", png))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sent messageBody
	decode(t, env, &sent)
	assert.Equal(t, "https://blob.test/chat-media/"+chat.ID+"/image.png", sent.MediaURL)
	assert.Equal(t, "", sent.Content)

	rec, env = s.do(t, http.MethodGet, "/v1/chats/"+chat.ID, shop, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary entity.Chat
	decode(t, env, &summary)
	assert.Equal(t, entity.MediaPlaceholder, *summary.LastMessage)

	rec, env = s.serve(t, mediaRequest(t, chat.ID, alice, shop, "notes.txt", []byte("just text")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeValidation, errorCode(env))

	assert.Equal(t, 1, s.blobs.uploads)
}

func readFrame(t *testing.T, conn *gorillaws.Conn) ws.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var frame ws.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketReceivesRoomEvents(t *testing.T) {
	s := newTestServer(t)
	chat := createChat(t, s)

	server := httptest.NewServer(s.e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + url.QueryEscape(firebase.DevTokenPrefix+shop)
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ws.Frame{Event: ws.EventJoinChat, ChatID: chat.ID}))
	joined := readFrame(t, conn)
	assert.Equal(t, ws.EventJoined, joined.Event)
	assert.Equal(t, chat.ID, joined.ChatID)

	rec, _ := sendText(t, s, chat.ID, alice, shop, "over the socket")
	require.Equal(t, http.StatusCreated, rec.Code)

	received := readFrame(t, conn)
	assert.Equal(t, "receive_message", received.Event)
	assert.Contains(t, string(received.Data), "over the socket")

	// Sending over the socket reaches the room too, sender included.
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event":  ws.EventSendMessage,
		"chatId": chat.ID,
		"data":   map[string]string{"receiverEmail": alice, "content": "socket reply"},
	}))
	reply := readFrame(t, conn)
	assert.Equal(t, "receive_message", reply.Event)
	assert.Contains(t, string(reply.Data), "socket reply")
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errors.CodeUnauthorized, errorCode(env))
}
