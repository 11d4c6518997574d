package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"hajzi/internal/adapter/api"
	"hajzi/internal/adapter/api/handler"
	"hajzi/internal/adapter/api/middleware"
	"hajzi/internal/adapter/api/router"
	"hajzi/internal/adapter/repository"
	"hajzi/internal/domain/entity"
	"hajzi/internal/infrastructure/firebase"
	"hajzi/internal/infrastructure/identity"
	"hajzi/internal/infrastructure/ratelimit"
	ws "hajzi/internal/infrastructure/websocket"
	"hajzi/internal/usecase"
	"hajzi/pkg/config"
)

const (
	alice = "alice@x.com"
	shop  = "shop1@x.com"
	bob   = "bob@x.com"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type memoryBlobs struct{ uploads int }

func (b *memoryBlobs) UploadFile(ctx context.Context, file io.Reader, fileType, folder string, isPublic bool) (string, error) {
	b.uploads++
	return "https://blob.test/" + folder + "/image.png", nil
}

func (b *memoryBlobs) DeleteFile(ctx context.Context, fileURL string) error { return nil }
func (b *memoryBlobs) Close() error                                        { return nil }

type testServer struct {
	e       *echo.Echo
	manager *ws.Manager
	blobs   *memoryBlobs
}

// newTestServer wires the full route table over the in-memory store with
// development tokens, the same way cmd/api does with STORE_DRIVER=memory.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := repository.NewMemoryUserRepository(
		&entity.User{Email: alice, Username: "Alice"},
		&entity.User{Email: shop, Username: "Shop One"},
		&entity.User{Email: bob, Username: "Bob"},
	)
	directory := identity.NewDirectory(users, identity.Settings{})
	manager := ws.NewManager(50)
	blobs := &memoryBlobs{}

	chatUseCase := usecase.NewChatUseCase(repository.NewMemoryChatRepository(), directory, manager, blobs, 1024*1024)
	slotUseCase := usecase.NewSlotUseCase(repository.NewMemoryAppointmentRepository())
	authMiddleware := middleware.NewAuthMiddleware(firebase.DevTokenVerifier{})

	e := echo.New()
	e.Validator = api.NewValidator()
	router.Setup(e, router.Handlers{
		Chat:      handler.NewChatHandler(chatUseCase, 1024*1024),
		Slot:      handler.NewSlotHandler(slotUseCase),
		WebSocket: handler.NewWebSocketHandler(manager, authMiddleware, chatUseCase, nil),
		Health:    handler.NewHealthHandler(manager, config.StoreDriverMemory),
		DevToken:  handler.NewDevTokenHandler(users),
	}, authMiddleware, middleware.RateLimit(ratelimit.NewRateLimiter(1000, 1000)))

	return &testServer{e: e, manager: manager, blobs: blobs}
}

func (s *testServer) do(t *testing.T, method, path, identity string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if identity != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+firebase.DevTokenPrefix+identity)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}
