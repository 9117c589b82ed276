package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"narrative-engine/internal/api"
	"narrative-engine/internal/commands"
	"narrative-engine/internal/mocks"
	"narrative-engine/internal/models"
	"narrative-engine/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type deps struct {
	world    *mocks.MockWorld
	creator  *mocks.MockSceneCreator
	executor *mocks.MockTurnExecutor
}

func newRouter(t *testing.T, opts api.Options) (*gin.Engine, deps) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	d := deps{
		world:    mocks.NewMockWorld(t),
		creator:  mocks.NewMockSceneCreator(t),
		executor: mocks.NewMockTurnExecutor(t),
	}
	newGame := func() *state.Game {
		return state.NewGame(d.world, d.creator, d.executor, "a quiet village", nil)
	}
	h := api.NewHandler(d.world, newGame, zap.NewNop())
	return api.NewRouter(h, opts, zap.NewNop()), d
}

func do(router http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

var square = models.Stage{
	ID:  "scenes/__root_scene__",
	Key: models.RootSceneKey,
	Scene: models.Scene{
		Key:         models.RootSceneKey,
		Name:        "Village Square",
		Description: "Muddy.",
		Exits:       []models.Exit{{Name: "Mill", Direction: "east", SceneKey: "mill"}},
	},
}

func TestHealth(t *testing.T) {
	router, _ := newRouter(t, api.Options{})
	rec := do(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGetStage(t *testing.T) {
	router, d := newRouter(t, api.Options{})
	d.world.On("LoadStage", mock.Anything, models.RootSceneKey).Return(models.StageOrStub{Stage: &square}, nil).Once()
	d.world.On("LoadStage", mock.Anything, "mill").
		Return(models.StageOrStub{Stub: &models.SceneStub{Key: "mill", Name: "Mill", IsStub: true}}, nil).Once()
	d.world.On("LoadStage", mock.Anything, "nowhere").Return(models.StageOrStub{}, models.ErrStageNotFound).Once()

	rec := do(router, http.MethodGet, "/api/v1/stages/"+models.RootSceneKey, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Stage *models.Stage     `json:"stage"`
		Stub  *models.SceneStub `json:"stub"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Stage)
	assert.Equal(t, "Village Square", body.Stage.Scene.Name)
	assert.Nil(t, body.Stub)

	rec = do(router, http.MethodGet, "/api/v1/stages/mill", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stub":{"key":"mill"`)

	rec = do(router, http.MethodGet, "/api/v1/stages/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message": "stage: resource not found"}`, rec.Body.String())
}

func TestExecuteCommand(t *testing.T) {
	router, d := newRouter(t, api.Options{})
	d.world.On("LoadStage", mock.Anything, models.RootSceneKey).Return(models.StageOrStub{Stage: &square}, nil)
	d.executor.On("Execute", mock.Anything, square, "wave").Return(commands.Result{
		Execution: models.CommandExecution{
			Valid:     true,
			Narration: "You wave.",
			Events:    []models.CommandEvent{models.Narration{Text: "Nobody waves back."}},
		},
	}, nil).Once()
	d.executor.On("Execute", mock.Anything, square, "fly").Return(commands.Result{}, commands.ErrExecutionFailed).Once()

	rec := do(router, http.MethodPost, "/api/v1/commands", `{"scene_key": "__root_scene__", "input": "wave"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Turn   state.Turn `json:"turn"`
		Events []string   `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"You wave.", "Nobody waves back."}, body.Turn.Lines)
	assert.Len(t, body.Events, 1)

	rec = do(router, http.MethodPost, "/api/v1/commands", `{"scene_key": "__root_scene__", "input": "fly"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(router, http.MethodPost, "/api/v1/commands", `{"scene_key": "__root_scene__", "input": "   "}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/api/v1/commands", `{"input": "wave"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGrammars(t *testing.T) {
	router, _ := newRouter(t, api.Options{})

	rec := do(router, http.MethodGet, "/api/v1/grammars", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "RawCommandExecution")

	rec = do(router, http.MethodGet, "/api/v1/grammars/Commands", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "root ::= Commands\n"))

	rec = do(router, http.MethodGet, "/api/v1/grammars/Nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func signToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestJWTAuth(t *testing.T) {
	router, _ := newRouter(t, api.Options{JWTSecret: testSecret})
	bearer := func(token string) http.Header {
		return http.Header{"Authorization": {"Bearer " + token}}
	}

	tests := []struct {
		name   string
		header http.Header
		path   string
		want   int
	}{
		{name: "missing", path: "/api/v1/grammars", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: http.Header{"Authorization": {"Basic abc"}}, path: "/api/v1/grammars", want: http.StatusUnauthorized},
		{name: "expired", header: bearer(signToken(t, "p1", -time.Minute)), path: "/api/v1/grammars", want: http.StatusUnauthorized},
		{name: "no subject", header: bearer(signToken(t, "", time.Minute)), path: "/api/v1/grammars", want: http.StatusUnauthorized},
		{name: "valid", header: bearer(signToken(t, "p1", time.Minute)), path: "/api/v1/grammars", want: http.StatusOK},
		{name: "query token", path: "/api/v1/grammars?token=" + signToken(t, "p1", time.Minute), want: http.StatusOK},
		{name: "health is public", path: "/health", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, http.MethodGet, tt.path, "", tt.header)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestPlayWebSocket(t *testing.T) {
	router, d := newRouter(t, api.Options{})
	d.world.On("LoadStage", mock.Anything, models.RootSceneKey).Return(models.StageOrStub{Stage: &square}, nil).Once()
	d.executor.On("Execute", mock.Anything, square, "look").Return(commands.Result{
		Builtin:   commands.LookAtScene,
		Execution: models.EmptyExecution(),
	}, nil).Once()

	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/play"
	conn, _, err := websocket.DefaultDialer.DialContext(context.Background(), url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg struct {
		Type  string        `json:"type"`
		Stage *models.Stage `json:"stage"`
		Turn  *state.Turn   `json:"turn"`
		Error string        `json:"error"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "stage", msg.Type)
	require.NotNil(t, msg.Stage)
	assert.Equal(t, models.RootSceneKey, msg.Stage.Key)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("look")))
	msg.Stage = nil
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "turn", msg.Type)
	require.NotNil(t, msg.Turn)
	assert.Equal(t, []string{square.Display()}, msg.Turn.Lines)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("  ")))
	msg.Turn = nil
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, models.ErrEmptyCommand.Error(), msg.Error)
}
