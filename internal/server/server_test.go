package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mid "github.com/OFFIS-RIT/annograph/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/annograph/backend/internal/session"
	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	masterKey  = "master-key"
	jwtSecret  = "secret"
	testUserID = "u1"
)

type streamClient struct{}

func (streamClient) GenerateCompletion(ctx context.Context, prompts []ai.Prompt, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (streamClient) GenerateCompletionWithFormat(ctx context.Context, name, description string, prompts []ai.Prompt, out any, opts ...ai.GenerateOption) error {
	return nil
}

func (streamClient) GenerateStream(ctx context.Context, prompts []ai.Prompt, opts ...ai.GenerateOption) (<-chan ai.StreamEvent, error) {
	deltas := []string{"[Cats ($N1)] ", "[chase ($H, $N1, $N2)] ", "[mice ($N2)]."}
	ch := make(chan ai.StreamEvent, len(deltas))
	for _, d := range deltas {
		ch <- ai.StreamEvent{Type: ai.StreamEventContent, Content: d}
	}
	close(ch)
	return ch, nil
}

func (streamClient) ResetMetrics() {}

func (streamClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func newTestServer(t *testing.T) (*echo.Echo, *mid.App) {
	t.Helper()
	s := memory.New()
	app := &mid.App{
		Sessions: session.NewManager(context.Background(), session.Config{
			Store:     s,
			Autosaver: store.NewAutosaver(s, time.Hour),
			Client:    streamClient{},
		}),
		Keyfunc: func(*jwt.Token) (any, error) {
			return []byte(jwtSecret), nil
		},
		MasterAPIKey: masterKey,
		MasterUserID: testUserID,
	}
	return New(app), app
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+masterKey)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// createChat asks a question and waits until it is answered.
func createChat(t *testing.T, e *echo.Echo, app *mid.App) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/chats", `{"question":"What do cats do?"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	qa := decode[common.QuestionAndAnswer](t, rec)

	sess, err := app.Sessions.Get(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	sess.Orchestrator().Wait()
	return qa.ID
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	e, _ := newTestServer(t)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u2"}).SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u2"}).SignedString([]byte("other"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "master key", header: "Bearer " + masterKey, want: http.StatusOK},
		{name: "valid jwt", header: "Bearer " + signed, want: http.StatusOK},
		{name: "wrong signature", header: "Bearer " + forged, want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestChatLifecycle(t *testing.T) {
	e, app := newTestServer(t)
	id := createChat(t, e, app)

	rec := do(e, http.MethodGet, "/api/chats/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	qa := decode[common.QuestionAndAnswer](t, rec)
	if len(qa.AnswerObjects) != 1 || qa.Answer != "[Cats ($N1)] [chase ($H, $N1, $N2)] [mice ($N2)]." {
		t.Fatalf("qa = %+v", qa)
	}

	rec = do(e, http.MethodGet, "/api/chats", "")
	if list := decode[[]map[string]any](t, rec); len(list) != 1 || list[0]["id"] != id {
		t.Fatalf("list = %v", list)
	}

	rec = do(e, http.MethodPatch, "/api/chats/"+id, `{"saliency_filter":"medium"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid patch status = %d", rec.Code)
	}
	rec = do(e, http.MethodPatch, "/api/chats/"+id, `{"saliency_filter":"high"}`)
	if got := decode[common.QuestionAndAnswer](t, rec); got.Synced.SaliencyFilter != common.SaliencyHigh {
		t.Fatalf("saliency = %q", got.Synced.SaliencyFilter)
	}

	if rec := do(e, http.MethodDelete, "/api/chats/"+id, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/chats/"+id, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func TestModelErrorBlocksExpansions(t *testing.T) {
	e, app := newTestServer(t)
	id := createChat(t, e, app)

	sess, _ := app.Sessions.Get(context.Background(), testUserID)
	sess.Repository().UpdateByID(id, func(qa *common.QuestionAndAnswer) {
		qa.ModelStatus.ModelError = true
	})

	if rec := do(e, http.MethodPost, "/api/chats/"+id+"/paragraphs", ""); rec.Code != http.StatusConflict {
		t.Fatalf("paragraph with model error status = %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/api/chats/"+id+"/error", ""); rec.Code != http.StatusOK {
		t.Fatalf("clear error status = %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/chats/"+id+"/paragraphs", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("paragraph status = %d", rec.Code)
	}
	sess.Orchestrator().Wait()

	qa, _ := sess.Repository().Get(id)
	if len(qa.AnswerObjects) != 2 {
		t.Fatalf("answer objects = %d, want 2", len(qa.AnswerObjects))
	}
}

func TestNodeOperations(t *testing.T) {
	e, app := newTestServer(t)
	id := createChat(t, e, app)

	sess, _ := app.Sessions.Get(context.Background(), testUserID)
	qa, _ := sess.Repository().Get(id)
	objectID := qa.AnswerObjects[0].ID
	base := "/api/chats/" + id + "/objects/" + objectID

	rec := do(e, http.MethodPost, base+"/nodes/$N1/coreferences", "")
	if ranges := decode[[]common.OriginRange](t, rec); len(ranges) != 1 || ranges[0] != (common.OriginRange{Start: 0, End: 11}) {
		t.Fatalf("coreferences = %+v", ranges)
	}

	rec = do(e, http.MethodGet, base+"/segments", "")
	segments := decode[[]map[string]any](t, rec)
	if len(segments) != 2 || segments[0]["highlighted"] != true {
		t.Fatalf("segments = %v", segments)
	}

	rec = do(e, http.MethodPost, base+"/nodes/$N1/merge", `{"into":"$N2"}`)
	merged := decode[struct {
		Merged bool `json:"merged"`
	}](t, rec)
	if !merged.Merged {
		t.Fatalf("merge body = %s", rec.Body.String())
	}

	if rec := do(e, http.MethodDelete, base+"/nodes/$N2?target=bogus", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad target status = %d", rec.Code)
	}
	rec = do(e, http.MethodDelete, base+"/nodes/$N2", "")
	if got := decode[common.QuestionAndAnswer](t, rec); len(got.AnswerObjects[0].OriginText.NodeEntities) != 0 {
		t.Fatalf("nodes after remove = %+v", got.AnswerObjects[0].OriginText.NodeEntities)
	}

	rec = do(e, http.MethodPatch, base, `{"list_display":"summary","hidden":true}`)
	got := decode[common.QuestionAndAnswer](t, rec)
	if got.AnswerObjects[0].Synced.ListDisplay != common.ListDisplaySummary || len(got.Synced.AnswerObjectIDsHidden) != 1 {
		t.Fatalf("patched = %+v", got)
	}
	if rec := do(e, http.MethodPatch, base, `{"list_display":"table"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid list display status = %d", rec.Code)
	}
}

func TestGraphRoutes(t *testing.T) {
	e, app := newTestServer(t)
	id := createChat(t, e, app)

	rec := do(e, http.MethodGet, "/api/chats/"+id+"/graph", "")
	graph := decode[session.GraphEvent](t, rec)
	if len(graph.Graph.Nodes) != 2 || len(graph.Graph.Edges) != 1 {
		t.Fatalf("graph = %+v", graph.Graph)
	}

	rec = do(e, http.MethodPatch, "/api/chats/"+id+"/graph/nodes/$N1", `{"position":{"x":500,"y":500}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d", rec.Code)
	}
	if rec := do(e, http.MethodPatch, "/api/chats/"+id+"/graph/nodes/missing", `{"selected":true}`); rec.Code != http.StatusNotFound {
		t.Fatalf("move missing status = %d", rec.Code)
	}
	if rec := do(e, http.MethodPut, "/api/chats/"+id+"/graph/viewport", `{"x":1,"y":2,"zoom":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero zoom status = %d", rec.Code)
	}

	rec = do(e, http.MethodPost, "/api/chats/"+id+"/graph/undo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("undo status = %d", rec.Code)
	}
	undone := decode[struct {
		Transition struct {
			DurationMs int64 `json:"duration_ms"`
		} `json:"transition"`
	}](t, rec)
	if undone.Transition.DurationMs != 500 {
		t.Fatalf("transition = %+v", undone.Transition)
	}

	if rec := do(e, http.MethodPost, "/api/chats/"+id+"/graph/redo", ""); rec.Code != http.StatusOK {
		t.Fatalf("redo status = %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/chats/"+id+"/graph/redo", ""); rec.Code != http.StatusConflict {
		t.Fatalf("second redo status = %d", rec.Code)
	}
}

func TestEventsSnapshot(t *testing.T) {
	e, app := newTestServer(t)
	id := createChat(t, e, app)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events?access_token="+masterKey, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	body := rec.Body.String()
	if rec.Header().Get(echo.HeaderContentType) != "text/event-stream" {
		t.Fatalf("content type = %q", rec.Header().Get(echo.HeaderContentType))
	}
	if !strings.Contains(body, "event: chat\n") || !strings.Contains(body, "event: graph\n") || !strings.Contains(body, id) {
		t.Fatalf("events = %q", body)
	}
}
