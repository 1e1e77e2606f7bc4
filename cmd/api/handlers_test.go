package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/uboh-app/uboh-server/internal/apperr"
	"github.com/uboh-app/uboh-server/internal/auth"
	"github.com/uboh-app/uboh-server/internal/config"
	"github.com/uboh-app/uboh-server/internal/data"
	"github.com/uboh-app/uboh-server/internal/middleware"
)

// fakeVerifier accepts exactly one token value.
type fakeVerifier struct{}

func (f *fakeVerifier) VerifyToken(token string) (*auth.Claims, error) {
	if token == "good-token" {
		return &auth.Claims{UserID: "u1", Email: "caller@example.com"}, nil
	}
	return nil, errors.New("invalid token")
}

type fakeMsgs struct {
	got data.MessageInput
	err error
}

func (f *fakeMsgs) Create(ctx context.Context, in data.MessageInput) (*data.Message, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &data.Message{ID: data.MessageKey(in.Email, data.Stamp(time.Now()))}, nil
}

type fakeLogs struct {
	got map[string]any
	err error
}

func (f *fakeLogs) Create(ctx context.Context, fields map[string]any) (string, error) {
	f.got = fields
	return "key", f.err
}

type fakeAdvice struct {
	unprocessed []map[string]any
	list        []map[string]any
	likes       float64
	err         error

	gotBatch []map[string]any
	gotID    string
	gotDelta float64
}

func (f *fakeAdvice) AddBatch(ctx context.Context, candidates []map[string]any) ([]map[string]any, error) {
	f.gotBatch = candidates
	return f.unprocessed, f.err
}

func (f *fakeAdvice) ListAll(ctx context.Context) ([]map[string]any, error) {
	return f.list, f.err
}

func (f *fakeAdvice) IncrementLikes(ctx context.Context, id string, delta float64) (float64, error) {
	f.gotID, f.gotDelta = id, delta
	return f.likes, f.err
}

type fakeUsers struct {
	res data.UpsertResult
	err error
}

func (f *fakeUsers) Upsert(ctx context.Context, email, phone string) (data.UpsertResult, error) {
	return f.res, f.err
}

type fakeScores struct{ err error }

func (f *fakeScores) Create(ctx context.Context, in data.ScoreInput) (*data.Score, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &data.Score{Name: in.Name}, nil
}

type fakeSMS struct {
	gotTo, gotFrom, gotBody string
	err                     error
}

func (f *fakeSMS) Send(ctx context.Context, to, from, body string) (string, error) {
	f.gotTo, f.gotFrom, f.gotBody = to, from, body
	return "SM1", f.err
}

type fixtures struct {
	srv    *Server
	msgs   *fakeMsgs
	logs   *fakeLogs
	advice *fakeAdvice
	users  *fakeUsers
	scores *fakeScores
	sms    *fakeSMS
}

func newTestServer(t *testing.T) *fixtures {
	t.Helper()

	f := &fixtures{
		msgs:   &fakeMsgs{},
		logs:   &fakeLogs{},
		advice: &fakeAdvice{},
		users:  &fakeUsers{},
		scores: &fakeScores{},
		sms:    &fakeSMS{},
	}
	cfg := &config.Config{
		SMSSourceNumber:   "+15550001111",
		SMSPersonalNumber: "+15552223333",
		RateLimitRPM:      10,
	}
	limiter := middleware.NewLimiterStore(10, 3, time.Minute)
	t.Cleanup(limiter.Stop)

	f.srv = newServer(cfg, &fakeVerifier{}, limiter, zerolog.Nop(),
		f.msgs, f.logs, f.advice, f.users, f.scores, f.sms)
	return f
}

type envelope struct {
	Code              int              `json:"code"`
	Message           json.RawMessage  `json:"message"`
	UnprocessedAdvice []map[string]any `json:"unprocessedAdvice"`
}

// do posts a body through HandleUboh and decodes the envelope.
func do(t *testing.T, srv *Server, method, token, body string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, "/uboh", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.HandleUboh(w, req)

	var env envelope
	if err := json.NewDecoder(w.Result().Body).Decode(&env); err != nil {
		t.Fatalf("response is not a JSON envelope: %v", err)
	}
	return w.Result().StatusCode, env
}

func messageString(t *testing.T, env envelope) string {
	t.Helper()
	var s string
	if err := json.Unmarshal(env.Message, &s); err != nil {
		t.Fatalf("envelope message is not a string: %s", env.Message)
	}
	return s
}

func TestHandleUboh_RejectsNonPOST(t *testing.T) {
	f := newTestServer(t)

	_, env := do(t, f.srv, http.MethodGet, "good-token", `{"action":"addMessage"}`)
	if env.Code != 400 || messageString(t, env) != "Invalid request" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestHandleUboh_MissingBearerHeader(t *testing.T) {
	f := newTestServer(t)

	status, env := do(t, f.srv, http.MethodPost, "", `{"action":"addMessage","payload":{}}`)
	if status != http.StatusBadRequest {
		t.Fatalf("unauthorized path must set HTTP 400, got %d", status)
	}
	if env.Code != 400 || messageString(t, env) != "Unauthorized access" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestHandleUboh_RejectedToken(t *testing.T) {
	f := newTestServer(t)

	status, env := do(t, f.srv, http.MethodPost, "bad-token", `{"action":"addMessage","payload":{}}`)
	if status != http.StatusBadRequest || messageString(t, env) != "Unauthorized access" {
		t.Fatalf("unexpected response: status=%d env=%+v", status, env)
	}
}

func TestHandleUboh_UnknownAction(t *testing.T) {
	f := newTestServer(t)

	status, env := do(t, f.srv, http.MethodPost, "good-token", `{"action":"dropTables"}`)
	if status != http.StatusOK {
		t.Fatalf("non-auth failures keep HTTP 200, got %d", status)
	}
	if env.Code != 400 || messageString(t, env) != "Invalid request" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestHandleUboh_MalformedBody(t *testing.T) {
	f := newTestServer(t)

	_, env := do(t, f.srv, http.MethodPost, "good-token", `{not json`)
	if env.Code != 400 || messageString(t, env) != "Invalid request" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAddMessage(t *testing.T) {
	f := newTestServer(t)

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"addMessage","payload":{"email":"a@b.com","type":"contact","message":"hi"}}`)
	if env.Code != 200 || messageString(t, env) != "Message added" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if f.msgs.got.Email != "a@b.com" || f.msgs.got.Type != "contact" || f.msgs.got.Message != "hi" {
		t.Fatalf("store received wrong input: %+v", f.msgs.got)
	}
}

func TestAddMessage_ValidationError(t *testing.T) {
	f := newTestServer(t)
	f.msgs.err = apperr.Validationf("Invalid message object")

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"addMessage","payload":{"email":"a@b.com"}}`)
	if env.Code != 400 || messageString(t, env) != "Invalid message object" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAddMessage_InternalErrorIsGeneric(t *testing.T) {
	f := newTestServer(t)
	f.msgs.err = apperr.Internal(errors.New("dial tcp: connection refused"))

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"addMessage","payload":{"email":"a@b.com","type":"t","message":"m"}}`)
	if env.Code != 500 {
		t.Fatalf("expected code 500, got %+v", env)
	}
	if msg := messageString(t, env); strings.Contains(msg, "refused") {
		t.Fatalf("internal detail leaked into envelope: %q", msg)
	}
}

func TestAddLog(t *testing.T) {
	f := newTestServer(t)

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"addLog","payload":{"message":"deployed","version":"1.2.3"}}`)
	if env.Code != 200 || messageString(t, env) != "Log added" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if f.logs.got["version"] != "1.2.3" {
		t.Fatalf("extra log fields not forwarded: %+v", f.logs.got)
	}
}

func TestAddAdvice_ReportsUnprocessed(t *testing.T) {
	f := newTestServer(t)
	f.advice.unprocessed = []map[string]any{
		{"likes": "bad", "advice": "x", "validationResult": []string{
			"likes should be number", "author should be string", "category should be string",
		}},
	}

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"addAdvice","payload":[{"likes":1,"advice":"x","author":"y","category":"z"},{"likes":"bad","advice":"x"}]}`)
	if env.Code != 200 || messageString(t, env) != "added advice" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if len(env.UnprocessedAdvice) != 1 {
		t.Fatalf("expected 1 unprocessed item, got %+v", env.UnprocessedAdvice)
	}
	if len(f.advice.gotBatch) != 2 {
		t.Fatalf("store should receive both candidates, got %d", len(f.advice.gotBatch))
	}
}

func TestGetAllAdvice(t *testing.T) {
	f := newTestServer(t)
	f.advice.list = []map[string]any{{"id": "abc", "advice": "rest", "likes": float64(5)}}

	_, env := do(t, f.srv, http.MethodPost, "good-token", `{"action":"getAllAdvice"}`)
	if env.Code != 200 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	var list []map[string]any
	if err := json.Unmarshal(env.Message, &list); err != nil {
		t.Fatalf("message is not a list: %s", env.Message)
	}
	if len(list) != 1 || list[0]["id"] != "abc" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestLikeAdvice(t *testing.T) {
	f := newTestServer(t)
	f.advice.likes = 8

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"likeAdvice","payload":{"id":"abc","delta":3}}`)
	if env.Code != 200 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if f.advice.gotID != "abc" || f.advice.gotDelta != 3 {
		t.Fatalf("store received wrong args: id=%q delta=%v", f.advice.gotID, f.advice.gotDelta)
	}
}

func TestLikeAdvice_DeltaMustBeNumber(t *testing.T) {
	f := newTestServer(t)

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"likeAdvice","payload":{"id":"abc","delta":"three"}}`)
	if env.Code != 400 || messageString(t, env) != "delta should be number" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestLikeAdvice_MissingAdvice(t *testing.T) {
	f := newTestServer(t)
	f.advice.err = apperr.NotFoundf("advice does not exist")

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"likeAdvice","payload":{"id":"abc","delta":1}}`)
	if env.Code != 400 || messageString(t, env) != "advice does not exist" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAddUser(t *testing.T) {
	f := newTestServer(t)
	f.users.res = data.UpsertCreated

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"addUser","payload":{"email":"a@b.com","phone":"+15550001111"}}`)
	if env.Code != 200 || messageString(t, env) != "User added" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	f.users.res = data.UpsertUpdated
	_, env = do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"addUser","payload":{"email":"a@b.com","phone":"+15559998888"}}`)
	if messageString(t, env) != "User updated" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAddScore(t *testing.T) {
	f := newTestServer(t)

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"addScore","payload":{"name":"ada","score":42,"email":"a@b.com"}}`)
	if env.Code != 200 || messageString(t, env) != "Score added" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestSendSMS(t *testing.T) {
	f := newTestServer(t)

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"sendSMS","payload":{"message":"hello"}}`)
	if env.Code != 200 || messageString(t, env) != "Sent sms message" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	// destination defaults to the configured personal number
	if f.sms.gotTo != "+15552223333" || f.sms.gotFrom != "+15550001111" || f.sms.gotBody != "hello" {
		t.Fatalf("transport received wrong args: %+v", f.sms)
	}
}

func TestSendSMS_TransportFailure(t *testing.T) {
	f := newTestServer(t)
	f.sms.err = apperr.Internal(errors.New("twilio 500"))

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"sendSMS","payload":{"message":"hello"}}`)
	if env.Code != 500 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestSendSMS_RateLimited(t *testing.T) {
	f := newTestServer(t)
	// replace the default limiter with one that blocks after a single send;
	// the original is stopped by the fixture cleanup
	f.srv.limiter = middleware.NewLimiterStore(1, 1, time.Minute)
	t.Cleanup(f.srv.limiter.Stop)

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"sendSMS","payload":{"message":"hello"}}`)
	if env.Code != 200 {
		t.Fatalf("first send should pass: %+v", env)
	}

	_, env = do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"sendSMS","payload":{"message":"hello again"}}`)
	if env.Code != 400 || messageString(t, env) != "Too many sms requests" {
		t.Fatalf("second send should be rate limited: %+v", env)
	}
}

// panicStore blows up on first use so the recovery path can be observed.
type panicStore struct{}

func (p *panicStore) Create(ctx context.Context, in data.MessageInput) (*data.Message, error) {
	panic("store corrupted")
}

func TestHandleUboh_RecoversPanic(t *testing.T) {
	f := newTestServer(t)
	f.srv.msgs = &panicStore{}

	_, env := do(t, f.srv, http.MethodPost, "good-token",
		`{"action":"addMessage","payload":{"email":"a@b.com","type":"t","message":"m"}}`)
	if env.Code != 500 {
		t.Fatalf("panic should convert to 500 envelope: %+v", env)
	}
	if msg := messageString(t, env); strings.Contains(msg, "corrupted") {
		t.Fatalf("panic detail leaked: %q", msg)
	}
}
