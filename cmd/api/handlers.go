package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/uboh-app/uboh-server/internal/apperr"
	"github.com/uboh-app/uboh-server/internal/auth"
	"github.com/uboh-app/uboh-server/internal/data"
	"github.com/uboh-app/uboh-server/internal/respond"
)

// request is the canonical body shape: an action name plus an
// action-specific payload.
type request struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// HandleUboh is the single entry point. Per request it moves through
// method/body checks, bearer authentication, dispatch, and exactly one
// JSON response; a panic anywhere on the path is converted to a 500
// envelope here.
func (s *Server) HandleUboh(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error().Interface("panic", rec).Msg("recovered panic in request path")
			respond.Failure(w, 500, "Internal error, please try again later")
		}
	}()

	if r.Method != http.MethodPost || r.Body == nil {
		respond.Invalid(w)
		return
	}

	claims, err := s.authenticate(r)
	if err != nil {
		s.log.Warn().Err(err).Msg("rejected request")
		respond.Unauthorized(w)
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Invalid(w)
		return
	}

	switch req.Action {
	case "addMessage":
		s.addMessage(w, r, req.Payload)
	case "addLog":
		s.addLog(w, r, req.Payload)
	case "sendSMS":
		s.sendSMS(w, r, req.Payload, claims)
	case "addAdvice":
		s.addAdvice(w, r, req.Payload)
	case "getAllAdvice":
		s.getAllAdvice(w, r)
	case "likeAdvice":
		s.likeAdvice(w, r, req.Payload)
	case "addUser":
		s.addUser(w, r, req.Payload)
	case "addScore":
		s.addScore(w, r, req.Payload)
	default:
		respond.Invalid(w)
	}
}

// authenticate extracts and verifies the bearer credential. The caller
// identity is only a gate; downstream operations do not use it except as
// the rate-limit key for sendSMS.
func (s *Server) authenticate(r *http.Request) (*auth.Claims, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, apperr.Auth(nil)
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return nil, apperr.Auth(nil)
	}
	claims, err := s.auth.VerifyToken(token)
	if err != nil {
		return nil, apperr.Auth(err)
	}
	return claims, nil
}

func (s *Server) addMessage(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var in struct {
		Email   string `json:"email"`
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &in); err != nil {
		respond.Invalid(w)
		return
	}

	_, err := s.msgs.Create(r.Context(), data.MessageInput{Email: in.Email, Type: in.Type, Message: in.Message})
	if err != nil {
		s.writeOpError(w, "addMessage", err)
		return
	}
	respond.OK(w, "Message added")
}

func (s *Server) addLog(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		respond.Invalid(w)
		return
	}

	if _, err := s.logs.Create(r.Context(), fields); err != nil {
		s.writeOpError(w, "addLog", err)
		return
	}
	respond.OK(w, "Log added")
}

func (s *Server) sendSMS(w http.ResponseWriter, r *http.Request, payload json.RawMessage, claims *auth.Claims) {
	var in struct {
		To      string `json:"to,omitempty"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &in); err != nil {
		respond.Invalid(w)
		return
	}

	// SMS is the one abuse-sensitive action; budget is per caller.
	key := claims.Email
	if key == "" {
		key = claims.UserID
	}
	if s.limiter != nil && !s.limiter.Allow(key) {
		respond.Failure(w, 400, "Too many sms requests")
		return
	}

	to := in.To
	if to == "" {
		to = s.cfg.SMSPersonalNumber
	}
	if _, err := s.sms.Send(r.Context(), to, s.cfg.SMSSourceNumber, in.Message); err != nil {
		s.writeOpError(w, "sendSMS", err)
		return
	}
	respond.OK(w, "Sent sms message")
}

func (s *Server) addAdvice(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var candidates []map[string]any
	if err := json.Unmarshal(payload, &candidates); err != nil {
		respond.Invalid(w)
		return
	}

	unprocessed, err := s.advice.AddBatch(r.Context(), candidates)
	if err != nil {
		s.writeOpError(w, "addAdvice", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, respond.Envelope{
		Code:              200,
		Message:           "added advice",
		UnprocessedAdvice: unprocessed,
	})
}

func (s *Server) getAllAdvice(w http.ResponseWriter, r *http.Request) {
	list, err := s.advice.ListAll(r.Context())
	if err != nil {
		s.writeOpError(w, "getAllAdvice", err)
		return
	}
	respond.OK(w, list)
}

func (s *Server) likeAdvice(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var in struct {
		ID    string `json:"id"`
		Delta any    `json:"delta"`
	}
	if err := json.Unmarshal(payload, &in); err != nil {
		respond.Invalid(w)
		return
	}
	delta, ok := asNumber(in.Delta)
	if !ok {
		respond.Failure(w, 400, "delta should be number")
		return
	}

	likes, err := s.advice.IncrementLikes(r.Context(), in.ID, delta)
	if err != nil {
		s.writeOpError(w, "likeAdvice", err)
		return
	}
	respond.OK(w, map[string]any{"id": in.ID, "likes": likes})
}

func (s *Server) addUser(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var in struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := json.Unmarshal(payload, &in); err != nil {
		respond.Invalid(w)
		return
	}

	res, err := s.users.Upsert(r.Context(), in.Email, in.Phone)
	if err != nil {
		s.writeOpError(w, "addUser", err)
		return
	}
	if res == data.UpsertCreated {
		respond.OK(w, "User added")
		return
	}
	respond.OK(w, "User updated")
}

func (s *Server) addScore(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var in struct {
		Name  string `json:"name"`
		Score any    `json:"score"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &in); err != nil {
		respond.Invalid(w)
		return
	}

	_, err := s.scores.Create(r.Context(), data.ScoreInput{Name: in.Name, Score: in.Score, Email: in.Email})
	if err != nil {
		s.writeOpError(w, "addScore", err)
		return
	}
	respond.OK(w, "Score added")
}

// HandleHealth is a liveness probe.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// writeOpError maps an operation failure to the envelope. Internal detail
// is logged here and never surfaced.
func (s *Server) writeOpError(w http.ResponseWriter, action string, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound:
		respond.Failure(w, 400, apperr.PublicMessage(err))
	case apperr.KindAuth:
		respond.Unauthorized(w)
	default:
		s.log.Error().Err(err).Str("action", action).Msg("operation failed")
		respond.Failure(w, 500, apperr.PublicMessage(err))
	}
}

func asNumber(v any) (float64, bool) {
	n, ok := v.(float64)
	return n, ok
}
