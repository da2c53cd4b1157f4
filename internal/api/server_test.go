// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notarehq/notare/internal/accounts"
	"github.com/notarehq/notare/internal/api"
	"github.com/notarehq/notare/internal/notes"
	"github.com/notarehq/notare/internal/platform/apperr"
	"github.com/notarehq/notare/internal/platform/config"
	"github.com/notarehq/notare/internal/platform/sec"
	"github.com/notarehq/notare/pkg/slug"
	"github.com/notarehq/notare/pkg/uuidv7"
)

// # In-Memory Fakes
//
// The full router is exercised against in-memory stores so the tests cover
// the middleware chain, routing, handlers, and services without external
// processes.

type fakeAccountStore struct {
	byEmail map[string]*accounts.Account
}

func (f *fakeAccountStore) FindByEmail(_ context.Context, email string) (*accounts.Account, error) {
	account, ok := f.byEmail[email]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	return account, nil
}

func (f *fakeAccountStore) FindByID(_ context.Context, id string) (*accounts.Account, error) {
	for _, account := range f.byEmail {
		if account.ID == id {
			return account, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (f *fakeAccountStore) Exists(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeAccountStore) Create(_ context.Context, account *accounts.Account) error {
	if _, ok := f.byEmail[account.Email]; ok {
		return apperr.EmailTaken()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	f.byEmail[account.Email] = account
	return nil
}

func (f *fakeAccountStore) List(_ context.Context, limit, offset int) ([]*accounts.Account, error) {
	all := make([]*accounts.Account, 0, len(f.byEmail))
	for _, account := range f.byEmail {
		all = append(all, account)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	if offset >= len(all) {
		return []*accounts.Account{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

type fakeThrottle struct {
	counts map[string]int64
}

func (f *fakeThrottle) Failures(_ context.Context, email string) (int64, error) {
	return f.counts[email], nil
}

func (f *fakeThrottle) RecordFailure(_ context.Context, email string) error {
	f.counts[email]++
	return nil
}

func (f *fakeThrottle) Reset(_ context.Context, email string) error {
	delete(f.counts, email)
	return nil
}

type fakeNoteStore struct {
	nextNoteID int64
	nextTagID  int64
	notes      map[int64]*notes.Note
	tags       map[string]*notes.Tag
}

func (f *fakeNoteStore) CreateNote(_ context.Context, note *notes.Note) error {
	f.nextNoteID++
	note.ID = f.nextNoteID
	note.CreatedAt = time.Now().Add(time.Duration(f.nextNoteID) * time.Millisecond)
	note.UpdatedAt = note.CreatedAt
	for _, name := range note.Tags {
		_, _ = f.EnsureTag(context.Background(), name, slug.From(name))
	}
	stored := *note
	f.notes[note.ID] = &stored
	return nil
}

func (f *fakeNoteStore) FindNote(_ context.Context, id int64) (*notes.Note, error) {
	note, ok := f.notes[id]
	if !ok {
		return nil, apperr.NotFound("Note")
	}
	found := *note
	return &found, nil
}

func (f *fakeNoteStore) ListNotes(_ context.Context, filter notes.Filter) ([]*notes.Note, error) {
	matched := make([]*notes.Note, 0)
	for _, note := range f.notes {
		if filter.OwnerID != "" && note.OwnerID != filter.OwnerID {
			continue
		}
		if filter.TagSlug != "" && !hasTagSlug(note, filter.TagSlug) {
			continue
		}
		if filter.Query != "" &&
			!strings.Contains(strings.ToLower(note.Title), strings.ToLower(filter.Query)) &&
			!strings.Contains(strings.ToLower(note.Body), strings.ToLower(filter.Query)) {
			continue
		}
		matched = append(matched, note)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if filter.Offset >= len(matched) {
		return []*notes.Note{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (f *fakeNoteStore) UpdateNote(_ context.Context, note *notes.Note) error {
	if _, ok := f.notes[note.ID]; !ok {
		return apperr.NotFound("Note")
	}
	note.UpdatedAt = time.Now()
	stored := *note
	f.notes[note.ID] = &stored
	return nil
}

func (f *fakeNoteStore) DeleteNote(_ context.Context, id int64) error {
	if _, ok := f.notes[id]; !ok {
		return apperr.NotFound("Note")
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeNoteStore) EnsureTag(_ context.Context, name, slugValue string) (*notes.Tag, error) {
	if tag, ok := f.tags[slugValue]; ok {
		return tag, nil
	}
	f.nextTagID++
	tag := &notes.Tag{ID: f.nextTagID, Name: name, Slug: slugValue}
	f.tags[slugValue] = tag
	return tag, nil
}

func (f *fakeNoteStore) ListTags(_ context.Context, limit, offset int) ([]*notes.Tag, error) {
	all := make([]*notes.Tag, 0, len(f.tags))
	for _, tag := range f.tags {
		all = append(all, tag)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if offset >= len(all) {
		return []*notes.Tag{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func hasTagSlug(note *notes.Note, tagSlug string) bool {
	for _, name := range note.Tags {
		if slug.From(name) == tagSlug {
			return true
		}
	}
	return false
}

// # Test Harness

var cheapHashParams = sec.HashParams{
	MemoryKiB:   1024,
	Time:        1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type apiFixture struct {
	handler      http.Handler
	accountStore *fakeAccountStore
	noteStore    *fakeNoteStore
	hasher       *sec.Hasher
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	cfg := &config.Config{
		ServerPort:  "0",
		Environment: "development",
		TokenSecret: "integration-test-secret",
		TokenTTL:    time.Hour,
	}

	hasher := sec.NewHasherWithParams(cheapHashParams)
	tokens := sec.NewTokenService(sec.NewSecretSource(cfg.TokenSecret), cfg.TokenTTL)

	accountStore := &fakeAccountStore{byEmail: make(map[string]*accounts.Account)}
	throttle := &fakeThrottle{counts: make(map[string]int64)}
	accountService := accounts.NewService(accountStore, throttle, hasher, tokens, cfg.TokenTTL, logger)

	noteStore := &fakeNoteStore{
		notes: make(map[int64]*notes.Note),
		tags:  make(map[string]*notes.Tag),
	}
	noteService := notes.NewService(noteStore, logger)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server := api.NewServer(ctx, cfg, logger, accountService, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Accounts:  accounts.NewHandler(accountService),
		Notes:     notes.NewHandler(noteService),
	})

	return &apiFixture{
		handler:      server.Router(),
		accountStore: accountStore,
		noteStore:    noteStore,
		hasher:       hasher,
	}
}

// do performs a JSON request against the router.
func (fx *apiFixture) do(t *testing.T, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}

	request := httptest.NewRequest(method, path, body)
	request.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}

	recorder := httptest.NewRecorder()
	fx.handler.ServeHTTP(recorder, request)
	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

// register creates an account and returns a live bearer token for it.
func (fx *apiFixture) register(t *testing.T, email, password string) string {
	t.Helper()

	recorder := fx.do(t, "POST", "/api/v1/auth/register", "", map[string]any{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	return fx.login(t, email, password)
}

func (fx *apiFixture) login(t *testing.T, email, password string) string {
	t.Helper()

	recorder := fx.do(t, "POST", "/api/v1/auth/login", "", map[string]any{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	body := decode(t, recorder)
	assert.Equal(t, "bearer", body["token_type"])
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

// seedAdmin inserts an admin account directly into the fake store.
func (fx *apiFixture) seedAdmin(t *testing.T, email, password string) string {
	t.Helper()

	passwordHash, err := fx.hasher.Hash(password)
	require.NoError(t, err)

	err = fx.accountStore.Create(context.Background(), &accounts.Account{
		ID:           uuidv7.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         sec.RoleAdmin,
	})
	require.NoError(t, err)

	return fx.login(t, email, password)
}

// # Scenarios

func TestAuthFlow(t *testing.T) {
	fx := newAPIFixture(t)

	// 1. Fresh registration succeeds with a bare JSON body
	recorder := fx.do(t, "POST", "/api/v1/auth/register", "", map[string]any{
		"email": "alice@example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	registered := decode(t, recorder)
	assert.Equal(t, "alice@example.com", registered["email"])
	assert.Equal(t, "user", registered["role"])
	assert.NotEmpty(t, registered["id"])
	assert.NotContains(t, registered, "password_hash")

	// 2. Duplicate registration: 400 EMAIL_TAKEN
	recorder = fx.do(t, "POST", "/api/v1/auth/register", "", map[string]any{
		"email": "alice@example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "EMAIL_TAKEN", decode(t, recorder)["code"])

	// 3. Wrong password: 401 INVALID_CREDENTIALS
	recorder = fx.do(t, "POST", "/api/v1/auth/login", "", map[string]any{
		"email": "alice@example.com", "password": "wrong-pass-1",
	})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode(t, recorder)["code"])

	// 4. Correct credentials: bearer token
	token := fx.login(t, "alice@example.com", "s3cret-pass")

	// 5. The token works against a protected endpoint
	recorder = fx.do(t, "GET", "/api/v1/notes", token, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestProblemEnvelope(t *testing.T) {
	fx := newAPIFixture(t)
	token := fx.register(t, "alice@example.com", "s3cret-pass")

	// 1. Missing note: full RFC 7807 envelope with correlation id
	recorder := fx.do(t, "GET", "/api/v1/notes/999999", token, nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "application/problem+json", recorder.Header().Get("Content-Type"))

	body := decode(t, recorder)
	for _, field := range []string{"type", "title", "status", "detail", "instance", "correlation_id", "code", "message", "details"} {
		assert.Contains(t, body, field)
	}
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.Equal(t, float64(404), body["status"])
	assert.Equal(t, recorder.Header().Get("X-Correlation-ID"), body["correlation_id"])

	// 2. Validation failure: 422 with details.errors
	recorder = fx.do(t, "POST", "/api/v1/notes", token, map[string]any{"title": ""})
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	body = decode(t, recorder)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, details["errors"])

	// 3. Unknown body field: strict schema rejection naming the field
	recorder = fx.do(t, "POST", "/api/v1/notes", token, map[string]any{"title": "ok", "surprise": true})
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "surprise")

	// 4. Unmatched route: HTTP_ERROR envelope, not a plain-text 404
	recorder = fx.do(t, "GET", "/definitely/not/here", "", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "HTTP_ERROR", decode(t, recorder)["code"])
}

func TestAuthorizationBoundaries(t *testing.T) {
	fx := newAPIFixture(t)
	userToken := fx.register(t, "alice@example.com", "s3cret-pass")

	// 1. No bearer on a protected endpoint: 401
	recorder := fx.do(t, "GET", "/api/v1/notes", "", nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, recorder)["code"])

	// 2. Garbage bearer: the same 401
	recorder = fx.do(t, "GET", "/api/v1/notes", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, recorder)["code"])

	// 3. Regular user on an admin endpoint: 403, never 401
	recorder = fx.do(t, "GET", "/api/v1/admin/users", userToken, nil)
	require.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, recorder)["code"])

	// 4. Admin passes and sees all accounts
	adminToken := fx.seedAdmin(t, "root@example.com", "admin-pass-1")
	recorder = fx.do(t, "GET", "/api/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var listed []map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)
}

func TestNoteLifecycle(t *testing.T) {
	fx := newAPIFixture(t)
	aliceToken := fx.register(t, "alice@example.com", "s3cret-pass")
	bobToken := fx.register(t, "bob@example.com", "s3cret-pass")

	// 1. Create
	recorder := fx.do(t, "POST", "/api/v1/notes", aliceToken, map[string]any{
		"title": "Mitosis", "body": "prophase metaphase", "tags": []string{"biology", "exam"},
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	created := decode(t, recorder)
	noteID := int64(created["id"].(float64))
	assert.Equal(t, []any{"biology", "exam"}, created["tags"])

	notePath := fmt.Sprintf("/api/v1/notes/%d", noteID)

	// 2. Owner reads it back
	recorder = fx.do(t, "GET", notePath, aliceToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	// 3. Another user gets 404, not 403
	recorder = fx.do(t, "GET", notePath, bobToken, nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, recorder)["code"])

	// 4. Partial update keeps the unspecified fields
	recorder = fx.do(t, "PATCH", notePath, aliceToken, map[string]any{"body": "all six phases"})
	require.Equal(t, http.StatusOK, recorder.Code)
	updated := decode(t, recorder)
	assert.Equal(t, "Mitosis", updated["title"])
	assert.Equal(t, "all six phases", updated["body"])

	// 5. Filtered listing
	recorder = fx.do(t, "GET", "/api/v1/notes?tag=biology", aliceToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	recorder = fx.do(t, "GET", "/api/v1/notes?q=phases", aliceToken, nil)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	// 6. Delete: 204, then 404
	recorder = fx.do(t, "DELETE", notePath, aliceToken, nil)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = fx.do(t, "GET", notePath, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestTagEndpoints(t *testing.T) {
	fx := newAPIFixture(t)
	token := fx.register(t, "alice@example.com", "s3cret-pass")

	// 1. Create a tag
	recorder := fx.do(t, "POST", "/api/v1/tags", token, map[string]any{"name": "Biology"})
	require.Equal(t, http.StatusOK, recorder.Code)
	created := decode(t, recorder)
	assert.Equal(t, "biology", created["slug"])

	// 2. Empty name: 422 with structured field errors
	recorder = fx.do(t, "POST", "/api/v1/tags", token, map[string]any{"name": ""})
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	body := decode(t, recorder)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, details["errors"])

	// 3. Listing requires auth
	recorder = fx.do(t, "GET", "/api/v1/tags", "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = fx.do(t, "GET", "/api/v1/tags", token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestHealthEndpoints(t *testing.T) {
	fx := newAPIFixture(t)

	for _, path := range []string{"/health", "/healthz"} {
		recorder := fx.do(t, "GET", path, "", nil)
		require.Equal(t, http.StatusOK, recorder.Code, path)
		assert.Equal(t, "ok", decode(t, recorder)["status"])
	}

	recorder := fx.do(t, "GET", "/ready", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestReadinessDegraded verifies that a failing dependency check turns /ready
into a single 503 response naming the broken dependency.
*/
func TestReadinessDegraded(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	_, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error { return nil },
		CheckCache:    func() error { return errors.New("connection refused") },
	}, logger)

	recorder := httptest.NewRecorder()
	readiness(recorder, httptest.NewRequest("GET", "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	body := decode(t, recorder)
	assert.Equal(t, "degraded", body["status"])

	checks, ok := body["checks"].([]any)
	require.True(t, ok)
	require.Len(t, checks, 2)

	redis := checks[1].(map[string]any)
	assert.Equal(t, "redis", redis["name"])
	assert.Equal(t, false, redis["ok"])
	assert.Contains(t, redis["error"], "connection refused")
}
