// Package testutil provides an in-process fake of the WireWave REST API.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tOgg1/wirewave/internal/models"
)

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   json.RawMessage
	// Email is the authenticated caller, empty for anonymous calls.
	Email string
}

type fakeUser struct {
	password string
	profile  *models.Profile
}

type fakeGroup struct {
	group   models.Group
	members []models.Member
}

type failure struct {
	status  int
	message string
	// raw, when set, is written verbatim instead of an error body.
	raw     string
}

// FakeAPI is an httptest server implementing the WireWave endpoints over
// in-memory state.
type FakeAPI struct {
	Server *httptest.Server

	// Now stamps created messages.
	Now func() time.Time

	mu        sync.Mutex
	enhance   func(text string) string
	assist    func(query string) string
	users     map[string]*fakeUser
	tokens    map[string]string
	messages  []models.Message
	groups    map[models.ID]*fakeGroup
	groupMsgs map[models.ID][]models.GroupMessage
	seen      map[string]time.Time
	nextID    int
	requests  []Request
	failures  map[string][]failure
	hold      map[string]chan struct{}
}

// NewFakeAPI starts a fake server that is closed when the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	SkipIfNoNetwork(t)

	f := &FakeAPI{
		Now:       time.Now,
		enhance:   func(text string) string { return strings.ToUpper(text) },
		assist:    func(query string) string { return "answer: " + query },
		users:     make(map[string]*fakeUser),
		tokens:    make(map[string]string),
		groups:    make(map[models.ID]*fakeGroup),
		groupMsgs: make(map[models.ID][]models.GroupMessage),
		seen:      make(map[string]time.Time),
		failures:  make(map[string][]failure),
		hold:      make(map[string]chan struct{}),
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server root.
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

func (f *FakeAPI) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(f.record)

	r.HandleFunc("/login", f.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/register", f.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/testdb", f.handleHealth).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(f.authenticate)

	authed.HandleFunc("/account", f.handleDeleteAccount).Methods(http.MethodDelete)

	authed.HandleFunc("/messages", f.handleListMessages).Methods(http.MethodGet)
	authed.HandleFunc("/messages", f.handleSendMessage).Methods(http.MethodPost)
	authed.HandleFunc("/messages/multi", f.handleSendMulti).Methods(http.MethodPost)
	authed.HandleFunc("/messages/read", f.handleMarkRead).Methods(http.MethodPost)
	authed.HandleFunc("/messages/{email}", f.handleDeleteConversation).Methods(http.MethodDelete)

	authed.HandleFunc("/groups", f.handleListGroups).Methods(http.MethodGet)
	authed.HandleFunc("/groups", f.handleCreateGroup).Methods(http.MethodPost)
	authed.HandleFunc("/groups/{id}", f.handleGetGroup).Methods(http.MethodGet)
	authed.HandleFunc("/groups/{id}", f.handleDeleteGroup).Methods(http.MethodDelete)
	authed.HandleFunc("/groups/{id}/name", f.handleRenameGroup).Methods(http.MethodPut)
	authed.HandleFunc("/groups/{id}/members", f.handleUpsertMember).Methods(http.MethodPost)
	authed.HandleFunc("/groups/{id}/members/{email}", f.handleRemoveMember).Methods(http.MethodDelete)
	authed.HandleFunc("/groups/{id}/leave", f.handleLeaveGroup).Methods(http.MethodPost)
	authed.HandleFunc("/groups/{id}/messages", f.handleListGroupMessages).Methods(http.MethodGet)
	authed.HandleFunc("/groups/{id}/messages", f.handleSendGroupMessage).Methods(http.MethodPost)

	authed.HandleFunc("/users/search", f.handleSearchUser).Methods(http.MethodGet)
	authed.HandleFunc("/profile", f.handleGetProfile).Methods(http.MethodGet)
	authed.HandleFunc("/profile", f.handleCreateProfile).Methods(http.MethodPost)
	authed.HandleFunc("/profile", f.handleUpdateProfile).Methods(http.MethodPut)
	authed.HandleFunc("/presence/ping", f.handlePing).Methods(http.MethodPost)
	authed.HandleFunc("/presence/{email}", f.handlePresence).Methods(http.MethodGet)
	authed.HandleFunc("/ai/enhance-chat", f.handleEnhance).Methods(http.MethodPost)
	authed.HandleFunc("/ai/assistant", f.handleAssist).Methods(http.MethodPost)

	return r
}

type ctxEmail struct{}

func callerOf(r *http.Request) string {
	email, _ := r.Context().Value(ctxEmail{}).(string)
	return email
}

// record logs the request, then applies any queued failure or hold.
func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		email := f.tokens[bearer(r)]
		f.requests = append(f.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   json.RawMessage(body),
			Email:  email,
		})
		var fail *failure
		if queued := f.failures[key]; len(queued) > 0 {
			fail = &queued[0]
			f.failures[key] = queued[1:]
		}
		gate := f.hold[key]
		f.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if fail != nil && fail.raw != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.status)
			_, _ = io.WriteString(w, fail.raw)
			return
		}
		if fail != nil {
			writeError(w, fail.status, fail.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		email, ok := f.tokens[bearer(r)]
		f.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := r.Context()
		ctx = contextWithEmail(ctx, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

// --- test controls ---

// AddUser registers a user and returns a valid token for it.
func (f *FakeAPI) AddUser(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; !ok {
		f.users[email] = &fakeUser{password: password}
	}
	return f.issueTokenLocked(email)
}

func (f *FakeAPI) issueTokenLocked(email string) string {
	token := "tok-" + uuid.NewString()
	f.tokens[token] = email
	return token
}

// SetEnhance replaces the /ai/enhance-chat behaviour.
func (f *FakeAPI) SetEnhance(fn func(text string) string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enhance = fn
}

// SetAssist replaces the /ai/assistant behaviour.
func (f *FakeAPI) SetAssist(fn func(query string) string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assist = fn
}

// RevokeTokens invalidates every token issued for email.
func (f *FakeAPI) RevokeTokens(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, owner := range f.tokens {
		if owner == email {
			delete(f.tokens, token)
		}
	}
}

// SetProfile stores a profile for email.
func (f *FakeAPI) SetProfile(email string, p models.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		u = &fakeUser{}
		f.users[email] = u
	}
	p.Email = email
	u.profile = &p
}

// SeedMessage stores a message as-is, assigning an id and time when empty.
func (f *FakeAPI) SeedMessage(m models.Message) models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		m.ID = f.newIDLocked()
	}
	if m.SentAt == "" {
		m.SentAt = models.FormatTime(f.Now())
	}
	f.messages = append(f.messages, m)
	return m
}

// Messages returns a copy of every stored direct message.
func (f *FakeAPI) Messages() []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.messages)
}

// SeedGroup creates a group owned by owner with the given members.
func (f *FakeAPI) SeedGroup(name, owner string, members ...string) models.Group {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createGroupLocked(name, owner, members)
}

func (f *FakeAPI) createGroupLocked(name, owner string, members []string) models.Group {
	g := &fakeGroup{group: models.Group{
		ID:         f.newIDLocked(),
		Name:       name,
		OwnerEmail: owner,
		CreatedAt:  models.FormatTime(f.Now()),
	}}
	g.members = append(g.members, models.Member{MemberEmail: owner, IsAdmin: true})
	for _, m := range members {
		if m != owner && !g.hasMember(m) {
			g.members = append(g.members, models.Member{MemberEmail: m})
		}
	}
	f.groups[g.group.ID] = g
	return g.group
}

// GroupDetail returns the stored group and members.
func (f *FakeAPI) GroupDetail(id models.ID) (models.GroupDetail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return models.GroupDetail{}, false
	}
	return models.GroupDetail{Group: g.group, Members: slices.Clone(g.members)}, true
}

// SeedGroupMessage stores a group message.
func (f *FakeAPI) SeedGroupMessage(m models.GroupMessage) models.GroupMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		m.ID = f.newIDLocked()
	}
	if m.SentAt == "" {
		m.SentAt = models.FormatTime(f.Now())
	}
	f.groupMsgs[m.GroupID] = append(f.groupMsgs[m.GroupID], m)
	return m
}

// GroupMessages returns a copy of a group's messages.
func (f *FakeAPI) GroupMessages(id models.ID) []models.GroupMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.groupMsgs[id])
}

// Requests returns every recorded request.
func (f *FakeAPI) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

// Count returns how many requests matched method and exact path.
func (f *FakeAPI) Count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, req := range f.requests {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

// Fail queues a one-shot error response for method and exact path.
func (f *FakeAPI) Fail(method, path string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " " + path
	f.failures[key] = append(f.failures[key], failure{status: status, message: message})
}

// Garble queues a one-shot 200 response for method and exact path whose
// body is raw.
func (f *FakeAPI) Garble(method, path, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " " + path
	f.failures[key] = append(f.failures[key], failure{status: http.StatusOK, raw: raw})
}

// Hold blocks requests to method and path until the returned release func
// is called.
func (f *FakeAPI) Hold(method, path string) (release func()) {
	gate := make(chan struct{})
	key := method + " " + path
	f.mu.Lock()
	f.hold[key] = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.hold, key)
			f.mu.Unlock()
			close(gate)
		})
	}
}

func (f *FakeAPI) newIDLocked() models.ID {
	f.nextID++
	return models.ID(strconv.Itoa(f.nextID))
}

func (g *fakeGroup) hasMember(email string) bool {
	for _, m := range g.members {
		if m.MemberEmail == email {
			return true
		}
	}
	return false
}

func (g *fakeGroup) isAdmin(email string) bool {
	if g.group.OwnerEmail == email {
		return true
	}
	for _, m := range g.members {
		if m.MemberEmail == email {
			return bool(m.IsAdmin)
		}
	}
	return false
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}
