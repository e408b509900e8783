package testutil

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/tOgg1/wirewave/internal/models"
)

func contextWithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxEmail{}, email)
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decode(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[creds.Email]
	if !ok || u.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResult{Token: f.issueTokenLocked(creds.Email), Email: creds.Email})
}

func (f *FakeAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decode(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[creds.Email]; ok {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	f.users[creds.Email] = &fakeUser{password: creds.Password}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered"})
}

func (f *FakeAPI) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Database connected"})
}

func (f *FakeAPI) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	me := callerOf(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, me)
	for token, owner := range f.tokens {
		if owner == me {
			delete(f.tokens, token)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

func (f *FakeAPI) handleListMessages(w http.ResponseWriter, r *http.Request) {
	me := callerOf(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Message, 0)
	for _, m := range f.messages {
		if m.SenderEmail == me || m.ReceiverEmail == me {
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ReceiverEmail string `json:"receiver_email"`
		Content       string `json:"content"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.ReceiverEmail == "" || strings.TrimSpace(body.Content) == "" {
		writeError(w, http.StatusBadRequest, "receiver_email and content are required")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m := models.Message{
		ID:            f.newIDLocked(),
		SenderEmail:   callerOf(r),
		ReceiverEmail: body.ReceiverEmail,
		Content:       body.Content,
		SentAt:        models.FormatTime(f.Now()),
	}
	f.messages = append(f.messages, m)
	writeJSON(w, http.StatusCreated, m)
}

func (f *FakeAPI) handleSendMulti(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ReceiverEmails []string `json:"receiver_emails"`
		Content        string   `json:"content"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(body.ReceiverEmails) == 0 {
		writeError(w, http.StatusBadRequest, "receiver_emails required")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := models.FormatTime(f.Now())
	for _, to := range body.ReceiverEmails {
		f.messages = append(f.messages, models.Message{
			ID:            f.newIDLocked(),
			SenderEmail:   callerOf(r),
			ReceiverEmail: to,
			Content:       body.Content,
			SentAt:        now,
		})
	}
	writeJSON(w, http.StatusCreated, map[string]int{"sent": len(body.ReceiverEmails)})
}

func (f *FakeAPI) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MessageID models.ID `json:"message_id"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	me := callerOf(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID != body.MessageID {
			continue
		}
		if f.messages[i].ReceiverEmail != me {
			writeError(w, http.StatusForbidden, "Not your message")
			return
		}
		f.messages[i].Read = true
		writeJSON(w, http.StatusOK, map[string]string{"message": "Marked as read"})
		return
	}
	writeError(w, http.StatusNotFound, "Message not found")
}

func (f *FakeAPI) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	me := callerOf(r)
	peer := mux.Vars(r)["email"]
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = slices.DeleteFunc(f.messages, func(m models.Message) bool {
		return (m.SenderEmail == me && m.ReceiverEmail == peer) ||
			(m.SenderEmail == peer && m.ReceiverEmail == me)
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted"})
}

func (f *FakeAPI) handleListGroups(w http.ResponseWriter, r *http.Request) {
	me := callerOf(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Group, 0)
	for _, g := range f.groups {
		if g.hasMember(me) {
			out = append(out, g.group)
		}
	}
	slices.SortFunc(out, func(a, b models.Group) int {
		ai, _ := strconv.Atoi(string(a.ID))
		bi, _ := strconv.Atoi(string(b.ID))
		return ai - bi
	})
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "Group name required")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.createGroupLocked(body.Name, callerOf(r), body.Members)
	writeJSON(w, http.StatusCreated, models.CreateGroupResult{Group: g})
}

// groupLocked resolves {id} and checks membership, writing the error itself.
func (f *FakeAPI) groupLocked(w http.ResponseWriter, r *http.Request) (*fakeGroup, bool) {
	g, ok := f.groups[models.ID(mux.Vars(r)["id"])]
	if !ok {
		writeError(w, http.StatusNotFound, "Group not found")
		return nil, false
	}
	if !g.hasMember(callerOf(r)) {
		writeError(w, http.StatusForbidden, "Not a member")
		return nil, false
	}
	return g, true
}

func (f *FakeAPI) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groupLocked(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.GroupDetail{Group: g.group, Members: g.members})
}

func (f *FakeAPI) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groupLocked(w, r)
	if !ok {
		return
	}
	if g.group.OwnerEmail != callerOf(r) {
		writeError(w, http.StatusForbidden, "Only the owner can delete the group")
		return
	}
	delete(f.groups, g.group.ID)
	delete(f.groupMsgs, g.group.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Group deleted"})
}

func (f *FakeAPI) handleRenameGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groupLocked(w, r)
	if !ok {
		return
	}
	if !g.isAdmin(callerOf(r)) {
		writeError(w, http.StatusForbidden, "Admins only")
		return
	}
	g.group.Name = body.Name
	writeJSON(w, http.StatusOK, g.group)
}

func (f *FakeAPI) handleUpsertMember(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MemberEmail string `json:"member_email"`
		MakeAdmin   bool   `json:"make_admin"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groupLocked(w, r)
	if !ok {
		return
	}
	if !g.isAdmin(callerOf(r)) {
		writeError(w, http.StatusForbidden, "Admins only")
		return
	}
	for i := range g.members {
		if g.members[i].MemberEmail == body.MemberEmail {
			g.members[i].IsAdmin = models.Flag(body.MakeAdmin)
			writeJSON(w, http.StatusOK, g.members[i])
			return
		}
	}
	m := models.Member{MemberEmail: body.MemberEmail, IsAdmin: models.Flag(body.MakeAdmin)}
	g.members = append(g.members, m)
	writeJSON(w, http.StatusCreated, m)
}

func (f *FakeAPI) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groupLocked(w, r)
	if !ok {
		return
	}
	if !g.isAdmin(callerOf(r)) {
		writeError(w, http.StatusForbidden, "Admins only")
		return
	}
	email := mux.Vars(r)["email"]
	g.members = slices.DeleteFunc(g.members, func(m models.Member) bool { return m.MemberEmail == email })
	writeJSON(w, http.StatusOK, map[string]string{"message": "Member removed"})
}

func (f *FakeAPI) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groupLocked(w, r)
	if !ok {
		return
	}
	me := callerOf(r)
	g.members = slices.DeleteFunc(g.members, func(m models.Member) bool { return m.MemberEmail == me })
	writeJSON(w, http.StatusOK, map[string]string{"message": "Left group"})
}

func (f *FakeAPI) handleListGroupMessages(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groupLocked(w, r)
	if !ok {
		return
	}
	msgs := f.groupMsgs[g.group.ID]
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 || offset > len(msgs) {
		offset = len(msgs)
	}
	end := len(msgs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := slices.Clone(msgs[offset:end])
	if out == nil {
		out = []models.GroupMessage{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) handleSendGroupMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groupLocked(w, r)
	if !ok {
		return
	}
	m := models.GroupMessage{
		ID:          f.newIDLocked(),
		GroupID:     g.group.ID,
		SenderEmail: callerOf(r),
		Content:     body.Content,
		SentAt:      models.FormatTime(f.Now()),
	}
	f.groupMsgs[g.group.ID] = append(f.groupMsgs[g.group.ID], m)
	writeJSON(w, http.StatusCreated, m)
}

func (f *FakeAPI) handleSearchUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	p := models.Profile{Email: email}
	if u.profile != nil {
		p = *u.profile
	}
	writeJSON(w, http.StatusOK, p)
}

func (f *FakeAPI) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[callerOf(r)]
	if !ok || u.profile == nil {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	writeJSON(w, http.StatusOK, u.profile)
}

func (f *FakeAPI) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	f.saveProfile(w, r, false)
}

func (f *FakeAPI) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	f.saveProfile(w, r, true)
}

func (f *FakeAPI) saveProfile(w http.ResponseWriter, r *http.Request, update bool) {
	var p models.Profile
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	me := callerOf(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[me]
	if !ok {
		u = &fakeUser{}
		f.users[me] = u
	}
	switch {
	case update && u.profile == nil:
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	case !update && u.profile != nil:
		writeError(w, http.StatusConflict, "Profile already exists")
		return
	}
	p.Email = me
	u.profile = &p
	writeJSON(w, http.StatusOK, p)
}

func (f *FakeAPI) handlePing(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[callerOf(r)] = f.Now()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (f *FakeAPI) handlePresence(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Presence{Email: email}
	if at, ok := f.seen[email]; ok {
		p.LastSeen = models.FormatTime(at)
		p.Online = models.Flag(f.Now().Sub(at) < time.Minute)
	}
	writeJSON(w, http.StatusOK, p)
}

func (f *FakeAPI) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.mu.Lock()
	fn := f.enhance
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"enhanced": fn(body.Text)})
}

func (f *FakeAPI) handleAssist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.mu.Lock()
	fn := f.assist
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"answer": fn(body.Query)})
}
