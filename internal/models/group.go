package models

// Group is a named chat room with an owner and members.
type Group struct {
	ID         ID     `json:"id"`
	Name       string `json:"name"`
	OwnerEmail string `json:"owner_email"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// DisplayName falls back to "Group #<id>" for unnamed groups.
func (g Group) DisplayName() string {
	if g.Name != "" {
		return g.Name
	}
	return "Group #" + string(g.ID)
}

// Key identifies the group across fetches.
func (g Group) Key() string { return string(g.ID) }

// Fingerprint changes on rename or ownership change.
func (g Group) Fingerprint() string {
	return string(g.ID) + "|" + g.Name + "|" + g.OwnerEmail
}

// Member is one group membership row.
type Member struct {
	MemberEmail string `json:"member_email"`
	IsAdmin     Flag   `json:"is_admin"`
}

// GroupDetail is the response of GET /groups/{id}.
type GroupDetail struct {
	Group   Group    `json:"group"`
	Members []Member `json:"members"`
}

// IsOwner reports whether email owns the group.
func (d GroupDetail) IsOwner(email string) bool {
	return email != "" && d.Group.OwnerEmail == email
}

// IsAdmin reports whether email may manage the group. Owners are always admins.
func (d GroupDetail) IsAdmin(email string) bool {
	if d.IsOwner(email) {
		return true
	}
	m, ok := d.Member(email)
	return ok && bool(m.IsAdmin)
}

// Member looks up a membership row by email.
func (d GroupDetail) Member(email string) (Member, bool) {
	for _, m := range d.Members {
		if m.MemberEmail == email {
			return m, true
		}
	}
	return Member{}, false
}

// CreateGroupResult is the response of POST /groups.
type CreateGroupResult struct {
	Group Group `json:"group"`
}
