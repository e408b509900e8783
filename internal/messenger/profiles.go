package messenger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tOgg1/wirewave/internal/api"
	"github.com/tOgg1/wirewave/internal/models"
)

// Profiles caches other users' profiles. A failed lookup is cached as a
// miss so it is not retried on every update.
type Profiles struct {
	store ProfileStore

	mu    sync.Mutex
	cache map[string]*models.Profile
}

// NewProfiles creates an empty cache.
func NewProfiles(store ProfileStore) *Profiles {
	return &Profiles{store: store, cache: make(map[string]*models.Profile)}
}

// Get returns the cached profile. known is false when email was never
// looked up; p is nil for a cached miss.
func (p *Profiles) Get(email string) (profile *models.Profile, known bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	profile, known = p.cache[email]
	return profile, known
}

// Avatar returns the cached avatar URL, or "".
func (p *Profiles) Avatar(email string) string {
	profile, _ := p.Get(email)
	if profile == nil {
		return ""
	}
	return profile.AvatarURL
}

// Name returns the cached display name, falling back to the email.
func (p *Profiles) Name(email string) string {
	profile, _ := p.Get(email)
	if profile == nil || strings.TrimSpace(profile.Name) == "" {
		return email
	}
	return profile.Name
}

// Fill looks up every email not yet cached, one at a time. It returns how
// many lookups it made.
func (p *Profiles) Fill(ctx context.Context, emails []string) int {
	n := 0
	for _, email := range emails {
		if ctx.Err() != nil {
			break
		}
		if _, known := p.Get(email); known || email == "" {
			continue
		}
		n++
		profile, err := p.store.SearchUser(ctx, email)
		p.mu.Lock()
		if err != nil {
			p.cache[email] = nil
		} else {
			p.cache[email] = &profile
		}
		p.mu.Unlock()
	}
	return n
}

// Lookup fetches a profile now and refreshes the cache.
func (p *Profiles) Lookup(ctx context.Context, email string) (models.Profile, error) {
	profile, err := p.store.SearchUser(ctx, email)
	if err != nil {
		return models.Profile{}, err
	}
	p.mu.Lock()
	p.cache[email] = &profile
	p.mu.Unlock()
	return profile, nil
}

// RecipientDebounce is how long typing must pause before an address is
// checked.
const RecipientDebounce = 550 * time.Millisecond

// RecipientEligible reports whether an address is worth checking: it must
// contain "@" and be at least five characters once trimmed.
func RecipientEligible(email string) bool {
	email = strings.TrimSpace(email)
	return strings.Contains(email, "@") && len(email) >= 5
}

// CheckRecipient reports whether a user exists for a new chat. A 404 means
// the user does not exist; other failures are returned.
func CheckRecipient(ctx context.Context, store ProfileStore, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if !RecipientEligible(email) {
		return false, nil
	}
	if _, err := store.SearchUser(ctx, email); err != nil {
		if api.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
