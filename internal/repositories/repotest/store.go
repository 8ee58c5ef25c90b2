// Package repotest provides in-memory repositories and a transactor for
// service and handler tests. Transactions are serialized and roll back by
// restoring a snapshot, which is enough to exercise all-or-nothing flows.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/repositories"
)

type Store struct {
	mu         sync.Mutex
	users      map[int64]models.User
	links      map[int64]models.SignupLink
	nextUserID int64
	nextLinkID int64

	txMu sync.Mutex
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[int64]models.User),
		links: make(map[int64]models.SignupLink),
		now:   time.Now,
	}
}

// WithClock sets the time used for created_at/updated_at stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) SignupLinks() *SignupLinkRepository {
	return &SignupLinkRepository{s: s}
}

func (s *Store) Transactor() *Transactor {
	return &Transactor{s: s}
}

// UserCount is a test convenience.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type txKey struct{}

type Transactor struct {
	s *Store
}

func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	snap := t.s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	users      map[int64]models.User
	links      map[int64]models.SignupLink
	nextUserID int64
	nextLinkID int64
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		users:      make(map[int64]models.User, len(s.users)),
		links:      make(map[int64]models.SignupLink, len(s.links)),
		nextUserID: s.nextUserID,
		nextLinkID: s.nextLinkID,
	}
	for id, u := range s.users {
		snap.users[id] = u
	}
	for id, l := range s.links {
		snap.links[id] = l
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.links = snap.links
	s.nextUserID = snap.nextUserID
	s.nextLinkID = snap.nextLinkID
}

type UserRepository struct {
	s *Store
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = models.NormalizeEmail(user.Email)
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicate
		}
		if user.ReferralCode != nil && u.ReferralCode != nil && *u.ReferralCode == *user.ReferralCode {
			return repositories.ErrDuplicate
		}
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	if user.Role == "" {
		user.Role = models.RoleCandidate
	}
	if user.LoginMethod == "" {
		user.LoginMethod = models.LoginMethodEmail
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *UserRepository) FindByReferralCode(_ context.Context, code string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ReferralCode != nil && *u.ReferralCode == code })
}

func (r *UserRepository) UpdatePassword(_ context.Context, id int64, hash string) error {
	return r.update(id, func(u *models.User) { u.Password = hash })
}

func (r *UserRepository) MarkVerified(_ context.Context, id int64) error {
	return r.update(id, func(u *models.User) { u.IsVerified = true })
}

func (r *UserRepository) SetReferralCode(_ context.Context, id int64, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.ID != id && u.ReferralCode != nil && *u.ReferralCode == code {
			return repositories.ErrDuplicate
		}
	}
	u, ok := r.s.users[id]
	if !ok || u.ReferralCode != nil {
		return nil
	}
	u.ReferralCode = &code
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (r *UserRepository) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepository) update(id int64, mutate func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	mutate(&u)
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

type SignupLinkRepository struct {
	s *Store
}

var _ repositories.SignupLinkRepository = (*SignupLinkRepository)(nil)

func (r *SignupLinkRepository) Create(_ context.Context, link *models.SignupLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id := r.s.nextLinkID + 1
	link.ID = id
	token := link.TokenValue()
	if link.Token == nil {
		token = link.DeriveToken()
	}
	for _, l := range r.s.links {
		if l.TokenValue() == token {
			link.ID = 0
			return repositories.ErrDuplicate
		}
	}
	r.s.nextLinkID = id
	link.Token = &token
	now := r.s.now()
	link.CreatedAt, link.UpdatedAt = now, now
	stored := *link
	stored.CreatedBy, stored.UsedBy = nil, nil
	r.s.links[id] = stored
	return nil
}

// Put stores a link as-is, bypassing token derivation. Tests use it to plant
// fixed tokens and collisions.
func (r *SignupLinkRepository) Put(link models.SignupLink) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if link.ID == 0 {
		r.s.nextLinkID++
		link.ID = r.s.nextLinkID
	} else if link.ID > r.s.nextLinkID {
		r.s.nextLinkID = link.ID
	}
	r.s.links[link.ID] = link
}

func (r *SignupLinkRepository) FindByToken(_ context.Context, token string) (*models.SignupLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.links {
		if l.TokenValue() == token {
			found := l
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *SignupLinkRepository) Redeem(_ context.Context, token string, userID int64, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.links {
		if l.TokenValue() != token || !l.IsRedeemable(now) {
			continue
		}
		for _, other := range r.s.links {
			if other.UsedByID != nil && *other.UsedByID == userID {
				return false, repositories.ErrDuplicate
			}
		}
		l.UsedByID = &userID
		l.UpdatedAt = now
		r.s.links[id] = l
		return true, nil
	}
	return false, nil
}

func (r *SignupLinkRepository) ListByCreator(_ context.Context, creatorID int64) ([]models.SignupLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	links := make([]models.SignupLink, 0)
	for _, l := range r.s.links {
		if l.CreatedByID != creatorID {
			continue
		}
		if l.UsedByID != nil {
			if u, ok := r.s.users[*l.UsedByID]; ok {
				l.UsedBy = &u
			}
		}
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.After(links[j].CreatedAt)
		}
		return links[i].ID > links[j].ID
	})
	return links, nil
}
