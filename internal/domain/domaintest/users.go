package domaintest

import (
	"context"
	"sort"
	"time"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain/auth"
)

// UserRepo implements auth.UserRepository.
type UserRepo struct{ store *Store }

// NewUserRepo creates a user repository.
func NewUserRepo(store *Store) *UserRepo { return &UserRepo{store: store} }

var _ auth.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, other := range r.store.data.users {
		if other.Tenant == u.Tenant && other.Username == u.Username {
			return apperror.NewDuplicate("user", "username", u.Username)
		}
	}
	r.store.data.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.data.users[userID]
	if !ok || u.Tenant != t {
		return nil, notFound("user", userID)
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, t tenant.Key, username string) (*auth.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.data.users {
		if u.Tenant == t && u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.NewNotFound("user", username)
}

func (r *UserRepo) TouchLogin(ctx context.Context, userID id.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.data.users[userID]
	if !ok {
		return notFound("user", userID)
	}
	now := time.Now().UTC()
	u.LastLoginAt = &now
	r.store.data.users[userID] = u
	return nil
}

func (r *UserRepo) List(ctx context.Context) ([]*auth.User, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []*auth.User{}
	for _, u := range r.store.data.users {
		if u.Tenant == t {
			user := u
			out = append(out, &user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
