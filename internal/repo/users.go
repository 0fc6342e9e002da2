package repo

import (
	"context"
	"strings"

	"github.com/roach88/recordstore/internal/collab"
	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/store"
)

// Users stores identities. Passwords only ever reach the table through
// the injected hasher.
type Users struct {
	t      table[model.User]
	clock  collab.Clock
	hasher collab.PasswordHasher
}

// NewUsers returns the users repository over s.
func NewUsers(s *store.Store, clock collab.Clock, hasher collab.PasswordHasher) *Users {
	return &Users{
		t:      newTable(s, "users", "user", model.UserColumns, model.UserFromRow),
		clock:  clock,
		hasher: hasher,
	}
}

func (r *Users) normalize(u *model.User) {
	u.Username = clean(u.Username)
	u.Email = strings.ToLower(clean(u.Email))
}

// Add inserts u, whose PasswordHash must already be set, and assigns
// u.ID, u.CreatedAt and u.UpdatedAt.
func (r *Users) Add(ctx context.Context, u *model.User) (int64, error) {
	r.normalize(u)
	if err := check("user", u); err != nil {
		return 0, err
	}
	now := model.Stamp(r.clock.Now())
	rec := *u
	rec.CreatedAt, rec.UpdatedAt = now, now

	id, err := r.t.insert(ctx, rec)
	if err != nil {
		return 0, err
	}
	rec.ID = id
	*u = rec
	return id, nil
}

// Register hashes plain and adds a new user.
func (r *Users) Register(ctx context.Context, username, email, plain string, admin bool) (model.User, error) {
	if plain == "" {
		return model.User{}, store.NewValidationError("user", "password", "must not be empty")
	}
	hash, err := r.hasher.Hash(plain)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{Username: username, Email: email, PasswordHash: hash, IsAdmin: admin}
	if _, err := r.Add(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Authenticate returns the user whose username and password match.
// An unknown username and a wrong password are indistinguishable.
func (r *Users) Authenticate(ctx context.Context, username, plain string) (model.User, bool, error) {
	u, found, err := r.ByUsername(ctx, username)
	if err != nil || !found {
		return model.User{}, false, err
	}
	if !r.hasher.Verify(plain, u.PasswordHash) {
		return model.User{}, false, nil
	}
	return u, true, nil
}

// ByUsername looks a user up by username.
func (r *Users) ByUsername(ctx context.Context, username string) (model.User, bool, error) {
	users, err := r.t.list(ctx, Where("username", clean(username)))
	if err != nil || len(users) == 0 {
		return model.User{}, false, err
	}
	return users[0], true, nil
}

// ChangePassword replaces the stored hash after verifying the old password.
// A wrong old password is a ValidationFailed on field "password".
func (r *Users) ChangePassword(ctx context.Context, id int64, oldPlain, newPlain string) error {
	u, found, err := r.t.get(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return store.NewNotFoundError("user", id)
	}
	if !r.hasher.Verify(oldPlain, u.PasswordHash) {
		return store.NewValidationError("user", "password", "does not match")
	}
	if newPlain == "" {
		return store.NewValidationError("user", "password", "must not be empty")
	}
	hash, err := r.hasher.Hash(newPlain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return r.Update(ctx, &u)
}

// Get returns the user with id, or found=false.
func (r *Users) Get(ctx context.Context, id int64) (model.User, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the users matching f in id order.
func (r *Users) List(ctx context.Context, f Filter) ([]model.User, error) {
	return r.t.list(ctx, f)
}

// Update rewrites u and stamps UpdatedAt. An empty PasswordHash keeps the
// stored one. CreatedAt is never changed.
func (r *Users) Update(ctx context.Context, u *model.User) error {
	if err := requireID("user", u.ID); err != nil {
		return err
	}
	current, found, err := r.t.get(ctx, u.ID)
	if err != nil {
		return err
	}
	if !found {
		return store.NewNotFoundError("user", u.ID)
	}
	if u.PasswordHash == "" {
		u.PasswordHash = current.PasswordHash
	}
	r.normalize(u)
	if err := check("user", u); err != nil {
		return err
	}

	rec := *u
	rec.CreatedAt = current.CreatedAt
	rec.UpdatedAt = model.Stamp(r.clock.Now())
	if err := r.t.update(ctx, rec); err != nil {
		return err
	}
	*u = rec
	return nil
}

// Delete removes the user. It fails with ConstraintViolation while any
// post, comment, task, order or review still references the user; use
// the cascade action to remove those too.
func (r *Users) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}
