package dao

import (
	"time"

	"github.com/inventiv/ivs/internal/vlist"
)

func init() {
	RegisterAccessor(UserRID, func() Accessor { return new(UserDAO) })
}

// UsersPath is the user search endpoint.
const UsersPath = "/users/search"

// User is a control plane account.
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Username  string    `json:"username" yaml:"username"`
	Email     string    `json:"email" yaml:"email"`
	Role      string    `json:"role" yaml:"role"`
	FirstName *string   `json:"first_name,omitempty" yaml:"firstName,omitempty"`
	LastName  *string   `json:"last_name,omitempty" yaml:"lastName,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updatedAt"`
}

// UserDAO lists control plane users. The filter matches username or email.
type UserDAO struct {
	Resource
}

// SortFields returns the server side sort keys for users.
func (*UserDAO) SortFields() []string {
	return []string{"username", "email", "role", "created_at", "updated_at"}
}

// Fetcher returns a page loader for the query.
func (d *UserDAO) Fetcher(q Query) vlist.Fetcher[Object] {
	q.Archived = false
	return searchFetcher(d.getFactory().Client(), UsersPath, q.Params("q"), userObject)
}

func userObject(u *User) Object {
	created := u.CreatedAt
	return &BaseObject{
		ID:        u.ID,
		Name:      u.Username,
		CreatedAt: &created,
		Raw:       u,
	}
}
