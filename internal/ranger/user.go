package ranger

import (
	"context"
	"time"
)

type UserRepo interface {
	User(ctx context.Context, id string) (User, error)
	EnsureUser(ctx context.Context, usr User) (User, error)
	AllUserIDs(ctx context.Context) ([]string, error)
	UpdateUserToken(ctx context.Context, id string, token string) error
}

type User struct {
	ID             string    `db:"id"`
	PlatformUserID string    `db:"platform_user_id"`
	Email          string    `db:"email"`
	AccessToken    string    `db:"access_token"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
