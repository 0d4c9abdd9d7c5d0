package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"modernc.org/sqlite"

	"github.com/jdholdren/ranger/internal/ranger"
)

const userNamespace = "-usr"

func (r Repo) User(ctx context.Context, id string) (ranger.User, error) {
	const q = `SELECT * FROM users WHERE id = ?;`

	var usr ranger.User
	err := r.db.GetContext(ctx, &usr, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ranger.User{}, ranger.ErrNotFound
	}
	if err != nil {
		return ranger.User{}, fmt.Errorf("error fetching user: %s", err)
	}

	return usr, nil
}

// EnsureUser inserts the user if it doesn't exist yet, keyed by the platform
// user id, and returns the stored record either way.
func (r Repo) EnsureUser(ctx context.Context, usr ranger.User) (ranger.User, error) {
	usr.ID = fmt.Sprintf("%s%s", uuid.NewString(), userNamespace)

	const q = `INSERT INTO users (id, platform_user_id, email, access_token)
	VALUES (:id, :platform_user_id, :email, :access_token);`
	_, err := r.db.NamedExecContext(ctx, q, usr)
	if sqliteErr := (&sqlite.Error{}); errors.As(err, &sqliteErr) && sqliteErr.Code() == 2067 {
		return r.userByPlatformID(ctx, usr.PlatformUserID)
	}
	if err != nil {
		return ranger.User{}, fmt.Errorf("error inserting user: %s", err)
	}

	return r.User(ctx, usr.ID)
}

func (r Repo) userByPlatformID(ctx context.Context, platformUserID string) (ranger.User, error) {
	const q = `SELECT * FROM users WHERE platform_user_id = ?;`

	var usr ranger.User
	err := r.db.GetContext(ctx, &usr, q, platformUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return ranger.User{}, ranger.ErrNotFound
	}
	if err != nil {
		return ranger.User{}, fmt.Errorf("error fetching user: %s", err)
	}

	return usr, nil
}

func (r Repo) AllUserIDs(ctx context.Context) ([]string, error) {
	const q = `SELECT id FROM users;`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, q); err != nil {
		return nil, fmt.Errorf("error selecting user ids: %s", err)
	}

	return ids, nil
}

func (r Repo) UpdateUserToken(ctx context.Context, id string, token string) error {
	const q = `UPDATE users SET access_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`

	if _, err := r.db.ExecContext(ctx, q, token, id); err != nil {
		return fmt.Errorf("error updating user token: %s", err)
	}

	return nil
}
