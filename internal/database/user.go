package database

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/friendgraph/internal/auth"
	"github.com/jason-s-yu/friendgraph/internal/models"
)

const userColumns = `id, full_name, phone_number, COALESCE(email, '') AS email, COALESCE(password, '') AS password`

// UserStore reads and creates user records.
type UserStore struct {
	pool Pool
}

func NewUserStore(pool Pool) *UserStore {
	return &UserStore{pool: pool}
}

// CreateUser hashes the password (when set) and inserts the user, filling in u.ID.
func (s *UserStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.Password != "" {
		hash, err := auth.CreateHash(u.Password, auth.Params)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		u.Password = hash
	}

	q := `INSERT INTO users (full_name, phone_number, email, password)
	      VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
	      RETURNING id`

	err := beginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, u.FullName, u.PhoneNumber, u.Email, u.Password).Scan(&u.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", classify(err))
	}
	return nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := getUserByID(ctx, s.pool, id)
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := pgxscan.Get(ctx, s.pool, &u, q, email); err != nil {
		return nil, classify(fmt.Errorf("failed to get user by email: %w", err))
	}
	return &u, nil
}

// AuthenticateUser checks the credentials and returns a signed session token.
func (s *UserStore) AuthenticateUser(ctx context.Context, email, password string) (string, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("user not found or db error: %w", err)
	}
	if user.Password == "" {
		return "", fmt.Errorf("invalid credentials")
	}

	match, err := auth.ComparePasswordAndHash(password, user.Password)
	if err != nil || !match {
		return "", fmt.Errorf("invalid credentials")
	}

	token, err := auth.CreateJWT(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to create jwt: %w", err)
	}
	return token, nil
}

func getUserByID(ctx context.Context, q pgxscan.Querier, id int64) (*models.User, error) {
	var u models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := pgxscan.Get(ctx, q, &u, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &u, nil
}
