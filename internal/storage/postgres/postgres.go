package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/IlyasAtabaev731/finance-records/internal/domain/models"
	"github.com/IlyasAtabaev731/finance-records/internal/storage"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Storage struct {
	db *sql.DB
}

func New(dbUrl string) (*Storage, error) {
	db, err := sql.Open("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection error %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect database error %w", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Stop() error {
	return s.db.Close()
}

func (s *Storage) SaveUser(ctx context.Context, username string, passHash []byte) (*models.User, error) {
	const op = "storage.postgres.SaveUser"

	user := models.User{Username: username, PasswordHash: string(passHash)}

	err := s.db.QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id",
		username, user.PasswordHash,
	).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

// GetUser returns the earliest registered user with the given name.
// Usernames are not unique, so later registrations are shadowed.
func (s *Storage) GetUser(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.postgres.GetUser"

	var user models.User

	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash FROM users WHERE username = $1 ORDER BY id LIMIT 1",
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (s *Storage) TransactionsByUser(ctx context.Context, userID int) ([]models.Transaction, error) {
	const op = "storage.postgres.TransactionsByUser"

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, description, amount, user_id FROM transactions WHERE user_id = $1",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Type, &t.Description, &t.Amount, &t.UserID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return transactions, nil
}

func (s *Storage) SaveTransaction(ctx context.Context, t models.Transaction) (*models.Transaction, error) {
	const op = "storage.postgres.SaveTransaction"

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transactions (id, type, description, amount, user_id) VALUES ($1, $2, $3, $4, $5)",
		t.ID, t.Type, t.Description, t.Amount, t.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	return &t, nil
}

// UpdateTransaction overwrites the row stored under t.ID, owner included.
// When ownerOnly is set the row must already belong to t.UserID.
func (s *Storage) UpdateTransaction(ctx context.Context, t models.Transaction, ownerOnly bool) (*models.Transaction, error) {
	const op = "storage.postgres.UpdateTransaction"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := lockTransaction(ctx, tx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ownerOnly && existing.UserID != t.UserID {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrForbidden)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE transactions SET type = $1, description = $2, amount = $3, user_id = $4 WHERE id = $5",
		t.Type, t.Description, t.Amount, t.UserID, t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

// DeleteTransaction removes the row and returns it as it was before deletion.
func (s *Storage) DeleteTransaction(ctx context.Context, id string, userID int, ownerOnly bool) (*models.Transaction, error) {
	const op = "storage.postgres.DeleteTransaction"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := lockTransaction(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ownerOnly && existing.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrForbidden)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return existing, nil
}

func lockTransaction(ctx context.Context, tx *sql.Tx, id string) (*models.Transaction, error) {
	var t models.Transaction

	err := tx.QueryRowContext(ctx,
		"SELECT id, type, description, amount, user_id FROM transactions WHERE id = $1 FOR UPDATE",
		id,
	).Scan(&t.ID, &t.Type, &t.Description, &t.Amount, &t.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTransactionNotFound
		}
		return nil, err
	}

	return &t, nil
}

func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return storage.ErrTransactionExists
	}
	return err
}
