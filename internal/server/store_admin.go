package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// AdminStore is the credential/session surface used by the admin handlers.
type AdminStore interface {
	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	CreateAdmin(ctx context.Context, email, passwordHash string) (string, error)
	CreateAdminSession(ctx context.Context, adminID, email string) (sessionID string, err error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)
}

type adminDoc struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

type adminSessionDoc struct {
	ID      string `json:"id"`
	AdminID string `json:"adminId"`
	Email   string `json:"email"`
}

func (s *DocStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM admins WHERE email = ?`, email,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	var a adminDoc
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return "", "", err
	}
	return a.ID, a.PasswordHash, nil
}

func (s *DocStore) CreateAdmin(ctx context.Context, email, passwordHash string) (string, error) {
	a := adminDoc{ID: newID(), Email: email, PasswordHash: passwordHash}
	data, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admins (id, email, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(email) DO NOTHING`,
		a.ID, a.Email, string(data),
	)
	return a.ID, err
}

func (s *DocStore) CreateAdminSession(ctx context.Context, adminID, email string) (string, error) {
	doc := adminSessionDoc{ID: newID(), AdminID: adminID, Email: email}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admin_sessions (id, data) VALUES (?, jsonb(?))`,
		doc.ID, string(data),
	)
	return doc.ID, err
}

func (s *DocStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *DocStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var doc adminSessionDoc
	if err := s.get(ctx, "admin_sessions", sessionID, &doc); err != nil {
		return adminSession{}, err
	}
	return adminSession{AdminID: doc.AdminID, Email: doc.Email}, nil
}

var _ AdminStore = (*DocStore)(nil)
