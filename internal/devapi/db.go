// Package devapi is a small local backend serving the endpoints the site
// fetches from, backed by sqlite.
package devapi

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mibitech/mibitech-site/internal/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Open connects to the sqlite file at name and applies pending migrations.
func Open(name string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", fmt.Sprintf("%s?_journal=WAL&_timeout=5000", name))
	if err != nil {
		return nil, fmt.Errorf("connecting to db : %w", err)
	}
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting dialect for migrations : %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying migration : %w", err)
	}
	return db, nil
}

// Message is a stored contact form submission.
type Message struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Company   string    `db:"company" json:"company"`
	Subject   string    `db:"subject" json:"subject"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

var ErrNotFound = errors.New("not found")

// Store is the repository behind the handlers.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing store : %w", err)
	}
	return nil
}

func (s *Store) Contacts(ctx context.Context) ([]models.Contact, error) {
	out := []models.Contact{}
	if err := s.db.SelectContext(ctx, &out, `SELECT id, tipo, local, telefone, email FROM contacts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("selecting contacts : %w", err)
	}
	return out, nil
}

func (s *Store) SocialMedia(ctx context.Context) ([]models.SocialMedia, error) {
	out := []models.SocialMedia{}
	if err := s.db.SelectContext(ctx, &out, `SELECT id, name, url, icon FROM social_media ORDER BY id`); err != nil {
		return nil, fmt.Errorf("selecting social media : %w", err)
	}
	return out, nil
}

// InsertMessage stores m under a fresh time-ordered id and returns it.
func (s *Store) InsertMessage(ctx context.Context, m Message) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("creating uuid : %w", err)
	}
	m.ID = id.String()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO messages (id, name, email, phone, company, subject, message, created_at)
		VALUES (:id, :name, :email, :phone, :company, :subject, :message, :created_at)`, m)
	if err != nil {
		return "", fmt.Errorf("inserting message : %w", err)
	}
	return m.ID, nil
}

func (s *Store) Message(ctx context.Context, id string) (Message, error) {
	var m Message
	err := s.db.GetContext(ctx, &m, `SELECT id, name, email, phone, company, subject, message, created_at FROM messages WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Message{}, ErrNotFound
		}
		return Message{}, fmt.Errorf("selecting message : %w", err)
	}
	return m, nil
}

// Messages lists submissions, newest first.
func (s *Store) Messages(ctx context.Context) ([]Message, error) {
	out := []Message{}
	if err := s.db.SelectContext(ctx, &out, `SELECT id, name, email, phone, company, subject, message, created_at FROM messages ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("selecting messages : %w", err)
	}
	return out, nil
}
