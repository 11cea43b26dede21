package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/grocerytracker/internal/model"
)

const (
	keyPrefix       = "GROCERY"
	keySuffixLength = 6
	base36Alphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

type AccessKeyStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewAccessKeyStore(db *sql.DB) *AccessKeyStore {
	return &AccessKeyStore{db: db, now: time.Now}
}

func scanAccessKey(scanner interface{ Scan(...any) error }) (*model.AccessKey, error) {
	var k model.AccessKey
	var createdBy sql.NullInt64
	var expiresAt sql.NullTime
	err := scanner.Scan(&k.ID, &k.Value, &createdBy, &k.CreatedAt, &expiresAt)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		k.CreatedBy = &createdBy.Int64
	}
	if expiresAt.Valid {
		k.ExpiresAt = &expiresAt.Time
	}
	return &k, nil
}

const accessKeyCols = `id, key_value, created_by, created_at, expires_at`

// GenerateKey builds a key in the format GROCERY-<base36 millis>-<6 random base36 chars>.
func GenerateKey(now time.Time) (string, error) {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	var b strings.Builder
	max := big.NewInt(int64(len(base36Alphabet)))
	for range keySuffixLength {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate key: %w", err)
		}
		b.WriteByte(base36Alphabet[n.Int64()])
	}
	return fmt.Sprintf("%s-%s-%s", keyPrefix, ts, b.String()), nil
}

// Generate creates and stores a fresh key. Existing keys stay valid.
func (s *AccessKeyStore) Generate(ctx context.Context, createdBy *int64) (*model.AccessKey, error) {
	value, err := GenerateKey(s.now())
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, value, createdBy)
}

func (s *AccessKeyStore) Create(ctx context.Context, value string, createdBy *int64) (*model.AccessKey, error) {
	var cBy sql.NullInt64
	if createdBy != nil {
		cBy = sql.NullInt64{Int64: *createdBy, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO access_keys (key_value, created_by) VALUES (?, ?)`,
		value, cBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert access key: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+accessKeyCols+` FROM access_keys WHERE id = ?`, id)
	return scanAccessKey(row)
}

// GetByValue looks a key up by exact match. Expiry is not checked.
func (s *AccessKeyStore) GetByValue(ctx context.Context, value string) (*model.AccessKey, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accessKeyCols+` FROM access_keys WHERE key_value = ?`, value)
	k, err := scanAccessKey(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get access key: %w", err)
	}
	return k, nil
}

// List returns all keys, newest first.
func (s *AccessKeyStore) List(ctx context.Context) ([]model.AccessKey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accessKeyCols+` FROM access_keys ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list access keys: %w", err)
	}
	defer rows.Close()

	var keys []model.AccessKey
	for rows.Next() {
		k, err := scanAccessKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan access key: %w", err)
		}
		keys = append(keys, *k)
	}
	return keys, rows.Err()
}

func (s *AccessKeyStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM access_keys`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count access keys: %w", err)
	}
	return count, nil
}
