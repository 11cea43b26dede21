package backup

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/grocerytracker/internal/database"
	"github.com/dukerupert/grocerytracker/internal/model"
	"github.com/dukerupert/grocerytracker/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(string(data))),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.delErr != nil {
		return nil, m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func setupManager(t *testing.T) (*Manager, *mockS3Client, *sql.DB, *store.BackupStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	m := NewManager(Config{
		S3:         S3Config{Bucket: "pantry", AccessKey: "key", SecretKey: "secret", Prefix: "nightly"},
		Passphrase: "correct horse",
	}, db, bs, slog.New(slog.DiscardHandler))

	mock := newMockS3()
	m.client = mock
	return m, mock, db, bs
}

func TestManagerDisabled(t *testing.T) {
	m := NewManager(Config{}, nil, nil, slog.New(slog.DiscardHandler))
	assert.False(t, m.Enabled())
	assert.Equal(t, StateDisabled, m.Status().State)

	_, err := m.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, _, err = m.Download(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.NoError(t, m.Cleanup(context.Background(), 30))

	// Credentials without a passphrase stay disabled.
	m = NewManager(Config{
		S3: S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s"},
	}, nil, nil, slog.New(slog.DiscardHandler))
	assert.False(t, m.Enabled())
}

func TestManagerEnabled(t *testing.T) {
	m := NewManager(Config{
		S3:         S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s"},
		Passphrase: "p",
	}, nil, nil, slog.New(slog.DiscardHandler))
	assert.True(t, m.Enabled())
	assert.Equal(t, StateIdle, m.Status().State)
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	ctx := context.Background()
	m, mock, db, _ := setupManager(t)

	_, err := store.NewCategoryStore(db).Create(ctx, "Dairy", "bg-blue-500", "🥛")
	require.NoError(t, err)

	record, err := m.RunNow(ctx)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, model.BackupStatusCompleted, record.Status)
	assert.True(t, strings.HasPrefix(record.S3Key, "nightly/backup-"))
	assert.True(t, strings.HasSuffix(record.Filename, ".db.enc"))
	assert.NotNil(t, record.CompletedAt)

	data, ok := mock.objects[record.S3Key]
	require.True(t, ok, "object should be uploaded")
	assert.Equal(t, int64(len(data)), record.SizeBytes)
	assert.False(t, strings.HasPrefix(string(data), "SQLite format 3"), "upload must be encrypted")

	plain, err := Decrypt(data, "correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(plain), "SQLite format 3"))

	status := m.Status()
	assert.Equal(t, StateIdle, status.State)
	assert.NotNil(t, status.LastBackup)
}

func TestRunNowUploadFailure(t *testing.T) {
	ctx := context.Background()
	m, mock, _, bs := setupManager(t)
	mock.putErr = errors.New("bucket unreachable")

	_, err := m.RunNow(ctx)
	require.Error(t, err)

	status := m.Status()
	assert.Equal(t, StateError, status.State)
	assert.Contains(t, status.Error, "bucket unreachable")

	backups, err := bs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, model.BackupStatusFailed, backups[0].Status)
	assert.Contains(t, backups[0].ErrorMessage, "bucket unreachable")
}

func TestDownloadAndRestore(t *testing.T) {
	ctx := context.Background()
	m, _, db, _ := setupManager(t)

	_, err := store.NewCategoryStore(db).Create(ctx, "Bakery", "bg-amber-500", "🍞")
	require.NoError(t, err)

	record, err := m.RunNow(ctx)
	require.NoError(t, err)

	body, size, err := m.Download(ctx, record.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	body.Close()
	require.NoError(t, err)
	assert.Equal(t, record.SizeBytes, size)
	assert.Len(t, data, int(size))

	dest := filepath.Join(t.TempDir(), "restored.db")
	require.NoError(t, m.Restore(ctx, record.ID, dest))

	restored, err := sql.Open("sqlite", dest)
	require.NoError(t, err)
	defer restored.Close()

	var name string
	require.NoError(t, restored.QueryRow(`SELECT name FROM categories WHERE name = 'Bakery'`).Scan(&name))
	assert.Equal(t, "Bakery", name)
}

func TestRestoreWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := setupManager(t)

	record, err := m.RunNow(ctx)
	require.NoError(t, err)

	m.cfg.Passphrase = "wrong"
	dest := filepath.Join(t.TempDir(), "restored.db")
	assert.Error(t, m.Restore(ctx, record.ID, dest))

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "nothing should be written on decrypt failure")
}

func TestDownloadUnknownBackup(t *testing.T) {
	m, _, _, _ := setupManager(t)
	_, _, err := m.Download(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownloadFailedBackup(t *testing.T) {
	ctx := context.Background()
	m, _, _, bs := setupManager(t)

	record, err := bs.Create(ctx, "backup-x.db.enc", "nightly/backup-x.db.enc")
	require.NoError(t, err)
	require.NoError(t, bs.UpdateStatus(ctx, record.ID, model.BackupStatusFailed, "boom"))

	_, _, err = m.Download(ctx, record.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCleanupRemovesOldObjects(t *testing.T) {
	ctx := context.Background()
	m, mock, db, bs := setupManager(t)

	old, err := m.RunNow(ctx)
	require.NoError(t, err)
	fresh, err := m.RunNow(ctx)
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE backups SET created_at = '2000-01-01 00:00:00' WHERE id = ?`, old.ID)
	require.NoError(t, err)

	require.NoError(t, m.Cleanup(ctx, 30))

	_, hasOld := mock.objects[old.S3Key]
	_, hasFresh := mock.objects[fresh.S3Key]
	assert.False(t, hasOld)
	assert.True(t, hasFresh)

	backups, err := bs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, fresh.ID, backups[0].ID)
}

func TestCleanupIgnoresObjectDeleteErrors(t *testing.T) {
	ctx := context.Background()
	m, mock, db, bs := setupManager(t)

	old, err := m.RunNow(ctx)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE backups SET created_at = '2000-01-01 00:00:00' WHERE id = ?`, old.ID)
	require.NoError(t, err)

	mock.delErr = errors.New("denied")
	assert.NoError(t, m.Cleanup(ctx, 30))

	backups, err := bs.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, backups)
}
