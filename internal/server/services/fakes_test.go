package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/homekeeper/internal/common"
	"github.com/dmitrijs2005/homekeeper/internal/dbx"
	"github.com/dmitrijs2005/homekeeper/internal/server/models"
	"github.com/dmitrijs2005/homekeeper/internal/server/repositories/backups"
	"github.com/dmitrijs2005/homekeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/homekeeper/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error
	gotArg string
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "new-id"
	return u, nil
}

func (f *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.gotArg = email
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return f.GetUserByEmail(ctx, id)
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr    error
	createErr error

	created []string
	deleted []string
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, token)
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 2, nil
}

// memBackups is an in-memory backups.Repository.
type memBackups struct {
	mu        sync.Mutex
	rows      map[string]models.Backup
	latest    map[string]string
	createErr error
	listErr   error
}

func newMemBackups() *memBackups {
	return &memBackups{rows: map[string]models.Backup{}, latest: map[string]string{}}
}

func (m *memBackups) Create(ctx context.Context, b *models.Backup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.rows[b.ID] = *b
	return nil
}

func (m *memBackups) SetLatest(ctx context.Context, userID, backupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[userID] = backupID
	return nil
}

func (m *memBackups) Get(ctx context.Context, id string) (*models.Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &b, nil
}

func (m *memBackups) Latest(ctx context.Context, userID string) (*models.Backup, error) {
	m.mu.Lock()
	id, ok := m.latest[userID]
	m.mu.Unlock()
	if !ok {
		return nil, common.ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *memBackups) sorted(userID string) []models.Backup {
	var out []models.Backup
	for _, b := range m.rows {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *memBackups) List(ctx context.Context, userID string, limit int) ([]models.Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := m.sorted(userID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memBackups) Prune(ctx context.Context, userID string, keep int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(userID)
	var keys []string
	for i := keep; i < len(all); i++ {
		delete(m.rows, all[i].ID)
		keys = append(keys, all[i].StorageKey)
	}
	return keys, nil
}

// memBlobs is an in-memory blobstore.Store.
type memBlobs struct {
	mu     sync.Mutex
	data   map[string][]byte
	putErr error
}

func newMemBlobs() *memBlobs { return &memBlobs{data: map[string][]byte{}} }

func (m *memBlobs) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return d, nil
}

func (m *memBlobs) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memBlobs) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	b *memBackups
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Backups(db dbx.DBTX) backups.Repository             { return m.b }
