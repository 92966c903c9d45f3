package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/homekeeper/internal/client/client"
	"github.com/dmitrijs2005/homekeeper/internal/client/models"
	"github.com/dmitrijs2005/homekeeper/internal/common"
)

type fakeUser struct {
	id       string
	name     string
	salt     []byte
	verifier []byte
}

// fakeClient is an in-memory backup server. GetBackup deliberately skips
// the owner check so the service-side check can be observed.
type fakeClient struct {
	mu      sync.Mutex
	users   map[string]fakeUser
	backups []models.BackupEntry
	session string
	clock   time.Time

	PingErr error
	PushErr error
	Pushes  int
}

var _ client.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{
		users: map[string]fakeUser{},
		clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) Ping(ctx context.Context) error { return f.PingErr }

func (f *fakeClient) Register(ctx context.Context, email, displayName string, salt []byte, verifier []byte) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return nil, fmt.Errorf("%w: %s", common.ErrAlreadyExists, email)
	}
	u := fakeUser{id: fmt.Sprintf("user-%d", len(f.users)+1), name: displayName, salt: salt, verifier: verifier}
	f.users[email] = u
	return &models.Identity{ID: u.id, Email: email, DisplayName: displayName}, nil
}

func (f *fakeClient) GetSalt(ctx context.Context, email string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u.salt, nil
}

func (f *fakeClient) Login(ctx context.Context, email string, verifier []byte) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok || !bytes.Equal(u.verifier, verifier) {
		return nil, common.ErrInvalidCredentials
	}
	f.session = u.id
	return &models.Identity{ID: u.id, Email: email, DisplayName: u.name}, nil
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = ""
	return nil
}

func (f *fakeClient) HasSession() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session != ""
}

func (f *fakeClient) PushBackup(ctx context.Context, data string) (*models.BackupInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PushErr != nil {
		return nil, f.PushErr
	}
	if f.session == "" {
		return nil, client.ErrUnauthorized
	}
	f.Pushes++
	f.clock = f.clock.Add(time.Minute)
	e := models.BackupEntry{ID: fmt.Sprintf("b%d", len(f.backups)+1), Owner: f.session, Timestamp: f.clock, Data: data}
	f.backups = append(f.backups, e)
	return &models.BackupInfo{ID: e.ID, Timestamp: e.Timestamp, Size: int64(len(data))}, nil
}

func (f *fakeClient) GetLatestBackup(ctx context.Context) (*models.BackupEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.backups) - 1; i >= 0; i-- {
		if f.backups[i].Owner == f.session {
			e := f.backups[i]
			return &e, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeClient) GetBackup(ctx context.Context, id string) (*models.BackupEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.backups {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeClient) ListBackups(ctx context.Context, limit int) ([]models.BackupInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.BackupInfo
	for i := len(f.backups) - 1; i >= 0 && len(out) < limit; i-- {
		e := f.backups[i]
		if e.Owner == f.session {
			out = append(out, models.BackupInfo{ID: e.ID, Timestamp: e.Timestamp, Size: int64(len(e.Data))})
		}
	}
	return out, nil
}
