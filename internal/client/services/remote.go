package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/homekeeper/internal/client/client"
	"github.com/dmitrijs2005/homekeeper/internal/client/codec"
	"github.com/dmitrijs2005/homekeeper/internal/client/metrics"
	"github.com/dmitrijs2005/homekeeper/internal/client/models"
	"github.com/dmitrijs2005/homekeeper/internal/common"
	"github.com/dmitrijs2005/homekeeper/internal/cryptox"
	"github.com/dmitrijs2005/homekeeper/internal/logging"
)

// RemoteBackupService holds the current identity and performs authenticated
// backup operations through a Client.
type RemoteBackupService struct {
	client  client.Client
	codec   *codec.Codec
	log     logging.Logger
	metrics metrics.Recorder

	mu       sync.RWMutex
	identity *models.Identity
}

func NewRemoteBackupService(c client.Client, cd *codec.Codec, log logging.Logger, m metrics.Recorder) *RemoteBackupService {
	if cd == nil {
		cd = codec.Default()
	}
	if m == nil {
		m = metrics.Noop()
	}
	return &RemoteBackupService{
		client:  c,
		codec:   cd,
		log:     log.With("module", "remote"),
		metrics: m,
	}
}

// Identity returns a copy of the current identity, or nil when anonymous.
func (s *RemoteBackupService) Identity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

func (s *RemoteBackupService) setIdentity(id *models.Identity) {
	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()
}

func (s *RemoteBackupService) requireIdentity() (*models.Identity, error) {
	id := s.Identity()
	if id == nil || !s.client.HasSession() {
		return nil, common.ErrUnauthenticated
	}
	return id, nil
}

// Ping checks that the backup service is reachable.
func (s *RemoteBackupService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Register creates the account and signs in with it.
func (s *RemoteBackupService) Register(ctx context.Context, email, password, displayName string) Result[models.Identity] {
	form := &registrationForm{Email: normalizeEmail(email), Password: password, DisplayName: strings.TrimSpace(displayName)}
	if msg, err := checkForm(form); err != nil {
		return failWithMessage[models.Identity](err, msg)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	verifier := cryptox.VerifierFor(form.Password, salt)

	if _, err := s.client.Register(ctx, form.Email, form.DisplayName, salt, verifier); err != nil {
		s.log.Warn(ctx, "register failed", "email", form.Email, "error", err)
		return Fail[models.Identity](err)
	}

	id, err := s.client.Login(ctx, form.Email, verifier)
	if err != nil {
		s.log.Warn(ctx, "login after register failed", "email", form.Email, "error", err)
		return Fail[models.Identity](err)
	}

	s.setIdentity(id)
	s.log.Info(ctx, "registered", "user", id.ID)
	return Succeed(*id)
}

func (s *RemoteBackupService) Login(ctx context.Context, email, password string) Result[models.Identity] {
	form := &loginForm{Email: normalizeEmail(email), Password: password}
	if msg, err := checkForm(form); err != nil {
		return failWithMessage[models.Identity](err, msg)
	}

	salt, err := s.client.GetSalt(ctx, form.Email)
	if err != nil {
		// an unknown email must not be distinguishable from a wrong password
		if errors.Is(err, common.ErrNotFound) {
			err = common.ErrInvalidCredentials
		}
		return Fail[models.Identity](err)
	}

	id, err := s.client.Login(ctx, form.Email, cryptox.VerifierFor(form.Password, salt))
	if err != nil {
		s.log.Warn(ctx, "login failed", "email", form.Email, "error", err)
		return Fail[models.Identity](err)
	}

	s.setIdentity(id)
	s.log.Info(ctx, "logged in", "user", id.ID)
	return Succeed(*id)
}

// Logout forgets the identity locally even when the server call fails.
func (s *RemoteBackupService) Logout(ctx context.Context) Result[struct{}] {
	s.setIdentity(nil)
	if err := s.client.Logout(ctx); err != nil {
		s.log.Warn(ctx, "server logout failed", "error", err)
		return Fail[struct{}](err)
	}
	return Succeed(struct{}{})
}

func (s *RemoteBackupService) Push(ctx context.Context, snap *models.Snapshot) Result[models.PushReceipt] {
	if _, err := s.requireIdentity(); err != nil {
		return Fail[models.PushReceipt](err)
	}
	if snap == nil {
		return Fail[models.PushReceipt](fmt.Errorf("%w: nil snapshot", common.ErrValidation))
	}

	start := time.Now()
	receipt, err := s.push(ctx, snap)
	s.metrics.ObservePushDuration(time.Since(start))
	s.metrics.IncPush(err == nil)
	if err != nil {
		s.log.Warn(ctx, "push failed", "error", err)
		return Fail[models.PushReceipt](err)
	}

	s.log.Info(ctx, "backup pushed", "id", receipt.ID, "ratio", receipt.CompressionRatio)
	return Succeed(*receipt)
}

func (s *RemoteBackupService) push(ctx context.Context, snap *models.Snapshot) (*models.PushReceipt, error) {
	canonical, err := s.codec.Canonical(snap)
	if err != nil {
		return nil, err
	}
	encoded, err := s.codec.Encode(snap)
	if err != nil {
		return nil, err
	}

	info, err := s.client.PushBackup(ctx, encoded)
	if err != nil {
		return nil, err
	}

	return &models.PushReceipt{
		ID:               info.ID,
		Timestamp:        info.Timestamp,
		CompressionRatio: codec.CompressionRatio(canonical, encoded),
	}, nil
}

// PullLatest fetches and decodes the latest backup of the current identity.
func (s *RemoteBackupService) PullLatest(ctx context.Context) Result[*models.Snapshot] {
	id, err := s.requireIdentity()
	if err != nil {
		return Fail[*models.Snapshot](err)
	}

	entry, err := s.client.GetLatestBackup(ctx)
	if err != nil {
		return Fail[*models.Snapshot](err)
	}
	return s.restore(ctx, id, entry)
}

// PullByID fetches a history entry. Entries owned by another identity are
// never decoded.
func (s *RemoteBackupService) PullByID(ctx context.Context, backupID string) Result[*models.Snapshot] {
	id, err := s.requireIdentity()
	if err != nil {
		return Fail[*models.Snapshot](err)
	}
	if strings.TrimSpace(backupID) == "" {
		return Fail[*models.Snapshot](fmt.Errorf("%w: empty backup id", common.ErrValidation))
	}

	entry, err := s.client.GetBackup(ctx, backupID)
	if err != nil {
		return Fail[*models.Snapshot](err)
	}
	return s.restore(ctx, id, entry)
}

func (s *RemoteBackupService) restore(ctx context.Context, id *models.Identity, entry *models.BackupEntry) Result[*models.Snapshot] {
	if entry.Owner != id.ID {
		s.log.Warn(ctx, "refusing foreign backup", "backup", entry.ID, "user", id.ID)
		return Fail[*models.Snapshot](common.ErrForbidden)
	}

	snap := &models.Snapshot{}
	if err := s.codec.DecodeInto(entry.Data, snap); err != nil {
		s.log.Warn(ctx, "backup decode failed", "backup", entry.ID, "error", err)
		return Fail[*models.Snapshot](err)
	}
	return Succeed(snap)
}

// History lists backups most recent first, at most limit entries.
func (s *RemoteBackupService) History(ctx context.Context, limit int) Result[[]models.BackupInfo] {
	if _, err := s.requireIdentity(); err != nil {
		return Fail[[]models.BackupInfo](err)
	}
	if limit <= 0 {
		return Succeed([]models.BackupInfo{})
	}

	items, err := s.client.ListBackups(ctx, limit)
	if err != nil {
		return Fail[[]models.BackupInfo](err)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return Succeed(items)
}
