package grpc

import (
	"context"

	"github.com/dmitrijs2005/homekeeper/internal/server/models"
	"github.com/dmitrijs2005/homekeeper/internal/server/services"
)

type fakeUser struct {
	regResp *models.User
	regErr  error

	saltResp []byte
	saltErr  error

	loginResp *services.Session
	loginErr  error

	refreshResp *services.TokenPair
	refreshErr  error

	logoutErr error
	loggedOut []string
}

func (f *fakeUser) Register(ctx context.Context, email, displayName string, salt, verifier []byte) (*models.User, error) {
	return f.regResp, f.regErr
}
func (f *fakeUser) GetSalt(ctx context.Context, email string) ([]byte, error) {
	return f.saltResp, f.saltErr
}
func (f *fakeUser) Login(ctx context.Context, email string, verifierCandidate []byte) (*services.Session, error) {
	return f.loginResp, f.loginErr
}
func (f *fakeUser) RefreshToken(ctx context.Context, refresh string) (*services.TokenPair, error) {
	return f.refreshResp, f.refreshErr
}
func (f *fakeUser) Logout(ctx context.Context, refresh string) error {
	f.loggedOut = append(f.loggedOut, refresh)
	return f.logoutErr
}

type fakeBackups struct {
	pushResp *models.Backup
	pushErr  error
	pushed   []string

	getResp *models.Backup
	getData string
	getErr  error
	gotUser string
	gotID   string

	listResp  []models.Backup
	listErr   error
	listLimit int
}

func (f *fakeBackups) Push(ctx context.Context, userID, data string) (*models.Backup, error) {
	f.gotUser = userID
	f.pushed = append(f.pushed, data)
	return f.pushResp, f.pushErr
}
func (f *fakeBackups) Latest(ctx context.Context, userID string) (*models.Backup, string, error) {
	f.gotUser = userID
	return f.getResp, f.getData, f.getErr
}
func (f *fakeBackups) Get(ctx context.Context, userID, id string) (*models.Backup, string, error) {
	f.gotUser, f.gotID = userID, id
	return f.getResp, f.getData, f.getErr
}
func (f *fakeBackups) List(ctx context.Context, userID string, limit int) ([]models.Backup, error) {
	f.gotUser, f.listLimit = userID, limit
	return f.listResp, f.listErr
}
