package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/dmitrijs2005/homekeeper/internal/api"
	"github.com/dmitrijs2005/homekeeper/internal/common"
	"github.com/dmitrijs2005/homekeeper/internal/server/models"
)

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) RegisterUser(ctx context.Context, req *api.RegisterUserRequest) (*api.RegisterUserResponse, error) {
	s.logger.Info(ctx, "Registration request")

	u, err := s.users.Register(ctx, req.Email, req.DisplayName, req.Salt, req.Verifier)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user", u.ID)
	return &api.RegisterUserResponse{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName}, nil
}

func (s *GRPCServer) GetSalt(ctx context.Context, req *api.GetSaltRequest) (*api.GetSaltResponse, error) {
	salt, err := s.users.GetSalt(ctx, req.Email)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.GetSaltResponse{Salt: salt}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	sess, err := s.users.Login(ctx, req.Email, req.VerifierCandidate)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.LoginResponse{
		UserID:       sess.User.ID,
		Email:        sess.User.Email,
		DisplayName:  sess.User.DisplayName,
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
	}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.RefreshTokenResponse, error) {
	pair, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.RefreshTokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *api.LogoutRequest) (*emptypb.Empty, error) {
	if err := s.users.Logout(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) PushBackup(ctx context.Context, req *api.PushBackupRequest) (*api.PushBackupResponse, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing user")
	}

	b, err := s.backups.Push(ctx, userID, req.Data)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.PushBackupResponse{ID: b.ID, Timestamp: b.CreatedAt, Size: b.Size}, nil
}

func (s *GRPCServer) GetLatestBackup(ctx context.Context, _ *emptypb.Empty) (*api.BackupResponse, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing user")
	}

	b, data, err := s.backups.Latest(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toBackupResponse(b, data), nil
}

func (s *GRPCServer) GetBackup(ctx context.Context, req *api.GetBackupRequest) (*api.BackupResponse, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing user")
	}

	b, data, err := s.backups.Get(ctx, userID, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toBackupResponse(b, data), nil
}

func (s *GRPCServer) ListBackups(ctx context.Context, req *api.ListBackupsRequest) (*api.ListBackupsResponse, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing user")
	}

	items, err := s.backups.List(ctx, userID, int(req.Limit))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &api.ListBackupsResponse{Items: make([]api.BackupItem, 0, len(items))}
	for _, b := range items {
		resp.Items = append(resp.Items, api.BackupItem{ID: b.ID, Timestamp: b.CreatedAt, Size: b.Size})
	}
	return resp, nil
}

func toBackupResponse(b *models.Backup, data string) *api.BackupResponse {
	return &api.BackupResponse{ID: b.ID, Owner: b.UserID, Timestamp: b.CreatedAt, Data: data}
}

// toStatus maps a service error onto the status code the client expects.
// Internal failures are logged and hidden behind a generic message.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
