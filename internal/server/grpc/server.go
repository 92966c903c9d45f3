// Package grpc exposes the backup server's services over gRPC.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/homekeeper/internal/api"
	"github.com/dmitrijs2005/homekeeper/internal/logging"
	"github.com/dmitrijs2005/homekeeper/internal/server/models"
	"github.com/dmitrijs2005/homekeeper/internal/server/services"
)

type userSvc interface {
	Register(ctx context.Context, email, displayName string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, email string) ([]byte, error)
	Login(ctx context.Context, email string, verifierCandidate []byte) (*services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

type backupSvc interface {
	Push(ctx context.Context, userID, data string) (*models.Backup, error)
	Latest(ctx context.Context, userID string) (*models.Backup, string, error)
	Get(ctx context.Context, userID, id string) (*models.Backup, string, error)
	List(ctx context.Context, userID string, limit int) ([]models.Backup, error)
}

type GRPCServer struct {
	api.UnimplementedBackupServiceServer
	address   string
	users     userSvc
	backups   backupSvc
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, us userSvc, bs backupSvc, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		backups:   bs,
		jwtSecret: []byte(secretKey),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis and stops gracefully when ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.accessTokenInterceptor))
	api.RegisterBackupServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
