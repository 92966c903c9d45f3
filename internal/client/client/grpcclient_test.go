package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/dmitrijs2005/homekeeper/internal/api"
	"github.com/dmitrijs2005/homekeeper/internal/common"
)

/*************
 * Fake api client
 *************/

type fakeAPI struct {
	lastRefreshTokenReq *api.RefreshTokenRequest
	lastGetSaltReq      *api.GetSaltRequest
	lastLoginReq        *api.LoginRequest
	lastRegisterReq     *api.RegisterUserRequest
	lastLogoutReq       *api.LogoutRequest
	lastPushReq         *api.PushBackupRequest
	lastGetReq          *api.GetBackupRequest
	lastListReq         *api.ListBackupsRequest

	refreshTokenResp *api.RefreshTokenResponse
	refreshTokenErr  error

	pingResp *api.PingResponse
	pingErr  error

	getSaltResp *api.GetSaltResponse
	getSaltErr  error

	loginResp *api.LoginResponse
	loginErr  error

	registerResp *api.RegisterUserResponse
	registerErr  error

	logoutErr error

	pushResp *api.PushBackupResponse
	pushErr  error

	backupResp *api.BackupResponse
	backupErr  error

	listResp *api.ListBackupsResponse
	listErr  error
}

func (f *fakeAPI) Ping(ctx context.Context, in *api.PingRequest, opts ...grpc.CallOption) (*api.PingResponse, error) {
	return f.pingResp, f.pingErr
}
func (f *fakeAPI) RegisterUser(ctx context.Context, in *api.RegisterUserRequest, opts ...grpc.CallOption) (*api.RegisterUserResponse, error) {
	f.lastRegisterReq = in
	return f.registerResp, f.registerErr
}
func (f *fakeAPI) GetSalt(ctx context.Context, in *api.GetSaltRequest, opts ...grpc.CallOption) (*api.GetSaltResponse, error) {
	f.lastGetSaltReq = in
	return f.getSaltResp, f.getSaltErr
}
func (f *fakeAPI) Login(ctx context.Context, in *api.LoginRequest, opts ...grpc.CallOption) (*api.LoginResponse, error) {
	f.lastLoginReq = in
	return f.loginResp, f.loginErr
}
func (f *fakeAPI) RefreshToken(ctx context.Context, in *api.RefreshTokenRequest, opts ...grpc.CallOption) (*api.RefreshTokenResponse, error) {
	f.lastRefreshTokenReq = in
	return f.refreshTokenResp, f.refreshTokenErr
}
func (f *fakeAPI) Logout(ctx context.Context, in *api.LogoutRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	f.lastLogoutReq = in
	return &emptypb.Empty{}, f.logoutErr
}
func (f *fakeAPI) PushBackup(ctx context.Context, in *api.PushBackupRequest, opts ...grpc.CallOption) (*api.PushBackupResponse, error) {
	f.lastPushReq = in
	return f.pushResp, f.pushErr
}
func (f *fakeAPI) GetLatestBackup(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*api.BackupResponse, error) {
	return f.backupResp, f.backupErr
}
func (f *fakeAPI) GetBackup(ctx context.Context, in *api.GetBackupRequest, opts ...grpc.CallOption) (*api.BackupResponse, error) {
	f.lastGetReq = in
	return f.backupResp, f.backupErr
}
func (f *fakeAPI) ListBackups(ctx context.Context, in *api.ListBackupsRequest, opts ...grpc.CallOption) (*api.ListBackupsResponse, error) {
	f.lastListReq = in
	return f.listResp, f.listErr
}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_RefreshesTokenOnExpiredAndRetries(t *testing.T) {
	f := &fakeAPI{
		refreshTokenResp: &api.RefreshTokenResponse{AccessToken: "A2", RefreshToken: "R2"},
	}
	c := &GRPCClient{
		client:       f,
		accessToken:  "A1",
		refreshToken: "R1",
	}

	callCount := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		callCount++
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(common.AccessTokenHeaderName)
		require.Len(t, toks, 1)

		if callCount == 1 {
			require.Equal(t, "A1", toks[0])
			return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		require.Equal(t, "A2", toks[0])
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, callCount)
	require.Equal(t, "A2", c.accessToken)
	require.Equal(t, "R2", c.refreshToken)
	require.Equal(t, "R1", f.lastRefreshTokenReq.RefreshToken)
}

func TestInterceptor_NoRefreshIfNoRefreshToken(t *testing.T) {
	f := &fakeAPI{}
	c := &GRPCClient{
		client:      f,
		accessToken: "A1",
	}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.lastRefreshTokenReq)
}

func TestInterceptor_FailedRefreshReturnsOriginalError(t *testing.T) {
	f := &fakeAPI{refreshTokenErr: status.Error(codes.Unauthenticated, "revoked")}
	c := &GRPCClient{client: f, accessToken: "A1", refreshToken: "R1"}

	calls := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, "A1", c.accessToken)
}

func TestInterceptor_IgnoresOtherErrors(t *testing.T) {
	c := &GRPCClient{accessToken: "X"}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Internal, "boom")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
}

func TestInterceptor_UnauthenticatedButDifferentMessage_NoRefresh(t *testing.T) {
	c := &GRPCClient{accessToken: "X", refreshToken: "R"}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "some other reason")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
}

func TestInterceptor_AnonymousCallCarriesNoToken(t *testing.T) {
	c := &GRPCClient{}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccessTokenHeaderName))
		return nil
	}
	require.NoError(t, c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.Unauthenticated, "x")))
	require.ErrorIs(t, c.mapError(status.Error(codes.Unauthenticated, "x")), common.ErrUnauthenticated)
	require.ErrorIs(t, c.mapError(status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())), common.ErrInvalidCredentials)
	require.ErrorIs(t, c.mapError(status.Error(codes.PermissionDenied, "x")), common.ErrForbidden)
	require.ErrorIs(t, c.mapError(status.Error(codes.NotFound, "x")), common.ErrNotFound)
	require.ErrorIs(t, c.mapError(status.Error(codes.AlreadyExists, "x")), common.ErrAlreadyExists)
	require.ErrorIs(t, c.mapError(status.Error(codes.InvalidArgument, "x")), common.ErrValidation)
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))
	require.ErrorIs(t, c.mapError(context.DeadlineExceeded), common.ErrTransportFailure)

	e := errors.New("plain")
	require.ErrorContains(t, c.mapError(e), "rpc error:")
	require.ErrorIs(t, c.mapError(e), common.ErrTransportFailure)
	require.NoError(t, c.mapError(nil))
}

/*************
 * Ping tests
 *************/

func TestPing_OK(t *testing.T) {
	f := &fakeAPI{pingResp: &api.PingResponse{Status: "OK"}}
	c := &GRPCClient{client: f}
	require.NoError(t, c.Ping(context.Background()))
}

func TestPing_NotOK_ReturnsUnavailable(t *testing.T) {
	f := &fakeAPI{pingResp: &api.PingResponse{Status: "NOT_OK"}}
	c := &GRPCClient{client: f}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestPing_MapsRPCError(t *testing.T) {
	f := &fakeAPI{pingErr: status.Error(codes.Unavailable, "down")}
	c := &GRPCClient{client: f}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

/*************
 * Identity tests
 *************/

func TestGetSalt_Success(t *testing.T) {
	f := &fakeAPI{getSaltResp: &api.GetSaltResponse{Salt: []byte{1, 2, 3}}}
	c := &GRPCClient{client: f}
	salt, err := c.GetSalt(context.Background(), "u@example.com")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, salt)
	require.Equal(t, "u@example.com", f.lastGetSaltReq.Email)
}

func TestGetSalt_MapsError(t *testing.T) {
	f := &fakeAPI{getSaltErr: status.Error(codes.Unavailable, "x")}
	c := &GRPCClient{client: f}
	_, err := c.GetSalt(context.Background(), "u@example.com")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestLogin_SetsTokens(t *testing.T) {
	f := &fakeAPI{loginResp: &api.LoginResponse{
		UserID: "id-1", Email: "u@example.com", DisplayName: "U", AccessToken: "A", RefreshToken: "R",
	}}
	c := &GRPCClient{client: f}

	id, err := c.Login(context.Background(), "u@example.com", []byte{9})
	require.NoError(t, err)
	require.Equal(t, "id-1", id.ID)
	require.Equal(t, "U", id.DisplayName)
	require.Equal(t, "A", c.accessToken)
	require.Equal(t, "R", c.refreshToken)
	require.True(t, c.HasSession())
	require.Equal(t, []byte{9}, f.lastLoginReq.VerifierCandidate)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := &fakeAPI{loginErr: status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())}
	c := &GRPCClient{client: f}

	_, err := c.Login(context.Background(), "u@example.com", []byte{9})
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	require.False(t, c.HasSession())
}

func TestRegister_Success(t *testing.T) {
	f := &fakeAPI{registerResp: &api.RegisterUserResponse{UserID: "id-1", Email: "u@example.com", DisplayName: "U"}}
	c := &GRPCClient{client: f}

	id, err := c.Register(context.Background(), "u@example.com", "U", []byte{1}, []byte{2})
	require.NoError(t, err)
	require.Equal(t, "id-1", id.ID)
	require.Equal(t, []byte{1}, f.lastRegisterReq.Salt)
	require.Equal(t, []byte{2}, f.lastRegisterReq.Verifier)
}

func TestRegister_MapsError(t *testing.T) {
	f := &fakeAPI{registerErr: status.Error(codes.AlreadyExists, "taken")}
	c := &GRPCClient{client: f}
	_, err := c.Register(context.Background(), "u@example.com", "U", []byte{1}, []byte{2})
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestLogout_RevokesAndClearsTokens(t *testing.T) {
	f := &fakeAPI{}
	c := &GRPCClient{client: f, accessToken: "A", refreshToken: "R"}

	require.NoError(t, c.Logout(context.Background()))
	require.Equal(t, "R", f.lastLogoutReq.RefreshToken)
	require.False(t, c.HasSession())
}

func TestLogout_ClearsTokensEvenOnError(t *testing.T) {
	f := &fakeAPI{logoutErr: status.Error(codes.Unavailable, "down")}
	c := &GRPCClient{client: f, accessToken: "A", refreshToken: "R"}

	require.ErrorIs(t, c.Logout(context.Background()), ErrUnavailable)
	require.False(t, c.HasSession())
}

func TestLogout_WithoutSessionIsNoop(t *testing.T) {
	f := &fakeAPI{}
	c := &GRPCClient{client: f}
	require.NoError(t, c.Logout(context.Background()))
	require.Nil(t, f.lastLogoutReq)
}

/*************
 * Backup tests
 *************/

func TestPushBackup(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := &fakeAPI{pushResp: &api.PushBackupResponse{ID: "b1", Timestamp: ts, Size: 10}}
	c := &GRPCClient{client: f}

	info, err := c.PushBackup(context.Background(), "payload")
	require.NoError(t, err)
	require.Equal(t, "b1", info.ID)
	require.Equal(t, ts, info.Timestamp)
	require.Equal(t, int64(10), info.Size)
	require.Equal(t, "payload", f.lastPushReq.Data)
}

func TestGetLatestBackup_NotFound(t *testing.T) {
	f := &fakeAPI{backupErr: status.Error(codes.NotFound, "no backups")}
	c := &GRPCClient{client: f}

	_, err := c.GetLatestBackup(context.Background())
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetBackup(t *testing.T) {
	f := &fakeAPI{backupResp: &api.BackupResponse{ID: "b1", Owner: "id-1", Data: "x"}}
	c := &GRPCClient{client: f}

	b, err := c.GetBackup(context.Background(), "b1")
	require.NoError(t, err)
	require.Equal(t, "id-1", b.Owner)
	require.Equal(t, "x", b.Data)
	require.Equal(t, "b1", f.lastGetReq.ID)
}

func TestGetBackup_Forbidden(t *testing.T) {
	f := &fakeAPI{backupErr: status.Error(codes.PermissionDenied, "not yours")}
	c := &GRPCClient{client: f}

	_, err := c.GetBackup(context.Background(), "b1")
	require.ErrorIs(t, err, common.ErrForbidden)
}

func TestListBackups(t *testing.T) {
	f := &fakeAPI{listResp: &api.ListBackupsResponse{Items: []api.BackupItem{{ID: "b2"}, {ID: "b1"}}}}
	c := &GRPCClient{client: f}

	items, err := c.ListBackups(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "b2", items[0].ID)
	require.Equal(t, int32(5), f.lastListReq.Limit)
}
