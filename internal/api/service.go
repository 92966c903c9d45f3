package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "homekeeper.backup.v1.BackupService"

const (
	MethodPing            = "Ping"
	MethodRegisterUser    = "RegisterUser"
	MethodGetSalt         = "GetSalt"
	MethodLogin           = "Login"
	MethodRefreshToken    = "RefreshToken"
	MethodLogout          = "Logout"
	MethodPushBackup      = "PushBackup"
	MethodGetLatestBackup = "GetLatestBackup"
	MethodGetBackup       = "GetBackup"
	MethodListBackups     = "ListBackups"
)

// FullMethod returns the gRPC path of method, e.g.
// "/homekeeper.backup.v1.BackupService/Ping".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type BackupServiceServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	RegisterUser(context.Context, *RegisterUserRequest) (*RegisterUserResponse, error)
	GetSalt(context.Context, *GetSaltRequest) (*GetSaltResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Logout(context.Context, *LogoutRequest) (*emptypb.Empty, error)
	PushBackup(context.Context, *PushBackupRequest) (*PushBackupResponse, error)
	GetLatestBackup(context.Context, *emptypb.Empty) (*BackupResponse, error)
	GetBackup(context.Context, *GetBackupRequest) (*BackupResponse, error)
	ListBackups(context.Context, *ListBackupsRequest) (*ListBackupsResponse, error)
}

// UnimplementedBackupServiceServer can be embedded to get forward
// compatible implementations.
type UnimplementedBackupServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedBackupServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, unimplemented(MethodPing)
}
func (UnimplementedBackupServiceServer) RegisterUser(context.Context, *RegisterUserRequest) (*RegisterUserResponse, error) {
	return nil, unimplemented(MethodRegisterUser)
}
func (UnimplementedBackupServiceServer) GetSalt(context.Context, *GetSaltRequest) (*GetSaltResponse, error) {
	return nil, unimplemented(MethodGetSalt)
}
func (UnimplementedBackupServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, unimplemented(MethodLogin)
}
func (UnimplementedBackupServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	return nil, unimplemented(MethodRefreshToken)
}
func (UnimplementedBackupServiceServer) Logout(context.Context, *LogoutRequest) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodLogout)
}
func (UnimplementedBackupServiceServer) PushBackup(context.Context, *PushBackupRequest) (*PushBackupResponse, error) {
	return nil, unimplemented(MethodPushBackup)
}
func (UnimplementedBackupServiceServer) GetLatestBackup(context.Context, *emptypb.Empty) (*BackupResponse, error) {
	return nil, unimplemented(MethodGetLatestBackup)
}
func (UnimplementedBackupServiceServer) GetBackup(context.Context, *GetBackupRequest) (*BackupResponse, error) {
	return nil, unimplemented(MethodGetBackup)
}
func (UnimplementedBackupServiceServer) ListBackups(context.Context, *ListBackupsRequest) (*ListBackupsResponse, error) {
	return nil, unimplemented(MethodListBackups)
}

func unaryHandler[Req, Resp any](method string, call func(BackupServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BackupServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BackupServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BackupServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodPing, Handler: unaryHandler(MethodPing, BackupServiceServer.Ping)},
		{MethodName: MethodRegisterUser, Handler: unaryHandler(MethodRegisterUser, BackupServiceServer.RegisterUser)},
		{MethodName: MethodGetSalt, Handler: unaryHandler(MethodGetSalt, BackupServiceServer.GetSalt)},
		{MethodName: MethodLogin, Handler: unaryHandler(MethodLogin, BackupServiceServer.Login)},
		{MethodName: MethodRefreshToken, Handler: unaryHandler(MethodRefreshToken, BackupServiceServer.RefreshToken)},
		{MethodName: MethodLogout, Handler: unaryHandler(MethodLogout, BackupServiceServer.Logout)},
		{MethodName: MethodPushBackup, Handler: unaryHandler(MethodPushBackup, BackupServiceServer.PushBackup)},
		{MethodName: MethodGetLatestBackup, Handler: unaryHandler(MethodGetLatestBackup, BackupServiceServer.GetLatestBackup)},
		{MethodName: MethodGetBackup, Handler: unaryHandler(MethodGetBackup, BackupServiceServer.GetBackup)},
		{MethodName: MethodListBackups, Handler: unaryHandler(MethodListBackups, BackupServiceServer.ListBackups)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "homekeeper/backup/v1",
}

func RegisterBackupServiceServer(s grpc.ServiceRegistrar, srv BackupServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type BackupServiceClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	RegisterUser(ctx context.Context, in *RegisterUserRequest, opts ...grpc.CallOption) (*RegisterUserResponse, error)
	GetSalt(ctx context.Context, in *GetSaltRequest, opts ...grpc.CallOption) (*GetSaltResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error)
	Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	PushBackup(ctx context.Context, in *PushBackupRequest, opts ...grpc.CallOption) (*PushBackupResponse, error)
	GetLatestBackup(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*BackupResponse, error)
	GetBackup(ctx context.Context, in *GetBackupRequest, opts ...grpc.CallOption) (*BackupResponse, error)
	ListBackups(ctx context.Context, in *ListBackupsRequest, opts ...grpc.CallOption) (*ListBackupsResponse, error)
}

type backupServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBackupServiceClient(cc grpc.ClientConnInterface) BackupServiceClient {
	return &backupServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *backupServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *backupServiceClient) RegisterUser(ctx context.Context, in *RegisterUserRequest, opts ...grpc.CallOption) (*RegisterUserResponse, error) {
	return invoke[RegisterUserResponse](ctx, c.cc, MethodRegisterUser, in, opts)
}

func (c *backupServiceClient) GetSalt(ctx context.Context, in *GetSaltRequest, opts ...grpc.CallOption) (*GetSaltResponse, error) {
	return invoke[GetSaltResponse](ctx, c.cc, MethodGetSalt, in, opts)
}

func (c *backupServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *backupServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *backupServiceClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, MethodLogout, in, opts)
}

func (c *backupServiceClient) PushBackup(ctx context.Context, in *PushBackupRequest, opts ...grpc.CallOption) (*PushBackupResponse, error) {
	return invoke[PushBackupResponse](ctx, c.cc, MethodPushBackup, in, opts)
}

func (c *backupServiceClient) GetLatestBackup(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*BackupResponse, error) {
	return invoke[BackupResponse](ctx, c.cc, MethodGetLatestBackup, in, opts)
}

func (c *backupServiceClient) GetBackup(ctx context.Context, in *GetBackupRequest, opts ...grpc.CallOption) (*BackupResponse, error) {
	return invoke[BackupResponse](ctx, c.cc, MethodGetBackup, in, opts)
}

func (c *backupServiceClient) ListBackups(ctx context.Context, in *ListBackupsRequest, opts ...grpc.CallOption) (*ListBackupsResponse, error) {
	return invoke[ListBackupsResponse](ctx, c.cc, MethodListBackups, in, opts)
}
