package api

import "time"

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type RegisterUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Salt        []byte `json:"salt"`
	Verifier    []byte `json:"verifier"`
}

type RegisterUserResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type GetSaltRequest struct {
	Email string `json:"email"`
}

type GetSaltResponse struct {
	Salt []byte `json:"salt"`
}

type LoginRequest struct {
	Email             string `json:"email"`
	VerifierCandidate []byte `json:"verifier_candidate"`
}

type LoginResponse struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PushBackupRequest carries one codec-encoded snapshot.
type PushBackupRequest struct {
	Data string `json:"data"`
}

type PushBackupResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
}

type GetBackupRequest struct {
	ID string `json:"id"`
}

type BackupResponse struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
	Data      string    `json:"data"`
}

type ListBackupsRequest struct {
	Limit int32 `json:"limit"`
}

type BackupItem struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
}

type ListBackupsResponse struct {
	Items []BackupItem `json:"items"`
}
