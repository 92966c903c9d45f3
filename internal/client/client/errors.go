package client

import (
	"fmt"

	"github.com/dmitrijs2005/homekeeper/internal/common"
)

var (
	ErrUnavailable  = fmt.Errorf("server unavailable: %w", common.ErrTransportFailure)
	ErrUnauthorized = fmt.Errorf("unauthorized: %w", common.ErrUnauthenticated)
)
