package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Well-known collection names of the snapshot.
const (
	CollectionBills        = "bills"
	CollectionAppointments = "appointments"
)
