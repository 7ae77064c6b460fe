package dto

// Error kinds surfaced to clients. Validation and configuration failures are
// both 400s but carry distinct kinds so clients can tell a fixable form entry
// problem from a corrupt request/form configuration.
const (
	KindValidation    = "validation"
	KindConfiguration = "configuration"
	KindDuplicate     = "duplicate"
	KindNotFound      = "not_found"
	KindUnauthorized  = "unauthorized"
	KindInternal      = "internal"
)

type ErrorResponse struct {
	Kind    string   `json:"kind,omitempty"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
