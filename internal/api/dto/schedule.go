package dto

// AcquireLockRequest carries the node identity claiming a schedule
type AcquireLockRequest struct {
	NodeID string `json:"node_id" validate:"required,min=1,max=200"`
}

// ReleaseLockRequest carries the token proving lock ownership
type ReleaseLockRequest struct {
	LockToken string `json:"lock_token" validate:"required"`
}
