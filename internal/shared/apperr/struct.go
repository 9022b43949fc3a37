package apperr

type Kind string

type AppError struct {
	Kind      Kind
	PublicMsg string            // safe to show to the caller
	Fields    map[string]string // per-field validation errors (optional)
	Extra     map[string]any    // ek response alanları, örn. confirmation_required
	Err       error             // internal error (for logs)
}
