package constant

// Document lifecycle statuses. Only StatusUploaded is eligible for watcher
// pickup; StatusProcessed and StatusError are terminal.
const (
	DocumentStatusUploaded  = "uploaded"
	DocumentStatusProcessed = "processed"
	DocumentStatusError     = "error"
)

const (
	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "model"
)
