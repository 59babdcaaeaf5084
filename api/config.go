package api

// Config is the configuration for the arena API server.
type Config struct {
	// ListenAddr is the address to bind the HTTP server to.
	ListenAddr string

	// UploadDir is where multipart attachments are persisted.
	UploadDir string

	// WorkspaceDir is the scratch area handed to agent adapters.
	WorkspaceDir string
}
