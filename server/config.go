package server

// Config is the HTTP server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// MaxImageBytes caps uploads to POST /pending/image.
	// Zero uses media.MaxImageBytes.
	MaxImageBytes int64
}
