package types

// Task is one dropped file waiting to be transferred
type Task struct {
	Path     string // Local path the content is read from
	Name     string // Name announced to the endpoint
	Size     int64  // Declared size in bytes
	MimeType string
}
