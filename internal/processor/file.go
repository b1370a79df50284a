package processor

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"wsdrop/pkg/types"

	"github.com/rs/zerolog/log"
)

var ErrNotRegularFile = errors.New("not a regular file")

// Loader materializes a task's content in memory
type Loader interface {
	Load(ctx context.Context, task types.Task) ([]byte, error)
}

// FileService turns dropped paths into tasks and reads their content
type FileService struct{}

// NewFileService creates a new file service
func NewFileService() *FileService {
	return &FileService{}
}

// NewTask stats filePath and describes it as a transfer task
func (f *FileService) NewTask(filePath string) (types.Task, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return types.Task{}, fmt.Errorf("failed to get file info: %w", err)
	}
	if !stat.Mode().IsRegular() {
		return types.Task{}, fmt.Errorf("%s: %w", filePath, ErrNotRegularFile)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(filePath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return types.Task{
		Path:     filePath,
		Name:     filepath.Base(filePath),
		Size:     stat.Size(),
		MimeType: mimeType,
	}, nil
}

// Load reads the whole file into memory. The read runs on its own goroutine
// so a cancelled ctx returns immediately.
func (f *FileService) Load(ctx context.Context, task types.Task) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		data, err := os.ReadFile(task.Path)
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("failed to read file: %w", r.err)
		}
		log.Debug().Str("file", task.Name).Int("bytes", len(r.data)).Msg("file loaded")
		return r.data, nil
	}
}
