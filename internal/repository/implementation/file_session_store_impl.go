package implementation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"resume-ai-helper-be/internal/entity"
	"resume-ai-helper-be/internal/pkg/logger"
	"resume-ai-helper-be/internal/repository/contract"
)

const sessionsFileName = "sessions.json"

// FileSessionStoreImpl persists the whole SessionCollection as one JSON file,
// mirroring a browser localStorage record. Writes replace the file atomically
// via a temp file and rename.
type FileSessionStoreImpl struct {
	path   string
	logger logger.ILogger
}

func NewFileSessionStore(dataDir string, log logger.ILogger) (contract.SessionStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileSessionStoreImpl{
		path:   filepath.Join(dataDir, sessionsFileName),
		logger: log,
	}, nil
}

func (r *FileSessionStoreImpl) Load(ctx context.Context) entity.SessionCollection {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("SessionStore", "Failed to read session file, starting empty", map[string]interface{}{
				"path":  r.path,
				"error": err.Error(),
			})
		}
		return entity.SessionCollection{}
	}

	var collection entity.SessionCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		// Corrupt data counts as no data.
		r.logger.Warn("SessionStore", "Session file is corrupt, starting empty", map[string]interface{}{
			"path":  r.path,
			"error": err.Error(),
		})
		return entity.SessionCollection{}
	}
	return collection
}

func (r *FileSessionStoreImpl) Save(ctx context.Context, collection entity.SessionCollection) error {
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace sessions file: %w", err)
	}
	return nil
}

func (r *FileSessionStoreImpl) Delete(ctx context.Context, id int64) (entity.SessionCollection, error) {
	collection := r.Load(ctx).Remove(id)
	if err := r.Save(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}
