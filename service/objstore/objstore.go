// Package objstore is the object-storage boundary: uploads land under
// {userId}/{timestamp}.{ext} and delete permission follows the owning-user
// path segment. The filesystem backend stands in for a hosted bucket; the
// interface is what the rest of the app sees.
package objstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"LumeChat/module/chat/model"
	"LumeChat/tools/errs"
)

type Storage interface {
	// Upload stores data and returns the public URL.
	Upload(ctx context.Context, userID, filename string, data []byte) (string, error)
	// Delete removes an object; the caller must own the path's leading
	// user-id segment.
	Delete(ctx context.Context, callerID, objectPath string) error
}

// KindForFilename maps an upload's extension to its media kind. Unknown
// extensions are documents.
func KindForFilename(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "jpg", "jpeg", "png", "gif", "webp":
		return model.MediaImage
	case "mp4", "webm", "mov":
		return model.MediaVideo
	default:
		return model.MediaDocument
	}
}

// allowedExts is the upload allow-list. Anything else fails validation before
// a byte is written.
var allowedExts = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
	"mp4": true, "webm": true, "mov": true,
	"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"txt": true, "zip": true,
}

type FS struct {
	root     string
	baseURL  string
	maxBytes int64
}

var _ Storage = (*FS)(nil)

func NewFS(root, baseURL string, maxBytes int64) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, pkgerrors.Wrap(err, "objstore root")
	}
	return &FS{root: root, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}, nil
}

func (f *FS) Upload(ctx context.Context, userID, filename string, data []byte) (string, error) {
	if userID == "" {
		return "", errs.ErrUnauthenticated
	}
	if len(data) == 0 {
		return "", errs.ErrValidation.WithDetail("empty file")
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return "", errs.ErrValidation.WithDetailf("file %s exceeds %d bytes", filename, f.maxBytes)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return "", errs.ErrValidation.WithDetail("file needs an extension")
	}
	if !allowedExts[ext] {
		return "", errs.ErrValidation.WithDetailf("file type .%s not allowed", ext)
	}

	rel := fmt.Sprintf("%s/%d.%s", userID, time.Now().UnixNano(), ext)
	abs := filepath.Join(f.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", errs.ErrTransientStorage.WithDetail("mkdir upload dir")
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", errs.ErrTransientStorage.WithDetail("write upload")
	}
	return f.baseURL + "/" + rel, nil
}

func (f *FS) Delete(ctx context.Context, callerID, objectPath string) error {
	objectPath = strings.TrimPrefix(objectPath, f.baseURL+"/")
	// Clean before any check: "a/../b/x" must authorize as b, not a, and a
	// path that climbs out of the root is rejected outright.
	objectPath = path.Clean(strings.TrimPrefix(objectPath, "/"))
	if objectPath == "." || objectPath == ".." || strings.HasPrefix(objectPath, "../") {
		return errs.ErrValidation.WithDetail("path escapes storage root")
	}
	owner, _, ok := strings.Cut(objectPath, "/")
	if !ok || owner == "" {
		return errs.ErrValidation.WithDetail("malformed object path")
	}
	// authorization rides on the path convention: only the owner segment
	// may delete
	if owner != callerID {
		return errs.ErrUnauthenticated.WithDetail("not the object owner")
	}
	abs := filepath.Join(f.root, filepath.FromSlash(objectPath))
	if !strings.HasPrefix(abs, filepath.Clean(f.root)+string(os.PathSeparator)) {
		return errs.ErrValidation.WithDetail("path escapes storage root")
	}
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return errs.ErrNotFound.WithDetail(objectPath)
		}
		return errs.ErrTransientStorage.WithDetail("delete object")
	}
	return nil
}
