package objstore

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"LumeChat/module/chat/model"
	"LumeChat/tools/errs"
)

func newFS(t *testing.T, maxBytes int64) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir(), "/media", maxBytes)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestUploadPathConvention(t *testing.T) {
	fs := newFS(t, 1<<20)
	url, err := fs.Upload(context.Background(), "user-1", "photo.JPG", []byte("data"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(url, "/media/user-1/") {
		t.Fatalf("url %q missing owner segment", url)
	}
	if !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("url %q lost the extension", url)
	}
}

func TestUploadValidation(t *testing.T) {
	fs := newFS(t, 8)
	ctx := context.Background()

	if _, err := fs.Upload(ctx, "user-1", "big.png", []byte("123456789")); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("oversized: expected validation error, got %v", err)
	}
	if _, err := fs.Upload(ctx, "user-1", "noext", []byte("x")); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("missing ext: expected validation error, got %v", err)
	}
	if _, err := fs.Upload(ctx, "", "a.png", []byte("x")); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("no caller: expected unauthenticated, got %v", err)
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	fs := newFS(t, 1<<20)
	ctx := context.Background()
	for _, name := range []string{"tool.exe", "script.sh", "page.html"} {
		if _, err := fs.Upload(ctx, "user-1", name, []byte("x")); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("Upload(%q): expected validation error, got %v", name, err)
		}
	}
	if _, err := fs.Upload(ctx, "user-1", "notes.txt", []byte("x")); err != nil {
		t.Fatalf("allowed type rejected: %v", err)
	}
}

func TestDeleteRequiresOwnerSegment(t *testing.T) {
	fs := newFS(t, 1<<20)
	ctx := context.Background()

	url, err := fs.Upload(ctx, "user-1", "doc.pdf", []byte("data"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := fs.Delete(ctx, "user-2", url); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("foreign delete: expected unauthenticated, got %v", err)
	}
	if err := fs.Delete(ctx, "user-1", url); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := fs.Delete(ctx, "user-1", url); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("double delete: expected not found, got %v", err)
	}
}

func TestDeleteRejectsTraversal(t *testing.T) {
	fs := newFS(t, 1<<20)
	ctx := context.Background()

	victim, err := fs.Upload(ctx, "user-2", "keep.pdf", []byte("data"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	rel := strings.TrimPrefix(victim, "/media/")

	// the owner segment is read from the cleaned path, so dressing another
	// user's object up under the caller's prefix changes nothing
	if err := fs.Delete(ctx, "user-1", "/media/user-1/../"+rel); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("traversal delete: expected unauthenticated, got %v", err)
	}
	if err := fs.Delete(ctx, "user-1", "user-1/../../outside.txt"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("root escape: expected validation error, got %v", err)
	}
	// the victim object is untouched
	if err := fs.Delete(ctx, "user-2", victim); err != nil {
		t.Fatalf("owner delete after failed traversal: %v", err)
	}
}

func TestKindForFilename(t *testing.T) {
	cases := map[string]string{
		"a.png":  model.MediaImage,
		"b.JPEG": model.MediaImage,
		"c.mp4":  model.MediaVideo,
		"d.pdf":  model.MediaDocument,
		"e":      model.MediaDocument,
	}
	for name, want := range cases {
		if got := KindForFilename(name); got != want {
			t.Errorf("KindForFilename(%q) = %s, want %s", name, got, want)
		}
	}
}
