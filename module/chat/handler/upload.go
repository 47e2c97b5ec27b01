package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"LumeChat/service/objstore"
	"LumeChat/tools/errs"
)

type uploadResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Upload accepts a multipart batch. Failures are per-file: one bad file does
// not abort the others, and each failure is reported once with its original
// filename.
func (h *Handler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		fail(c, errs.ErrValidation.WithDetail("no files"))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	self := caller(c)
	results := make([]uploadResult, 0, len(files))
	for _, fh := range files {
		res := uploadResult{Filename: fh.Filename}
		f, err := fh.Open()
		if err != nil {
			res.Error = errs.ErrValidation.WithDetail("unreadable file").Error()
			results = append(results, res)
			continue
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			res.Error = errs.ErrTransientStorage.Error()
			results = append(results, res)
			continue
		}
		url, err := h.files.Upload(ctx, self, fh.Filename, data)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.URL = url
		res.Kind = objstore.KindForFilename(fh.Filename)
		results = append(results, res)
	}
	c.JSON(http.StatusOK, gin.H{"files": results})
}

type deleteUploadReq struct {
	Path string `json:"path" binding:"required"`
}

func (h *Handler) DeleteUpload(c *gin.Context) {
	var req deleteUploadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.files.Delete(ctx, caller(c), req.Path); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
