package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"veryus/internal/middleware"
	"veryus/internal/services"
	"veryus/internal/utils"
)

const hotlinkSVG = `<svg width="200" height="200" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%" height="100%" fill="#f8f9fa"/>
  <text x="50%" y="50%" font-family="Arial" font-size="14" fill="#6c757d" text-anchor="middle">
    VERYUS members only
  </text>
</svg>`

// Upload prefixes per kind. Gallery images are staff uploads.
var uploadKinds = map[string]bool{"recordings": false, "moments": true, "images": false}

type FileHandler struct {
	*Deps
}

func NewFileHandler(d *Deps) *FileHandler {
	return &FileHandler{Deps: d}
}

// Upload stores the multipart field "file" (POST /api/uploads?kind=recordings).
func (h *FileHandler) Upload(c *gin.Context) {
	user := middleware.CurrentUser(c)
	kind := c.DefaultQuery("kind", "images")
	staffOnly, ok := uploadKinds[kind]
	if !ok {
		respondError(c, utils.InvalidInput("unknown upload kind %q", kind))
		return
	}
	if staffOnly && !utils.IsPrivileged(user.Role) {
		respondError(c, utils.Forbidden("staff only"))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadSize+1<<20)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, utils.InvalidInput("choose a file to upload"))
		return
	}
	defer file.Close()

	result, err := services.UploadFile(c.Request.Context(), h.Store, file, header, kind)
	if err != nil {
		respondError(c, utils.InvalidInput("upload failed: %v", err))
		return
	}
	h.Log.Info().Str("user", user.ID).Str("path", result.Path).Msg("file uploaded")
	c.JSON(http.StatusCreated, result)
}

// Serve streams a stored object (GET /files/*path).
func (h *FileHandler) Serve(c *gin.Context) {
	if !isAllowedRequest(c) {
		c.Header("Content-Type", "image/svg+xml")
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.String(http.StatusOK, hotlinkSVG)
		return
	}

	path := strings.TrimPrefix(c.Param("path"), "/")
	obj, err := h.Store.Open(c.Request.Context(), path)
	if err != nil {
		if errors.Is(err, services.ErrObjectNotFound) {
			respondError(c, utils.NotFound("file not found"))
			return
		}
		respondError(c, utils.Unavailable("open file", err))
		return
	}
	defer obj.Close()

	if obj.ContentType != "" {
		c.Header("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	// Names are never reused, so objects can be cached for long.
	c.Header("Cache-Control", "public, max-age=604800")
	c.Header("Vary", "Sec-Fetch-Site, Sec-Fetch-Mode")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj); err != nil {
		h.Log.Debug().Err(err).Str("path", path).Msg("file stream interrupted")
	}
}

// isAllowedRequest uses the Sec-Fetch-* headers to refuse cross-site embedding.
func isAllowedRequest(c *gin.Context) bool {
	switch c.GetHeader("Sec-Fetch-Site") {
	case "", "same-origin", "same-site", "none":
		return true
	}
	return c.GetHeader("Sec-Fetch-Mode") == "navigate"
}
