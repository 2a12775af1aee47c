package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

var contentTypes = map[string]string{
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".avif": "image/avif",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// AssetHandler serves NFT images from a fixed set of directories.
type AssetHandler struct {
	FS   fs.FS
	Dirs []string
}

func NewAssetHandler(fsys fs.FS, dirs []string) *AssetHandler {
	return &AssetHandler{FS: fsys, Dirs: dirs}
}

// Proxy answers GET /nft-proxy/:dir/* with the file bytes.
func (h *AssetHandler) Proxy(c echo.Context) error {
	dir := c.Param("dir")
	if !slices.Contains(h.Dirs, dir) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown directory"})
	}
	name := strings.TrimPrefix(c.Param("*"), "/")
	if name == "" || !fs.ValidPath(name) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid path"})
	}
	b, err := fs.ReadFile(h.FS, path.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read failed"})
	}
	return c.Blob(http.StatusOK, contentType(name), b)
}

// Redirect sends /<dir>/<file> to the proxy.
func (h *AssetHandler) Redirect(dir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/nft-proxy/"+dir+"/"+strings.TrimPrefix(c.Param("*"), "/"))
	}
}

func contentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
