package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nft-bank-marketplace/internal/config"
)

const defaultImageServerPort = 8081

// DirStats counts the images of one asset directory.
type DirStats struct {
	Total int `json:"total"`
	PNG   int `json:"png"`
	SVG   int `json:"svg"`
}

// DirError replaces DirStats for a directory that cannot be read.
type DirError struct {
	Error string `json:"error"`
}

// ServerStatus is the body of GET /api/nft/server-status.
type ServerStatus struct {
	Available   bool           `json:"available"`
	Port        int            `json:"port"`
	Timestamp   time.Time      `json:"timestamp"`
	Directories map[string]any `json:"directories"`
}

// StatusHandler probes the companion image server and reports what the
// asset directories contain.
type StatusHandler struct {
	Cfg    config.NFTConfig
	Client *http.Client
	Now    func() time.Time
}

func NewStatusHandler(cfg config.NFTConfig) *StatusHandler {
	return &StatusHandler{Cfg: cfg, Client: &http.Client{Timeout: cfg.ImageServerTimeout}}
}

func (h *StatusHandler) ServerStatus(c echo.Context) error {
	port := readPort(h.Cfg.ImageServerPortFile)
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}
	st := ServerStatus{
		Available:   h.probe(c.Request().Context(), port),
		Port:        port,
		Timestamp:   now,
		Directories: map[string]any{},
	}
	for _, d := range h.Cfg.StatusDirs {
		st.Directories[d] = dirStats(filepath.Join(h.Cfg.AssetRoot, filepath.FromSlash(d)))
	}
	return c.JSON(http.StatusOK, st)
}

func (h *StatusHandler) probe(ctx context.Context, port int) bool {
	timeout := h.Cfg.ImageServerTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://localhost:%d/status", port), nil)
	if err != nil {
		return false
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// readPort reads the image server port from file.  A missing file or a
// value outside 1024..65535 yields the default port.
func readPort(file string) int {
	b, err := os.ReadFile(file)
	if err != nil {
		return defaultImageServerPort
	}
	p, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || p < 1024 || p > 65535 {
		return defaultImageServerPort
	}
	return p
}

func dirStats(dir string) any {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return DirError{Error: err.Error()}
	}
	var s DirStats
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png":
			s.PNG++
			s.Total++
		case ".svg":
			s.SVG++
			s.Total++
		}
	}
	return s
}
