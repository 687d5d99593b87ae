package handler

import (
	"fmt"
	"net/http"
	"strings"

	"frontend/internal/market_client"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var downloadFormats = map[string]bool{"csv": true, "zip": true}

// DownloadGenerated streams a freshly generated dataset.
// GET /generate/:cid/download?format=csv|zip&title=
func (h *Handler) DownloadGenerated(c *gin.Context) {
	h.streamDownload(c, c.Param("cid"), c.Query("format"), "", c.Query("title"))
}

// Download streams a marketplace dataset, passing the buyer for paid ones.
// GET /download/:cid?format=&buyer=&title=
func (h *Handler) Download(c *gin.Context) {
	buyer := c.Query("buyer")
	if buyer == "" {
		buyer = walletAddress(c)
	}
	h.streamDownload(c, c.Param("cid"), c.Query("format"), buyer, c.Query("title"))
}

func (h *Handler) streamDownload(c *gin.Context, cid, format, buyer, title string) {
	format = strings.ToLower(format)
	if format == "" {
		format = market_client.DefaultDownloadFormat
	}
	if !downloadFormats[format] {
		c.String(http.StatusBadRequest, "Unsupported format %q", format)
		return
	}

	dl, err := h.client.DownloadDataset(c.Request.Context(), cid, format, buyer)
	if err != nil {
		h.logger.Warn("Download failed", zap.String("cid", cid), zap.Error(err))
		h.renderError(c, err, "/dataset/"+cid)
		return
	}
	defer dl.Body.Close()

	filename := downloadFilename(title, cid, format)
	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, dl.ContentLength, contentType, dl.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
	})
}

// downloadFilename is <title>_<first 8 of cid>.<format>, title defaulting
// to "dataset".
func downloadFilename(title, cid, format string) string {
	title = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '/', '\r', '\n':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if title == "" {
		title = "dataset"
	}
	short := cid
	if len(short) > 8 {
		short = short[:8]
	}
	return title + "_" + short + "." + format
}
