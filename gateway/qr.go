package gateway

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/example/qrdine/pkg/service"
	"github.com/gin-gonic/gin"
)

// TableMenuURL is the address a table's QR code points at.
func TableMenuURL(base, table string) string {
	return strings.TrimRight(base, "/") + "/menu?table=" + url.QueryEscape(table)
}

func (g *Gateway) tableQR(c *gin.Context) {
	table := strings.TrimSpace(c.Query("table"))
	if table == "" {
		badRequest(c, service.MsgTableRequired)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"tableNumber": table,
		"url":         TableMenuURL(g.config.Gateway.PublicURL, table),
	})
}
