package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sysmonitor/internal/services"
	"sysmonitor/internal/ui"
)

// SnapshotController serves the latest snapshot over HTTP
type SnapshotController struct {
	store services.SnapshotReader
}

// NewSnapshotController creates the controller
func NewSnapshotController(store services.SnapshotReader) *SnapshotController {
	return &SnapshotController{store: store}
}

// GetHealth reports liveness and whether a first sample exists
func (sc *SnapshotController) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ready":  sc.store.Latest().Ready(),
	})
}

// GetSnapshot returns the latest snapshot as JSON
func (sc *SnapshotController) GetSnapshot(c *gin.Context) {
	snap := sc.store.Latest()
	c.JSON(http.StatusOK, gin.H{
		"ready":    snap.Ready(),
		"snapshot": snap,
	})
}

// GetSnapshotText returns the snapshot rendered exactly as the window shows it
func (sc *SnapshotController) GetSnapshotText(c *gin.Context) {
	c.String(http.StatusOK, ui.RenderText(sc.store.Latest())+"\n")
}
