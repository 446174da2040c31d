package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trading-journal/service"
)

// Instruments is read-only over HTTP; the catalog is managed from the CLI.
type Instruments struct {
	Service *service.Instruments
	Logger  *zap.Logger
}

func (h *Instruments) Register(g *gin.RouterGroup) {
	g.GET("/instruments/", h.list)
	g.GET("/instruments/:id/", h.get)
}

func (h *Instruments) list(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, "list instruments", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Instruments) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, "get instrument", err)
		return
	}
	c.JSON(http.StatusOK, item)
}
