package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Router assembles the REST and websocket endpoints into one engine.
func Router(games *GameHandler, authH *AuthHandler, ws *WSHandler) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if games != nil {
		games.Register(r)
	}
	if authH != nil {
		authH.Register(r)
	}
	if ws != nil {
		r.GET("/ws", gin.WrapF(ws.ServeWS))
	}

	return r
}
