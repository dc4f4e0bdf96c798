package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quiz-cricket-service/internal/app"
	"quiz-cricket-service/internal/domain"
)

const defaultHistoryLimit = 50

// GameHandler serves the persisted-games REST API.
type GameHandler struct {
	games *app.GameStore
}

func NewGameHandler(games *app.GameStore) *GameHandler {
	return &GameHandler{games: games}
}

func (h *GameHandler) Register(r gin.IRouter) {
	r.POST("/api/games", h.SaveGame)
	r.GET("/api/games", h.ListGames)
	r.GET("/api/games/:id", h.GetGame)
}

func (h *GameHandler) SaveGame(c *gin.Context) {
	var rec domain.MatchRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}
	if rec.TeamA.Name == "" || rec.TeamB.Name == "" || rec.BattingFirst == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Missing required fields: teamA, teamB, battingFirst",
		})
		return
	}

	saved, usedFallback, err := h.games.Save(c.Request.Context(), rec)
	if err != nil {
		log.Printf("save game: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to save game",
		})
		return
	}

	message := "Game saved successfully"
	if usedFallback {
		message = "Game saved locally"
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": message,
		"data":    saved,
	})
}

func (h *GameHandler) ListGames(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Invalid limit parameter",
			})
			return
		}
		limit = n
	}

	recs, err := h.games.History(c.Request.Context(), limit)
	if err != nil {
		log.Printf("list games: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch games",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(recs),
		"data":    recs,
	})
}

func (h *GameHandler) GetGame(c *gin.Context) {
	rec, err := h.games.ByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrGameNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Game not found",
		})
		return
	}
	if err != nil {
		log.Printf("get game: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch game",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rec,
	})
}
