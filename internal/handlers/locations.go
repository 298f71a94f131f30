package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolhub/api/internal/ids"
	"schoolhub/api/internal/models"
	"schoolhub/api/internal/repository"
)

type locationRequest struct {
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address" binding:"required"`
	Timezone string `json:"timezone"`
}

func (h HandlerSet) ListLocations(c *gin.Context) {
	locations, err := h.locations.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

func (h HandlerSet) GetLocation(c *gin.Context) {
	loc, err := h.locations.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": loc})
}

func (h HandlerSet) CreateLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	loc := models.Location{
		ID:       ids.New(),
		Name:     req.Name,
		Address:  req.Address,
		Timezone: req.Timezone,
	}
	if loc.Timezone == "" {
		loc.Timezone = "UTC"
	}

	if err := h.locations.Create(c.Request.Context(), loc); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"location": loc})
}

func (h HandlerSet) UpdateLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	loc := models.Location{
		ID:       c.Param("id"),
		Name:     req.Name,
		Address:  req.Address,
		Timezone: req.Timezone,
	}

	if err := h.locations.Update(c.Request.Context(), loc); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": loc})
}

func (h HandlerSet) DeleteLocation(c *gin.Context) {
	if err := h.locations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "location deleted"})
}
