package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Travel-App/internal/application"
	"Travel-App/internal/domain/model"
)

// ActivityHandler アクティビティ参照APIのHTTPハンドラー
type ActivityHandler struct {
	activityService application.ActivityService
}

// NewActivityHandler ActivityHandlerの新しいインスタンスを作成
func NewActivityHandler(activityService application.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// GetNearby GET /api/activities/nearby - 周辺のアクティビティを距離順に取得
func (h *ActivityHandler) GetNearby(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "lat must be a number between -90 and 90",
		})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "lng must be a number between -180 and 180",
		})
		return
	}

	radius := float64(application.DefaultNearbyRadiusMeters)
	if raw := c.Query("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_parameter",
				"message": "radius must be a positive number (meters)",
			})
			return
		}
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	activities, err := h.activityService.FindNearby(c.Request.Context(), model.LatLng{Lat: lat, Lng: lng}, radius, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to find nearby activities: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"count":      len(activities),
	})
}

// GetTranslations GET /api/activities/:id/translations - アクティビティと翻訳を取得
func (h *ActivityHandler) GetTranslations(c *gin.Context) {
	id := c.Param("id")

	detail, err := h.activityService.GetWithTranslations(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Activity not found: " + id,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to get translations: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetImportedCells GET /api/import/cells - 取り込み済みセルの一覧
func (h *ActivityHandler) GetImportedCells(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	entries, err := h.activityService.ListImportedCells(c.Request.Context(), c.Query("resource"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list imported cells: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cells": entries,
		"count": len(entries),
	})
}

// parseLimit limitクエリの解析（不正な場合は400を返してfalse）
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "limit must be a positive integer",
		})
		return 0, false
	}
	return limit, true
}
