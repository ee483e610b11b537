package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"authbridge/database"
	"authbridge/models"
	"authbridge/utils"
)

type AdminController struct {
	db *gorm.DB
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

// Reset wipes every stored credential and session. Destructive; a
// SQLite backup is taken first (see database.ResetCredentials).
func (c *AdminController) Reset(ctx *gin.Context) {
	result, err := database.ResetCredentials(c.db)
	if err != nil {
		utils.LogAdminEvent(models.AuditActionReset, ctx.ClientIP(), ctx.GetHeader("User-Agent"), false, err.Error())
		utils.InternalError(ctx, err.Error())
		return
	}

	utils.LogAdminEvent(models.AuditActionReset, ctx.ClientIP(), ctx.GetHeader("User-Agent"), true, "")

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Credential store reset",
		"result":  result,
	})
}

func (c *AdminController) Backup(ctx *gin.Context) {
	if database.DBType != "sqlite" {
		utils.BadRequest(ctx, "backups are only supported for SQLite deployments")
		return
	}

	result, err := utils.BackupDatabase(c.db, "")
	if err != nil {
		utils.InternalError(ctx, err.Error())
		return
	}

	if _, err := utils.CleanupOldBackups("", 10); err != nil {
		log.Printf("Warning: backup cleanup failed: %v", err)
	}

	ctx.JSON(http.StatusOK, result)
}

func (c *AdminController) ListBackups(ctx *gin.Context) {
	backups, err := utils.ListBackups("")
	if err != nil {
		utils.InternalError(ctx, err.Error())
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"backups": backups,
		"count":   len(backups),
	})
}

func (c *AdminController) GetAuditLogs(ctx *gin.Context) {
	eventType := ctx.Query("event_type")

	limit := 50
	if v := ctx.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	offset := 0
	if v := ctx.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	logs, total, err := utils.GetAuditLogs(eventType, limit, offset)
	if err != nil {
		utils.InternalError(ctx, err.Error())
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (c *AdminController) CleanupAuditLogs(ctx *gin.Context) {
	days := 90
	if v := ctx.Query("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}

	deleted, err := utils.CleanupOldAuditLogs(days)
	if err != nil {
		utils.InternalError(ctx, err.Error())
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"deleted":       deleted,
		"days_retained": days,
	})
}
