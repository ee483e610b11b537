package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"authbridge/models"
	"authbridge/provider"
	"authbridge/services"
	"authbridge/store"
	"authbridge/utils"
)

type AuthController struct {
	db     *gorm.DB
	broker *services.Broker
}

func NewAuthController(db *gorm.DB, broker *services.Broker) *AuthController {
	return &AuthController{
		db:     db,
		broker: broker,
	}
}

// Begin starts an authorization attempt for a user and returns the
// provider URL the browser should be sent to.
func (c *AuthController) Begin(ctx *gin.Context) {
	userID := ctx.Query("user_id")
	if v := utils.ValidateUserID(userID); v.HasErrors() {
		utils.BadRequest(ctx, v.Error())
		return
	}

	authURL, state, err := c.broker.Begin(userID)
	if err != nil {
		var cfgErr *provider.ConfigurationError
		if errors.As(err, &cfgErr) {
			utils.LogSecurityEvent(models.AuditActionError, ctx.ClientIP(), ctx.GetHeader("User-Agent"), "oauth", err.Error())
			utils.ServiceUnavailable(ctx, err.Error())
			return
		}
		utils.InternalError(ctx, err.Error())
		return
	}

	utils.LogOAuthEvent(models.AuditActionBegin, userID, ctx.ClientIP(), ctx.GetHeader("User-Agent"), true, map[string]interface{}{
		"state": utils.MaskValue(state),
	})

	ctx.JSON(http.StatusOK, gin.H{
		"auth_url": authURL,
		"state":    state,
	})
}

// BeginRedirect is the browser-facing variant: it starts the flow and
// 302s straight to the provider.
func (c *AuthController) BeginRedirect(ctx *gin.Context) {
	userID := ctx.Query("user_id")
	if v := utils.ValidateUserID(userID); v.HasErrors() {
		ctx.Header("Content-Type", "text/html")
		ctx.String(http.StatusBadRequest, oauthErrorHTML(v.Error()))
		return
	}

	authURL, _, err := c.broker.Begin(userID)
	if err != nil {
		ctx.Header("Content-Type", "text/html")
		ctx.String(http.StatusInternalServerError, oauthErrorHTML("Could not start authorization: "+err.Error()))
		return
	}

	ctx.Redirect(http.StatusFound, authURL)
}

// Callback is the provider's redirect target. Renders a terminal HTML
// page either way; a failed exchange is never presented as success.
func (c *AuthController) Callback(ctx *gin.Context) {
	code := ctx.Query("code")
	state := ctx.Query("state")
	errorParam := ctx.Query("error")

	if errorParam != "" {
		utils.LogOAuthEvent(models.AuditActionCallback, "", ctx.ClientIP(), ctx.GetHeader("User-Agent"), false, map[string]interface{}{
			"error": errorParam,
		})
		// The user denied consent at the provider; consume the session.
		if state != "" {
			c.broker.Sessions().Fail(state)
		}
		ctx.Header("Content-Type", "text/html")
		ctx.String(http.StatusOK, oauthErrorHTML("Authorization denied: "+errorParam))
		return
	}

	if code == "" || state == "" {
		utils.LogSecurityEvent(models.AuditActionWarning, ctx.ClientIP(), ctx.GetHeader("User-Agent"), "oauth", "callback missing code or state")
		ctx.Header("Content-Type", "text/html")
		ctx.String(http.StatusBadRequest, oauthErrorHTML("Missing authorization code or state. Please try again."))
		return
	}

	userID, err := c.broker.HandleCallback(ctx.Request.Context(), code, state)
	if err != nil {
		utils.LogOAuthEvent(models.AuditActionCallback, userID, ctx.ClientIP(), ctx.GetHeader("User-Agent"), false, map[string]interface{}{
			"error": err.Error(),
		})

		status := http.StatusInternalServerError
		message := "Failed to complete authorization: " + err.Error()
		if errors.Is(err, services.ErrInvalidCallback) {
			status = http.StatusBadRequest
			message = "This authorization link is invalid or was already used. Please start again."
		}

		ctx.Header("Content-Type", "text/html")
		ctx.String(status, oauthErrorHTML(message))
		return
	}

	utils.LogOAuthEvent(models.AuditActionCallback, userID, ctx.ClientIP(), ctx.GetHeader("User-Agent"), true, nil)

	ctx.Header("Content-Type", "text/html")
	ctx.String(http.StatusOK, oauthSuccessHTML)
}

// Status is the consumer poll: unauthenticated, authenticated (with a
// usable access token), or expired.
func (c *AuthController) Status(ctx *gin.Context) {
	userID := ctx.Query("user_id")
	if v := utils.ValidateUserID(userID); v.HasErrors() {
		utils.BadRequest(ctx, v.Error())
		return
	}

	result, err := c.broker.Status(ctx.Request.Context(), userID)
	if err != nil {
		utils.InternalError(ctx, err.Error())
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// Import accepts operator-supplied tokens, bypassing the redirect flow.
// Audited as its own entry point into the token store.
func (c *AuthController) Import(ctx *gin.Context) {
	var input struct {
		UserID       string `json:"user_id" binding:"required"`
		AccessToken  string `json:"access_token" binding:"required"`
		RefreshToken string `json:"refresh_token"`
		ExpiresAt    string `json:"expires_at"`
	}

	if err := ctx.ShouldBindJSON(&input); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}

	var expiresAt time.Time
	if input.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, input.ExpiresAt)
		if err != nil {
			utils.BadRequest(ctx, "expires_at must be RFC3339")
			return
		}
		expiresAt = parsed
	}

	if err := c.broker.Import(input.UserID, input.AccessToken, input.RefreshToken, expiresAt); err != nil {
		utils.LogTokenEvent(models.AuditActionTokenImport, input.UserID, ctx.ClientIP(), ctx.GetHeader("User-Agent"), false, map[string]interface{}{
			"error": err.Error(),
		})
		utils.BadRequest(ctx, err.Error())
		return
	}

	utils.LogTokenEvent(models.AuditActionTokenImport, input.UserID, ctx.ClientIP(), ctx.GetHeader("User-Agent"), true, map[string]interface{}{
		"has_refresh": input.RefreshToken != "",
	})

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Tokens imported. Validity is checked on first use.",
		"user_id": input.UserID,
	})
}

// Disconnect revokes and deletes a user's credential.
func (c *AuthController) Disconnect(ctx *gin.Context) {
	var input struct {
		UserID string `json:"user_id" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&input); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}

	if err := c.broker.Disconnect(ctx.Request.Context(), input.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFound(ctx, "no credential for user")
			return
		}
		utils.LogTokenEvent(models.AuditActionDisconnect, input.UserID, ctx.ClientIP(), ctx.GetHeader("User-Agent"), false, map[string]interface{}{
			"error": err.Error(),
		})
		utils.InternalError(ctx, "Failed to disconnect: "+err.Error())
		return
	}

	utils.LogTokenEvent(models.AuditActionDisconnect, input.UserID, ctx.ClientIP(), ctx.GetHeader("User-Agent"), true, nil)

	ctx.JSON(http.StatusOK, gin.H{
		"message":   "Credential removed. To fully revoke access, also review the provider's authorized applications page.",
		"connected": false,
	})
}

// Users lists stored accounts without token values.
func (c *AuthController) Users(ctx *gin.Context) {
	users, err := c.broker.Credentials().List()
	if err != nil {
		utils.InternalError(ctx, err.Error())
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

const oauthSuccessHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Authorization Complete - authbridge</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
               display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0;
               background-color: #f5f5f5; }
        .container { text-align: center; padding: 2rem; background: white; border-radius: 8px;
                     box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        .success { color: #28a745; font-size: 48px; margin-bottom: 1rem; }
        h1 { color: #333; margin-bottom: 0.5rem; }
        p { color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="success">&#10004;</div>
        <h1>Authorization Complete</h1>
        <p>Your tokens have been saved. You can close this window and return to the application.</p>
    </div>
</body>
</html>`

func oauthErrorHTML(message string) string {
	// HTML-escape the message to prevent XSS
	escapedMessage := htmlEscapeString(message)
	return `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Authorization Failed - authbridge</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
               display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0;
               background-color: #f5f5f5; }
        .container { text-align: center; padding: 2rem; background: white; border-radius: 8px;
                     box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        .error { color: #dc3545; font-size: 48px; margin-bottom: 1rem; }
        h1 { color: #333; margin-bottom: 0.5rem; }
        p { color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="error">&#10006;</div>
        <h1>Authorization Failed</h1>
        <p>` + escapedMessage + `</p>
        <p>Close this window and start the authorization again from the application.</p>
    </div>
</body>
</html>`
}

func htmlEscapeString(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(s)
}
