package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"presale/internal/security"
	"presale/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxLogoSize = 2 << 20

var logoTypes = []string{".png", ".jpg", ".jpeg", ".webp", ".svg"}

type AdminHandler struct {
	auth    *service.AuthService
	admin   *service.AdminService
	presale *service.PresaleService
	export  *service.ExportService
}

func NewAdminHandler(
	auth *service.AuthService,
	admin *service.AdminService,
	presale *service.PresaleService,
	export *service.ExportService,
) *AdminHandler {
	return &AdminHandler{
		auth:    auth,
		admin:   admin,
		presale: presale,
		export:  export,
	}
}

// Login handles POST /admin/login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Passcode string `json:"passcode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	token, expires, err := h.auth.Login(c.Request.Context(), req.Passcode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "expires_at": expires})
}

// ChangePasscode handles PUT /admin/passcode.
func (h *AdminHandler) ChangePasscode(c *gin.Context) {
	var req struct {
		Current string `json:"current"`
		New     string `json:"new"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.auth.ChangePasscode(c.Request.Context(), req.Current, req.New); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UpdatePresale handles PUT /admin/presale.
func (h *AdminHandler) UpdatePresale(c *gin.Context) {
	var req service.PresaleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	out, err := h.presale.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// UploadLogo handles POST /admin/presale/logo (multipart field "file").
func (h *AdminHandler) UploadLogo(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file required")
		return
	}
	if !security.ValidateFileType(file.Filename, logoTypes) {
		badRequest(c, "logo must be png, jpg, webp or svg")
		return
	}
	if !security.ValidateFileSize(file.Size, maxLogoSize) {
		badRequest(c, "logo must be at most 2 MB")
		return
	}
	f, err := file.Open()
	if err != nil {
		badRequest(c, "could not read file")
		return
	}
	defer f.Close()

	url, err := h.presale.UploadLogo(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	out, err := h.admin.ListUsers(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetUser handles GET /admin/users/:wallet. The user is created if missing.
func (h *AdminHandler) GetUser(c *gin.Context) {
	out, err := h.admin.GetUser(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// UpdateUser handles PATCH /admin/users/:wallet.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req struct {
		Balance *decimal.Decimal `json:"balance"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Balance == nil {
		badRequest(c, "balance is required")
		return
	}
	u, err := h.admin.UpdateBalance(c.Request.Context(), c.Param("wallet"), *req.Balance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Stages handles GET /admin/stages.
func (h *AdminHandler) Stages(c *gin.Context) {
	out, err := h.presale.StageSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ExportUsers handles GET /admin/users/export?format=csv|xlsx.
func (h *AdminHandler) ExportUsers(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatCSV)
	contentType, ext, err := service.ContentType(format)
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.export.Export(c.Request.Context(), format, &buf); err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("users-%s.%s", time.Now().UTC().Format("20060102"), ext)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.presale.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
