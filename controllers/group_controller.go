package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gateway-go/config"
	"gateway-go/middleware"
	"gateway-go/models"
	"gateway-go/services"
)

// SelectGroupView menampilkan daftar grup pengguna untuk dipilih.
func SelectGroupView(c *gin.Context) {
	sid, token := requestIdentity(c)

	groups, err := deps.Backend.ListUserGroups(c.Request.Context(), token)
	if err != nil {
		handleBackendError(c, sid, "", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":   "select-group",
		"groups": groups,
	})
}

// SelectGroup menyimpan grup pilihan sebagai grup aktif sesi.
func SelectGroup(c *gin.Context) {
	sid, token := requestIdentity(c)

	var req struct {
		GroupID string `json:"groupId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "groupId wajib diisi"})
		return
	}

	// Pastikan grup memang milik pengguna sebelum dipersist.
	groups, err := deps.Backend.ListUserGroups(c.Request.Context(), token)
	if err != nil {
		handleBackendError(c, sid, "", err)
		return
	}
	owned := false
	for _, g := range groups {
		if g.ID == req.GroupID {
			owned = true
			break
		}
	}
	if !owned {
		c.JSON(http.StatusForbidden, gin.H{"error": "Grup bukan milik pengguna ini"})
		return
	}

	if err := deps.Sessions.Set(c.Request.Context(), sid, models.SessionKeyCurrentGroup, req.GroupID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal menyimpan sesi"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"redirect": "/dashboard"})
}

// CreateGroupView menampilkan step 1 wizard beserta pilihan kategori.
func CreateGroupView(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":       "create-group",
		"step":       1,
		"categories": models.GroupCategories,
	})
}

// CreateGroup menjalankan step 1 wizard: validasi form lalu satu
// panggilan pembuatan grup. Sukses membawa wizard ke step impor anggota.
func CreateGroup(c *gin.Context) {
	sid, token := requestIdentity(c)

	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Form tidak valid"})
		return
	}

	groupID, err := deps.Onboarding.CreateGroup(c.Request.Context(), sid, token, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGroupNameRequired),
			errors.Is(err, services.ErrAccountNameRequired),
			errors.Is(err, services.ErrFeeInvalid),
			errors.Is(err, services.ErrCategoryInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			handleBackendError(c, sid, "", err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"groupId": groupID,
		"step":    2,
	})
}

// ImportMembers menjalankan step 2 wizard. Berkas bersifat opsional:
// tanpa berkas flow selesai sebagai sukses, dan kegagalan impor pun
// tetap menyelesaikan flow karena grupnya sudah ada.
func ImportMembers(c *gin.Context) {
	sid, token := requestIdentity(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		// Tidak ada berkas: lewati impor.
		result, err := deps.Onboarding.ImportMembers(c.Request.Context(), sid, token, "", nil)
		if err != nil {
			respondImportError(c, sid, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result, "redirect": "/dashboard"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Berkas tidak dapat dibaca"})
		return
	}
	defer file.Close()

	result, err := deps.Onboarding.ImportMembers(c.Request.Context(), sid, token, fileHeader.Filename, file)
	if err != nil {
		respondImportError(c, sid, err)
		return
	}

	config.Log.WithFields(map[string]interface{}{
		"group_id": result.GroupID,
		"imported": result.Imported,
	}).Info("📦 Wizard onboarding selesai")

	c.JSON(http.StatusOK, gin.H{"result": result, "redirect": "/dashboard"})
}

func respondImportError(c *gin.Context, sid string, err error) {
	switch {
	case errors.Is(err, services.ErrRosterExtension):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoCreatedGroup):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "redirect": "/create-group"})
	default:
		handleBackendError(c, sid, c.GetString(middleware.CtxCurrentGroup), err)
	}
}
