package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/onedaypage/backend/internal/middleware"
	"github.com/onedaypage/backend/internal/models"
	"github.com/onedaypage/backend/internal/storage"
	"github.com/onedaypage/backend/pkg/downloadtoken"
	"github.com/onedaypage/backend/pkg/logger"
	"github.com/onedaypage/backend/pkg/utils"
	"gorm.io/gorm"
)

type PhotosHandler struct {
	DB      *gorm.DB
	Storage *storage.MinIOClient
}

func NewPhotosHandler(db *gorm.DB, storageClient *storage.MinIOClient) *PhotosHandler {
	return &PhotosHandler{DB: db, Storage: storageClient}
}

type photoResponse struct {
	models.Photo
	DownloadURL string `json:"downloadURL"`
}

// Upload stores a photo for a page, bounded by the page's photo quota. The
// blob is written first; if the row insert fails the blob is removed so the
// quota cannot be consumed by invisible objects.
func (h *PhotosHandler) Upload(c *fiber.Ctx) error {
	if h.Storage == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "photo storage unavailable")
	}

	pageID := middleware.PageID(c)

	var page models.Page
	if err := h.DB.First(&page, "id = ?", pageID).Error; err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed loading page, try again")
	}

	var count int64
	if err := h.DB.Model(&models.Photo{}).Where("page_id = ?", pageID).Count(&count).Error; err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed checking quota, try again")
	}
	if count >= int64(page.PhotoQuota) {
		return utils.Error(c, fiber.StatusBadRequest, fmt.Sprintf("photo quota of %d reached", page.PhotoQuota))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "could not read file")
	}
	defer file.Close()

	photoID := uuid.New()
	objectKey := fmt.Sprintf("%s/%s", pageID, photoID)

	if err := h.Storage.Upload(c.Context(), objectKey, file, fileHeader.Size, contentType); err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed uploading photo, try again")
	}

	photo := models.Photo{
		BaseModel:   models.BaseModel{ID: photoID},
		PageID:      pageID,
		ObjectKey:   objectKey,
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
	}
	if err := h.DB.Create(&photo).Error; err != nil {
		_ = h.Storage.Delete(c.Context(), objectKey)
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed saving photo, try again")
	}

	logger.InfoWithPage(pageID.String(), "photo_uploaded", map[string]interface{}{
		"photo_id": photo.ID.String(),
		"size":     photo.Size,
	})

	return utils.Success(c, fiber.StatusCreated, h.withDownloadURL(photo))
}

func (h *PhotosHandler) List(c *fiber.Ctx) error {
	pageID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid page id")
	}

	var photos []models.Photo
	if err := h.DB.Where("page_id = ?", pageID).Order("created_at ASC").Find(&photos).Error; err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed loading photos, try again")
	}

	out := make([]photoResponse, 0, len(photos))
	for _, photo := range photos {
		out = append(out, h.withDownloadURL(photo))
	}

	return utils.Success(c, fiber.StatusOK, out)
}

// Download streams a photo in exchange for a valid signed download token, so
// image URLs never expose the page's edit secret.
func (h *PhotosHandler) Download(c *fiber.Ctx) error {
	if h.Storage == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "photo storage unavailable")
	}

	photoID, err := parseUUID(c.Params("photoId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid photo id")
	}

	claims, err := downloadtoken.Validate(c.Query("token"))
	if err != nil || claims.PhotoID != photoID.String() {
		return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired download token")
	}

	var photo models.Photo
	if err := h.DB.First(&photo, "id = ?", photoID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "photo not found")
		}
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed loading photo, try again")
	}

	obj, err := h.Storage.Download(c.Context(), photo.ObjectKey)
	if err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed fetching photo, try again")
	}

	c.Set(fiber.HeaderContentType, photo.ContentType)
	return c.SendStream(obj)
}

func (h *PhotosHandler) Delete(c *fiber.Ctx) error {
	pageID := middleware.PageID(c)

	photoID, err := parseUUID(c.Params("photoId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid photo id")
	}

	var photo models.Photo
	if err := h.DB.Where("id = ? AND page_id = ?", photoID, pageID).First(&photo).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "photo not found")
		}
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed loading photo, try again")
	}

	if err := h.DB.Delete(&photo).Error; err != nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "failed deleting photo, try again")
	}

	if h.Storage != nil {
		_ = h.Storage.Delete(c.Context(), photo.ObjectKey)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

func (h *PhotosHandler) withDownloadURL(photo models.Photo) photoResponse {
	resp := photoResponse{Photo: photo}
	token, err := downloadtoken.Generate(photo.PageID, photo.ID)
	if err == nil {
		resp.DownloadURL = fmt.Sprintf("/api/photos/%s/download?token=%s", photo.ID, token)
	}
	return resp
}
