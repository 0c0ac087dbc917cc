package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/onedaypage/backend/internal/config"
	"github.com/onedaypage/backend/internal/models"
	"github.com/onedaypage/backend/internal/storage"
	"github.com/onedaypage/backend/pkg/logger"
	"github.com/onedaypage/backend/pkg/utils"
	"gorm.io/gorm"
)

// PageService owns the lifecycle of page records: creation with a fresh
// secret, secret rotation, deletion, and the expiry sweep.
type PageService struct {
	DB    *gorm.DB
	Blobs *storage.MinIOClient
	cfg   config.PageConfig
}

func NewPageService(db *gorm.DB, blobs *storage.MinIOClient, cfg config.PageConfig) *PageService {
	return &PageService{DB: db, Blobs: blobs, cfg: cfg}
}

// Create inserts a new page with a freshly generated secret and an expiry of
// now plus the configured lifetime. The insert is a single row, so the record
// is either fully written with its secret and expiry or not written at all.
// On storage failure the caller surfaces a retryable error and must not retry
// with a new id behind the user's back.
func (p *PageService) Create(ctx context.Context, title string, theme models.PageTheme) (*models.Page, error) {
	secret, err := utils.GenerateSecret(p.cfg.SecretLength)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	page := models.Page{
		Secret:     secret,
		ExpiresAt:  now.Add(p.cfg.Lifetime),
		Title:      title,
		Theme:      theme,
		PhotoQuota: p.cfg.PhotoQuota,
	}

	if err := p.DB.WithContext(ctx).Create(&page).Error; err != nil {
		return nil, err
	}

	logger.InfoWithPage(page.ID.String(), "page_created", map[string]interface{}{
		"expires_at": page.ExpiresAt,
		"theme":      string(theme),
	})

	return &page, nil
}

// RotateSecret replaces the page's secret and extends its expiry, but only if
// the caller proves possession of the current secret. The guard is a single
// conditional UPDATE keyed on id and old secret, so two concurrent rotations
// cannot both win: the loser's WHERE clause no longer matches and it gets
// ok=false, an expected outcome rather than an error. An expired page cannot
// be rotated back to life.
func (p *PageService) RotateSecret(ctx context.Context, pageID uuid.UUID, oldSecret string) (string, bool, error) {
	newSecret, err := utils.GenerateSecret(p.cfg.SecretLength)
	if err != nil {
		return "", false, err
	}

	now := time.Now()
	res := p.DB.WithContext(ctx).Model(&models.Page{}).
		Where("id = ? AND secret = ? AND expires_at > ?", pageID, oldSecret, now).
		Updates(map[string]interface{}{
			"secret":     newSecret,
			"expires_at": now.Add(p.cfg.Lifetime),
		})
	if res.Error != nil {
		return "", false, res.Error
	}
	if res.RowsAffected == 0 {
		return "", false, nil
	}

	logger.InfoWithPage(pageID.String(), "page_secret_rotated", map[string]interface{}{
		"expires_at": now.Add(p.cfg.Lifetime),
	})

	return newSecret, true, nil
}

// Delete removes a page with its messages, photo rows, and blobs. Deleting a
// page that no longer exists is not an error.
func (p *PageService) Delete(ctx context.Context, pageID uuid.UUID) error {
	var photos []models.Photo
	if err := p.DB.WithContext(ctx).Where("page_id = ?", pageID).Find(&photos).Error; err != nil {
		return err
	}

	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("page_id = ?", pageID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_id = ?", pageID).Delete(&models.Photo{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", pageID).Delete(&models.Page{}).Error
	})
	if err != nil {
		return err
	}

	// Blob removal is best-effort; an orphaned object is preferable to a
	// page row that outlives its expiry.
	if p.Blobs != nil {
		for _, photo := range photos {
			_ = p.Blobs.Delete(ctx, photo.ObjectKey)
		}
	}

	return nil
}

// Sweep deletes every page whose expiry has passed and returns how many were
// removed. Each page row is deleted with an expiry-guarded conditional
// delete, so concurrent sweeps never double-count and never touch records
// that are still live.
func (p *PageService) Sweep(ctx context.Context) (int64, error) {
	now := time.Now()

	var expired []models.Page
	if err := p.DB.WithContext(ctx).Where("expires_at <= ?", now).Find(&expired).Error; err != nil {
		return 0, err
	}

	var count int64
	for _, page := range expired {
		res := p.DB.WithContext(ctx).
			Where("id = ? AND expires_at <= ?", page.ID, now).
			Delete(&models.Page{})
		if res.Error != nil {
			return count, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		count++

		if err := p.cleanupContent(ctx, page.ID); err != nil {
			return count, err
		}
	}

	return count, nil
}

// StartSweeper runs Sweep on a fixed interval in a background goroutine.
func (p *PageService) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			count, err := p.Sweep(context.Background())
			if err != nil {
				logger.Error("page_sweep_failed", err, nil)
				continue
			}
			if count > 0 {
				logger.Info("page_sweep_completed", map[string]interface{}{
					"removed": count,
				})
			}
		}
	}()
}

func (p *PageService) cleanupContent(ctx context.Context, pageID uuid.UUID) error {
	var photos []models.Photo
	if err := p.DB.WithContext(ctx).Where("page_id = ?", pageID).Find(&photos).Error; err != nil {
		return err
	}

	if err := p.DB.WithContext(ctx).Where("page_id = ?", pageID).Delete(&models.Message{}).Error; err != nil {
		return err
	}
	if err := p.DB.WithContext(ctx).Where("page_id = ?", pageID).Delete(&models.Photo{}).Error; err != nil {
		return err
	}

	if p.Blobs != nil {
		for _, photo := range photos {
			_ = p.Blobs.Delete(ctx, photo.ObjectKey)
		}
	}

	return nil
}
