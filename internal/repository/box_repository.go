package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/stashbox-api/internal/models"
	"gorm.io/gorm"
)

// ErrQrCodeUnavailable is returned when the conditional QR claim affected
// zero rows: the code was already assigned (or vanished) by the time this
// transaction tried to take it.
var ErrQrCodeUnavailable = errors.New("box repository: qr code is not available for assignment")

// GormBoxRepository is a GORM implementation of BoxRepository
type GormBoxRepository struct {
	db *gorm.DB
}

// NewBoxRepository creates a new BoxRepository
func NewBoxRepository(db *gorm.DB) BoxRepository {
	return &GormBoxRepository{db: db}
}

// Create creates a box without a QR code binding
func (r *GormBoxRepository) Create(box *models.Box) error {
	return r.db.Create(box).Error
}

// CreateWithQrClaim creates a box and claims the QR code in one transaction.
// The claim is guarded on status=generated so two racing creates cannot both
// win the same code; the loser sees zero rows affected and the whole
// transaction rolls back.
func (r *GormBoxRepository) CreateWithQrClaim(box *models.Box, qrCodeID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(box).Error; err != nil {
			return err
		}

		claim := tx.Model(&models.QrCode{}).
			Where("id = ? AND workspace_id = ? AND status = ?", qrCodeID, box.WorkspaceID, models.QrStatusGenerated).
			Updates(map[string]interface{}{
				"status": models.QrStatusAssigned,
				"box_id": box.ID,
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrQrCodeUnavailable
		}

		box.QrCodeID = &qrCodeID
		return tx.Model(&models.Box{}).Where("id = ?", box.ID).
			Update("qr_code_id", qrCodeID).Error
	})
}

// FindByID finds a live box by ID
func (r *GormBoxRepository) FindByID(id uint64) (*models.Box, error) {
	var box models.Box
	if err := r.db.Preload("Location").Preload("QrCode").First(&box, id).Error; err != nil {
		return nil, err
	}
	return &box, nil
}

// Update updates a box
func (r *GormBoxRepository) Update(box *models.Box) error {
	return r.db.Save(box).Error
}

// DeleteWithQrRelease soft-deletes the box and resets its bound QR code back
// to generated in the same transaction, so no QR row is ever left pointing at
// a deleted box.
func (r *GormBoxRepository) DeleteWithQrRelease(boxID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var box models.Box
		if err := tx.First(&box, boxID).Error; err != nil {
			return err
		}

		if box.QrCodeID != nil {
			if err := tx.Model(&models.QrCode{}).
				Where("box_id = ?", box.ID).
				Updates(map[string]interface{}{
					"status": models.QrStatusGenerated,
					"box_id": nil,
				}).Error; err != nil {
				return err
			}

			if err := tx.Model(&box).Update("qr_code_id", nil).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&box).Error
	})
}

// List retrieves boxes with filtering and pagination
func (r *GormBoxRepository) List(filter BoxFilter) ([]models.Box, int64, error) {
	query := r.db.Model(&models.Box{}).
		Where("workspace_id = ?", filter.WorkspaceID)

	if filter.Unassigned {
		query = query.Where("location_id IS NULL")
	} else if filter.LocationID != nil {
		query = query.Where("location_id = ?", *filter.LocationID)
	}

	if filter.Tag != "" {
		// Tags are stored as a JSON array; match the quoted element.
		query = query.Where("tags LIKE ?", fmt.Sprintf(`%%"%s"%%`, filter.Tag))
	}

	if filter.Query != "" {
		needle := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", needle, needle)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var boxes []models.Box
	offset := (filter.Page - 1) * filter.PageSize
	if err := query.Preload("Location").Preload("QrCode").
		Order("created_at DESC").
		Offset(offset).Limit(filter.PageSize).
		Find(&boxes).Error; err != nil {
		return nil, 0, err
	}

	return boxes, total, nil
}

// CreateQrBatch inserts a batch of generated QR codes
func (r *GormBoxRepository) CreateQrBatch(codes []models.QrCode) error {
	return r.db.Create(&codes).Error
}

// FindQrByID finds a QR code by ID
func (r *GormBoxRepository) FindQrByID(id uint64) (*models.QrCode, error) {
	var code models.QrCode
	if err := r.db.First(&code, id).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// ListQrCodes lists a workspace's QR codes, optionally filtered by status
func (r *GormBoxRepository) ListQrCodes(workspaceID uint64, status *models.QrStatus) ([]models.QrCode, error) {
	query := r.db.Where("workspace_id = ?", workspaceID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var codes []models.QrCode
	if err := query.Order("created_at").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// MarkQrPrinted marks an assigned QR code as printed
func (r *GormBoxRepository) MarkQrPrinted(workspaceID, qrCodeID uint64) (bool, error) {
	result := r.db.Model(&models.QrCode{}).
		Where("id = ? AND workspace_id = ? AND status = ?", qrCodeID, workspaceID, models.QrStatusAssigned).
		Update("status", models.QrStatusPrinted)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
