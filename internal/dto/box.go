package dto

import (
	"time"

	"github.com/yukikurage/stashbox-api/internal/models"
)

// QrCodeDTO represents a QR code in API responses
type QrCodeDTO struct {
	ID          uint64          `json:"id"`
	WorkspaceID uint64          `json:"workspace_id"`
	ShortID     string          `json:"short_id"`
	Status      models.QrStatus `json:"status"`
	BoxID       *uint64         `json:"box_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BoxDTO represents a box in API responses
type BoxDTO struct {
	ID          uint64       `json:"id"`
	WorkspaceID uint64       `json:"workspace_id"`
	LocationID  *uint64      `json:"location_id"`
	QrCodeID    *uint64      `json:"qr_code_id"`
	ShortID     string       `json:"short_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Location    *LocationDTO `json:"location,omitempty"`
	QrCode      *QrCodeDTO   `json:"qr_code,omitempty"`
}

// ToQrCodeDTO converts a QR code to DTO
func ToQrCodeDTO(code models.QrCode) QrCodeDTO {
	return QrCodeDTO{
		ID:          code.ID,
		WorkspaceID: code.WorkspaceID,
		ShortID:     code.ShortID,
		Status:      code.Status,
		BoxID:       code.BoxID,
		CreatedAt:   code.CreatedAt,
	}
}

// ToQrCodeDTOs converts a slice of QR codes to DTOs
func ToQrCodeDTOs(codes []models.QrCode) []QrCodeDTO {
	dtos := make([]QrCodeDTO, len(codes))
	for i, code := range codes {
		dtos[i] = ToQrCodeDTO(code)
	}
	return dtos
}

// ToBoxDTO converts a box to DTO
func ToBoxDTO(box models.Box) BoxDTO {
	tags := box.Tags
	if tags == nil {
		tags = []string{}
	}

	d := BoxDTO{
		ID:          box.ID,
		WorkspaceID: box.WorkspaceID,
		LocationID:  box.LocationID,
		QrCodeID:    box.QrCodeID,
		ShortID:     box.ShortID,
		Name:        box.Name,
		Description: box.Description,
		Tags:        tags,
		CreatedAt:   box.CreatedAt,
		UpdatedAt:   box.UpdatedAt,
	}

	if box.Location != nil {
		loc := ToLocationDTO(*box.Location)
		d.Location = &loc
	}
	if box.QrCode != nil {
		code := ToQrCodeDTO(*box.QrCode)
		d.QrCode = &code
	}

	return d
}

// ToBoxDTOs converts a slice of boxes to DTOs
func ToBoxDTOs(boxes []models.Box) []BoxDTO {
	dtos := make([]BoxDTO, len(boxes))
	for i, box := range boxes {
		dtos[i] = ToBoxDTO(box)
	}
	return dtos
}
