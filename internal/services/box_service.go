package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/stashbox-api/internal/constants"
	"github.com/yukikurage/stashbox-api/internal/models"
	"github.com/yukikurage/stashbox-api/internal/repository"
	"github.com/yukikurage/stashbox-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrBoxNotFound       = errors.New("box not found")
	ErrBoxNameRequired   = errors.New("box name is required")
	ErrQrCodeNotFound    = errors.New("qr code not found")
	ErrQrQuantityInvalid = errors.New("qr batch quantity must be between 1 and 100")
	// ErrWorkspaceMismatch flags a cross-tenant reference: the id exists but
	// belongs to another workspace. Never silently corrected.
	ErrWorkspaceMismatch = errors.New("referenced resource belongs to a different workspace")
	// ErrQrCodeAlreadyAssigned is surfaced both on the pre-check and when the
	// atomic claim loses a race for the code.
	ErrQrCodeAlreadyAssigned = errors.New("qr code is already assigned to a box")
	ErrQrCodeNotAssigned     = errors.New("only an assigned qr code can be marked printed")
	ErrQrStatusInvalid       = errors.New("invalid qr code status")
	ErrAINotConfigured       = errors.New("AI service is not configured")
)

// BoxService handles box and QR code lifecycle logic.
type BoxService struct {
	boxRepo   repository.BoxRepository
	locRepo   repository.LocationRepository
	authz     *AuthorizationService
	aiService *AIService
}

// NewBoxService creates a new BoxService.
func NewBoxService(boxRepo repository.BoxRepository, locRepo repository.LocationRepository, authz *AuthorizationService, aiService *AIService) *BoxService {
	return &BoxService{
		boxRepo:   boxRepo,
		locRepo:   locRepo,
		authz:     authz,
		aiService: aiService,
	}
}

// GenerateQrBatch creates quantity unbound QR codes for the workspace.
func (s *BoxService) GenerateQrBatch(workspaceID, actorID uint64, quantity int) ([]models.QrCode, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, Editor); err != nil {
		return nil, err
	}

	if quantity < constants.MinQrBatchSize || quantity > constants.MaxQrBatchSize {
		return nil, ErrQrQuantityInvalid
	}

	codes := make([]models.QrCode, quantity)
	for i := range codes {
		shortID, err := utils.GenerateShortID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate short id: %w", err)
		}
		codes[i] = models.QrCode{
			WorkspaceID: workspaceID,
			ShortID:     shortID,
			Status:      models.QrStatusGenerated,
		}
	}

	if err := s.boxRepo.CreateQrBatch(codes); err != nil {
		return nil, fmt.Errorf("failed to create qr batch: %w", err)
	}

	return codes, nil
}

// ListQrCodes lists the workspace's QR codes, optionally filtered by status.
func (s *BoxService) ListQrCodes(workspaceID, actorID uint64, status string) ([]models.QrCode, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, AnyMember); err != nil {
		return nil, err
	}

	var statusFilter *models.QrStatus
	if status != "" {
		qs := models.QrStatus(status)
		switch qs {
		case models.QrStatusGenerated, models.QrStatusAssigned, models.QrStatusPrinted:
			statusFilter = &qs
		default:
			return nil, ErrQrStatusInvalid
		}
	}

	codes, err := s.boxRepo.ListQrCodes(workspaceID, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list qr codes: %w", err)
	}
	return codes, nil
}

// MarkQrPrinted marks an assigned code as printed for re-print tracking. The
// binding itself is unchanged.
func (s *BoxService) MarkQrPrinted(workspaceID, actorID, qrCodeID uint64) (*models.QrCode, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, Editor); err != nil {
		return nil, err
	}

	code, err := s.findQrInWorkspace(workspaceID, qrCodeID)
	if err != nil {
		return nil, err
	}

	updated, err := s.boxRepo.MarkQrPrinted(workspaceID, qrCodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark qr code printed: %w", err)
	}
	if !updated {
		if code.Status == models.QrStatusPrinted {
			return code, nil
		}
		return nil, ErrQrCodeNotAssigned
	}

	code.Status = models.QrStatusPrinted
	return code, nil
}

// CreateBoxInput represents parameters to create a box.
type CreateBoxInput struct {
	Name        string
	Description string
	Tags        []string
	LocationID  *uint64
	QrCodeID    *uint64
}

// CreateBox creates a box, optionally placed in a location and bound to a QR
// code. The binding is established atomically with the insert; a racing
// create for the same code leaves exactly one winner.
func (s *BoxService) CreateBox(workspaceID, actorID uint64, input CreateBoxInput) (*models.Box, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, Editor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrBoxNameRequired
	}

	if input.LocationID != nil {
		if _, err := s.findLocationInWorkspace(workspaceID, *input.LocationID); err != nil {
			return nil, err
		}
	}

	if input.QrCodeID != nil {
		code, err := s.findQrInWorkspace(workspaceID, *input.QrCodeID)
		if err != nil {
			return nil, err
		}
		if code.Status != models.QrStatusGenerated {
			return nil, ErrQrCodeAlreadyAssigned
		}
	}

	shortID, err := utils.GenerateShortID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate short id: %w", err)
	}

	box := &models.Box{
		WorkspaceID: workspaceID,
		LocationID:  input.LocationID,
		ShortID:     shortID,
		Name:        name,
		Description: input.Description,
		Tags:        input.Tags,
	}

	if input.QrCodeID != nil {
		err = s.boxRepo.CreateWithQrClaim(box, *input.QrCodeID)
		if errors.Is(err, repository.ErrQrCodeUnavailable) {
			return nil, ErrQrCodeAlreadyAssigned
		}
	} else {
		err = s.boxRepo.Create(box)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create box: %w", err)
	}

	return box, nil
}

// UpdateBoxInput represents a partial box update. The QR binding is immutable
// after creation; only delete-and-recreate changes it.
type UpdateBoxInput struct {
	Name          *string
	Description   *string
	Tags          *[]string
	LocationID    *uint64
	ClearLocation bool
}

// UpdateBox applies a partial update, re-validating the location reference
// when placement changes.
func (s *BoxService) UpdateBox(workspaceID, actorID, boxID uint64, input UpdateBoxInput) (*models.Box, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, Editor); err != nil {
		return nil, err
	}

	box, err := s.findBoxInWorkspace(workspaceID, boxID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrBoxNameRequired
		}
		box.Name = name
	}
	if input.Description != nil {
		box.Description = *input.Description
	}
	if input.Tags != nil {
		box.Tags = *input.Tags
	}
	if input.ClearLocation {
		box.LocationID = nil
		box.Location = nil
	} else if input.LocationID != nil {
		if _, err := s.findLocationInWorkspace(workspaceID, *input.LocationID); err != nil {
			return nil, err
		}
		box.LocationID = input.LocationID
		box.Location = nil
	}

	if err := s.boxRepo.Update(box); err != nil {
		return nil, fmt.Errorf("failed to update box: %w", err)
	}

	return box, nil
}

// DeleteBox deletes a box, releasing any bound QR code back to generated in
// the same transaction.
func (s *BoxService) DeleteBox(workspaceID, actorID, boxID uint64) error {
	if _, err := s.authz.Authorize(workspaceID, actorID, Editor); err != nil {
		return err
	}

	box, err := s.findBoxInWorkspace(workspaceID, boxID)
	if err != nil {
		return err
	}

	if err := s.boxRepo.DeleteWithQrRelease(box.ID); err != nil {
		return fmt.Errorf("failed to delete box: %w", err)
	}

	return nil
}

// GetBox returns one box with its location and QR code.
func (s *BoxService) GetBox(workspaceID, actorID, boxID uint64) (*models.Box, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, AnyMember); err != nil {
		return nil, err
	}
	return s.findBoxInWorkspace(workspaceID, boxID)
}

// ListBoxesInput represents filters for listing boxes.
type ListBoxesInput struct {
	LocationID *uint64
	Unassigned bool
	Tag        string
	Query      string
	Page       int
	PageSize   int
}

// ListBoxes lists the workspace's boxes with filtering and pagination.
func (s *BoxService) ListBoxes(workspaceID, actorID uint64, input ListBoxesInput) ([]models.Box, int64, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, AnyMember); err != nil {
		return nil, 0, err
	}

	if input.LocationID != nil {
		if _, err := s.findLocationInWorkspace(workspaceID, *input.LocationID); err != nil {
			return nil, 0, err
		}
	}

	boxes, total, err := s.boxRepo.List(repository.BoxFilter{
		WorkspaceID: workspaceID,
		LocationID:  input.LocationID,
		Unassigned:  input.Unassigned,
		Tag:         input.Tag,
		Query:       input.Query,
		Page:        input.Page,
		PageSize:    input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list boxes: %w", err)
	}

	return boxes, total, nil
}

// SuggestTags asks the AI collaborator for tag suggestions based on the box
// name and description.
func (s *BoxService) SuggestTags(ctx context.Context, workspaceID, actorID uint64, name, description string) ([]string, error) {
	if _, err := s.authz.Authorize(workspaceID, actorID, Editor); err != nil {
		return nil, err
	}

	if s.aiService == nil {
		return nil, ErrAINotConfigured
	}

	tags, err := s.aiService.SuggestTags(ctx, name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest tags: %w", err)
	}
	return tags, nil
}

// findBoxInWorkspace resolves a live box and verifies the workspace scope; a
// box id alone is never trusted.
func (s *BoxService) findBoxInWorkspace(workspaceID, boxID uint64) (*models.Box, error) {
	box, err := s.boxRepo.FindByID(boxID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoxNotFound
		}
		return nil, fmt.Errorf("failed to find box: %w", err)
	}
	if box.WorkspaceID != workspaceID {
		return nil, ErrBoxNotFound
	}
	return box, nil
}

// findLocationInWorkspace validates a location reference on a box: a missing
// or deleted location is not found, one from another tenant is a workspace
// mismatch.
func (s *BoxService) findLocationInWorkspace(workspaceID, locationID uint64) (*models.Location, error) {
	loc, err := s.locRepo.FindByID(locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	if loc.WorkspaceID != workspaceID {
		return nil, ErrWorkspaceMismatch
	}
	return loc, nil
}

func (s *BoxService) findQrInWorkspace(workspaceID, qrCodeID uint64) (*models.QrCode, error) {
	code, err := s.boxRepo.FindQrByID(qrCodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQrCodeNotFound
		}
		return nil, fmt.Errorf("failed to find qr code: %w", err)
	}
	if code.WorkspaceID != workspaceID {
		return nil, ErrWorkspaceMismatch
	}
	return code, nil
}
