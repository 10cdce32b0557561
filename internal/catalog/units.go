package catalog

import (
	"context"
	"mime/multipart"
	"strings"

	"realestate/server/internal/apperr"
	"realestate/server/internal/database"
	"realestate/server/internal/models"

	"github.com/sirupsen/logrus"
)

type UnitPage struct {
	Units []models.Unit
	Page  Page
	Total int64
}

// ListUnits applies every filter, including the derived total price, before
// paginating.
func (s *Service) ListUnits(ctx context.Context, filter database.UnitFilter, page Page) (*UnitPage, error) {
	filter.Status = strings.TrimSpace(filter.Status)
	units, total, err := s.store.ListUnits(ctx, filter, page.Page, page.Limit)
	if err != nil {
		return nil, err
	}
	return &UnitPage{Units: units, Page: page, Total: total}, nil
}

func (s *Service) GetUnit(ctx context.Context, id uint) (*models.Unit, error) {
	return s.store.GetUnit(ctx, id)
}

func (s *Service) CreateUnit(ctx context.Context, req models.UnitCreateRequest, images []*multipart.FileHeader, floorPlan *multipart.FileHeader) (*models.Unit, error) {
	if _, err := s.store.GetProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(req.Code.String())
	floor := strings.TrimSpace(req.Floor.String())
	if code == "" || floor == "" {
		return nil, apperr.Validation("project_id, code, sqm, price_per_sqm, floor required")
	}
	if req.Sqm <= 0 || req.PricePerSqm <= 0 {
		return nil, apperr.Validation("sqm and price_per_sqm must be positive")
	}
	if req.Bedrooms < 0 || req.Bathrooms < 0 {
		return nil, apperr.Validation("bedrooms and bathrooms must not be negative")
	}

	metadata, err := models.EncodeMap(req.Metadata)
	if err != nil {
		return nil, apperr.Validation("metadata must be a JSON object")
	}

	status := req.Status
	if status == "" {
		status = models.UnitAvailable
	}

	unit := &models.Unit{
		ProjectID:   req.ProjectID,
		Code:        code,
		Title:       strings.TrimSpace(req.Title),
		Sqm:         req.Sqm,
		PricePerSqm: req.PricePerSqm,
		Floor:       floor,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Amenities:   models.EncodeList(req.Amenities),
		Status:      status,
		Metadata:    metadata,
	}

	saved, err := s.attach(unit, images, floorPlan)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateUnit(ctx, unit); err != nil {
		s.files.Remove(saved...)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"unit_id":    unit.ID,
		"project_id": unit.ProjectID,
		"code":       unit.Code,
	}).Info("Unit created")
	return unit, nil
}

func (s *Service) UpdateUnit(ctx context.Context, id uint, req models.UnitUpdateRequest, images []*multipart.FileHeader, floorPlan *multipart.FileHeader) (*models.Unit, error) {
	unit, _, err := s.updateUnit(ctx, id, req, images, floorPlan)
	return unit, err
}

// updateUnit applies req and the uploaded files, returning the stored
// file names alongside the unit.
func (s *Service) updateUnit(ctx context.Context, id uint, req models.UnitUpdateRequest, images []*multipart.FileHeader, floorPlan *multipart.FileHeader) (*models.Unit, []string, error) {
	unit, err := s.store.GetUnit(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if req.Code != nil {
		code := strings.TrimSpace(req.Code.String())
		if code == "" {
			return nil, nil, apperr.Validation("code required")
		}
		unit.Code = code
	}
	if req.Floor != nil {
		floor := strings.TrimSpace(req.Floor.String())
		if floor == "" {
			return nil, nil, apperr.Validation("floor required")
		}
		unit.Floor = floor
	}
	if req.Title != nil {
		unit.Title = strings.TrimSpace(*req.Title)
	}
	if req.Sqm != nil {
		if *req.Sqm <= 0 {
			return nil, nil, apperr.Validation("sqm must be positive")
		}
		unit.Sqm = *req.Sqm
	}
	if req.PricePerSqm != nil {
		if *req.PricePerSqm <= 0 {
			return nil, nil, apperr.Validation("price_per_sqm must be positive")
		}
		unit.PricePerSqm = *req.PricePerSqm
	}
	if req.Bedrooms != nil {
		if *req.Bedrooms < 0 {
			return nil, nil, apperr.Validation("bedrooms must not be negative")
		}
		unit.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		if *req.Bathrooms < 0 {
			return nil, nil, apperr.Validation("bathrooms must not be negative")
		}
		unit.Bathrooms = *req.Bathrooms
	}
	if req.Status != nil {
		unit.Status = *req.Status
	}
	if req.Amenities != nil {
		unit.Amenities = models.EncodeList(*req.Amenities)
	}
	if req.Metadata != nil {
		metadata, err := models.EncodeMap(*req.Metadata)
		if err != nil {
			return nil, nil, apperr.Validation("metadata must be a JSON object")
		}
		unit.Metadata = metadata
	}

	previousPlan := unit.FloorPlan
	saved, err := s.attach(unit, images, floorPlan)
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.SaveUnit(ctx, unit); err != nil {
		s.files.Remove(saved...)
		return nil, nil, err
	}
	if floorPlan != nil && previousPlan != nil {
		s.files.Remove(*previousPlan)
	}

	s.logger.WithField("unit_id", unit.ID).Info("Unit updated")
	return unit, saved, nil
}

// AttachUnitFiles appends images and replaces the floor plan of a unit. It
// returns the unit and the stored file names, floor plan last.
func (s *Service) AttachUnitFiles(ctx context.Context, id uint, images []*multipart.FileHeader, floorPlan *multipart.FileHeader) (*models.Unit, []string, error) {
	if len(images) == 0 && floorPlan == nil {
		return nil, nil, apperr.Validation("No files uploaded")
	}
	return s.updateUnit(ctx, id, models.UnitUpdateRequest{}, images, floorPlan)
}

func (s *Service) DeleteUnit(ctx context.Context, id uint) error {
	if err := s.store.DeleteUnit(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("unit_id", id).Info("Unit deleted")
	return nil
}

// attach stores images and the floor plan as one batch and records them on
// the unit. It returns every stored name so callers can roll back.
func (s *Service) attach(unit *models.Unit, images []*multipart.FileHeader, floorPlan *multipart.FileHeader) ([]string, error) {
	batch := images
	if floorPlan != nil {
		batch = append(append([]*multipart.FileHeader{}, images...), floorPlan)
	}

	saved, err := s.saveFiles(batch)
	if err != nil {
		return nil, err
	}

	newImages := saved
	if floorPlan != nil {
		newImages = saved[:len(saved)-1]
		plan := saved[len(saved)-1]
		unit.FloorPlan = &plan
	}

	current, decodeErr := models.DecodeList(unit.Images)
	if decodeErr != nil {
		s.logger.WithError(decodeErr).WithField("unit_id", unit.ID).Warn("Malformed stored unit images")
	}
	if len(newImages) > 0 || len(unit.Images) == 0 {
		unit.Images = models.EncodeList(append(current, newImages...))
	}
	return saved, nil
}

// SaveUpload stores a standalone file such as a company logo.
func (s *Service) SaveUpload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", apperr.Validation("No file uploaded")
	}
	name, err := s.files.Save(file)
	if err != nil {
		return "", err
	}
	s.logger.WithField("filename", name).Info("File uploaded")
	return name, nil
}
