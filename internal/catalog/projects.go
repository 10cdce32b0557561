package catalog

import (
	"context"
	"mime/multipart"
	"strings"

	"realestate/server/internal/apperr"
	"realestate/server/internal/database"
	"realestate/server/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/sirupsen/logrus"
)

// DefaultRadiusKm applies when a proximity query gives no radius.
const DefaultRadiusKm = 10.0

type ProjectQuery struct {
	CompanySlug string
	Status      string
	// Near restricts results to projects within RadiusKm of the point.
	Near     *orb.Point
	RadiusKm float64
}

func (s *Service) ListProjects(ctx context.Context, q ProjectQuery) ([]models.Project, error) {
	var filter database.ProjectFilter
	if slug := strings.TrimSpace(q.CompanySlug); slug != "" {
		company, err := s.store.GetCompanyBySlug(ctx, slug, false)
		if err != nil {
			return nil, err
		}
		filter.CompanyID = &company.ID
	}
	filter.Status = strings.TrimSpace(q.Status)

	projects, err := s.store.ListProjects(ctx, filter)
	if err != nil {
		return nil, err
	}
	if q.Near == nil {
		return projects, nil
	}
	return withinRadius(projects, *q.Near, q.RadiusKm), nil
}

// withinRadius keeps projects with coordinates no further than radiusKm from
// center, preserving order.
func withinRadius(projects []models.Project, center orb.Point, radiusKm float64) []models.Project {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	limit := radiusKm * 1000

	kept := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if !p.HasCoordinates() {
			continue
		}
		if geo.DistanceHaversine(center, orb.Point{*p.Longitude, *p.Latitude}) <= limit {
			kept = append(kept, p)
		}
	}
	return kept
}

func (s *Service) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	return s.store.GetProject(ctx, id)
}

func (s *Service) CreateProject(ctx context.Context, req models.ProjectCreateRequest, images []*multipart.FileHeader) (*models.Project, error) {
	company, err := s.store.GetCompanyBySlug(ctx, strings.TrimSpace(req.CompanySlug), false)
	if err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(req.Slug)
	title := strings.TrimSpace(req.Title)
	if slug == "" || title == "" {
		return nil, apperr.Validation("slug/title required")
	}
	if !validSlug(slug) {
		return nil, apperr.Validation("slug may only contain letters, digits, '-' and '_'")
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, apperr.Validation("latitude and longitude must be given together")
	}

	taken, err := s.store.ProjectSlugTaken(ctx, slug, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("slug exists")
	}

	status := req.Status
	if status == "" {
		status = models.ProjectActive
	}

	project := &models.Project{
		CompanyID:   company.ID,
		Slug:        slug,
		Title:       title,
		Location:    strings.TrimSpace(req.Location),
		Description: req.Description,
		Features:    models.EncodeList(req.Features),
		Status:      status,
		SortOrder:   req.Order,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
	if !project.HasCoordinates() {
		s.locate(ctx, project)
	}

	saved, err := s.saveFiles(images)
	if err != nil {
		return nil, err
	}
	project.Images = models.EncodeList(saved)

	if err := s.store.CreateProject(ctx, project); err != nil {
		s.files.Remove(saved...)
		return nil, err
	}
	project.Company = company

	s.logger.WithFields(logrus.Fields{
		"project_id": project.ID,
		"slug":       project.Slug,
		"company":    company.Slug,
		"images":     len(saved),
	}).Info("Project created")
	return project, nil
}

func (s *Service) UpdateProject(ctx context.Context, id uint, req models.ProjectUpdateRequest, images []*multipart.FileHeader) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, apperr.Validation("latitude and longitude must be given together")
	}

	if slug := trimmed(req.Slug); slug != nil {
		if *slug == "" || !validSlug(*slug) {
			return nil, apperr.Validation("slug may only contain letters, digits, '-' and '_'")
		}
		taken, err := s.store.ProjectSlugTaken(ctx, *slug, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflict("slug exists")
		}
		project.Slug = *slug
	}
	if title := trimmed(req.Title); title != nil {
		if *title == "" {
			return nil, apperr.Validation("title required")
		}
		project.Title = *title
	}
	locationChanged := false
	if location := trimmed(req.Location); location != nil {
		locationChanged = *location != project.Location
		project.Location = *location
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.Order != nil {
		project.SortOrder = req.Order
	}
	if req.Features != nil {
		project.Features = models.EncodeList(*req.Features)
	}

	switch {
	case req.Latitude != nil:
		project.Latitude, project.Longitude = req.Latitude, req.Longitude
	case locationChanged:
		project.Latitude, project.Longitude = nil, nil
		s.locate(ctx, project)
	}

	saved, err := s.saveFiles(images)
	if err != nil {
		return nil, err
	}
	if len(saved) > 0 {
		project.Images = models.EncodeList(append(s.projectImages(project), saved...))
	}

	if err := s.store.SaveProject(ctx, project); err != nil {
		s.files.Remove(saved...)
		return nil, err
	}

	s.logger.WithField("slug", project.Slug).Info("Project updated")
	return project, nil
}

// AttachProjectImages appends uploaded images to the project's image list
// and returns the stored file names.
func (s *Service) AttachProjectImages(ctx context.Context, id uint, images []*multipart.FileHeader) (*models.Project, []string, error) {
	if len(images) == 0 {
		return nil, nil, apperr.Validation("No files uploaded")
	}

	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	saved, err := s.files.SaveAll(images)
	if err != nil {
		return nil, nil, err
	}
	project.Images = models.EncodeList(append(s.projectImages(project), saved...))

	if err := s.store.SaveProject(ctx, project); err != nil {
		s.files.Remove(saved...)
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"project_id": id,
		"files":      saved,
	}).Info("Project images uploaded")
	return project, saved, nil
}

func (s *Service) DeleteProject(ctx context.Context, id uint) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("project_id", id).Info("Project deleted")
	return nil
}

func (s *Service) projectImages(p *models.Project) []string {
	images, err := models.DecodeList(p.Images)
	if err != nil {
		s.logger.WithError(err).WithField("project_id", p.ID).Warn("Malformed stored project images")
	}
	return images
}

// locate fills in coordinates from the project location. Failures are
// logged and leave the coordinates unset.
func (s *Service) locate(ctx context.Context, p *models.Project) {
	if s.geocoder == nil || p.Location == "" {
		return
	}
	lat, lng, err := s.geocoder.Geocode(ctx, p.Location)
	if err != nil {
		s.logger.WithError(err).WithField("location", p.Location).Warn("Failed to geocode project location")
		return
	}
	p.Latitude, p.Longitude = &lat, &lng
}

// backfillBatch bounds how many projects one backfill run looks at.
const backfillBatch = 500

// GeocodeMissing resolves coordinates for projects that have a location
// but none stored. It returns how many were updated and how many failed.
func (s *Service) GeocodeMissing(ctx context.Context) (int, int, error) {
	if s.geocoder == nil {
		return 0, 0, nil
	}

	projects, err := s.store.ProjectsMissingCoordinates(ctx, backfillBatch)
	if err != nil {
		return 0, 0, err
	}
	if len(projects) == 0 {
		s.logger.Info("No projects need geocoding")
		return 0, 0, nil
	}
	s.logger.WithField("count", len(projects)).Info("Geocoding projects without coordinates")

	var updated, failed int
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return updated, failed, err
		}
		lat, lng, err := s.geocoder.Geocode(ctx, p.Location)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"project_id": p.ID,
				"location":   p.Location,
			}).Warn("Failed to geocode project location")
			failed++
			continue
		}
		if err := s.store.SetProjectCoordinates(ctx, p.ID, lat, lng); err != nil {
			return updated, failed, err
		}
		updated++
	}

	s.logger.WithFields(logrus.Fields{
		"updated": updated,
		"failed":  failed,
	}).Info("Finished geocoding projects")
	return updated, failed, nil
}
