package catalog

import (
	"context"

	"realestate/server/internal/apperr"
	"realestate/server/internal/database"
	"realestate/server/internal/models"

	"github.com/sirupsen/logrus"
)

// SeedData describes one company with one project and its units.
type SeedData struct {
	Company models.CompanyCreateRequest
	Project models.ProjectCreateRequest
	Units   []models.UnitCreateRequest
}

type SeedResult struct {
	CompanyCreated bool
	ProjectCreated bool
	UnitsCreated   int
}

// DemoSeed is a small catalog for trying out the API and the bot.
func DemoSeed() SeedData {
	return SeedData{
		Company: models.CompanyCreateRequest{
			Slug: "abu-zahra-developments",
			Name: "Abu Zahra Developments",
		},
		Project: models.ProjectCreateRequest{
			CompanySlug: "abu-zahra-developments",
			Slug:        "diva-1",
			Title:       "Diva 1",
			Location:    "New Cairo",
			Description: "Luxury project",
		},
		Units: []models.UnitCreateRequest{
			{Code: "A-101", Sqm: 100, PricePerSqm: 20000, Floor: "1"},
			{Code: "A-102", Sqm: 120, PricePerSqm: 19500, Floor: "2"},
			{Code: "B-303", Sqm: 150, PricePerSqm: 21000, Floor: "3"},
		},
	}
}

// Seed creates whatever part of data is missing. Existing records are
// matched by company slug, project slug and unit code, and left untouched.
func (s *Service) Seed(ctx context.Context, data SeedData) (*SeedResult, error) {
	result := &SeedResult{}

	company, err := s.store.GetCompanyBySlug(ctx, data.Company.Slug, false)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		if company, err = s.CreateCompany(ctx, data.Company); err != nil {
			return nil, err
		}
		result.CompanyCreated = true
	case err != nil:
		return nil, err
	}

	projectReq := data.Project
	projectReq.CompanySlug = company.Slug
	project, err := s.findProject(ctx, projectReq.CompanySlug, projectReq.Slug)
	if err != nil {
		return nil, err
	}
	if project == nil {
		if project, err = s.CreateProject(ctx, projectReq, nil); err != nil {
			return nil, err
		}
		result.ProjectCreated = true
	}

	existing, err := s.unitCodes(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	for _, req := range data.Units {
		if existing[req.Code.String()] {
			continue
		}
		req.ProjectID = project.ID
		if _, err := s.CreateUnit(ctx, req, nil, nil); err != nil {
			return nil, err
		}
		result.UnitsCreated++
	}

	s.logger.WithFields(logrus.Fields{
		"company":         company.Slug,
		"project":         project.Slug,
		"company_created": result.CompanyCreated,
		"project_created": result.ProjectCreated,
		"units_created":   result.UnitsCreated,
	}).Info("Seed finished")
	return result, nil
}

// findProject returns the company's project with the given slug, or nil.
func (s *Service) findProject(ctx context.Context, companySlug, slug string) (*models.Project, error) {
	projects, err := s.ListProjects(ctx, ProjectQuery{CompanySlug: companySlug})
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Slug == slug {
			return &projects[i], nil
		}
	}
	return nil, nil
}

func (s *Service) unitCodes(ctx context.Context, projectID uint) (map[string]bool, error) {
	codes := make(map[string]bool)
	filter := database.UnitFilter{ProjectID: &projectID}
	for page := 1; ; page++ {
		units, total, err := s.store.ListUnits(ctx, filter, page, MaxLimit)
		if err != nil {
			return nil, err
		}
		for _, u := range units {
			codes[u.Code] = true
		}
		if len(units) == 0 || int64(page*MaxLimit) >= total {
			return codes, nil
		}
	}
}
