package catalog

import (
	"context"
	"strings"

	"realestate/server/internal/apperr"
	"realestate/server/internal/models"

	"github.com/sirupsen/logrus"
)

func (s *Service) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return s.store.ListCompanies(ctx)
}

// GetCompany returns a company by slug together with its projects.
func (s *Service) GetCompany(ctx context.Context, slug string) (*models.Company, error) {
	return s.store.GetCompanyBySlug(ctx, slug, true)
}

func (s *Service) CreateCompany(ctx context.Context, req models.CompanyCreateRequest) (*models.Company, error) {
	slug := strings.TrimSpace(req.Slug)
	name := strings.TrimSpace(req.Name)
	if slug == "" || name == "" {
		return nil, apperr.Validation("slug/name required")
	}
	if !validSlug(slug) {
		return nil, apperr.Validation("slug may only contain letters, digits, '-' and '_'")
	}

	taken, err := s.store.CompanySlugTaken(ctx, slug, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("slug exists")
	}

	contact, err := models.EncodeMap(req.ContactInfo)
	if err != nil {
		return nil, apperr.Validation("contact_info must be a JSON object")
	}

	company := &models.Company{
		Slug:        slug,
		Name:        name,
		Logo:        strings.TrimSpace(req.Logo),
		Description: req.Description,
		ContactInfo: contact,
	}
	if err := s.store.CreateCompany(ctx, company); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"company_id": company.ID,
		"slug":       company.Slug,
	}).Info("Company created")
	return company, nil
}

func (s *Service) UpdateCompany(ctx context.Context, id uint, req models.CompanyUpdateRequest) (*models.Company, error) {
	company, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	if slug := trimmed(req.Slug); slug != nil {
		if *slug == "" || !validSlug(*slug) {
			return nil, apperr.Validation("slug may only contain letters, digits, '-' and '_'")
		}
		taken, err := s.store.CompanySlugTaken(ctx, *slug, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflict("slug exists")
		}
		company.Slug = *slug
	}
	if name := trimmed(req.Name); name != nil {
		if *name == "" {
			return nil, apperr.Validation("name required")
		}
		company.Name = *name
	}
	if logo := trimmed(req.Logo); logo != nil {
		company.Logo = *logo
	}
	if req.Description != nil {
		company.Description = *req.Description
	}
	if req.ContactInfo != nil {
		contact, err := models.EncodeMap(*req.ContactInfo)
		if err != nil {
			return nil, apperr.Validation("contact_info must be a JSON object")
		}
		company.ContactInfo = contact
	}

	if err := s.store.SaveCompany(ctx, company); err != nil {
		return nil, err
	}

	s.logger.WithField("slug", company.Slug).Info("Company updated")
	return company, nil
}

// DeleteCompany removes the company and, transitively, its projects and units.
func (s *Service) DeleteCompany(ctx context.Context, id uint) error {
	return s.store.DeleteCompany(ctx, id)
}
