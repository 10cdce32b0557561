// Package catalog implements the company, project and unit operations on top
// of the catalog database and upload storage.
package catalog

import (
	"context"
	"mime/multipart"
	"regexp"
	"strings"

	"realestate/server/internal/database"
	"realestate/server/internal/models"

	"github.com/sirupsen/logrus"
)

// Store is the catalog database as used by the service.
type Store interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	GetCompany(ctx context.Context, id uint) (*models.Company, error)
	GetCompanyBySlug(ctx context.Context, slug string, withProjects bool) (*models.Company, error)
	CompanySlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	CreateCompany(ctx context.Context, company *models.Company) error
	SaveCompany(ctx context.Context, company *models.Company) error
	DeleteCompany(ctx context.Context, id uint) error

	ListProjects(ctx context.Context, filter database.ProjectFilter) ([]models.Project, error)
	GetProject(ctx context.Context, id uint) (*models.Project, error)
	ProjectSlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	CreateProject(ctx context.Context, project *models.Project) error
	SaveProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, id uint) error
	ProjectsMissingCoordinates(ctx context.Context, limit int) ([]models.Project, error)
	SetProjectCoordinates(ctx context.Context, id uint, lat, lng float64) error

	ListUnits(ctx context.Context, filter database.UnitFilter, page, limit int) ([]models.Unit, int64, error)
	GetUnit(ctx context.Context, id uint) (*models.Unit, error)
	CreateUnit(ctx context.Context, unit *models.Unit) error
	SaveUnit(ctx context.Context, unit *models.Unit) error
	DeleteUnit(ctx context.Context, id uint) error
}

// FileStore persists uploaded files.
type FileStore interface {
	SaveAll(files []*multipart.FileHeader) ([]string, error)
	Save(file *multipart.FileHeader) (string, error)
	Remove(names ...string)
}

// Geocoder resolves a project location to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (float64, float64, error)
}

type Service struct {
	store    Store
	files    FileStore
	geocoder Geocoder
	logger   *logrus.Logger
}

// NewService builds the catalog service. geocoder may be nil.
func NewService(store Store, files FileStore, geocoder Geocoder, logger *logrus.Logger) *Service {
	return &Service{
		store:    store,
		files:    files,
		geocoder: geocoder,
		logger:   logger,
	}
}

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func validSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// saveFiles stores a batch, treating an empty batch as a no-op.
func (s *Service) saveFiles(files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	return s.files.SaveAll(files)
}
