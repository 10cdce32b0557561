package api

import (
	"net/url"
	"time"

	"realestate/server/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type CompanyView struct {
	ID          uint           `json:"id"`
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Logo        string         `json:"logo"`
	LogoURL     string         `json:"logo_url,omitempty"`
	Description string         `json:"description"`
	ContactInfo map[string]any `json:"contact_info"`
	CreatedAt   time.Time      `json:"created_at"`
}

type CompanyDetailView struct {
	CompanyView
	Projects []ProjectView `json:"projects"`
}

type ProjectView struct {
	ID          uint      `json:"id"`
	CompanyID   uint      `json:"company_id"`
	CompanySlug string    `json:"company_slug,omitempty"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	ImageURLs   []string  `json:"image_urls"`
	Features    []string  `json:"features"`
	Status      string    `json:"status"`
	Order       *int      `json:"order"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	CreatedAt   time.Time `json:"created_at"`
}

type UnitView struct {
	ID           uint           `json:"id"`
	ProjectID    uint           `json:"project_id"`
	Code         string         `json:"code"`
	Title        string         `json:"title"`
	Sqm          float64        `json:"sqm"`
	PricePerSqm  int64          `json:"price_per_sqm"`
	TotalPrice   int64          `json:"total_price"`
	Floor        string         `json:"floor"`
	Bedrooms     int            `json:"bedrooms"`
	Bathrooms    int            `json:"bathrooms"`
	Images       []string       `json:"images"`
	ImageURLs    []string       `json:"image_urls"`
	FloorPlan    *string        `json:"floor_plan"`
	FloorPlanURL *string        `json:"floor_plan_url"`
	Amenities    []string       `json:"amenities"`
	Status       string         `json:"status"`
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// views renders models for responses. Malformed stored JSON fields are
// logged and rendered empty.
type views struct {
	baseURL string
	logger  *logrus.Logger
}

func (v *views) fileURL(name string) string {
	return v.baseURL + "/api/uploads/" + url.PathEscape(name)
}

func (v *views) fileURLs(names []string) []string {
	urls := make([]string, len(names))
	for i, name := range names {
		urls[i] = v.fileURL(name)
	}
	return urls
}

func (v *views) list(raw datatypes.JSON, entity string, id uint, field string) []string {
	list, err := models.DecodeList(raw)
	if err != nil {
		v.logger.WithError(err).WithFields(logrus.Fields{
			"entity": entity,
			"id":     id,
			"field":  field,
		}).Warn("Malformed stored list, using empty list")
	}
	return list
}

func (v *views) object(raw datatypes.JSON, entity string, id uint, field string) map[string]any {
	m, err := models.DecodeMap(raw)
	if err != nil {
		v.logger.WithError(err).WithFields(logrus.Fields{
			"entity": entity,
			"id":     id,
			"field":  field,
		}).Warn("Malformed stored object, using empty object")
	}
	return m
}

func (v *views) company(c *models.Company) CompanyView {
	view := CompanyView{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Logo:        c.Logo,
		Description: c.Description,
		ContactInfo: v.object(c.ContactInfo, "company", c.ID, "contact_info"),
		CreatedAt:   c.CreatedAt,
	}
	if c.Logo != "" {
		view.LogoURL = v.fileURL(c.Logo)
	}
	return view
}

// companyDetail includes the company's projects.
func (v *views) companyDetail(c *models.Company) CompanyDetailView {
	view := CompanyDetailView{
		CompanyView: v.company(c),
		Projects:    make([]ProjectView, 0, len(c.Projects)),
	}
	for i := range c.Projects {
		p := v.project(&c.Projects[i])
		p.CompanySlug = c.Slug
		view.Projects = append(view.Projects, p)
	}
	return view
}

func (v *views) companies(list []models.Company) []CompanyView {
	out := make([]CompanyView, 0, len(list))
	for i := range list {
		out = append(out, v.company(&list[i]))
	}
	return out
}

func (v *views) project(p *models.Project) ProjectView {
	images := v.list(p.Images, "project", p.ID, "images")
	view := ProjectView{
		ID:          p.ID,
		CompanyID:   p.CompanyID,
		Slug:        p.Slug,
		Title:       p.Title,
		Location:    p.Location,
		Description: p.Description,
		Images:      images,
		ImageURLs:   v.fileURLs(images),
		Features:    v.list(p.Features, "project", p.ID, "features"),
		Status:      p.Status,
		Order:       p.SortOrder,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		CreatedAt:   p.CreatedAt,
	}
	if p.Company != nil {
		view.CompanySlug = p.Company.Slug
	}
	return view
}

func (v *views) projects(list []models.Project) []ProjectView {
	out := make([]ProjectView, 0, len(list))
	for i := range list {
		out = append(out, v.project(&list[i]))
	}
	return out
}

func (v *views) unit(u *models.Unit) UnitView {
	images := v.list(u.Images, "unit", u.ID, "images")
	view := UnitView{
		ID:          u.ID,
		ProjectID:   u.ProjectID,
		Code:        u.Code,
		Title:       u.Title,
		Sqm:         u.Sqm,
		PricePerSqm: u.PricePerSqm,
		TotalPrice:  u.TotalPrice(),
		Floor:       u.Floor,
		Bedrooms:    u.Bedrooms,
		Bathrooms:   u.Bathrooms,
		Images:      images,
		ImageURLs:   v.fileURLs(images),
		FloorPlan:   u.FloorPlan,
		Amenities:   v.list(u.Amenities, "unit", u.ID, "amenities"),
		Status:      u.Status,
		Metadata:    v.object(u.Metadata, "unit", u.ID, "metadata"),
		CreatedAt:   u.CreatedAt,
	}
	if u.FloorPlan != nil {
		planURL := v.fileURL(*u.FloorPlan)
		view.FloorPlanURL = &planURL
	}
	return view
}

func (v *views) units(list []models.Unit) []UnitView {
	out := make([]UnitView, 0, len(list))
	for i := range list {
		out = append(out, v.unit(&list[i]))
	}
	return out
}
