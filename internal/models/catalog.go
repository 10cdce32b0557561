package models

import (
	"encoding/json"
	"math"
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectUpcoming  = "upcoming"
)

const (
	UnitAvailable = "available"
	UnitSold      = "sold"
	UnitReserved  = "reserved"
)

type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:80;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:200;not null"`
	Role         string    `gorm:"size:20;not null;default:user"`
	CreatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Company struct {
	ID          uint           `gorm:"primaryKey"`
	Slug        string         `gorm:"size:80;not null;uniqueIndex"`
	Name        string         `gorm:"size:120;not null"`
	Logo        string         `gorm:"size:200"`
	Description string         `gorm:"type:text"`
	ContactInfo datatypes.JSON `gorm:"type:text"`
	CreatedAt   time.Time
	Projects    []Project `gorm:"constraint:OnDelete:CASCADE"`
}

type Project struct {
	ID          uint           `gorm:"primaryKey"`
	CompanyID   uint           `gorm:"not null;index"`
	Company     *Company       `gorm:"foreignKey:CompanyID"`
	Slug        string         `gorm:"size:80;not null;uniqueIndex"`
	Title       string         `gorm:"size:150;not null"`
	Location    string         `gorm:"size:150"`
	Description string         `gorm:"type:text"`
	Images      datatypes.JSON `gorm:"type:text"`
	Features    datatypes.JSON `gorm:"type:text"`
	Status      string         `gorm:"size:20;not null;default:active;index"`
	SortOrder   *int           `gorm:"column:sort_order"`
	Latitude    *float64
	Longitude   *float64
	CreatedAt   time.Time
	Units       []Unit `gorm:"constraint:OnDelete:CASCADE"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (p *Project) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type Unit struct {
	ID          uint           `gorm:"primaryKey"`
	ProjectID   uint           `gorm:"not null;index"`
	Code        string         `gorm:"size:50;not null"`
	Title       string         `gorm:"size:150"`
	Sqm         float64        `gorm:"not null"`
	PricePerSqm int64          `gorm:"not null"`
	Floor       string         `gorm:"size:20"`
	Bedrooms    int            `gorm:"not null;default:0"`
	Bathrooms   int            `gorm:"not null;default:0"`
	Images      datatypes.JSON `gorm:"type:text"`
	FloorPlan   *string        `gorm:"size:200"`
	Amenities   datatypes.JSON `gorm:"type:text"`
	Status      string         `gorm:"size:20;not null;default:available;index"`
	Metadata    datatypes.JSON `gorm:"type:text"`
	CreatedAt   time.Time
}

// TotalPrice is floor(sqm * price_per_sqm). It is never stored.
func (u *Unit) TotalPrice() int64 {
	return int64(math.Floor(u.Sqm * float64(u.PricePerSqm)))
}

// DecodeList reads a serialized string list. An absent value is an empty
// list; a malformed value yields an empty list and the decode error.
func DecodeList(raw datatypes.JSON) ([]string, error) {
	list := []string{}
	if len(raw) == 0 {
		return list, nil
	}
	var decoded []string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return list, err
	}
	if decoded == nil {
		return list, nil
	}
	return decoded, nil
}

// DecodeMap reads a serialized key-value map with the same fallback rules
// as DecodeList.
func DecodeMap(raw datatypes.JSON) (map[string]any, error) {
	m := map[string]any{}
	if len(raw) == 0 {
		return m, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return m, err
	}
	if decoded == nil {
		return m, nil
	}
	return decoded, nil
}

// EncodeList serializes a list, storing nil as an empty array.
func EncodeList(list []string) datatypes.JSON {
	if list == nil {
		list = []string{}
	}
	data, _ := json.Marshal(list)
	return datatypes.JSON(data)
}

// EncodeMap serializes a map, storing nil as an empty object.
func EncodeMap(m map[string]any) (datatypes.JSON, error) {
	if m == nil {
		m = map[string]any{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
