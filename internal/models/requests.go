package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// StringList is a list field that accepts either a JSON array of strings or
// a string holding one. Multipart forms always send the string form.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		return l.UnmarshalParam(s)
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return errors.New("expected a list of strings")
	}
	*l = list
	return nil
}

// UnmarshalParam parses the string form. An empty string is an empty list.
func (l *StringList) UnmarshalParam(param string) error {
	param = strings.TrimSpace(param)
	if param == "" {
		*l = StringList{}
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(param), &list); err != nil {
		return errors.New("expected a JSON list of strings")
	}
	*l = list
	return nil
}

// JSONObject is a key-value field that accepts a JSON object or a string
// holding one.
type JSONObject map[string]any

func (o *JSONObject) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*o = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		return o.UnmarshalParam(s)
	}
	var m map[string]any
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return errors.New("expected a JSON object")
	}
	*o = m
	return nil
}

func (o *JSONObject) UnmarshalParam(param string) error {
	param = strings.TrimSpace(param)
	if param == "" {
		*o = JSONObject{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(param), &m); err != nil {
		return errors.New("expected a JSON object")
	}
	*o = m
	return nil
}

// LooseString accepts a JSON string or number and keeps its text.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*s = LooseString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return errors.New("expected a string or number")
	}
	*s = LooseString(n.String())
	return nil
}

func (s LooseString) String() string {
	return string(s)
}

// FormLookup returns a multipart form value and whether it was sent.
type FormLookup func(key string) (string, bool)

func decodeFormList(lookup FormLookup, key string) (*StringList, error) {
	raw, ok := lookup(key)
	if !ok {
		return nil, nil
	}
	var list StringList
	if err := list.UnmarshalParam(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &list, nil
}

func decodeFormObject(lookup FormLookup, key string) (*JSONObject, error) {
	raw, ok := lookup(key)
	if !ok {
		return nil, nil
	}
	var obj JSONObject
	if err := obj.UnmarshalParam(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &obj, nil
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=80"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=user admin"`
}

type CompanyCreateRequest struct {
	Slug        string     `json:"slug" form:"slug" binding:"required,max=80"`
	Name        string     `json:"name" form:"name" binding:"required,max=120"`
	Logo        string     `json:"logo" form:"logo" binding:"max=200"`
	Description string     `json:"description" form:"description"`
	ContactInfo JSONObject `json:"contact_info" form:"-"`
}

func (r *CompanyCreateRequest) ApplyForm(lookup FormLookup) error {
	obj, err := decodeFormObject(lookup, "contact_info")
	if err != nil {
		return err
	}
	if obj != nil {
		r.ContactInfo = *obj
	}
	return nil
}

type CompanyUpdateRequest struct {
	Slug        *string     `json:"slug" form:"slug" binding:"omitnil,min=1,max=80"`
	Name        *string     `json:"name" form:"name" binding:"omitnil,min=1,max=120"`
	Logo        *string     `json:"logo" form:"logo" binding:"omitnil,max=200"`
	Description *string     `json:"description" form:"description"`
	ContactInfo *JSONObject `json:"contact_info" form:"-"`
}

func (r *CompanyUpdateRequest) ApplyForm(lookup FormLookup) error {
	obj, err := decodeFormObject(lookup, "contact_info")
	if err != nil {
		return err
	}
	if obj != nil {
		r.ContactInfo = obj
	}
	return nil
}

type ProjectCreateRequest struct {
	CompanySlug string     `json:"company_slug" form:"company_slug" binding:"required"`
	Slug        string     `json:"slug" form:"slug" binding:"required,max=80"`
	Title       string     `json:"title" form:"title" binding:"required,max=150"`
	Location    string     `json:"location" form:"location" binding:"max=150"`
	Description string     `json:"description" form:"description"`
	Features    StringList `json:"features" form:"-"`
	Status      string     `json:"status" form:"status" binding:"omitempty,oneof=active completed upcoming"`
	Order       *int       `json:"order" form:"order"`
	Latitude    *float64   `json:"latitude" form:"latitude" binding:"omitnil,latitude"`
	Longitude   *float64   `json:"longitude" form:"longitude" binding:"omitnil,longitude"`
}

func (r *ProjectCreateRequest) ApplyForm(lookup FormLookup) error {
	list, err := decodeFormList(lookup, "features")
	if err != nil {
		return err
	}
	if list != nil {
		r.Features = *list
	}
	return nil
}

type ProjectUpdateRequest struct {
	Slug        *string     `json:"slug" form:"slug" binding:"omitnil,min=1,max=80"`
	Title       *string     `json:"title" form:"title" binding:"omitnil,min=1,max=150"`
	Location    *string     `json:"location" form:"location" binding:"omitnil,max=150"`
	Description *string     `json:"description" form:"description"`
	Features    *StringList `json:"features" form:"-"`
	Status      *string     `json:"status" form:"status" binding:"omitnil,oneof=active completed upcoming"`
	Order       *int        `json:"order" form:"order"`
	Latitude    *float64    `json:"latitude" form:"latitude" binding:"omitnil,latitude"`
	Longitude   *float64    `json:"longitude" form:"longitude" binding:"omitnil,longitude"`
}

func (r *ProjectUpdateRequest) ApplyForm(lookup FormLookup) error {
	list, err := decodeFormList(lookup, "features")
	if err != nil {
		return err
	}
	r.Features = list
	return nil
}

type UnitCreateRequest struct {
	ProjectID   uint        `json:"project_id" form:"project_id" binding:"required"`
	Code        LooseString `json:"code" form:"code" binding:"required,max=50"`
	Title       string      `json:"title" form:"title" binding:"max=150"`
	Sqm         float64     `json:"sqm" form:"sqm" binding:"required,gt=0"`
	PricePerSqm int64       `json:"price_per_sqm" form:"price_per_sqm" binding:"required,gt=0"`
	Floor       LooseString `json:"floor" form:"floor" binding:"required,max=20"`
	Bedrooms    int         `json:"bedrooms" form:"bedrooms" binding:"gte=0"`
	Bathrooms   int         `json:"bathrooms" form:"bathrooms" binding:"gte=0"`
	Amenities   StringList  `json:"amenities" form:"-"`
	Metadata    JSONObject  `json:"metadata" form:"-"`
	Status      string      `json:"status" form:"status" binding:"omitempty,oneof=available sold reserved"`
}

func (r *UnitCreateRequest) ApplyForm(lookup FormLookup) error {
	list, err := decodeFormList(lookup, "amenities")
	if err != nil {
		return err
	}
	if list != nil {
		r.Amenities = *list
	}
	obj, err := decodeFormObject(lookup, "metadata")
	if err != nil {
		return err
	}
	if obj != nil {
		r.Metadata = *obj
	}
	return nil
}

type UnitUpdateRequest struct {
	Code        *LooseString `json:"code" form:"code" binding:"omitnil,min=1,max=50"`
	Title       *string      `json:"title" form:"title" binding:"omitnil,max=150"`
	Sqm         *float64     `json:"sqm" form:"sqm" binding:"omitnil,gt=0"`
	PricePerSqm *int64       `json:"price_per_sqm" form:"price_per_sqm" binding:"omitnil,gt=0"`
	Floor       *LooseString `json:"floor" form:"floor" binding:"omitnil,min=1,max=20"`
	Bedrooms    *int         `json:"bedrooms" form:"bedrooms" binding:"omitnil,gte=0"`
	Bathrooms   *int         `json:"bathrooms" form:"bathrooms" binding:"omitnil,gte=0"`
	Amenities   *StringList  `json:"amenities" form:"-"`
	Metadata    *JSONObject  `json:"metadata" form:"-"`
	Status      *string      `json:"status" form:"status" binding:"omitnil,oneof=available sold reserved"`
}

func (r *UnitUpdateRequest) ApplyForm(lookup FormLookup) error {
	list, err := decodeFormList(lookup, "amenities")
	if err != nil {
		return err
	}
	r.Amenities = list
	obj, err := decodeFormObject(lookup, "metadata")
	if err != nil {
		return err
	}
	r.Metadata = obj
	return nil
}
