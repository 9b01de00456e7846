package rest

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/dmitrijs2005/carmarket/internal/server/services"
)

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// price accepts a JSON number or a numeric string.
type price float64

func (p *price) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return common.Validationf("price must be a number")
	}
	*p = price(v)
	return nil
}

// carRequest is the wire form of a listing create or update. Status and
// images are not part of it: status only changes through mark-as-sold and
// images only come from uploaded files.
type carRequest struct {
	Title          *string            `json:"title"`
	Make           *string            `json:"make"`
	Description    *string            `json:"description"`
	Price          *price             `json:"price"`
	FactoryOptions *[]string          `json:"factoryOptions"`
	Highlights     *[]string          `json:"highlights"`
	KeyFeatures    *[]models.KeyValue `json:"keyFeatures" validate:"omitempty,dive"`
	Specifications *[]models.KeyValue `json:"specifications" validate:"omitempty,dive"`
}

func (r *carRequest) price() *float64 {
	if r.Price == nil {
		return nil
	}
	v := float64(*r.Price)
	return &v
}

func (r *carRequest) toFields() services.CarFields {
	f := services.CarFields{Description: r.Description, Price: r.price()}
	if r.Title != nil {
		f.Title = *r.Title
	}
	if r.Make != nil {
		f.Make = *r.Make
	}
	if r.FactoryOptions != nil {
		f.FactoryOptions = *r.FactoryOptions
	}
	if r.Highlights != nil {
		f.Highlights = *r.Highlights
	}
	if r.KeyFeatures != nil {
		f.KeyFeatures = *r.KeyFeatures
	}
	if r.Specifications != nil {
		f.Specifications = *r.Specifications
	}
	return f
}

func (r *carRequest) toPatch() models.CarPatch {
	return models.CarPatch{
		Title:          r.Title,
		Make:           r.Make,
		Description:    r.Description,
		Price:          r.price(),
		FactoryOptions: r.FactoryOptions,
		Highlights:     r.Highlights,
		KeyFeatures:    r.KeyFeatures,
		Specifications: r.Specifications,
	}
}

// carRequestFromForm reads listing fields from multipart values. List fields
// may be repeated ("highlights" or "highlights[]") or sent as one JSON array.
func carRequestFromForm(form *multipart.Form) (*carRequest, error) {
	r := &carRequest{}
	values := form.Value

	first := func(key string) *string {
		if v, ok := values[key]; ok && len(v) > 0 {
			s := v[0]
			return &s
		}
		return nil
	}

	r.Title = first("title")
	r.Make = first("make")
	r.Description = first("description")

	if s := first("price"); s != nil && strings.TrimSpace(*s) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
		if err != nil {
			return nil, common.Validationf("price must be a number")
		}
		p := price(v)
		r.Price = &p
	}

	var err error
	if r.FactoryOptions, err = stringList(values, "factoryOptions"); err != nil {
		return nil, err
	}
	if r.Highlights, err = stringList(values, "highlights"); err != nil {
		return nil, err
	}
	if r.KeyFeatures, err = keyValueList(values, "keyFeatures"); err != nil {
		return nil, err
	}
	if r.Specifications, err = keyValueList(values, "specifications"); err != nil {
		return nil, err
	}

	return r, nil
}

func formValues(values map[string][]string, key string) ([]string, bool) {
	v, ok := values[key]
	if !ok {
		v, ok = values[key+"[]"]
	}
	return v, ok
}

func stringList(values map[string][]string, key string) (*[]string, error) {
	raw, ok := formValues(values, key)
	if !ok {
		return nil, nil
	}

	if len(raw) == 1 && strings.HasPrefix(strings.TrimSpace(raw[0]), "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw[0]), &list); err != nil {
			return nil, common.Validationf("%s must be an array of strings", key)
		}
		return &list, nil
	}

	list := make([]string, 0, len(raw))
	for _, v := range raw {
		if v != "" {
			list = append(list, v)
		}
	}
	return &list, nil
}

func keyValueList(values map[string][]string, key string) (*[]models.KeyValue, error) {
	raw, ok := formValues(values, key)
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	list := []models.KeyValue{}
	for _, v := range raw {
		if strings.TrimSpace(v) == "" {
			continue
		}
		var chunk []models.KeyValue
		if err := json.Unmarshal([]byte(v), &chunk); err != nil {
			return nil, common.Validationf("%s must be a JSON array of {label, value}", key)
		}
		list = append(list, chunk...)
	}
	return &list, nil
}
