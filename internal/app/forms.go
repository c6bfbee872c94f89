package app

import (
	"errors"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ReviewTextMaxLen = 1000
	formErrorKey     = "__all__"
)

var (
	streetRule = regexp.MustCompile(`^[а-яА-ЯёЁa-zA-Z0-9 ]+$`)
	houseRule  = regexp.MustCompile(`^[1-9]\d*(?: ?(?:([а-яА-Яa-zA-Z])|[\/-] ?[1-9]+\d*([а-яА-Яa-zA-Z])?))?$`)
	phoneRule  = regexp.MustCompile(`^\+7[0-9]{3}[0-9]{7}$`)
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("ratingstep", func(fl validator.FieldLevel) bool {
		tenths := fl.Field().Float() * 10
		return math.Abs(tenths-math.Round(tenths)) < 1e-9
	})
	_ = v.RegisterValidation("street", func(fl validator.FieldLevel) bool {
		return streetRule.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("house", func(fl validator.FieldLevel) bool {
		return houseRule.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRule.MatchString(fl.Field().String())
	})
	return v
}

// FormErrors maps a form field (or "__all__") to a message.
type FormErrors map[string]string

func (e FormErrors) add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func collectErrors(err error, into FormErrors) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		into.add(formErrorKey, err.Error())
		return
	}
	for _, fe := range verrs {
		into.add(fe.Field(), messageFor(fe))
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "gte", "lte":
		return "Ensure this value is between 1 and 5."
	case "ratingstep":
		return "Use steps of 0.1."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "phone":
		return "Number must be in format +79999999999"
	case "street":
		return "Street name contains incorrect symbols."
	case "house":
		return "Incorrect house number format."
	case "uuid":
		return "Select a valid choice."
	default:
		return "Enter a valid value."
	}
}

// ReviewForm is the bound state of a review form: what the user typed and
// what was wrong with it.
type ReviewForm struct {
	Rating string     `json:"rating"`
	Text   string     `json:"text"`
	Errors FormErrors `json:"errors,omitempty"`
}

type reviewInput struct {
	Rating float64 `form:"rating" validate:"gte=1,lte=5,ratingstep"`
	Text   string  `form:"text" validate:"required,max=1000"`
}

// InitialReviewForm pre-fills the edit form of an existing review.
func InitialReviewForm(rating float64, text string) *ReviewForm {
	return &ReviewForm{Rating: strconv.FormatFloat(rating, 'f', -1, 64), Text: text}
}

// BindReviewForm parses and validates posted values. The returned form always
// carries the submitted values; ok is false when Errors is non-empty.
func BindReviewForm(values url.Values) (in reviewInput, form *ReviewForm, ok bool) {
	form = &ReviewForm{
		Rating: strings.TrimSpace(values.Get("rating")),
		Text:   strings.TrimSpace(values.Get("text")),
		Errors: FormErrors{},
	}
	in.Text = form.Text
	if form.Rating == "" {
		form.Errors.add("rating", "This field is required.")
	} else if f, err := strconv.ParseFloat(form.Rating, 64); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		form.Errors.add("rating", "Enter a number.")
	} else {
		in.Rating = f
	}
	if err := validate.Struct(in); err != nil {
		collectErrors(err, form.Errors)
	}
	return in, form, len(form.Errors) == 0
}

// AgencySignupForm is the bound state of the agency signup form.
type AgencySignupForm struct {
	Name        string     `json:"name" form:"name" validate:"required,max=255"`
	PhoneNumber string     `json:"phone_number" form:"phone_number" validate:"required,phone"`
	CityID      string     `json:"city_id" form:"city_id" validate:"required,uuid"`
	Street      string     `json:"street" form:"street" validate:"required,max=255,street"`
	HouseNumber string     `json:"house_number" form:"house_number" validate:"required,max=8,house"`
	Errors      FormErrors `json:"errors,omitempty" form:"-" validate:"-"`
}

func BindAgencySignupForm(values url.Values) (*AgencySignupForm, bool) {
	form := &AgencySignupForm{
		Name:        strings.TrimSpace(values.Get("name")),
		PhoneNumber: strings.TrimSpace(values.Get("phone_number")),
		CityID:      strings.TrimSpace(values.Get("city_id")),
		Street:      strings.TrimSpace(values.Get("street")),
		HouseNumber: strings.TrimSpace(values.Get("house_number")),
		Errors:      FormErrors{},
	}
	if err := validate.Struct(form); err != nil {
		collectErrors(err, form.Errors)
	}
	return form, len(form.Errors) == 0
}
