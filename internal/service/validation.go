package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	tagColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}){1,2}$`)
	dataURIPattern  = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,`)
)

const maxNameLength = 200

// RegisterValidations installs the custom "username" and "tagcolor" tags on v.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("failed to register username validation: %w", err)
	}
	if err := v.RegisterValidation("tagcolor", func(fl validator.FieldLevel) bool {
		return ValidTagColor(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("failed to register tagcolor validation: %w", err)
	}
	return nil
}

// NewValidator returns a validator with the custom tags installed.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// ValidTagColor reports whether color is a #RGB or #RRGGBB hex string.
func ValidTagColor(color string) bool {
	return tagColorPattern.MatchString(color)
}

// imageKind classifies the value of a recipe image field.
type imageKind int

const (
	imageInvalid imageKind = iota
	imageDataURI
	imageFilename
)

// classifyImage checks an image reference. A data URI must carry a jpeg or
// png payload and a plain filename must end in .jpg or .png.
func classifyImage(value string) (imageKind, string) {
	if m := dataURIPattern.FindStringSubmatch(value); m != nil {
		switch strings.ToLower(m[1]) {
		case "jpeg", "jpg", "png":
			return imageDataURI, ""
		}
		return imageInvalid, "Only jpeg and png images are supported."
	}
	if strings.HasPrefix(value, "data:") {
		return imageInvalid, "Malformed image data."
	}

	lower := strings.ToLower(value)
	if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".png") {
		return imageFilename, ""
	}
	return imageInvalid, "Image file must end in .jpg or .png."
}
