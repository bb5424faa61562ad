package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/erp/resale/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	setupOnce  sync.Once
	translator ut.Translator
)

// SetupValidator configures gin's validator once: errors name fields by
// their json/form/uri tag and messages come from the English translations.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(tagName)
		if trans, err := newTranslator(v); err == nil {
			translator = trans
		}
	})
}

func newTranslator(v *validator.Validate) (ut.Translator, error) {
	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}
	return trans, nil
}

func tagName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return ""
}

// FormatValidationErrors turns a binding error into a validation response.
// Errors that did not come from the validator (a malformed number, say)
// become a single detail without a field.
func FormatValidationErrors(err error, requestID string) dto.Response {
	return dto.NewValidationErrorResponse("Request validation failed", requestID, validationDetails(err, translator))
}

func validationDetails(err error, trans ut.Translator) []dto.ValidationDetail {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []dto.ValidationDetail{{Message: err.Error()}}
	}
	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := fe.Error()
		if trans != nil {
			msg = fe.Translate(trans)
		}
		details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: msg})
	}
	return details
}

// HandleValidationError writes a 400 validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}
