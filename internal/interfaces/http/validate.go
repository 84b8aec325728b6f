package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Apothecary-api/internal/domain"
)

var validate = newValidator()

// newValidator usa el nombre JSON de cada campo para que los errores coincidan con el body.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// parseBody decodifica el JSON y valida las etiquetas validate.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidBody
	}
	return validateStruct(out)
}

// validateStruct convierte validator.ValidationErrors en domain.ValidationError (items[0].quantity, ...).
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	out := &domain.ValidationError{}
	for _, fe := range fields {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		out.Add(ns, fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "email":
		return "email inválido"
	case "uuid":
		return "debe ser un UUID"
	case "base64":
		return "debe estar en base64"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "mínimo " + fe.Param() + " caracteres"
		}
		if fe.Kind() == reflect.Slice {
			return "mínimo " + fe.Param() + " elementos"
		}
		return "debe ser al menos " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "máximo " + fe.Param() + " caracteres"
		}
		if fe.Kind() == reflect.Slice {
			return "máximo " + fe.Param() + " elementos"
		}
		return "debe ser como máximo " + fe.Param()
	case "gt":
		return "debe ser mayor que " + fe.Param()
	}
	return "inválido (" + fe.Tag() + ")"
}
