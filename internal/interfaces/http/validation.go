package http

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Los errores reportan el nombre JSON del campo, no el de Go.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// requestError el cuerpo no se pudo leer o no cumple las reglas declarativas del DTO.
type requestError struct {
	code   string
	msg    string
	Fields map[string]string
}

func (e *requestError) Error() string { return e.msg }

// parseBody lee el JSON del cuerpo en out y lo valida con validator/v10.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return &requestError{code: codeInvalidBody, msg: "cuerpo inválido"}
	}
	return validateStruct(out)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &requestError{code: codeValidation, msg: err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Namespace incluye el tipo raíz: "CreateTemplateRequest.inputs[0].quantity".
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		fields[key] = fe.Tag()
	}
	return &requestError{code: codeValidation, msg: describeFields(fields), Fields: fields}
}

func describeFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s (%s)", k, fields[k]))
	}
	return "campos inválidos: " + strings.Join(parts, ", ")
}
