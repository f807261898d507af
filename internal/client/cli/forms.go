package cli

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Forms are checked before any call reaches the auth service. The label
// tag names the field in messages.

type loginForm struct {
	Identifier string `label:"Логин" validate:"required,max=254"`
	Password   string `label:"Пароль" validate:"required"`
}

type registerForm struct {
	Username  string `label:"Имя пользователя" validate:"required,min=3,max=32,alphanum"`
	Email     string `label:"Email" validate:"required,email"`
	Password  string `label:"Пароль" validate:"required,min=8,max=128"`
	FirstName string `label:"Имя" validate:"max=64"`
	LastName  string `label:"Фамилия" validate:"max=64"`
}

type resetRequestForm struct {
	Login string `label:"Логин или email" validate:"required,max=254"`
}

type resetConfirmForm struct {
	Token    string `label:"Код из письма" validate:"required"`
	Password string `label:"Новый пароль" validate:"required,min=8,max=128"`
}

type tokenForm struct {
	Token string `label:"Код из письма" validate:"required"`
}

type nicknameForm struct {
	Nickname string `label:"Никнейм" validate:"required,min=1,max=32"`
}

type usernameForm struct {
	Username string `label:"Имя пользователя" validate:"required,min=3,max=32,alphanum"`
}

// ValidationError lists the fields of a form that failed their checks,
// one message per field.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

// validateForm returns a *ValidationError for an invalid form.
func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return &ValidationError{Messages: msgs}
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Поле «%s» обязательно", field)
	case "email":
		return "Некорректный email"
	case "min":
		return fmt.Sprintf("Поле «%s» должно содержать не менее %s символов", field, fe.Param())
	case "max":
		return fmt.Sprintf("Поле «%s» должно содержать не более %s символов", field, fe.Param())
	case "alphanum":
		return fmt.Sprintf("Поле «%s» может содержать только латинские буквы и цифры", field)
	default:
		return fmt.Sprintf("Поле «%s» заполнено неверно", field)
	}
}
