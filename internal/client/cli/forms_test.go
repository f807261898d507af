package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateForm(t *testing.T) {
	tests := []struct {
		name string
		form any
		want []string
	}{
		{name: "valid login", form: loginForm{Identifier: "alice", Password: "x"}},
		{name: "empty login", form: loginForm{}, want: []string{
			"Поле «Логин» обязательно",
			"Поле «Пароль» обязательно",
		}},
		{name: "valid registration", form: registerForm{Username: "bob", Email: "b@x.io", Password: "longenough"}},
		{name: "bad registration", form: registerForm{Username: "b!", Email: "nope", Password: "short"}, want: []string{
			"Поле «Имя пользователя» должно содержать не менее 3 символов",
			"Некорректный email",
			"Поле «Пароль» должно содержать не менее 8 символов",
		}},
		{name: "username charset", form: usernameForm{Username: "bad name"}, want: []string{
			"Поле «Имя пользователя» может содержать только латинские буквы и цифры",
		}},
		{name: "short reset password", form: resetConfirmForm{Token: "t", Password: "1234"}, want: []string{
			"Поле «Новый пароль» должно содержать не менее 8 символов",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateForm(tt.form)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.want, ve.Messages)
		})
	}
}
