package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/iskr/internal/client/models"
	"github.com/dmitrijs2005/iskr/internal/client/services"
	"github.com/dmitrijs2005/iskr/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// resetRequestedText is shown whether or not the account exists.
const resetRequestedText = "Если такой аккаунт существует, мы отправили на его email ссылку для сброса пароля"

// Login prompts for credentials and authenticates through the AuthService.
// The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Логин или email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Пароль", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	form := loginForm{Identifier: identifier, Password: string(password)}
	if err := validateForm(form); err != nil {
		return a.report(err, "")
	}

	err = a.authService.Login(ctx, form.Identifier, form.Password)
	if err != nil {
		return a.report(err, "")
	}
	return a.report(nil, fmt.Sprintf("Добро пожаловать, %s!", a.authService.Snapshot().User.DisplayName()))
}

// Register prompts for the profile fields and creates an account. Whether
// the user ends up logged in depends on the registration mode.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Имя пользователя", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	firstName, err := getSimpleText(a.reader, "Имя (необязательно)", a.out)
	if err != nil {
		return err
	}
	lastName, err := getSimpleText(a.reader, "Фамилия (необязательно)", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Пароль", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	form := registerForm{
		Username:  username,
		Email:     email,
		Password:  string(password),
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := validateForm(form); err != nil {
		return a.report(err, "")
	}

	err = a.authService.SignUp(ctx, models.Registration{
		Username:  form.Username,
		Password:  form.Password,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
	})
	if err != nil {
		return a.report(err, "")
	}

	if s := a.authService.Snapshot(); s.RegistrationPending {
		return a.report(nil, "Аккаунт создан. Подтвердите email командой verify, затем войдите")
	}
	return a.report(nil, "Аккаунт создан, вы вошли в систему")
}

// Logout always succeeds locally; the server is notified in the background.
func (a *App) Logout(ctx context.Context) error {
	return a.report(a.authService.Logout(ctx), "Вы вышли из системы")
}

func (a *App) WhoAmI(ctx context.Context) error {
	s := a.authService.Snapshot()
	if !s.IsAuthenticated {
		printlnFn("Вы не вошли в систему")
		return nil
	}

	u := s.User
	printlnFn(fmt.Sprintf("ID: %d", u.ID))
	printlnFn("Имя пользователя:", u.Username)
	printlnFn("Никнейм:", u.DisplayName())
	if u.Email != "" {
		printlnFn("Email:", u.Email)
	}
	if s.EmailVerificationPending {
		printlnFn("Email не подтверждён")
	}
	return nil
}

// ForgotPassword requests a reset link. The answer never reveals whether
// the account exists.
func (a *App) ForgotPassword(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Логин или email", a.out)
	if err != nil {
		return err
	}

	form := resetRequestForm{Login: login}
	if err := validateForm(form); err != nil {
		return a.report(err, "")
	}
	return a.report(a.authService.RequestPasswordReset(ctx, form.Login), resetRequestedText)
}

func (a *App) ResetPassword(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Код из письма", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Новый пароль", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	form := resetConfirmForm{Token: token, Password: string(password)}
	if err := validateForm(form); err != nil {
		return a.report(err, "")
	}
	return a.report(a.authService.ConfirmPasswordReset(ctx, form.Token, form.Password),
		"Пароль изменён. Войдите с новым паролем")
}

func (a *App) Verify(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Код из письма", a.out)
	if err != nil {
		return err
	}

	form := tokenForm{Token: token}
	if err := validateForm(form); err != nil {
		return a.report(err, "")
	}

	err = a.authService.RedeemToken(ctx, form.Token)
	if err != nil || a.isLoggedIn() {
		return a.report(err, "Email подтверждён")
	}
	return a.report(nil, "Email подтверждён. Теперь войдите командой login")
}

func (a *App) ChangeNickname(ctx context.Context) error {
	nickname, err := getSimpleText(a.reader, "Новый никнейм", a.out)
	if err != nil {
		return err
	}

	form := nicknameForm{Nickname: nickname}
	if err := validateForm(form); err != nil {
		return a.report(err, "")
	}
	return a.report(a.authService.ChangeNickname(ctx, form.Nickname), "Никнейм изменён")
}

func (a *App) ChangeUsername(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Новое имя пользователя", a.out)
	if err != nil {
		return err
	}

	form := usernameForm{Username: username}
	if err := validateForm(form); err != nil {
		return a.report(err, "")
	}
	return a.report(a.authService.ChangeUsername(ctx, form.Username), "Имя пользователя изменено")
}

// ClearError dismisses the error shown in the prompt.
func (a *App) ClearError(ctx context.Context) error {
	return a.authService.ClearError(ctx)
}

// report prints success on a nil err, otherwise the one message that
// describes it, and passes err through.
func (a *App) report(err error, success string) error {
	if err == nil {
		if success != "" {
			printlnFn(success)
		}
		return nil
	}

	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		for _, m := range ve.Messages {
			printlnFn(m)
		}
	case errors.Is(err, services.ErrBusy):
		printlnFn("Операция уже выполняется, подождите")
	case errors.Is(err, services.ErrAlreadyAuthenticated):
		printlnFn("Вы уже вошли в систему. Сначала выполните logout")
	case errors.Is(err, services.ErrNotAuthenticated):
		printlnFn("Сначала войдите командой login")
	case errors.Is(err, services.ErrSessionEnded):
		printlnFn("Вход отменён: вы вышли из системы")
	default:
		if msg := a.authService.Snapshot().LastError; msg != nil {
			printlnFn(msg.Text)
		} else {
			printlnFn(services.Message(models.KindUnknown))
		}
	}
	return err
}
