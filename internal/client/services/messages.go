package services

import (
	"github.com/dmitrijs2005/iskr/internal/client/gateway"
	"github.com/dmitrijs2005/iskr/internal/client/models"
)

const bannedText = "Аккаунт заблокирован"

var messages = map[models.ErrorKind]string{
	models.KindInvalidCredentials:  "Неверный логин или пароль",
	models.KindTransport:           "Сервер недоступен. Проверьте подключение и попробуйте снова",
	models.KindAccountNotActivated: "Аккаунт не активирован. Подтвердите email",
	models.KindConflict:            "Пользователь с таким именем или email уже существует",
	models.KindTokenNotFound:       "Ссылка недействительна",
	models.KindTokenExpired:        "Срок действия ссылки истёк",
	models.KindSessionInvalid:      "Сессия истекла. Войдите снова",
	models.KindValidation:          "Проверьте введённые данные",
	models.KindUnknown:             "Произошла ошибка. Попробуйте позже",
}

// Message returns the user-facing text for kind.
func Message(kind models.ErrorKind) string {
	if text, ok := messages[kind]; ok {
		return text
	}
	return messages[models.KindUnknown]
}

// messageFor maps a gateway failure to the one message the session shows.
func messageFor(err error) *models.ErrorMessage {
	kind := gateway.KindOf(err)
	return &models.ErrorMessage{
		Kind:   kind,
		Text:   Message(kind),
		Detail: gateway.MessageOf(err),
	}
}

func kindMessage(kind models.ErrorKind) *models.ErrorMessage {
	return &models.ErrorMessage{Kind: kind, Text: Message(kind)}
}

func bannedMessage() *models.ErrorMessage {
	return &models.ErrorMessage{Kind: models.KindAccountNotActivated, Text: bannedText}
}
