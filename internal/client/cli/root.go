package cli

import (
	"fmt"

	"github.com/dmitrijs2005/iskr/internal/client/models"
)

// getStatus renders the prompt status: who is logged in, what is pending
// and the error currently shown, if any.
func (a *App) getStatus() string {
	return formatStatus(a.authService.Snapshot())
}

func formatStatus(s models.Session) string {
	status := ""
	switch {
	case s.IsAuthenticated && s.Phase == models.PhaseRestoring:
		status = s.User.DisplayName() + " ..."
	case s.IsAuthenticated:
		status = s.User.DisplayName()
	case s.RegistrationPending:
		status = "ожидает подтверждения email"
	case s.Phase == models.PhaseSessionInvalid:
		status = "сессия завершена"
	}
	if s.IsLoading {
		status += "*"
	}
	if status != "" {
		status = fmt.Sprintf("(%s) ", status)
	}
	if s.LastError != nil {
		status += fmt.Sprintf("[%s] ", s.LastError.Text)
	}
	return status
}
