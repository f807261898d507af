package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/iskr/internal/client/models"
)

func TestFormatStatus(t *testing.T) {
	restoring := authenticated("Al")
	restoring.Phase = models.PhaseRestoring
	restoring.IsLoading = true

	failed := models.Anonymous()
	failed.LastError = &models.ErrorMessage{Kind: models.KindTransport, Text: "Сервер недоступен"}

	tests := []struct {
		name string
		s    models.Session
		want string
	}{
		{name: "anonymous", s: models.Anonymous(), want: ""},
		{name: "authenticated", s: authenticated("Al"), want: "(Al) "},
		{name: "restoring", s: restoring, want: "(Al ...*) "},
		{name: "pending", s: models.Session{Phase: models.PhaseRegistrationPending, RegistrationPending: true},
			want: "(ожидает подтверждения email) "},
		{name: "invalidated", s: models.Session{Phase: models.PhaseSessionInvalid}, want: "(сессия завершена) "},
		{name: "error", s: failed, want: "[Сервер недоступен] "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatStatus(tt.s))
		})
	}
}

func TestGetStatus_ReadsSnapshot(t *testing.T) {
	f := &fakeAuth{}
	f.set(authenticated("Al"))
	assert.Equal(t, "(Al) ", newTestApp(f).getStatus())
}
