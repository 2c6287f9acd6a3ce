package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusAndPublic(t *testing.T) {
	sentinel := errors.New("federated")
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantKind   Kind
	}{
		{"validation", Validation("price must not be negative"), http.StatusBadRequest, "price must not be negative", KindValidation},
		{"not found", NotFound("product not found"), http.StatusNotFound, "product not found", KindNotFound},
		{"authentication", Authentication("InvalidCredentials"), http.StatusUnauthorized, "InvalidCredentials", KindAuthentication},
		{"authorization", Authorization("Unauthorized", sentinel), http.StatusForbidden, "Unauthorized", KindAuthorization},
		{"conflict", Conflict("same password"), http.StatusConflict, "same password", KindConflict},
		{"storage hides cause", Storage(errors.New("disk full at /var/x")), http.StatusInternalServerError, MsgInternal, KindStorage},
		{"upstream hides cause", Upstream(errors.New(`{"raw":"provider body"}`)), http.StatusBadGateway, MsgUpstream, KindUpstream},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, MsgInternal, KindUnknown},
		{"wrapped validation", fmt.Errorf("service.Create: %w", Validation("name is required")), http.StatusBadRequest, "name is required", KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, Status(tt.err))
			assert.Equal(t, tt.wantMsg, Public(tt.err))
			assert.Equal(t, tt.wantKind, KindOf(tt.err))
		})
	}
}

func TestAuthorizationKeepsCause(t *testing.T) {
	sentinel := errors.New("federated")
	err := fmt.Errorf("op: %w", Authorization("no", sentinel))
	assert.ErrorIs(t, err, sentinel)
}
