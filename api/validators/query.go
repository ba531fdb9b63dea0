package validators

import (
	"net/http"
	"strings"

	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
)

// ParseOrderStatusFilter reads an optional ?status= query parameter. An empty
// value means no filter.
func ParseOrderStatusFilter(r *http.Request) (*enums.OrderStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
			WithDetails(map[string]any{"field": "status"})
	}
	return &status, nil
}
