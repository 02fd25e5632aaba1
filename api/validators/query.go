package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter, falling back to
// def and enforcing the [min, max] range.
func ParseQueryInt(r *http.Request, name string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, name+" must be an integer")
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" out of range").WithDetails(map[string]any{
			"min": min,
			"max": max,
		})
	}
	return value, nil
}
