package validators

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dom/ridecore/internal/domain"
)

// ParseQueryFloat reads a required finite number from the query string.
func ParseQueryFloat(r *http.Request, key string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, domain.NewError(domain.CodeValidation, "query parameter is required").
			WithDetails(map[string]string{key: "is required"})
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, domain.NewError(domain.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]string{key: "must be numeric"})
	}
	return value, nil
}
