package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/diewo77/facturacion-backend/internal/httpx"
)

var likeSanitizer = regexp.MustCompile(`[^a-zA-Z0-9 \-_]`)

// safeLike strips anything outside a conservative character set before the
// value is embedded in a LIKE pattern.
func safeLike(q string) string {
	return likeSanitizer.ReplaceAllString(q, "")
}

// pathID parses a numeric path parameter, writing the 400 itself on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id64, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id64 == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(id64), true
}

// isUniqueViolation detects a unique-constraint conflict from postgres
// (SQLSTATE 23505) or from the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
