package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
)

var errInvalidBody = errors.New("invalid request body")

func writeRequestError(w http.ResponseWriter, err error) {
	if errors.Is(err, errInvalidBody) {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	response.HandleError(w, err)
}

// queryInt reads an optional integer query parameter, returning def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
