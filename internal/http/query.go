package http

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/example/room-booking/internal/application"
)

func fieldError(field, message string) *application.ValidationError {
	return &application.ValidationError{FieldErrors: map[string]string{field: message}}
}

// searchFilterKeys are the query parameters that narrow a room search.
var searchFilterKeys = []string{"date", "start", "end", "attendees", "equipment", "floor"}

// hasSearchFilter reports whether any search parameter is present.
func hasSearchFilter(query url.Values) bool {
	for _, key := range searchFilterKeys {
		if strings.TrimSpace(query.Get(key)) != "" {
			return true
		}
	}
	return false
}

// searchParamsFromQuery reads date, start, end, attendees, equipment, and floor.
// Equipment may be repeated or comma separated.
func searchParamsFromQuery(query url.Values) (application.SearchParams, error) {
	params := application.SearchParams{
		Date:  strings.TrimSpace(query.Get("date")),
		Start: strings.TrimSpace(query.Get("start")),
		End:   strings.TrimSpace(query.Get("end")),
	}
	if value := strings.TrimSpace(query.Get("attendees")); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return application.SearchParams{}, fieldError("attendees", "참석 인원은 숫자여야 합니다")
		}
		params.Attendees = n
	}
	params.Equipment = splitList(query["equipment"])
	if value := strings.TrimSpace(query.Get("floor")); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return application.SearchParams{}, fieldError("floor", "층은 숫자여야 합니다")
		}
		params.PreferredFloor = &n
	}
	return params, nil
}

func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
