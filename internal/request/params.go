package request

import (
	"net/http"
	"strings"

	"github.com/codr1/sethouse/internal/rates"
)

// IDsFromQuery collects IDs from a query parameter that may be repeated
// and/or comma separated: ?ids=a,b&ids=c.
func IDsFromQuery(r *http.Request, key string) []string {
	var ids []string
	for _, value := range r.URL.Query()[key] {
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// OptionalTier parses the tier query parameter. A missing or blank value
// yields nil.
func OptionalTier(r *http.Request, key string) (*rates.Tier, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return nil, nil
	}
	tier, err := rates.ParseTier(value)
	if err != nil {
		return nil, err
	}
	return &tier, nil
}
