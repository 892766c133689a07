// internal/api/rentables/handlers.go
package rentables

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codr1/sethouse/internal/api/apiutil"
	"github.com/codr1/sethouse/internal/catalog"
	"github.com/codr1/sethouse/internal/rates"
)

var (
	provider     catalog.Provider
	providerOnce sync.Once
)

type listResponse struct {
	Items []apiutil.ItemResponse `json:"items"`
}

func InitHandlers(p catalog.Provider) {
	if p == nil {
		return
	}
	providerOnce.Do(func() {
		provider = p
	})
}

// GET /api/v1/spaces?q=stage
func HandleSpaces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if provider == nil {
		log.Ctx(r.Context()).Error().Msg("Catalog provider not initialized")
		apiutil.WriteError(w, r, errors.New("catalog provider not initialized"))
		return
	}

	spaces, err := provider.ListSpaces(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, classifyError(err))
		return
	}

	search := searchTerm(r)
	resp := listResponse{Items: make([]apiutil.ItemResponse, 0, len(spaces))}
	for _, space := range spaces {
		if !matches(space, search) {
			continue
		}
		resp.Items = append(resp.Items, apiutil.NewItemResponse(space))
	}
	writeList(w, r, resp)
}

// GET /api/v1/packages?q=lot
func HandlePackages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if provider == nil {
		log.Ctx(r.Context()).Error().Msg("Catalog provider not initialized")
		apiutil.WriteError(w, r, errors.New("catalog provider not initialized"))
		return
	}

	packages, err := provider.ListPackages(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, classifyError(err))
		return
	}

	search := searchTerm(r)
	resp := listResponse{Items: make([]apiutil.ItemResponse, 0, len(packages))}
	for _, pkg := range packages {
		if !matches(pkg.RentableItem, search) {
			continue
		}
		item := apiutil.NewItemResponse(pkg.RentableItem)
		item.SpaceIDs = pkg.SpaceIDs
		resp.Items = append(resp.Items, item)
	}
	writeList(w, r, resp)
}

func searchTerm(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
}

func matches(item rates.RentableItem, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Name), search) ||
		strings.Contains(strings.ToLower(item.ID), search)
}

func classifyError(err error) error {
	if errors.Is(err, catalog.ErrNotLoaded) {
		return apiutil.HandlerError{Status: http.StatusServiceUnavailable, Message: "Catalog is loading, try again shortly", Err: err}
	}
	return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to load catalog", Err: err}
}

func writeList(w http.ResponseWriter, r *http.Request, resp listResponse) {
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write catalog response")
	}
}
