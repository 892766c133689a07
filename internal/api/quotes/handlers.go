// internal/api/quotes/handlers.go
package quotes

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/sethouse/internal/api/apiutil"
	"github.com/codr1/sethouse/internal/catalog"
	quotesvc "github.com/codr1/sethouse/internal/quotes"
	"github.com/codr1/sethouse/internal/rates"
	"github.com/codr1/sethouse/internal/request"
)

const quoteTimeout = 5 * time.Second

var (
	service     *quotesvc.Service
	serviceOnce sync.Once
)

type quoteRequest struct {
	Kind    string      `json:"kind"`
	ItemIDs []string    `json:"itemIds"`
	Tier    *rates.Tier `json:"tier"`
}

type tierOptionResponse struct {
	Tier      rates.Tier `json:"tier"`
	Available bool       `json:"available"`
}

type lineItemResponse struct {
	ItemID string `json:"itemId"`
	Amount string `json:"amount"`
}

type quoteBody struct {
	Tier      rates.Tier         `json:"tier"`
	Total     string             `json:"total"`
	Breakdown []lineItemResponse `json:"breakdown"`
}

type quoteResponse struct {
	Kind        rates.ItemKind         `json:"kind"`
	Items       []apiutil.ItemResponse `json:"items"`
	Tiers       []tierOptionResponse   `json:"tiers"`
	DefaultTier *rates.Tier            `json:"defaultTier"`
	Quote       *quoteBody             `json:"quote"`
	Bookable    bool                   `json:"bookable"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *quotesvc.Service) {
	if svc == nil {
		return
	}
	serviceOnce.Do(func() {
		service = svc
	})
}

func loadService() *quotesvc.Service {
	return service
}

// GET /api/v1/quotes?kind=space&ids=a,b&tier=daily
// POST /api/v1/quotes
func HandleQuote(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Quote service not initialized")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Internal Server Error"})
		return
	}

	var (
		req quotesvc.Request
		err error
	)
	switch r.Method {
	case http.MethodGet:
		req, err = requestFromQuery(r)
	case http.MethodPost:
		req, err = requestFromBody(r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), quoteTimeout)
	defer cancel()

	result, err := svc.Quote(ctx, req)
	if err != nil {
		apiutil.WriteError(w, r, classifyError(err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, newQuoteResponse(result)); err != nil {
		logger.Error().Err(err).Msg("Failed to write quote response")
	}
}

func requestFromQuery(r *http.Request) (quotesvc.Request, error) {
	kind, err := rates.ParseItemKind(r.URL.Query().Get("kind"))
	if err != nil {
		return quotesvc.Request{}, apiutil.FieldError{Field: "kind", Reason: "must be space or package"}
	}
	tier, err := request.OptionalTier(r, "tier")
	if err != nil {
		return quotesvc.Request{}, apiutil.FieldError{Field: "tier", Reason: "is not a rate tier"}
	}
	return quotesvc.Request{
		Kind:    kind,
		ItemIDs: request.IDsFromQuery(r, "ids"),
		Tier:    tier,
	}, nil
}

func requestFromBody(r *http.Request) (quotesvc.Request, error) {
	var body quoteRequest
	if err := apiutil.DecodeJSON(r, &body); err != nil {
		if errors.Is(err, rates.ErrUnknownTier) {
			return quotesvc.Request{}, apiutil.FieldError{Field: "tier", Reason: "is not a rate tier"}
		}
		return quotesvc.Request{}, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err}
	}
	kind, err := rates.ParseItemKind(body.Kind)
	if err != nil {
		return quotesvc.Request{}, apiutil.FieldError{Field: "kind", Reason: "must be space or package"}
	}
	return quotesvc.Request{
		Kind:    kind,
		ItemIDs: body.ItemIDs,
		Tier:    body.Tier,
	}, nil
}

func classifyError(err error) error {
	var reqErr *quotesvc.RequestError
	switch {
	case errors.As(err, &reqErr):
		return apiutil.HandlerError{Status: http.StatusBadRequest, Message: reqErr.Error(), Err: err}
	case errors.Is(err, catalog.ErrItemNotFound):
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Selected item not found", Err: err}
	case errors.Is(err, catalog.ErrNotLoaded):
		return apiutil.HandlerError{Status: http.StatusServiceUnavailable, Message: "Catalog is loading, try again shortly", Err: err}
	default:
		return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to compute quote", Err: err}
	}
}

func newQuoteResponse(result quotesvc.Result) quoteResponse {
	resp := quoteResponse{
		Kind:        result.Kind,
		Items:       make([]apiutil.ItemResponse, 0, len(result.Items)),
		Tiers:       make([]tierOptionResponse, 0, len(result.Tiers)),
		DefaultTier: result.DefaultTier,
		Bookable:    result.Bookable,
	}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, apiutil.NewItemResponse(item))
	}
	for _, option := range result.Tiers {
		resp.Tiers = append(resp.Tiers, tierOptionResponse{Tier: option.Tier, Available: option.Available})
	}
	if result.Quote != nil {
		body := &quoteBody{
			Tier:      result.Quote.Tier,
			Total:     rates.FormatAmount(result.Quote.Total),
			Breakdown: make([]lineItemResponse, 0, len(result.Quote.Breakdown)),
		}
		for _, line := range result.Quote.Breakdown {
			body.Breakdown = append(body.Breakdown, lineItemResponse{
				ItemID: line.ItemID,
				Amount: rates.FormatAmount(line.Amount),
			})
		}
		resp.Quote = body
	}
	return resp
}
