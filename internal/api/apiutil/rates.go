package apiutil

import "github.com/codr1/sethouse/internal/rates"

// ItemResponse is the JSON shape of a space or package.
type ItemResponse struct {
	ID       string            `json:"id"`
	Kind     rates.ItemKind    `json:"kind"`
	Name     string            `json:"name"`
	Rates    map[string]string `json:"rates"`
	SpaceIDs []string          `json:"spaceIds,omitempty"`
}

// NewItemResponse renders set rates as two-decimal strings keyed by tier
// name. Unset tiers are omitted.
func NewItemResponse(item rates.RentableItem) ItemResponse {
	rateMap := make(map[string]string)
	for _, tier := range rates.Tiers {
		if amount, ok := item.Rates.Rate(tier); ok {
			rateMap[tier.String()] = rates.FormatAmount(amount)
		}
	}
	return ItemResponse{
		ID:    item.ID,
		Kind:  item.Kind,
		Name:  item.Name,
		Rates: rateMap,
	}
}
