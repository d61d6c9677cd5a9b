package pricing

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// priceListItem is the part of a Pricing API price list entry read here
type priceListItem struct {
	Terms struct {
		OnDemand map[string]struct {
			PriceDimensions map[string]struct {
				PricePerUnit map[string]string `json:"pricePerUnit"`
			} `json:"priceDimensions"`
		} `json:"OnDemand"`
	} `json:"terms"`
}

// ExtractOnDemandPrice returns the hourly USD on-demand price from a price
// list entry. When an entry carries several offers or dimensions, the one
// with the lowest sorted key is used.
func ExtractOnDemandPrice(priceJSON string) (float64, error) {
	var item priceListItem
	if err := json.Unmarshal([]byte(priceJSON), &item); err != nil {
		return 0, fmt.Errorf("error parsing pricing data: %w", err)
	}

	offer, ok := item.Terms.OnDemand[firstKey(item.Terms.OnDemand)]
	if !ok {
		return 0, fmt.Errorf("no on-demand offer in pricing data")
	}

	dimension, ok := offer.PriceDimensions[firstKey(offer.PriceDimensions)]
	if !ok {
		return 0, fmt.Errorf("no price dimension in on-demand offer")
	}

	usd, ok := dimension.PricePerUnit["USD"]
	if !ok {
		return 0, fmt.Errorf("no USD price in price dimension")
	}

	price, err := strconv.ParseFloat(usd, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing price %q: %w", usd, err)
	}

	return price, nil
}

func firstKey[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[0]
}
