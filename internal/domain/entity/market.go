package entity

import (
	"arbscan/internal/domain"
	"arbscan/pkg/errcodes"
)

// Market is a geographic catalog domain of the pricing API.
type Market string

const (
	MarketUS Market = "US"
	MarketDE Market = "DE"
)

// catalogDomains maps a market to the numeric domain identifier the pricing
// API expects.
var catalogDomains = map[Market]int{ //nolint:gochecknoglobals
	MarketUS: 1,
	MarketDE: 3,
}

func (m Market) String() string {
	return string(m)
}

func (m Market) CatalogDomain() int {
	return catalogDomains[m]
}

func ParseMarket(s string) (Market, error) {
	m := Market(s)
	if _, ok := catalogDomains[m]; !ok {
		return "", domain.NewError(errcodes.InvalidMarket, "unknown market: "+s)
	}
	return m, nil
}
