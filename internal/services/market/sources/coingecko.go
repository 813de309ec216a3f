package sources

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const coingeckoBaseURL = "https://api.coingecko.com"

// CoinGecko fetches the BTC spot price from the public CoinGecko API.
type CoinGecko struct {
	baseURL string
}

func NewCoinGecko() *CoinGecko {
	return &CoinGecko{baseURL: coingeckoBaseURL}
}

func (c *CoinGecko) Name() string { return "coingecko" }

func (c *CoinGecko) BTCPrice(ctx context.Context) (decimal.Decimal, error) {
	var payload map[string]map[string]decimal.Decimal
	url := c.baseURL + "/api/v3/simple/price?ids=bitcoin&vs_currencies=usd"
	if err := getJSON(ctx, url, &payload); err != nil {
		return decimal.Zero, err
	}

	price, ok := payload["bitcoin"]["usd"]
	if !ok || price.IsZero() {
		return decimal.Zero, errors.New("coingecko response missing bitcoin usd price")
	}
	return price, nil
}
