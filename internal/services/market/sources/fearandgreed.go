package sources

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
)

const fearGreedBaseURL = "https://api.alternative.me"

// FearAndGreed fetches the crypto Fear & Greed index from alternative.me.
// The API returns the 0..100 value as a string.
type FearAndGreed struct {
	baseURL string
}

func NewFearAndGreed() *FearAndGreed {
	return &FearAndGreed{baseURL: fearGreedBaseURL}
}

func (f *FearAndGreed) Name() string { return "fear_and_greed" }

func (f *FearAndGreed) Value(ctx context.Context) (int, error) {
	var payload struct {
		Data []struct {
			Value string `json:"value"`
		} `json:"data"`
	}
	if err := getJSON(ctx, f.baseURL+"/fng/", &payload); err != nil {
		return 0, err
	}
	if len(payload.Data) == 0 {
		return 0, errors.New("fear and greed response has no data points")
	}

	value, err := strconv.Atoi(payload.Data[0].Value)
	if err != nil {
		return 0, errors.Wrapf(err, "parse index value %q", payload.Data[0].Value)
	}
	if value < 0 || value > 100 {
		return 0, errors.Errorf("index value %d out of range", value)
	}
	return value, nil
}
