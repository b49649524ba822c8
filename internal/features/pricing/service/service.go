package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"brainrot-market-backend/internal/common/cache"
	apperrors "brainrot-market-backend/internal/common/errors"
)

// coinIDs maps user-facing symbols to the asset identifiers both
// upstreams agree on.
var coinIDs = map[string]string{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"ltc":  "litecoin",
	"sol":  "solana",
	"doge": "dogecoin",
	"usdt": "tether",
}

// PriceOracle resolves live USD prices for supported cryptocurrencies and
// converts catalog prices into coin amounts.
type PriceOracle interface {
	GetUSDPrice(ctx context.Context, coin string) (decimal.Decimal, error)
	ConvertUSD(ctx context.Context, usd decimal.Decimal, coin string) (decimal.Decimal, error)
}

type priceService struct {
	coingeckoBase string
	coincapBase   string
	httpClient    *http.Client
	cache         cache.Cache
	ttl           time.Duration
	logger        zerolog.Logger
}

func NewPriceService(coingeckoBase, coincapBase string, priceCache cache.Cache, ttl time.Duration, logger zerolog.Logger) PriceOracle {
	return &priceService{
		coingeckoBase: strings.TrimRight(coingeckoBase, "/"),
		coincapBase:   strings.TrimRight(coincapBase, "/"),
		httpClient:    &http.Client{Timeout: 8 * time.Second},
		cache:         priceCache,
		ttl:           ttl,
		logger:        logger,
	}
}

// GetUSDPrice returns the USD price of one coin. CoinGecko is asked first,
// CoinCap on failure; a fresh quote is cached with the configured TTL and
// also kept without expiry, so a known-stale price beats an outage.
func (s *priceService) GetUSDPrice(ctx context.Context, coin string) (decimal.Decimal, error) {
	assetID, ok := coinIDs[strings.ToLower(strings.TrimSpace(coin))]
	if !ok {
		return decimal.Zero, apperrors.NewValidationError("coin", fmt.Sprintf("unsupported coin %q", coin))
	}

	freshKey := "price:usd:" + assetID
	staleKey := "price:usd:stale:" + assetID

	var quote string
	err := cache.GetOrSet(ctx, s.cache, freshKey, &quote, s.ttl, func() (interface{}, error) {
		fetched, err := s.fetch(ctx, assetID)
		if err != nil {
			return nil, err
		}
		encoded := fetched.String()
		if err := s.cache.Set(ctx, staleKey, encoded, 0); err != nil {
			s.logger.Warn().Err(err).Str("asset", assetID).Msg("Failed to cache stale price quote")
		}
		return encoded, nil
	})
	if err != nil {
		// Both upstreams down. Fall back to the last quote we ever saw.
		var cached string
		if cacheErr := s.cache.Get(ctx, staleKey, &cached); cacheErr == nil {
			if stale, parseErr := decimal.NewFromString(cached); parseErr == nil {
				s.logger.Warn().
					Str("asset", assetID).
					Err(err).
					Msg("Price upstreams unavailable, serving stale quote")
				return stale, nil
			}
		}
		return decimal.Zero, apperrors.NewExternalAPIError("price oracle", err).
			WithDetail("asset", assetID)
	}

	price, err := decimal.NewFromString(quote)
	if err != nil {
		return decimal.Zero, apperrors.NewExternalAPIError("price oracle", err).
			WithDetail("asset", assetID)
	}
	return price, nil
}

// ConvertUSD returns how much of the coin the USD amount buys, rounded to
// 8 decimal places.
func (s *priceService) ConvertUSD(ctx context.Context, usd decimal.Decimal, coin string) (decimal.Decimal, error) {
	if usd.IsNegative() {
		return decimal.Zero, apperrors.NewValidationError("usd", "must not be negative")
	}

	price, err := s.GetUSDPrice(ctx, coin)
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsZero() {
		return decimal.Zero, apperrors.NewExternalAPIError("price oracle", fmt.Errorf("zero price for %s", coin))
	}

	return usd.DivRound(price, 8), nil
}

func (s *priceService) fetch(ctx context.Context, assetID string) (decimal.Decimal, error) {
	price, geckoErr := s.fetchCoinGecko(ctx, assetID)
	if geckoErr == nil {
		return price, nil
	}

	s.logger.Debug().Err(geckoErr).Str("asset", assetID).Msg("CoinGecko failed, trying CoinCap")

	price, capErr := s.fetchCoinCap(ctx, assetID)
	if capErr == nil {
		return price, nil
	}

	return decimal.Zero, fmt.Errorf("coingecko: %v; coincap: %v", geckoErr, capErr)
}

func (s *priceService) fetchCoinGecko(ctx context.Context, assetID string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd", s.coingeckoBase, assetID)

	var out map[string]struct {
		USD json.Number `json:"usd"`
	}
	if err := s.getJSON(ctx, url, &out); err != nil {
		return decimal.Zero, err
	}

	entry, ok := out[assetID]
	if !ok {
		return decimal.Zero, fmt.Errorf("asset %s missing from response", assetID)
	}
	return decimal.NewFromString(entry.USD.String())
}

func (s *priceService) fetchCoinCap(ctx context.Context, assetID string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/v2/assets/%s", s.coincapBase, assetID)

	var out struct {
		Data struct {
			PriceUSD string `json:"priceUsd"`
		} `json:"data"`
	}
	if err := s.getJSON(ctx, url, &out); err != nil {
		return decimal.Zero, err
	}

	if out.Data.PriceUSD == "" {
		return decimal.Zero, fmt.Errorf("asset %s missing from response", assetID)
	}
	return decimal.NewFromString(out.Data.PriceUSD)
}

func (s *priceService) getJSON(ctx context.Context, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// SupportedCoins lists the symbols the oracle accepts, sorted.
func SupportedCoins() []string {
	coins := make([]string, 0, len(coinIDs))
	for symbol := range coinIDs {
		coins = append(coins, symbol)
	}
	sort.Strings(coins)
	return coins
}
