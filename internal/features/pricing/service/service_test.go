package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainrot-market-backend/internal/common/cache"
	apperrors "brainrot-market-backend/internal/common/errors"
)

func geckoServer(t *testing.T, price string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		assert.Equal(t, "/api/v3/simple/price", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{"usd":` + price + `}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func coincapServer(t *testing.T, price string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/assets/bitcoin", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"priceUsd":"` + price + `"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func brokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetUSDPriceFromCoinGecko(t *testing.T) {
	gecko := geckoServer(t, "60000.5", nil)
	capSrv := brokenServer(t)

	oracle := NewPriceService(gecko.URL, capSrv.URL, cache.NewMemoryCache(), time.Minute, zerolog.Nop())

	price, err := oracle.GetUSDPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("60000.5")))
}

func TestGetUSDPriceFallsBackToCoinCap(t *testing.T) {
	gecko := brokenServer(t)
	capSrv := coincapServer(t, "59000.25")

	oracle := NewPriceService(gecko.URL, capSrv.URL, cache.NewMemoryCache(), time.Minute, zerolog.Nop())

	price, err := oracle.GetUSDPrice(context.Background(), "btc")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("59000.25")))
}

func TestGetUSDPriceUsesCache(t *testing.T) {
	var hits atomic.Int64
	gecko := geckoServer(t, "60000", &hits)
	capSrv := brokenServer(t)

	oracle := NewPriceService(gecko.URL, capSrv.URL, cache.NewMemoryCache(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	for n := 0; n < 5; n++ {
		_, err := oracle.GetUSDPrice(ctx, "btc")
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), hits.Load())
}

func TestGetUSDPriceServesStaleDuringOutage(t *testing.T) {
	priceCache := cache.NewMemoryCache()
	ctx := context.Background()

	gecko := geckoServer(t, "60000", nil)
	oracle := NewPriceService(gecko.URL, brokenServer(t).URL, priceCache, time.Nanosecond, zerolog.Nop())
	_, err := oracle.GetUSDPrice(ctx, "btc")
	require.NoError(t, err)
	gecko.Close()

	// Fresh quote expired, both upstreams down: the stale copy survives.
	time.Sleep(time.Millisecond)
	down := NewPriceService(gecko.URL, brokenServer(t).URL, priceCache, time.Nanosecond, zerolog.Nop())
	price, err := down.GetUSDPrice(ctx, "btc")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(60000)))
}

func TestGetUSDPriceBothUpstreamsDown(t *testing.T) {
	oracle := NewPriceService(brokenServer(t).URL, brokenServer(t).URL, cache.NewMemoryCache(), time.Minute, zerolog.Nop())

	_, err := oracle.GetUSDPrice(context.Background(), "btc")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeExternalAPI))
}

func TestGetUSDPriceRejectsUnknownCoin(t *testing.T) {
	oracle := NewPriceService("http://localhost:0", "http://localhost:0", cache.NewMemoryCache(), time.Minute, zerolog.Nop())

	_, err := oracle.GetUSDPrice(context.Background(), "dogwifhat")
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsValidation())
}

func TestConvertUSD(t *testing.T) {
	gecko := geckoServer(t, "50000", nil)
	oracle := NewPriceService(gecko.URL, brokenServer(t).URL, cache.NewMemoryCache(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	amount, err := oracle.ConvertUSD(ctx, decimal.NewFromInt(1_500_000), "btc")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(30)))

	amount, err = oracle.ConvertUSD(ctx, decimal.NewFromInt(25000), "btc")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("0.5")))

	_, err = oracle.ConvertUSD(ctx, decimal.NewFromInt(-1), "btc")
	assert.Error(t, err)
}

func TestSupportedCoins(t *testing.T) {
	assert.Equal(t, []string{"btc", "doge", "eth", "ltc", "sol", "usdt"}, SupportedCoins())
}
