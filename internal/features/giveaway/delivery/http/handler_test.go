package http

import (
	"context"
	"encoding/json"
	mrand "math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainrot-market-backend/internal/common/middleware"
	"brainrot-market-backend/internal/features/giveaway/models"
	"brainrot-market-backend/internal/features/giveaway/repository/memory"
	giveawayservice "brainrot-market-backend/internal/features/giveaway/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, giveawayservice.GiveawayService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := giveawayservice.NewGiveawayService(
		memory.NewMemoryRepository(), clock, mrand.New(mrand.NewSource(5)), zerolog.Nop())

	router := gin.New()
	router.Use(middleware.HandleErrors(zerolog.Nop()))
	NewGiveawayHandler(svc).RegisterRoutes(router.Group("/api/v1"))

	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateGiveawayEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/giveaways", `{
		"server_id": "server-1",
		"channel_id": "channel-1",
		"message_id": "msg-1",
		"prize": "golden capuchino",
		"winners_count": 2,
		"duration": "2h"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Giveaway
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "golden capuchino", created.Prize)
	assert.Equal(t, 2, created.WinnersCount)
	assert.False(t, created.Ended)
}

func TestCreateGiveawayRejectsShortDuration(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/giveaways", `{
		"server_id": "server-1",
		"channel_id": "channel-1",
		"message_id": "msg-1",
		"prize": "prize",
		"winners_count": 1,
		"duration": "30s"
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGiveawayRejectsBadBody(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/giveaways", `{"prize": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListGiveawaysRequiresServerID(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/giveaways", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEndAndRerollEndpoints(t *testing.T) {
	router, svc := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/giveaways", `{
		"server_id": "server-1",
		"channel_id": "channel-1",
		"message_id": "msg-1",
		"prize": "prize",
		"winners_count": 1,
		"duration": "1h"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Giveaway
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	_, err := svc.AddParticipant(context.Background(), created.ID, "u1")
	require.NoError(t, err)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/giveaways/"+created.ID+"/end", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.GiveawayResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []string{"u1"}, result.Winners)

	// Ending twice surfaces the conflict.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/giveaways/"+created.ID+"/end", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/giveaways/"+created.ID+"/reroll", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRigEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/giveaways", `{
		"server_id": "server-1",
		"channel_id": "channel-1",
		"message_id": "msg-1",
		"prize": "prize",
		"winners_count": 1,
		"duration": "1h"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Giveaway
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPost, "/api/v1/giveaways/"+created.ID+"/rig", `{"winner_id": "vip-user"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.GiveawayResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []string{"vip-user"}, result.Winners)
	assert.True(t, result.Rigged)
}

func TestGetUnknownGiveaway(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/giveaways/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
