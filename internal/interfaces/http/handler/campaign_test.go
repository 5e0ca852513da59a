package handler

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	marketingapp "github.com/crm/backend/internal/application/marketing"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignHandler_AudienceSync(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := createCustomer(t, api, "Alice", "alice@example.com")
	bob := createCustomer(t, api, "Bob", "bob@example.com")

	w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/campaigns/", map[string]any{
		"name":     "Spring Sale",
		"content":  "20% off",
		"audience": []uuid.UUID{alice.ID, bob.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var campaign marketingapp.CampaignResponse
	testutil.DecodeResponse(t, w, &campaign)
	assert.Equal(t, "Draft", campaign.Status)
	assert.Equal(t, 2, campaign.AudienceSize)

	for _, id := range []uuid.UUID{alice.ID, bob.ID} {
		c := getCustomer(t, api, id)
		require.Len(t, c.CampaignEngagements, 1, c.Name)
		e := c.CampaignEngagements[0]
		assert.Equal(t, campaign.ID, e.CampaignID)
		assert.Equal(t, "Spring Sale", e.CampaignName)
		assert.Zero(t, e.EngagementMetrics.Clicks)
		assert.Zero(t, e.EngagementMetrics.Opens)
	}

	w = testutil.DoJSON(t, api.engine, http.MethodPut, "/api/campaigns/"+campaign.ID.String(), map[string]any{
		"name":     "Spring Sale",
		"content":  "25% off",
		"audience": []uuid.UUID{bob.ID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Campaign updated successfully", testutil.DecodeResponse(t, w, nil).Message)

	assert.Empty(t, getCustomer(t, api, alice.ID).CampaignEngagements)
	assert.Len(t, getCustomer(t, api, bob.ID).CampaignEngagements, 1)

	w = testutil.DoJSON(t, api.engine, http.MethodGet, "/api/campaigns/"+campaign.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeResponse(t, w, &campaign)
	require.Len(t, campaign.Audience, 1)
	assert.Equal(t, "Bob", campaign.Audience[0].Name)
	assert.Equal(t, "bob@example.com", campaign.Audience[0].Email)

	w = testutil.DoJSON(t, api.engine, http.MethodGet, "/api/campaigns/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []marketingapp.CampaignResponse
	testutil.DecodeResponse(t, w, &list)
	require.Len(t, list, 1)
	require.Len(t, list[0].Audience, 1)
	assert.Empty(t, list[0].Audience[0].Email, "lists only carry names")

	w = testutil.DoJSON(t, api.engine, http.MethodDelete, "/api/campaigns/"+campaign.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Campaign deleted successfully", testutil.DecodeResponse(t, w, nil).Message)
	assert.Len(t, getCustomer(t, api, bob.ID).CampaignEngagements, 1, "delete keeps engagements")

	w = testutil.DoJSON(t, api.engine, http.MethodGet, "/api/campaigns/"+campaign.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCampaignHandler_Validation(t *testing.T) {
	api := newTestAPI(t, nil)

	t.Run("missing content", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/campaigns/", map[string]any{"name": "No content"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, testutil.DecodeResponse(t, w, nil).Code)
	})

	t.Run("unknown audience member", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/campaigns/", map[string]any{
			"name":     "Ghosts",
			"content":  "boo",
			"audience": []uuid.UUID{uuid.New()},
		})
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

		w = testutil.DoJSON(t, api.engine, http.MethodGet, "/api/campaigns/", nil)
		var list []marketingapp.CampaignResponse
		testutil.DecodeResponse(t, w, &list)
		assert.Empty(t, list, "failed create must roll back")
	})

	t.Run("update of unknown campaign", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodPut, "/api/campaigns/"+uuid.NewString(), map[string]any{
			"name":    "X",
			"content": "Y",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCampaignHandler_GenerateUploadURL(t *testing.T) {
	query := func(fileName, contentType string) string {
		v := url.Values{}
		v.Set("file_name", fileName)
		v.Set("content_type", contentType)
		return "/api/uploads/generate-upload-url?" + v.Encode()
	}

	t.Run("signs an image upload", func(t *testing.T) {
		api := newTestAPI(t, fakeStorage{})
		w := testutil.DoJSON(t, api.engine, http.MethodGet, query("banner.png", "image/png"), nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp marketingapp.UploadURLResponse
		testutil.DecodeResponse(t, w, &resp)
		assert.Equal(t, "campaigns", resp.Folder)
		assert.Equal(t, http.MethodPut, resp.Method)
		assert.True(t, strings.HasPrefix(resp.StorageKey, "campaigns/"), resp.StorageKey)
		assert.True(t, strings.HasSuffix(resp.StorageKey, ".png"), resp.StorageKey)
		assert.Contains(t, resp.UploadURL, resp.StorageKey)
	})

	t.Run("rejects non-images", func(t *testing.T) {
		api := newTestAPI(t, fakeStorage{})
		w := testutil.DoJSON(t, api.engine, http.MethodGet, query("notes.txt", "text/plain"), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing parameters", func(t *testing.T) {
		api := newTestAPI(t, fakeStorage{})
		w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/uploads/generate-upload-url", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, testutil.DecodeResponse(t, w, nil).Code)
	})

	t.Run("storage not configured", func(t *testing.T) {
		api := newTestAPI(t, nil)
		w := testutil.DoJSON(t, api.engine, http.MethodGet, query("banner.png", "image/png"), nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodeUnavailable, testutil.DecodeResponse(t, w, nil).Code)
	})
}
