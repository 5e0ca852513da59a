package handler

import (
	"net/http"

	marketingapp "github.com/crm/backend/internal/application/marketing"
	"github.com/gin-gonic/gin"
)

// CampaignHandler handles campaign endpoints and image upload signing
type CampaignHandler struct {
	BaseHandler
	campaignService *marketingapp.CampaignService
	uploadService   *marketingapp.UploadService
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignService *marketingapp.CampaignService, uploadService *marketingapp.UploadService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		uploadService:   uploadService,
	}
}

// List godoc
// @ID           listCampaigns
// @Summary      List campaigns
// @Tags         campaigns
// @Produce      json
// @Success      200 {object} dto.Response{data=[]marketingapp.CampaignResponse}
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/campaigns/ [get]
func (h *CampaignHandler) List(c *gin.Context) {
	campaigns, err := h.campaignService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaigns)
}

// Create godoc
// @ID           createCampaign
// @Summary      Create a campaign
// @Description  Creates a campaign and records an engagement entry on every audience customer
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        request  body  marketingapp.CampaignRequest  true  "Campaign creation request"
// @Success      201 {object} dto.Response{data=marketingapp.CampaignResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/campaigns/ [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req marketingapp.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	campaign, err := h.campaignService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMessage(c, http.StatusCreated, campaign, "Campaign created successfully")
}

// GetByID godoc
// @ID           getCampaign
// @Summary      Get a campaign
// @Tags         campaigns
// @Produce      json
// @Param        id  path  string  true  "Campaign ID"
// @Success      200 {object} dto.Response{data=marketingapp.CampaignResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/campaigns/{id} [get]
func (h *CampaignHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "campaign")
	if !ok {
		return
	}

	campaign, err := h.campaignService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, campaign)
}

// Update godoc
// @ID           updateCampaign
// @Summary      Update a campaign
// @Description  Replaces the campaign and syncs customer engagement entries with the audience change
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "Campaign ID"
// @Param        request  body  marketingapp.CampaignRequest  true  "Campaign update request"
// @Success      200 {object} dto.Response{data=marketingapp.CampaignResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/campaigns/{id} [put]
func (h *CampaignHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "campaign")
	if !ok {
		return
	}

	var req marketingapp.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	campaign, err := h.campaignService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMessage(c, http.StatusOK, campaign, "Campaign updated successfully")
}

// Delete godoc
// @ID           deleteCampaign
// @Summary      Delete a campaign
// @Description  Engagement entries already written to customers are kept
// @Tags         campaigns
// @Produce      json
// @Param        id  path  string  true  "Campaign ID"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/campaigns/{id} [delete]
func (h *CampaignHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "campaign")
	if !ok {
		return
	}

	if err := h.campaignService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Message(c, "Campaign deleted successfully")
}

// GenerateUploadURL godoc
// @ID           generateUploadURL
// @Summary      Presign an image upload
// @Description  Returns a presigned PUT URL for a campaign image. Only image content types are accepted.
// @Tags         uploads
// @Produce      json
// @Param        file_name     query  string  true  "Original file name"
// @Param        content_type  query  string  true  "MIME type, must be image/*"
// @Success      200 {object} dto.Response{data=marketingapp.UploadURLResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/uploads/generate-upload-url [get]
func (h *CampaignHandler) GenerateUploadURL(c *gin.Context) {
	var req marketingapp.UploadURLRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.uploadService.GenerateImageUploadURL(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
