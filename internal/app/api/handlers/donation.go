package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/giveledger/internal/app/api/middleware"
	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/response"
	"github.com/fatflowers/giveledger/pkg/types"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type PageQuery struct {
	From int `form:"from" binding:"min=0"`
	Size int `form:"size" binding:"min=0,max=100"`
}

func (q PageQuery) limit() int {
	if q.Size <= 0 {
		return defaultPageSize
	}
	return min(q.Size, maxPageSize)
}

type ListDonationsResponse struct {
	Items []*models.Donation `json:"items"`
	Total int64              `json:"total"`
}

func listDonations(c *gin.Context, st store.Store, q store.DonationQuery) {
	items, total, err := st.ListDonations(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
		return
	}
	if items == nil {
		items = []*models.Donation{}
	}
	c.JSON(http.StatusOK, response.OKT(&ListDonationsResponse{Items: items, Total: total}))
}

// @Summary      My donations
// @Description  Lists the current user's donations, newest first. Users without a donor profile get an empty list.
// @Tags         Donation
// @Produce      json
// @Security     BearerAuth
// @Param        from query int false "Offset"
// @Param        size query int false "Page size (max 100)"
// @Success      200  {object}  handlers.RespListDonations
// @Router       /api/v1/donation/mine [get]
func ApiMyDonations(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, nil))
			return
		}
		var page PageQuery
		if err := c.ShouldBindQuery(&page); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		donor, err := st.GetDonorByUserID(c.Request.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, response.OKT(&ListDonationsResponse{Items: []*models.Donation{}}))
			return
		}
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		listDonations(c, st, store.DonationQuery{DonorID: donor.ID, Offset: page.From, Limit: page.limit()})
	}
}

// @Summary      Organization stats
// @Description  Returns the organization with its donation, rating and popularity counters as stored.
// @Tags         Organization
// @Produce      json
// @Param        id path string true "Organization ID"
// @Success      200  {object}  handlers.RespOrganization
// @Router       /api/v1/organization/{id}/stats [get]
func ApiOrganizationStats(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		org, err := st.GetOrganization(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorMsg(storeErrorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(org))
	}
}

// @Summary      Organization donations
// @Description  Lists completed donations received by an organization, including those made through its campaigns.
// @Tags         Organization
// @Produce      json
// @Param        id path string true "Organization ID"
// @Param        from query int false "Offset"
// @Param        size query int false "Page size (max 100)"
// @Success      200  {object}  handlers.RespListDonations
// @Router       /api/v1/organization/{id}/donations [get]
func ApiOrganizationDonations(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var page PageQuery
		if err := c.ShouldBindQuery(&page); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		org, err := st.GetOrganization(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorMsg(storeErrorCode(err), err.Error()))
			return
		}
		listDonations(c, st, store.DonationQuery{
			OrganizationID: org.ID,
			Statuses:       []types.DonationStatus{types.DonationStatusCompleted},
			Offset:         page.From,
			Limit:          page.limit(),
		})
	}
}

// @Summary      Campaign stats
// @Description  Returns the campaign with its raised amount, donor, rating and popularity counters as stored.
// @Tags         Campaign
// @Produce      json
// @Param        id path string true "Campaign ID"
// @Success      200  {object}  handlers.RespCampaign
// @Router       /api/v1/campaign/{id}/stats [get]
func ApiCampaignStats(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaign, err := st.GetCampaign(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorMsg(storeErrorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(campaign))
	}
}

func storeErrorCode(err error) response.APIResponseCode {
	if errors.Is(err, store.ErrNotFound) {
		return response.APIResponseCodeNotFound
	}
	return response.APIResponseCodeError
}

// RegisterDonorRoutes mounts the routes that need a resolved user.
func RegisterDonorRoutes(r gin.IRouter, st store.Store) {
	r.GET("/donation/mine", ApiMyDonations(st))
}

// RegisterPublicStatsRoutes mounts the read-only entity routes.
func RegisterPublicStatsRoutes(r gin.IRouter, st store.Store) {
	r.GET("/organization/:id/stats", ApiOrganizationStats(st))
	r.GET("/organization/:id/donations", ApiOrganizationDonations(st))
	r.GET("/campaign/:id/stats", ApiCampaignStats(st))
}
