package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/giveledger/internal/app/service/aggregate"
	"github.com/fatflowers/giveledger/internal/app/service/statistics"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/response"
	"github.com/fatflowers/giveledger/pkg/types"
)

// donationFilterFields are the donation columns list_donations may filter on.
var donationFilterFields = map[string]bool{
	"status":          true,
	"kind":            true,
	"donor_id":        true,
	"organization_id": true,
	"campaign_id":     true,
}

type ListDonationsRequest struct {
	Filters []types.CommonFilter `json:"filters"`
	From    int                  `json:"from" binding:"min=0"`
	Size    int                  `json:"size" binding:"min=0,max=100"`
}

// @Summary      List Donations (Admin)
// @Description  Retrieves a paginated and filterable list of donations, newest first.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ListDonationsRequest true "List donation request with filters and pagination"
// @Success      200  {object}  handlers.RespListDonations
// @Router       /api/v1/admin/list_donations [post]
func ApiListDonations(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListDonationsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		for i := range req.Filters {
			if err := req.Filters[i].Validate(donationFilterFields); err != nil {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
		}
		listDonations(c, st, store.DonationQuery{
			Filters: req.Filters,
			Offset:  req.From,
			Limit:   PageQuery{Size: req.Size}.limit(),
		})
	}
}

// @Summary      Get Donation Statistics (Admin)
// @Description  Retrieves daily donation and donor statistics.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.DonationStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespDonationStatistic
// @Router       /api/v1/admin/get_donation_statistic [post]
func ApiGetDonationStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.DonationStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetDonationStatistic(c.Request.Context(), &req)
		if err != nil {
			code := response.APIResponseCodeError
			if errors.Is(err, statistics.ErrInvalidRequest) {
				code = response.APIResponseCodeBadRequest
			}
			c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type ReconcileRequest struct {
	Target types.CascadeTarget `json:"target" binding:"required,oneof=organization campaign"`
	ID     string              `json:"id" binding:"required"`
}

// @Summary      Reconcile counters (Admin)
// @Description  Rebuilds an organization's or campaign's donation counters from its completed donations.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ReconcileRequest true "Reconcile target"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/reconcile [post]
func ApiReconcile(agg *aggregate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReconcileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		var (
			out any
			err error
		)
		if req.Target == types.CascadeTargetCampaign {
			out, err = agg.ReconcileCampaign(c.Request.Context(), req.ID)
		} else {
			out, err = agg.ReconcileOrganization(c.Request.Context(), req.ID)
		}
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorMsg(storeErrorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(out))
	}
}

func RegisterAdminRoutes(r gin.IRouter, st store.Store, stats *statistics.Service, agg *aggregate.Service) {
	r.POST("/list_donations", ApiListDonations(st))
	r.POST("/get_donation_statistic", ApiGetDonationStatistic(stats))
	r.POST("/reconcile", ApiReconcile(agg))
}
