package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/giveledger/internal/app/api/middleware"
	"github.com/fatflowers/giveledger/internal/app/service/rating"
	"github.com/fatflowers/giveledger/pkg/response"
)

// @Summary      Rate an entity
// @Description  Creates or replaces the current user's rating of a hospital, NGO or campaign and returns the refreshed average.
// @Tags         Rating
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body rating.RateRequest true "Rating"
// @Success      200  {object}  handlers.RespRate
// @Router       /api/v1/rating [post]
func ApiRate(svc *rating.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, nil))
			return
		}
		var req rating.RateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.Rate(c.Request.Context(), rating.Identity{UserID: userID}, req)
		if err != nil {
			code := response.APIResponseCodeError
			switch {
			case errors.Is(err, rating.ErrInvalidRating), errors.Is(err, rating.ErrInvalidRequest):
				code = response.APIResponseCodeBadRequest
			case errors.Is(err, rating.ErrEntityNotFound):
				code = response.APIResponseCodeNotFound
			}
			c.JSON(http.StatusOK, response.ErrorMsg(code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterRatingRoutes(r gin.IRouter, svc *rating.Service) {
	r.POST("/rating", ApiRate(svc))
}
