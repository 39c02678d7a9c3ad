package handlers

import (
	"github.com/fatflowers/giveledger/internal/app/service/ledger"
	"github.com/fatflowers/giveledger/internal/app/service/rating"
	"github.com/fatflowers/giveledger/internal/app/service/statistics"
	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespComplete wraps ledger.CompleteResult in the standard envelope.
type RespComplete struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ledger.CompleteResult    `json:"data"`
}

type RespPaymentSession struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.PaymentSession    `json:"data"`
}

type RespOpenSession struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    OpenSessionResponse      `json:"data"`
}

type RespRate struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    rating.RateResult        `json:"data"`
}

// RespListDonations wraps ListDonationsResponse in the standard envelope.
type RespListDonations struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ListDonationsResponse    `json:"data"`
}

type RespOrganization struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Organization      `json:"data"`
}

type RespCampaign struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Campaign          `json:"data"`
}

// RespDonationStatistic wraps DonationStatisticResponse in the standard envelope.
type RespDonationStatistic struct {
	Code    response.APIResponseCode             `json:"code"`
	Message string                               `json:"message"`
	Data    statistics.DonationStatisticResponse `json:"data"`
}
