package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	jijin "github.com/xiechanglei/xie-jijin"
	"github.com/xiechanglei/xie-jijin/eastmoney"
)

// fail writes the error response shape shared by every endpoint.
func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": code, "message": message})
}

func storeFail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jijin.ErrQuoteUnavailable):
		fail(c, http.StatusBadGateway, "quote-unavailable", err.Error())
	default:
		fail(c, http.StatusInternalServerError, "store-error", err.Error())
	}
}

type addFundRequest struct {
	Code   string `json:"code" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

type codeRequest struct {
	Code string `json:"code" binding:"required"`
}

type setShareRequest struct {
	Code  string `json:"code" binding:"required"`
	Share string `json:"share" binding:"required"`
}

func (s *Server) listFunds(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Holdings())
}

func (s *Server) addFund(c *gin.Context) {
	var req addFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid-input", err.Error())
		return
	}
	money, err := decimal.NewFromString(req.Amount)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid-input", "invalid amount: "+req.Amount)
		return
	}

	ctx := c.Request.Context()
	err = s.store.Add(req.Code, money, func(code string) (decimal.Decimal, error) {
		return s.agg.BaseValue(ctx, code)
	})
	if err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.store.Get(req.Code))
}

func (s *Server) removeFund(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid-input", err.Error())
		return
	}
	if err := s.store.Remove(req.Code); err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": req.Code})
}

func (s *Server) setShare(c *gin.Context) {
	var req setShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid-input", err.Error())
		return
	}
	shares, err := decimal.NewFromString(req.Share)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid-input", "invalid share count: "+req.Share)
		return
	}
	if !s.store.Has(req.Code) {
		fail(c, http.StatusNotFound, "unknown-fund", "fund "+req.Code+" is not tracked")
		return
	}
	if err := s.store.SetShares(req.Code, shares); err != nil {
		storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.store.Get(req.Code))
}

func (s *Server) fundShare(c *gin.Context) {
	code := c.Param("code")
	h := s.store.Get(code)
	if h == nil {
		fail(c, http.StatusNotFound, "unknown-fund", "fund "+code+" is not tracked")
		return
	}
	c.JSON(http.StatusOK, h)
}

// fundRow is the aggregated record shape served to the web UI.
type fundRow struct {
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	Available   bool               `json:"available"`
	Time        string             `json:"time"`
	BaseValue   decimal.Decimal    `json:"baseValue"`
	NetValue    decimal.Decimal    `json:"netValue"`
	Change      decimal.Decimal    `json:"change"`
	Shares      decimal.Decimal    `json:"shares"`
	ProfitLoss  decimal.Decimal    `json:"profitLoss"`
	ProfitValue decimal.Decimal    `json:"profitValue"`
	History     jijin.HistoryStats `json:"history"`
}

func (s *Server) report(c *gin.Context) {
	records := s.agg.Batch(c.Request.Context(), s.store.Holdings())
	rows := make([]fundRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, fundRow{
			Code:        r.Code,
			Name:        r.FundName,
			Available:   r.Available(),
			Time:        r.Time,
			BaseValue:   r.BaseValue,
			NetValue:    r.NetValue,
			Change:      r.DailyChangePercent,
			Shares:      r.Shares,
			ProfitLoss:  r.ProfitLoss,
			ProfitValue: r.ProfitValue,
			History:     r.History,
		})
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) fundEstimate(c *gin.Context) {
	raw, err := s.rawQuote(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, http.StatusBadGateway, "quote-unavailable", err.Error())
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (s *Server) fundHistory(c *gin.Context) {
	series, err := s.history(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, http.StatusBadGateway, "quote-unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, series)
}

func (s *Server) plateFundsFlow(c *gin.Context) {
	period := c.Param("period")
	if !eastmoney.ValidFlowPeriod(period) {
		fail(c, http.StatusBadRequest, "invalid-input", "unknown period "+period)
		return
	}
	flows, err := s.plateFlow(c.Request.Context(), period)
	if err != nil {
		fail(c, http.StatusBadGateway, "quote-unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, flows)
}
