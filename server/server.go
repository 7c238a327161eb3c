// Package server exposes the fund tracker as a small local web UI with a
// JSON API over the same holdings store as the CLI.
package server

import (
	"context"
	_ "embed"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	jijin "github.com/xiechanglei/xie-jijin"
	"github.com/xiechanglei/xie-jijin/eastmoney"
)

//go:embed static/index.html
var indexHTML []byte

// Server serves the web UI and the JSON API.
type Server struct {
	log    *zap.SugaredLogger
	store  *jijin.Store
	agg    *jijin.Aggregator
	engine *gin.Engine

	// passthrough fetchers, overridable in tests
	rawQuote  func(ctx context.Context, code string) ([]byte, error)
	history   func(ctx context.Context, code string) (*eastmoney.HistorySeries, error)
	plateFlow func(ctx context.Context, period string) ([]eastmoney.PlateFlow, error)
}

// New creates a server over the given store and aggregator.
func New(store *jijin.Store, agg *jijin.Aggregator) (*Server, error) {
	base, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	client := jijin.NewClient()
	daily := jijin.NewDailyClient()
	em := eastmoney.New(client)

	s := &Server{
		log:      base.Sugar(),
		store:    store,
		agg:      agg,
		rawQuote: em.Raw,
		history: func(ctx context.Context, code string) (*eastmoney.HistorySeries, error) {
			return eastmoney.FetchHistorySeries(ctx, daily, code)
		},
		plateFlow: func(ctx context.Context, period string) ([]eastmoney.PlateFlow, error) {
			return eastmoney.FetchPlateFlow(ctx, client, period)
		},
	}
	s.engine = s.router()
	return s, nil
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogging())

	r.GET("/", func(c *gin.Context) {
		c.Data(200, "text/html; charset=utf-8", indexHTML)
	})

	api := r.Group("/api")
	api.GET("/funds", s.listFunds)
	api.POST("/add-fund", s.addFund)
	api.POST("/remove-fund", s.removeFund)
	api.POST("/set-share", s.setShare)
	api.GET("/fund-share/:code", s.fundShare)
	api.GET("/report", s.report)
	api.GET("/fund-gz/:code", s.fundEstimate)
	api.GET("/fund-history/:code", s.fundHistory)
	api.GET("/plate-funds-flow/:period", s.plateFundsFlow)
	return r
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	defer s.log.Sync()
	s.log.Infow("listening", "addr", addr)
	return s.engine.Run(addr)
}
