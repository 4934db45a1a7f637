package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/config"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/screener"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/util/timejitter"
)

var log = logrus.WithField("service", "api")

// Server exposes the stored readings over REST.
type Server struct {
	Config   *config.Config
	Screener *screener.Screener

	SymbolService  *service.SymbolService
	ReadingService *service.ReadingService

	Cache *ReadingCache

	srv *http.Server
}

func New(cfg *config.Config, sc *screener.Screener, db *sqlx.DB, store service.Store) *Server {
	return &Server{
		Config:         cfg,
		Screener:       sc,
		SymbolService:  &service.SymbolService{DB: db},
		ReadingService: &service.ReadingService{DB: db},
		Cache:          NewReadingCache(db, store, cfg),
	}
}

// Run warms the cache, starts the background refresh and serves until the
// context is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.Cache.Restore()

	if err := s.refreshAll(ctx); err != nil {
		// readings may simply not exist yet, the server still starts
		log.WithError(err).Warn("initial cache refresh failed")
	}

	go s.refreshLoop(ctx)

	s.srv = &http.Server{
		Addr:    s.Config.API.Addr,
		Handler: s.newEngine(),
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("server forced to shutdown")
		}
	}()

	log.Infof("api server listening on %s", s.Config.API.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info("api server stopped")
	return nil
}

func (s *Server) newEngine() *gin.Engine {
	r := gin.Default()

	origins := s.Config.API.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowMethods:     []string{"GET", "POST"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/api/ping", s.ping)
	r.GET("/health", s.health)
	r.GET("/api/symbols", s.listSymbols)
	r.GET("/api/timeframes", s.listTimeframes)
	r.GET("/api/table", s.table)
	r.GET("/api/filter", s.filter)
	r.POST("/api/refresh", s.refresh)
	r.POST("/api/calculate", s.calculate)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// refreshAll rebuilds the cache over every symbol in the database, not just
// the ones a request happened to ask for.
func (s *Server) refreshAll(ctx context.Context) error {
	symbols, err := s.SymbolService.Symbols(ctx)
	if err != nil {
		return err
	}

	return s.Cache.Refresh(ctx, symbols)
}

func (s *Server) refreshLoop(ctx context.Context) {
	interval := s.Config.API.CacheRefreshInterval.Duration()

	for {
		select {
		case <-ctx.Done():
			return

		case <-time.After(timejitter.Milliseconds(interval, 500)):
			if err := s.refreshAll(ctx); err != nil {
				log.WithError(err).Error("background cache refresh failed")
			}
		}
	}
}
