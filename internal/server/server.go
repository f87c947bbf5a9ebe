package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/polisbot/polisbot/internal/agent"
	"github.com/polisbot/polisbot/internal/config"
	"github.com/polisbot/polisbot/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"

	paymentdomain "github.com/polisbot/polisbot/internal/payment/domain"
	productdomain "github.com/polisbot/polisbot/internal/product/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func registerGin(cfg config.Config, registry *prometheus.Registry, metrics *observability.Metrics) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	r.Static("/documents", cfg.StorageDir)

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	orchestrator *agent.Orchestrator
	paymentSvc   paymentdomain.Service
	productSvc   productdomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Orchestrator *agent.Orchestrator
	PaymentSvc   paymentdomain.Service
	ProductSvc   productdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		orchestrator: p.Orchestrator,
		paymentSvc:   p.PaymentSvc,
		productSvc:   p.ProductSvc,
	}

	svc.registerWebhookRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerWebhookRoutes() {
	webhooks := s.engine.Group("/webhooks")

	webhooks.GET("/whatsapp", s.VerifyMessagingWebhook)
	webhooks.POST("/whatsapp", s.HandleInboundMessage)
	webhooks.POST("/payments/mercadopago", s.HandlePaymentWebhook)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AdminAuthRequired())

	admin.POST("/products", s.CreateProduct)
	admin.GET("/products", s.ListProducts)
}
