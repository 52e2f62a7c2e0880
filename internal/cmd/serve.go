package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"backoffice-system/config"
	"backoffice-system/internal/cache"
	"backoffice-system/internal/database"
	"backoffice-system/internal/events"
	"backoffice-system/internal/gateway"
	customers "backoffice-system/internal/services/customers/handler"
	inventory "backoffice-system/internal/services/inventory/handler"
	"backoffice-system/internal/services/inventory/ledger"
	orders "backoffice-system/internal/services/orders/handler"
	promomix "backoffice-system/internal/services/promomix/handler"
	reports "backoffice-system/internal/services/reports/handler"
	user "backoffice-system/internal/services/user/handler"
	sysutils "backoffice-system/internal/utils"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthProbeInterval = 15 * time.Second
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not migrate the schema on start")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()
	logger := rt.logger

	if err := rt.cfg.JWT.Validate(); err != nil {
		return err
	}

	if !skipMigrate {
		if err := database.Migrate(rt.db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	redisClient, err := config.NewRedisClient(ctx, rt.cfg.Redis, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	c := cache.New(redisClient)
	publisher := events.New(redisClient)
	stock := ledger.New(logger)
	tokens := sysutils.NewTokenIssuer(rt.cfg.JWT.Secret, rt.cfg.JWT.TTL)
	users := user.NewUserHandler(rt.db, tokens, logger)

	if _, err := users.SeedAdmin(ctx, rt.cfg.Admin.Email, rt.cfg.Admin.Password, rt.cfg.Admin.Name); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := gateway.NewRouter(gateway.Services{
		Customers: customers.NewCustomerHandler(rt.db, logger),
		Inventory: inventory.NewInventoryHandler(rt.db, stock, c, logger),
		Orders:    orders.NewOrderHandler(rt.db, stock, publisher, c, logger),
		Reports:   reports.NewReportsHandler(rt.db, c, logger),
		PromoMix:  promomix.NewPromoMixHandler(rt.db, logger),
		Auth:      users,
		Tokens:    tokens,
		Ping:      rt.ping,
	}, gateway.Options{RateLimit: rt.cfg.RateLimit}, logger)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	httpServer := &http.Server{
		Addr:              rt.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", rt.cfg.GrpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", rt.cfg.GrpcAddr, err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	go probeDatabase(ctx, rt, healthServer)

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("gRPC health service listening on %s", rt.cfg.GrpcAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		logger.Infof("HTTP API listening on %s", rt.cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case serveErr = <-errCh:
		logger.Errorf("Server stopped: %v", serveErr)
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("HTTP shutdown: %v", err)
	}
	grpcServer.GracefulStop()

	logger.Info("Server exited")
	return serveErr
}

// probeDatabase keeps the gRPC health status in line with database reachability.
func probeDatabase(ctx context.Context, rt *runtime, hs *health.Server) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		status := healthpb.HealthCheckResponse_SERVING
		if err := rt.ping(pingCtx); err != nil {
			rt.logger.Warnf("Database ping failed: %v", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", status)
	}

	check()
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
