// Copyright 2026 The ZenaManage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kha997/zenamanage/internal/audit"
	"github.com/kha997/zenamanage/internal/config"
	"github.com/kha997/zenamanage/internal/matrix"
	"github.com/kha997/zenamanage/internal/observability/logger"
	"github.com/kha997/zenamanage/internal/observability/metrics"
	"github.com/kha997/zenamanage/internal/observability/tracing"
	"github.com/kha997/zenamanage/internal/permission"
	"github.com/kha997/zenamanage/internal/rbac"
	"github.com/kha997/zenamanage/internal/store/postgres"
	"github.com/kha997/zenamanage/internal/tenantscope"
	transportHTTP "github.com/kha997/zenamanage/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			exitOn(runMigrate(cfg))
			return
		case "seed":
			exitOn(runSeed(cfg))
			return
		}
	}

	slog.Info("starting zenamanage authorization service")
	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
		os.Exit(1)
	}
	authzMetrics, err := metrics.NewAuthzMetrics(meter)
	if err != nil {
		slog.Error("failed to register authorization metrics", logger.Error(err))
		os.Exit(1)
	}

	db, err := connect(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	registry := permission.NewCatalogRegistry()

	auditRepo := postgres.NewAuditRepository(db)
	auditLogger := audit.Fanout{
		audit.NewSlogLogger(),
		&audit.RecorderLogger{Recorder: auditRepo},
	}

	guard := tenantscope.NewGuard(auditLogger)
	rbacRepo := postgres.NewRBACRepository(db)
	directoryRepo := postgres.NewDirectoryRepository(db, guard)

	rbacService := rbac.NewService(rbacRepo, registry, auditLogger)
	matrixService := matrix.NewService(registry, rbacService)
	extractor := rbac.NewExtractor(directoryRepo, rbacRepo)

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Close()
	handler := transportHTTP.NewHandler(
		rbacService,
		matrixService,
		extractor,
		auditRepo,
		authzMetrics,
		cfg.Auth.JWTSecret,
		cfg.Auth.Issuer,
	)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(rateLimiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}
	slog.Info("server stopped")
}

func connect(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	return postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("applying schema")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	slog.Info("migration complete")
	return nil
}

// runSeed loads the permission catalog into the database and creates the
// default roles. Safe to run repeatedly; existing roles are left alone so
// matrix edits survive restarts.
func runSeed(cfg *config.Config) error {
	ctx := context.Background()
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := permission.NewCatalogRegistry()
	if err := postgres.NewPermissionRepository(db).Seed(ctx, registry); err != nil {
		return err
	}
	slog.Info("permission catalog seeded", logger.RowsAffected(int64(len(registry.All()))))

	auditRepo := postgres.NewAuditRepository(db)
	auditLogger := audit.Fanout{
		audit.NewSlogLogger(),
		&audit.RecorderLogger{Recorder: auditRepo},
	}
	rbacService := rbac.NewService(postgres.NewRBACRepository(db), registry, auditLogger)

	seeds := []struct {
		name  string
		scope rbac.Scope
		codes []permission.Code
	}{
		{rbac.RoleSystemAdmin, rbac.ScopeSystem, rbac.SystemAdminPermissions(registry)},
		{rbac.RoleTenantAdmin, rbac.ScopeTenant, rbac.TenantAdminPermissions},
		{rbac.RoleProjectManager, rbac.ScopeTenant, rbac.ProjectManagerPermissions},
		{rbac.RoleProjectContributor, rbac.ScopeProject, rbac.ProjectContributorPermissions},
		{rbac.RoleProjectViewer, rbac.ScopeProject, rbac.ProjectViewerPermissions},
	}
	for _, seed := range seeds {
		_, err := rbacService.CreateRole(ctx, "system", seed.name, seed.scope, seed.codes)
		switch {
		case errors.Is(err, rbac.ErrDuplicateRoleName):
			slog.Info("role already exists, skipping", logger.RoleName(seed.name))
		case err != nil:
			return fmt.Errorf("failed to seed role %s: %w", seed.name, err)
		default:
			slog.Info("role seeded", logger.RoleName(seed.name), logger.RoleScope(string(seed.scope)))
		}
	}
	return nil
}

func exitOn(err error) {
	if err != nil {
		slog.Error("command failed", logger.Error(err))
		os.Exit(1)
	}
}
