package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/parikshasetu/exam-platform/internal/client"
	"github.com/parikshasetu/exam-platform/internal/handler"
	"github.com/parikshasetu/exam-platform/internal/repository"
	"github.com/parikshasetu/exam-platform/internal/service"
	"github.com/parikshasetu/exam-platform/pkg/cache"
)

func mountCourse(ctx context.Context, d deps, db *sqlx.DB, api *gin.RouterGroup) (func(), error) {
	dispatcher, stop := startDispatcher(ctx, d)
	users := client.NewUserClient(d.cfg.Peers.UserServiceURL, peerOptions(d))
	identity := service.NewIdentityResolver(users, d.cfg.Import.DefaultPassword, d.logger)

	svc := service.NewEnrollmentService(
		repository.NewEnrollmentRepository(db),
		repository.NewCourseRepository(db),
		identity,
		dispatcher,
		d.metrics,
		nil,
		d.logger,
	)
	handler.RegisterCourseRoutes(api, handler.NewCourseHandler(svc), d.auth)
	return stop, nil
}

func mountExam(ctx context.Context, d deps, db *sqlx.DB, api *gin.RouterGroup) (func(), error) {
	exams := repository.NewExamRepository(db)
	grants := repository.NewExamEnrollmentRepository(db)
	courses := client.NewCourseClient(d.cfg.Peers.CourseServiceURL, peerOptions(d))

	cleanup := func() {}
	var cacheSvc *service.CacheService
	if d.cfg.Eligibility.CacheEnabled {
		rdb, err := cache.NewRedis(ctx, d.cfg.Redis)
		if err != nil {
			d.logger.Warn("redis unavailable, eligibility cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(rdb, d.logger)
			cacheSvc = service.NewCacheService(cacheRepo, d.metrics, d.cfg.Eligibility.CacheTTL, d.logger, true)
			cleanup = func() { _ = cacheRepo.Close() }
		}
	}

	examSvc := service.NewExamService(exams, grants, nil, d.logger)
	eligibility := service.NewEligibilityService(exams, grants, courses, cacheSvc, d.cfg.Eligibility.CacheTTL, d.metrics, d.logger)
	handler.RegisterExamRoutes(api, handler.NewExamHandler(examSvc, eligibility), d.auth)
	return cleanup, nil
}

func mountResult(ctx context.Context, d deps, db *sqlx.DB, api *gin.RouterGroup) (func(), error) {
	svc := service.NewResultService(repository.NewResultRepository(db), nil, d.logger)
	handler.RegisterResultRoutes(api, handler.NewResultHandler(svc), d.auth)
	return func() {}, nil
}

func mountUser(ctx context.Context, d deps, db *sqlx.DB, api *gin.RouterGroup) (func(), error) {
	dispatcher, stop := startDispatcher(ctx, d)
	users := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(users, d.tokens, nil, d.logger)
	userSvc := service.NewUserService(users, dispatcher, d.metrics, d.cfg.Import.DefaultPassword, d.logger)
	handler.RegisterUserRoutes(api, handler.NewAuthHandler(authSvc), handler.NewUserHandler(userSvc), d.auth)
	return stop, nil
}
