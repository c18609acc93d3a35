// Package httpserver manages server creation and api routing.
package httpserver

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/accountdelivery"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/accountrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/accountservice"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/approvaldelivery"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/approvalrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/approvalservice"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/interestjob"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/ledgerrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/middleware"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/transactiondelivery"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/transactionrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/transactionservice"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/transferdelivery"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/transferservice"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/userdelivery"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/userrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/userservice"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/configpkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/lockoutpkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/refpkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/tokenpkg"
)

const lockoutSweepInterval = time.Minute

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB       *sql.DB
	Engine   *gin.Engine
	Config   configpkg.Config
	Interest *interestjob.Runner

	// memoryLockout is set when no redis address is configured.
	memoryLockout *lockoutpkg.Memory
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// RunBackground starts the interest job and the in-memory lockout sweeper until ctx is done.
func (s *Server) RunBackground(ctx context.Context) {
	go s.Interest.Run(ctx, s.Config.InterestJobInterval)

	if s.memoryLockout != nil {
		go s.memoryLockout.Run(ctx, lockoutSweepInterval)
	}
}

// New creates Server type with instantiated domains and routes. A nil redisClient keeps lockout
// tracking in process memory and runs the interest job without a cross-instance lock.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config, redisClient redis.UniversalClient) (*Server, error) {
	loc, err := config.Location()
	if err != nil {
		return nil, fmt.Errorf("cannot load ledger timezone %q: %w", config.LedgerTimezone, err)
	}

	tokenMaker, err := tokenpkg.NewMaker(config.TokenKind, config.TokenSymmetricKey)
	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	server := &Server{
		DB:     conn,
		Config: config,
	}

	var (
		lockout userservice.Lockout
		rs      *redsync.Redsync
	)

	if redisClient != nil {
		lockout = lockoutpkg.NewRedis(redisClient, config.LockoutMaxAttempts, config.LockoutDuration)
		rs = redsync.New(goredis.NewPool(redisClient))
	} else {
		server.memoryLockout = lockoutpkg.NewMemory(config.LockoutMaxAttempts, config.LockoutDuration)
		lockout = server.memoryLockout
	}

	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	transactionRepo := transactionrepo.NewRepoPGS(conn)
	approvalRepo := approvalrepo.NewRepoPGS(conn)
	ledger := ledgerrepo.NewRepoPGS(conn, config.LockTimeout, config.StatementTimeout)
	refs := refpkg.NewGenerator()

	engine := transactionservice.New(ledger, userRepo, refs, loc)

	userService := userservice.New(userRepo, lockout, tokenMaker, config.AccessTokenDuration)
	accountService := accountservice.New(accountRepo, transactionRepo, ledger, userRepo, engine, refs, loc)
	approvalService := approvalservice.New(approvalRepo, engine)
	transferService := transferservice.New(engine, accountService)

	server.Interest = interestjob.New(accountRepo, engine, rs, loc)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := middleware.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("cannot register validators: %w", err)
		}
	}

	userHandler := userdelivery.NewHandler(userService)
	accountHandler := accountdelivery.NewHandler(accountService)
	transactionHandler := transactiondelivery.NewHandler(approvalService, engine)
	transferHandler := transferdelivery.NewHandler(transferService, approvalService)
	approvalHandler := approvaldelivery.NewHandler(approvalService)

	router := gin.New()

	router.Use(middleware.RequestLogger(logger))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/users", userHandler.Create)
	router.POST("/users/login", userHandler.Login)

	authRoutes := router.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.POST("/users/staff", userHandler.CreateStaff)

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts", accountHandler.List)
	authRoutes.GET("/accounts/number/:number", accountHandler.GetByNumber)
	authRoutes.GET("/accounts/:id", accountHandler.Get)
	authRoutes.PATCH("/accounts/:id", accountHandler.UpdateType)
	authRoutes.PATCH("/accounts/:id/status", accountHandler.ChangeStatus)
	authRoutes.DELETE("/accounts/:id", accountHandler.Delete)
	authRoutes.GET("/accounts/:id/interest", accountHandler.CalculateInterest)
	authRoutes.POST("/accounts/:id/interest", accountHandler.PostInterest)
	authRoutes.GET("/accounts/:id/transactions", accountHandler.Transactions)

	authRoutes.POST("/transactions/deposit", transactionHandler.Deposit)
	authRoutes.POST("/transactions/withdrawal", transactionHandler.Withdraw)
	authRoutes.POST("/transactions/reversal", transactionHandler.Reverse)

	authRoutes.POST("/transfers", transferHandler.Create)
	authRoutes.POST("/transfers/check", transferHandler.Check)

	authRoutes.GET("/approvals/pending", approvalHandler.ListPending)
	authRoutes.GET("/approvals/:id", approvalHandler.Get)
	authRoutes.POST("/approvals/:id/approve", approvalHandler.Approve)
	authRoutes.POST("/approvals/:id/reject", approvalHandler.Reject)

	server.Engine = router

	return server, nil
}
