package server

import (
	"net/http"

	"grocery/internal/config"
	"grocery/internal/handler"
	"grocery/internal/infra/db"
	infraRepo "grocery/internal/infra/repository"
	"grocery/internal/infra/token"
	"grocery/internal/usecase"
	"grocery/internal/usecase/auth"
	"grocery/internal/validator"

	"github.com/labstack/echo/v4"
)

func registerRoutes(e *echo.Echo, cfg config.Config, deps Deps) {
	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(deps.DB)
	productRepo := infraRepo.NewProductGormRepository(deps.DB)
	orderRepo := infraRepo.NewOrderGormRepository(deps.DB)
	auditRepo := infraRepo.NewAuditLogGormRepository(deps.DB)
	listRepo := infraRepo.NewListGormRepository(deps.DB)
	itemRepo := infraRepo.NewItemGormRepository(deps.DB)
	txm := infraRepo.NewTxManagerGorm(deps.DB)

	issuer := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	authMW := handler.Auth{Parser: issuer, Users: userRepo}

	//usecase生成
	authValidator := validator.NewAuthValidator(userRepo)
	clock := auth.SystemClock{}
	registerUC := auth.NewRegisterUserUsecase(userRepo, authValidator, auth.NewBcryptPasswordHasher(cfg.BcryptCost), issuer, clock)
	loginUC := auth.NewLoginUsecase(userRepo, authValidator, auth.NewBcryptPasswordVerifier(), issuer, clock)
	sessionUC := auth.NewSessionUsecase(userRepo)

	productUC := usecase.NewProductUsecase(productRepo, txm, deps.Cache)
	cartUC := usecase.NewCartUsecase(txm)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, deps.Cache, cfg.CheckoutMaxAttempts)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, deps.Cache, cfg.StrictOrderStatus)
	groceryUC := usecase.NewGroceryUsecase(listRepo, itemRepo)
	auditUC := usecase.NewAuditUsecase(auditRepo)

	//Handler登録
	handler.NewAuthHandler(registerUC, loginUC, sessionUC).RegisterRoutes(e, authMW)
	handler.NewProductHandler(productUC).RegisterRoutes(e, authMW)
	handler.NewCartHandler(cartUC).RegisterRoutes(e, authMW)
	handler.NewOrderHandler(orderUC).RegisterRoutes(e, authMW)
	handler.NewAdminOrderHandler(adminOrderUC).RegisterRoutes(e, authMW)
	handler.NewGroceryHandler(groceryUC).RegisterRoutes(e, authMW)
	handler.NewAdminAuditHandler(auditUC).RegisterRoutes(e, authMW)

	e.GET("/healthz", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), deps.DB); err != nil {
			return c.JSON(http.StatusServiceUnavailable, handler.ErrorResponse{Error: "db unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
