package main

import (
	"bts/src/boot"
	"bts/src/common"
	"bts/src/config"
	"bts/src/middlewares"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
)

const apiPrefix string = "/api/v1"

var travelDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	return time.Now().Before(datetime)
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("traveldate", travelDateValidatorFunc)
	}
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	return g.Group(apiPrefix)
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "OK"})
	})
	return router
}

func setupLogs() {
	logsDir := os.Getenv("API_LOGS_DIR")
	if logsDir == "" {
		logsDir = "logs"
	}
	apiLogs := path.Join(logsDir, "api.log")
	serverLogs := path.Join(logsDir, "server.log")
	os.MkdirAll(logsDir, 0o755)

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			log.Printf("No .env file loaded: %s\n", err.Error())
		}
	}
	setupLogs()
	registerValidators()

	boot.InitDb()
	guard := common.NewNotificationGuard()
	boot.InitJobs(guard)

	router := setupRouter()
	if corsOrigin := os.Getenv("CORS_ORIGIN"); corsOrigin != "" {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = []string{corsOrigin}
		cc.AllowCredentials = true
		router.Use(cors.New(cc))
	} else {
		router.Use(cors.Default())
	}

	publicHandlers(router)
	notificationHandlers(router, guard)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	authorized = bookingHandlers(authorized)
	authorized = ticketHandlers(authorized)
	authorized = verificationHandlers(authorized)

	admin := router.Group(apiPrefix)
	admin.Use(middlewares.AuthMiddleware, middlewares.RequireRole("admin"))
	adminHandlers(admin)

	if err := router.Run(":9090"); err != nil {
		log.Fatalf("Error starting server: %s\n", err.Error())
	}
}
