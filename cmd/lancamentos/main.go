// cmd/lancamentos/main.go
package main

import (
	"log"
	"os"

	"lancamentos-service/internal/api/handlers"
	"lancamentos-service/internal/api/responses"
	"lancamentos-service/internal/core/lancamentos"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Print("Arquivo .env não encontrado, prosseguindo com variáveis de ambiente")
	}

	responses.InitLogger()

	lancamentosService := lancamentos.NewService()
	lancamentosHandler := handlers.NewLancamentosHandler(lancamentosService)

	router := gin.Default()

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/convert/lancamentos-contabeis", lancamentosHandler.HandleLancamentosConversion)
		apiV1.POST("/convert/lancamentos-contabeis/xlsx", lancamentosHandler.HandleLancamentosXLSX)
		apiV1.POST("/convert/lancamentos-contabeis/preview", lancamentosHandler.HandleLancamentosPreview)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "lancamentos-service"})
	})

	port := os.Getenv("LANCAMENTOS_PORT")
	if port == "" {
		port = "8084"
	}
	log.Printf("🚀 Lançamentos Service (Go) iniciado e escutando na porta %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Falha ao iniciar o servidor de lançamentos: ", err)
	}
}
