package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aashish23092/ocr-invoice-extraction/client"
	"github.com/Aashish23092/ocr-invoice-extraction/config"
	"github.com/Aashish23092/ocr-invoice-extraction/handler"
	"github.com/Aashish23092/ocr-invoice-extraction/service"
	"github.com/Aashish23092/ocr-invoice-extraction/utils/invoice"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// .env is optional; real environment variables win
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		config.NewLogger("info", os.Stderr).Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := config.NewLogger(cfg.LogLevel, os.Stdout)
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("no .env file loaded")
	}
	logger.Info().
		Str("tessdata", cfg.TesseractDataPath).
		Strs("engines", cfg.OCREngines).
		Str("heuristics", cfg.Heuristics.Version).
		Msg("configuration loaded")

	// Initialize OCR engines in fallback order
	var engines []client.Engine
	for _, name := range cfg.OCREngines {
		switch name {
		case "paddle":
			engines = append(engines, client.NewPaddleClient(cfg.PaddleAPIURL, cfg.PaddleTimeout, logger))
		case "tesseract":
			tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath, cfg.TesseractLanguages, cfg.OCRPoolSize, logger)
			defer tesseractClient.Close()
			engines = append(engines, tesseractClient)
		}
	}

	extractor, err := invoice.NewExtractor(cfg.Heuristics)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid heuristics")
	}

	// Initialize service layer
	invoiceService := service.NewInvoiceService(engines, service.NewPDFProcessor(), extractor, cfg.BatchConcurrency, logger)

	// Initialize handler layer
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, cfg.MaxFileSize, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(logger))

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", invoiceHandler.Health)

	// API routes
	api := router.Group("/api/v1")
	{
		invoices := api.Group("/invoices")
		{
			invoices.POST("/parse", invoiceHandler.ParseText)
			invoices.POST("/extract", invoiceHandler.Extract)
			invoices.POST("/extract/batch", invoiceHandler.Batch)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.ServerPort).Msg("Starting OCR Invoice Extraction Service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	waitForShutdown(srv, logger)
}

func waitForShutdown(srv *http.Server, logger zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
