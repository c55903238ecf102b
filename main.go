// Command salesintel loads a deal table, scores the pipeline and answers
// executive questions about it over HTTP, MCP stdio or a one-shot CLI.
//
// Usage:
//
//	salesintel                      # HTTP API on config addr
//	salesintel -q "win rate?"       # answer one question as JSON
//	salesintel -mcp                 # MCP tools over stdio
//	salesintel -export risk.parquet # write scored deals and exit
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mark3labs/mcp-go/server"

	"salesintel/config"
	"salesintel/dataset"
	"salesintel/export"
	"salesintel/guardrails"
	"salesintel/insights"
	"salesintel/logger"
	"salesintel/mcptool"
	"salesintel/middleware"
	"salesintel/models"
	"salesintel/narrative"
	"salesintel/routes"
)

func main() {
	query := flag.String("q", "", "answer one question, print the JSON response and exit")
	mcpMode := flag.Bool("mcp", false, "serve the MCP tools over stdio")
	exportDest := flag.String("export", "", "write scored deals as parquet to a path or s3:// URI and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("invalid configuration")
	}

	// stdout belongs to the response in CLI and MCP modes
	var out io.Writer = os.Stdout
	if *mcpMode || *query != "" {
		out = os.Stderr
	}
	log := logger.Configure(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, Output: out}).WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var s3Client *s3.Client
	if strings.HasPrefix(cfg.DataSource, "s3://") || strings.HasPrefix(*exportDest, "s3://") {
		s3Client, err = dataset.NewS3Client(ctx, dataset.S3Options{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			log.WithError(err).Fatal("cannot create s3 client")
		}
	}

	opener := dataset.SourceOpener{}
	if s3Client != nil {
		opener.S3 = s3Client
	}

	// Build the session; any failure aborts startup
	session, err := insights.Build(ctx, dataset.NewLoader(opener), cfg.DataSource)
	if err != nil {
		log.WithError(err).Fatal("cannot build insights session")
	}

	composer, closeGen := newComposer(ctx, cfg, log)
	defer closeGen()

	engine := insights.NewEngine(session, composer)
	insights.SetCurrent(engine)

	switch {
	case *exportDest != "":
		var putter export.ObjectPutter
		if s3Client != nil {
			putter = s3Client
		}
		data, err := export.RiskParquet(session.Scored)
		if err != nil {
			log.WithError(err).Fatal("cannot build risk export")
		}
		if err := export.Save(ctx, putter, *exportDest, data); err != nil {
			log.WithError(err).Fatal("cannot save risk export")
		}

	case *query != "":
		os.Exit(answerOnce(ctx, engine, *query))

	case *mcpMode:
		if err := server.ServeStdio(mcptool.NewServer(insights.Current)); err != nil {
			log.WithError(err).Fatal("mcp server stopped")
		}

	default:
		serveHTTP(ctx, cfg, log)
	}
}

func newComposer(ctx context.Context, cfg *config.Config, log *logger.Entry) (*narrative.Composer, func()) {
	opts := []narrative.Option{
		narrative.WithTimeout(time.Duration(cfg.NarrativeTimeoutMS) * time.Millisecond),
		narrative.WithRateLimit(cfg.NarrativeRPS, cfg.NarrativeBurst),
	}
	if !cfg.DelegationEnabled() {
		log.WithFields(logger.Fields{"narrative_mode": cfg.NarrativeMode}).Info("narratives use deterministic templates")
		return narrative.NewComposer(opts...), func() {}
	}

	gen, err := narrative.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.WithError(err).Warn("gemini unavailable, narratives use deterministic templates")
		return narrative.NewComposer(opts...), func() {}
	}
	log.WithFields(logger.Fields{"model": cfg.GeminiModel}).Info("narratives delegated to gemini")

	opts = append(opts, narrative.WithGenerator(gen))
	return narrative.NewComposer(opts...), func() { _ = gen.Close() }
}

func answerOnce(ctx context.Context, engine *insights.Engine, q string) int {
	resp, err := engine.Ask(ctx, q)
	if errors.Is(err, models.ErrUnrecognizedIntent) {
		fmt.Fprintln(os.Stderr, "This question is outside the supported scope. Try one of:")
		for _, s := range guardrails.Suggestions() {
			fmt.Fprintf(os.Stderr, "  - %s\n", s)
		}
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func serveHTTP(ctx context.Context, cfg *config.Config, log *logger.Entry) {
	middleware.JWTSecret = []byte(cfg.JWTSecret)

	app := fiber.New(fiber.Config{
		AppName:               "salesintel",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	routes.SetupRoutes(app, routes.Options{AuthEnabled: cfg.JWTSecret != ""})

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.WithError(err).Warn("http shutdown")
		}
	}()

	log.WithFields(logger.Fields{"addr": cfg.Addr, "auth": cfg.JWTSecret != ""}).Info("http server listening")
	if err := app.Listen(cfg.Addr); err != nil {
		log.WithError(err).Fatal("http server stopped")
	}
}
