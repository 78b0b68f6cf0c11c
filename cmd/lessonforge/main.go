// Package main is the lessonforge CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/lessonforge/internal/cli"
	"github.com/hyperjump/lessonforge/internal/completion"
	"github.com/hyperjump/lessonforge/internal/config"
	"github.com/hyperjump/lessonforge/internal/content"
	"github.com/hyperjump/lessonforge/internal/extract"
	"github.com/hyperjump/lessonforge/internal/models"
	"github.com/hyperjump/lessonforge/internal/pipeline"
	"github.com/hyperjump/lessonforge/internal/prompt"
	"github.com/hyperjump/lessonforge/internal/server"
	"github.com/hyperjump/lessonforge/internal/storage"
	"github.com/hyperjump/lessonforge/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/lessonforge/config.yaml"
	defaultServerURL  = "http://localhost:5000"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "generate":
		runGenerate()
	case "lessons":
		runLessons()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("lessonforge version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("content_backend", cfg.Content.Backend),
		zap.String("completion_provider", cfg.Completion.Provider),
	)

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Orchestrator, components.Lessons, components.Content, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// argsReorder moves any flags (and their values) that appear after the
// positional arguments to the front so that flag.Parse() sees them. The flag
// package stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func printGenerateUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: lessonforge generate [flags] <teacher-guide.pdf> <student-book.pdf> <scheme.pdf>\n\n")
	fs.PrintDefaults()
}

func runGenerate() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = run the pipeline in this process)")
	title := fs.String("title", "", "lesson title")
	email := fs.String("email", "", "teacher email (lesson owner)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printGenerateUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() != len(models.Fields) || strings.TrimSpace(*title) == "" || strings.TrimSpace(*email) == "" {
		printGenerateUsage(fs)
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)
	paths := fs.Args()

	var resp *models.GenerateResponse
	if *serverURL != "" {
		var err error
		resp, err = generateViaHTTP(*serverURL, *title, *email, paths)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Generate failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		req, err := requestFromFiles(*title, *email, paths)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		components, err := initializeComponents(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		res, err := components.Orchestrator.Run(ctx, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Generate failed: %v\n", err)
			os.Exit(1)
		}
		resp = res.Response()
	}
	if err := cli.WriteGenerateResult(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// requestFromFiles reads the three source files given in Fields order.
func requestFromFiles(title, email string, paths []string) (*models.GenerateRequest, error) {
	docs := make([]*models.UploadedDocument, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", models.Fields[i], err)
		}
		docs[i] = &models.UploadedDocument{Field: models.Fields[i], Filename: filepath.Base(p), Content: data}
	}
	return &models.GenerateRequest{
		Title:        title,
		Owner:        email,
		TeacherGuide: docs[0],
		StudentBook:  docs[1],
		Scheme:       docs[2],
	}, nil
}

// apiError is the error body returned by the server.
type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Stage string `json:"stage"`
}

func responseError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	var e apiError
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		if e.Kind != "" {
			return fmt.Errorf("server returned %d: %s error while %s: %s", resp.StatusCode, e.Kind, e.Stage, e.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

func generateViaHTTP(serverURL, title, email string, paths []string) (*models.GenerateResponse, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	_ = w.WriteField("title", title)
	_ = w.WriteField("teacherEmail", email)
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", models.Fields[i], err)
		}
		part, err := w.CreateFormFile(string(models.Fields[i]), filepath.Base(p))
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/generate-documents", w.FormDataContentType(), body)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}
	var out models.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func runLessons() {
	fs := flag.NewFlagSet("lessons", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read storage directly)")
	email := fs.String("email", "", "teacher email (lesson owner)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(os.Stderr, "Usage: lessonforge lessons --email <teacher email> [flags]")
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	var lessons []*models.LessonRecord
	if *serverURL != "" {
		var err error
		lessons, err = lessonsViaHTTP(*serverURL, *email)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Listing lessons failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		store, err := storage.Open(cfg.Storage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		lessons, err = store.ListLessons(context.Background(), *email)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Listing lessons failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteLessons(os.Stdout, lessons, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func lessonsViaHTTP(serverURL, email string) ([]*models.LessonRecord, error) {
	u := strings.TrimRight(serverURL, "/") + "/api/lessons?" + url.Values{"email": {email}}.Encode()
	resp, err := http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}
	var lessons []*models.LessonRecord
	if err := json.NewDecoder(resp.Body).Decode(&lessons); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return lessons, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	var status map[string]any
	if *serverURL != "" {
		var err error
		status, err = statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		status, err = directStatus(context.Background(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// directStatus builds the status document from storage without a running server.
// Numbers are float64 so the shape matches a decoded server response.
func directStatus(ctx context.Context, cfg *config.Config) (map[string]any, error) {
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	count, err := store.CountLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("count lessons: %w", err)
	}
	status := map[string]any{
		"lessons": float64(count),
		"config": map[string]any{
			"storage_driver":      cfg.Storage.Driver,
			"content_backend":     cfg.Content.Backend,
			"completion_provider": cfg.Completion.Provider,
			"completion_model":    cfg.Completion.Model,
		},
	}
	if cfg.Content.Backend == "local" {
		local, err := content.NewLocalStore(cfg.Content.Directory, cfg.Content.StaticPrefix)
		if err == nil {
			if files, size, err := local.Usage(); err == nil {
				status["content_files"] = float64(files)
				status["disk_usage_bytes"] = float64(size)
			}
		}
	}
	return status, nil
}

func statusViaHTTP(serverURL string) (map[string]any, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}
	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return status, nil
}

// Components holds the long-lived dependencies shared by the server and CLI.
type Components struct {
	Lessons      storage.LessonStore
	Content      content.Store
	Completion   completion.Client
	Orchestrator *pipeline.Orchestrator
	closers      []func() error
}

func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	lessons, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Lessons = lessons
	c.closers = append(c.closers, lessons.Close)

	switch cfg.Content.Backend {
	case "gcs":
		gcs, err := content.NewGCSStore(ctx, cfg.Content.Bucket, cfg.Content.PublicBaseURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize content store: %w", err)
		}
		c.Content = gcs
		c.closers = append(c.closers, gcs.Close)
	default:
		local, err := content.NewLocalStore(cfg.Content.Directory, cfg.Content.StaticPrefix)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize content store: %w", err)
		}
		c.Content = local
	}

	client, err := newCompletionClient(cfg.Completion, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	c.Completion = client
	if logger != nil {
		logger.Info("completion client initialized",
			zap.String("provider", cfg.Completion.Provider),
			zap.String("model", cfg.Completion.Model))
	}

	c.Orchestrator = pipeline.NewOrchestrator(
		extract.NewExtractor(),
		prompt.NewComposer(cfg.Prompt.MaxChars),
		client,
		c.Content,
		lessons,
		pipeline.Options{MaxAttempts: cfg.Completion.MaxAttempts},
		logger,
	)
	return c, nil
}

func newCompletionClient(cfg config.CompletionConfig, logger *zap.Logger) (completion.Client, error) {
	switch cfg.Provider {
	case "mock":
		return completion.NewMock(""), nil
	case "openai", "":
		client, err := completion.NewOpenAIClient(completion.Settings{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		}, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}

func printUsage() {
	fmt.Println(`lessonforge - Generate lesson plans, notes, assignments and daily records from course PDFs

Usage:
  lessonforge server [flags]                                  Start the HTTP server
  lessonforge generate [flags] <guide.pdf> <book.pdf> <scheme.pdf>   Generate a lesson
  lessonforge lessons --email <email> [flags]                 List a teacher's lessons (newest first)
  lessonforge status [flags]                                  Show storage and content status
  lessonforge version                                         Show version
  lessonforge help                                            Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/lessonforge/config.yaml)
  --debug            Enable debug logging

Generate Flags:
  --title string     Lesson title (required)
  --email string     Teacher email, the lesson owner (required)
  --server string    Server URL (default: http://localhost:5000). Use empty (--server "") to run in this process.
  --config string    Config file path (for in-process mode)
  --output string    Output format: text or json (default: text)

Lessons Flags:
  --email string     Teacher email (required)
  --server string    Server URL (default: http://localhost:5000). Use empty (--server "") for direct storage.
  --config string    Config file path (for direct storage mode)
  --output string    Output format: text or json (default: text)

Status Flags:
  --server string    Server URL (default: http://localhost:5000). Use empty (--server "") for direct storage.
  --config string    Config file path (for direct storage mode)
  --output string    Output format: text or json (default: text)

Examples:
  lessonforge server
  lessonforge generate --title "Fractions" --email teacher@school.test guide.pdf book.pdf scheme.pdf
  lessonforge generate --server "" --title "Fractions" --email teacher@school.test guide.pdf book.pdf scheme.pdf
  lessonforge lessons --email teacher@school.test --output json
  lessonforge status`)
}
