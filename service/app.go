package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"inkpress/app/auth"
	"inkpress/app/blobstore"
	"inkpress/app/config"
	"inkpress/app/controllers"
	"inkpress/app/logger"
	"inkpress/app/policy"
	"inkpress/app/repositories"
	"inkpress/app/routes"
	"inkpress/app/services"

	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 10 * time.Second

// App is the fully wired blog service.
type App struct {
	Repo    *repositories.Repository
	Blobs   blobstore.Store
	Handler http.Handler
	log     *logger.Logger
}

// NewApp opens the database and blob store named by cfg and builds the router.
func NewApp(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	repo, err := repositories.Open(cfg.DBPath, log)
	if err != nil {
		return nil, err
	}

	blobs, err := openBlobStore(ctx, cfg, repo)
	if err != nil {
		repo.Close()
		return nil, err
	}

	provider, err := auth.NewProvider(auth.Config{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
		Issuer:     "inkpress",
	}, repo.Users)
	if err != nil {
		repo.Close()
		return nil, err
	}

	gate := policy.OwnerPolicy{}
	postService := services.NewPostService(repo.Posts, blobs, gate, log, cfg.MaxImageBytes)
	commentService := services.NewCommentService(repo.Comments, gate, log)
	engagement := services.NewEngagementService(repo.Posts, repo.Comments)
	accounts := services.NewAccountService(provider, repo.Users, log)

	router := routes.SetupRoutes(routes.Deps{
		Posts:    controllers.NewPostController(postService, commentService, engagement, log, cfg.MaxImageBytes),
		Comments: controllers.NewCommentController(commentService, engagement, log),
		Auth:     controllers.NewAuthController(accounts, log),
		Images:   controllers.NewImageController(blobs, log),
		Verifier: provider,
		Log:      log,
	})

	return &App{Repo: repo, Blobs: blobs, Handler: router, log: log}, nil
}

func (a *App) Close() error {
	return a.Repo.Close()
}

func openBlobStore(ctx context.Context, cfg config.Config, repo *repositories.Repository) (blobstore.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendMemory:
		return blobstore.NewMemory(), nil
	case config.BlobBackendMinio:
		store, err := blobstore.DialMinio(ctx, blobstore.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to minio: %v", err)
		}
		return store, nil
	default:
		return blobstore.NewBadger(repo.DB()), nil
	}
}

// RunServer serves handler on ln until ctx is cancelled, then shuts down
// gracefully.
func RunServer(ctx context.Context, ln net.Listener, handler http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// RunAppServer starts the blog service and blocks until SIGINT or SIGTERM.
func RunAppServer(args []string) int {
	addr := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "--addr" && i+1 < len(args) {
			addr = args[i+1]
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to start blog service", "error", err)
		return 1
	}
	defer app.Close()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Error("Failed to listen", "addr", cfg.Addr, "error", err)
		return 1
	}

	log.Info("Starting blog service", "addr", cfg.Addr, "db", cfg.DBPath, "blobs", cfg.BlobBackend)
	if err := RunServer(ctx, ln, app.Handler, log); err != nil {
		log.Error("Blog service stopped", "error", err)
		return 1
	}
	log.Info("Blog service stopped")
	return 0
}
