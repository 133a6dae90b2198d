package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/sir_venger/portal_lite/internal/app/portalhttp"
	"github.com/sir_venger/portal_lite/internal/blob"
	"github.com/sir_venger/portal_lite/internal/config"
	"github.com/sir_venger/portal_lite/internal/repo/meta"
	"github.com/sir_venger/portal_lite/internal/repo/session"
	"github.com/sir_venger/portal_lite/internal/usecase/deletesvc"
	"github.com/sir_venger/portal_lite/internal/usecase/syncsvc"
	"github.com/sir_venger/portal_lite/internal/usecase/uploadsvc"
)

// main инициализирует портал и обеспечивает корректное завершение по сигналу.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()
	sugar := zlog.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, closeStores, err := buildHandler(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("portal init failed", "error", err)
	}
	defer closeStores()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler,
	}

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Warnw("portal shutdown error", "error", err)
		}
	}()

	sugar.Infow("portal listening", "addr", cfg.ListenAddr, "blob_driver", cfg.BlobDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("portal stopped", "error", err)
	}
}

// buildHandler собирает хранилища и сервисы по конфигурации.
func buildHandler(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (http.Handler, func(), error) {
	closers := make([]func(), 0, 2)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	blobs, closer, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	var metaStore meta.Store
	if strings.HasPrefix(cfg.MetaDSN, "memory://") {
		metaStore = meta.NewMemoryStore()
	} else {
		pg, err := meta.NewPGStore(ctx, cfg.MetaDSN)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, pg.Close)
		metaStore = pg
	}

	sessions := session.NewBlobStore(blobs)

	upload := uploadsvc.New(uploadsvc.Deps{
		Sessions: sessions,
		Blobs:    blobs,
		Meta:     metaStore,
		Log:      sugar,
	})
	sync := syncsvc.New(syncsvc.Deps{Blobs: blobs, Meta: metaStore, Log: sugar})
	deleter := deletesvc.New(deletesvc.Deps{Blobs: blobs, Meta: metaStore, Log: sugar})

	handler := portalhttp.NewServer(portalhttp.Deps{
		Upload: upload,
		Sync:   sync,
		Delete: deleter,
		Meta:   metaStore,
		Blobs:  blobs,
		Log:    sugar,
	})
	return handler, closeAll, nil
}

// buildBlobStore выбирает бэкенд объектного хранилища по драйверу из конфига.
func buildBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, func(), error) {
	switch cfg.BlobDriver {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			}
			o.UsePathStyle = cfg.S3.ForcePathStyle
		})
		return blob.NewS3Store(client, cfg.S3.Bucket), nil, nil
	case "badger":
		store, err := blob.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "memory":
		return blob.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}
