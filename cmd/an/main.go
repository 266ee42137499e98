// Command an runs the Async Reconciliation Node: the bucket reconciliation
// engine, wired from configuration into an HTTP server and
// the long-running reconciliation loop.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/urfave/cli"

	"github.com/hdfgroup/hsds-an/ais"
	"github.com/hdfgroup/hsds-an/cluster"
	"github.com/hdfgroup/hsds-an/cmn"
	"github.com/hdfgroup/hsds-an/objstore"
)

func main() {
	app := cli.NewApp()
	app.Name = "an"
	app.Usage = "async reconciliation node for an HSDS bucket"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "path to a YAML config file overlaying defaults"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		glog.Fatalf("an: %v", err)
	}
}

func run(c *cli.Context) error {
	defer glog.Flush()

	cfg, err := cmn.LoadFile(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = cfg.ApplyEnv()

	if err := cfg.ValidateCredentials(); err != nil {
		glog.Fatalf("an: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := objstore.NewS3Client(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init object-store client: %w", err)
	}

	clusterClient := cluster.NewClient(cfg.HeadURL(), &http.Client{Timeout: cfg.StoreTimeout})

	node := ais.NewNode(cfg, store, store, clusterClient)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ANPort),
		Handler: node.Handler(),
	}

	go func() {
		glog.Infof("an: listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("an: listener failed: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := node.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("reconciliation loop: %w", err)
	}
	return nil
}
