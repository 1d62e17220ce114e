// Command corenetd is the node bootstrap: it wires a scheduler core
// (pkg/actor), its ambient collaborators (timer, harbor, admin
// surface), loads any built-in modules via blank import, launches the
// configured bootstrap module, and waits for a shutdown signal — the
// same signal.Notify/context.WithTimeout shape as the teacher's
// cmd/main.go and cmd/enterprise/main.go.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fluxorio/corenet/pkg/actor"
	"github.com/fluxorio/corenet/pkg/admin"
	"github.com/fluxorio/corenet/pkg/corelog"
	"github.com/fluxorio/corenet/pkg/harbor"
	"github.com/fluxorio/corenet/pkg/timersvc"

	_ "github.com/fluxorio/corenet/pkg/modules/dbstat"
	_ "github.com/fluxorio/corenet/pkg/modules/echo"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	nodeID := flag.Int("node-id", -1, "local node id (0-255); overrides config")
	workers := flag.Int("workers", -1, "worker pool size; overrides config")
	bootstrapModule := flag.String("bootstrap", "", "module to launch at startup; overrides config")
	bootstrapParam := flag.String("bootstrap-param", "", "param passed to the bootstrap module")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("corenetd: loading config: %v", err)
	}
	if *nodeID >= 0 {
		cfg.NodeID = uint8(*nodeID)
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *bootstrapModule != "" {
		cfg.Bootstrap.Module = *bootstrapModule
		cfg.Bootstrap.Param = *bootstrapParam
	}

	logger := corelog.New(corelog.Config{JSONOutput: cfg.LogJSON})

	shutdownTracing, err := setupTracing(cfg)
	if err != nil {
		log.Fatalf("corenetd: setting up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	node := actor.New(actor.Config{
		LocalNodeID:    cfg.NodeID,
		Workers:        cfg.Workers,
		ProfileEnabled: cfg.Profile,
		Logger:         logger,
		Registerer:     prometheus.DefaultRegisterer,
	})
	node.SetTimer(timersvc.New())

	if cfg.Cluster.Enabled {
		cluster, err := harbor.NewCluster(node, harbor.ClusterConfig{
			URL:    cfg.Cluster.NATSURL,
			Prefix: cfg.Cluster.Prefix,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("corenetd: connecting cluster harbor: %v", err)
		}
		node.SetHarbor(cluster)
		defer cluster.Close()
	} else {
		node.SetHarbor(harbor.NewLocal())
	}

	node.Start()
	defer node.Stop()

	adminServer := admin.New(node, admin.Config{
		Addr:        cfg.AdminAddr,
		MetricsAddr: cfg.MetricsAddr,
		JWTSecret:   cfg.JWTSecret,
		Logger:      logger,
	})
	adminServer.Start()

	if cfg.Bootstrap.Module != "" {
		ctx, err := node.Launch(cfg.Bootstrap.Module, cfg.Bootstrap.Param)
		if err != nil {
			log.Fatalf("corenetd: launching bootstrap module %q: %v", cfg.Bootstrap.Module, err)
		}
		logger.Infof("bootstrap module %q launched as %s", cfg.Bootstrap.Module, ctx.Handle())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info("corenetd: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	adminServer.Stop(shutdownCtx)
	node.Abort()
}
