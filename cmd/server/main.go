package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbodonnell/planetwars/pkg/api"
	"github.com/cbodonnell/planetwars/pkg/api/handlers"
	"github.com/cbodonnell/planetwars/pkg/config"
	"github.com/cbodonnell/planetwars/pkg/game"
	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/cbodonnell/planetwars/pkg/network"
	"github.com/cbodonnell/planetwars/pkg/queue"
	"github.com/cbodonnell/planetwars/pkg/repositories"
	"github.com/cbodonnell/planetwars/pkg/version"
	"github.com/cbodonnell/planetwars/pkg/workers"
	"github.com/joho/godotenv"
)

func main() {
	envFile := flag.String("env-file", ".env", "Environment file to load if present")
	logLevel := flag.String("log-level", "", "Log level, overrides PLANETWARS_LOG_LEVEL")
	flag.Parse()

	// a missing env file is fine, the environment may already be set
	_ = godotenv.Load(*envFile)

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	parsedLogLevel, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repository, err := repositories.NewRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(context.Background())

	clientManager := network.NewClientManager(network.NewClientManagerOptions{
		InboundRate:  cfg.InboundRate,
		InboundBurst: cfg.InboundBurst,
	})
	outboundQueue := queue.NewInMemoryQueue(10000)
	resultChan := make(chan types.Summary, 100)

	gameManager := game.NewManager(ctx, game.NewManagerOptions{
		OutboundQueue: outboundQueue,
		Connections:   clientManager,
		ResultChan:    resultChan,
	})

	var networkTLS *network.TLSConfig
	var apiTLS *api.TLSConfig
	if cfg.TLSEnabled() {
		networkTLS = &network.TLSConfig{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile}
		apiTLS = &api.TLSConfig{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile}
	}

	networkManager := network.NewNetworkManager(network.NewNetworkManagerOptions{
		ClientManager: clientManager,
		Submitter:     gameManager,
		WSPort:        cfg.WSPort,
		WSServerTLS:   networkTLS,
	})
	networkManager.Start(ctx)

	serverMessageWorker := workers.NewServerMessageWorker(workers.NewServerMessageWorkerOptions{
		OutboundQueue: outboundQueue,
		Deliverer:     clientManager,
		Interval:      cfg.DeliveryInterval,
	})
	go serverMessageWorker.Start(ctx)

	saveResultWorker := workers.NewSaveResultWorker(workers.NewSaveResultWorkerOptions{
		Repository: repository,
		ResultChan: resultChan,
	})
	go saveResultWorker.Start(ctx)

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:       cfg.APIPort,
		TLS:        apiTLS,
		Lobby:      gameManager,
		Keys:       clientManager,
		Repository: repository,
		Games: handlers.LobbyOptions{
			MapsDir:        cfg.MapsDir,
			ReplayDir:      cfg.ReplayDir,
			CompressReplay: cfg.ReplayCompression,
			TurnTimeout:    cfg.TurnTimeout,
			MaxPlayers:     cfg.MaxPlayers,
		},
	})
	go apiServer.Start()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}

	// sessions close their controllers and flush replays on cancellation
	gameManager.Wait()
	log.Info("Server stopped")
}
