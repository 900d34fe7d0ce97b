package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbodonnell/planetwars/pkg/client"
	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/cbodonnell/planetwars/pkg/version"
)

// Usage: client -key <key> [-server ws://host:port] [-name bot] [bot command...]
// Without a bot command the built-in simple bot plays.
func main() {
	serverURL := flag.String("server", client.DefaultServerURL, "Websocket URL of the game server")
	key := flag.Uint64("key", 0, "Join key handed out by the lobby")
	name := flag.String("name", "bot", "Name shown to other players")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetDefaultLogger(log.New(os.Stderr, "", log.DefaultLoggerFlag, parsedLogLevel))

	if *key == 0 {
		fmt.Fprintln(os.Stderr, "a join key is required")
		flag.Usage()
		os.Exit(2)
	}

	log.Info("Starting client version %s", version.Get())
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var bot client.Bot = client.SimpleBot{}
	if args := flag.Args(); len(args) > 0 {
		processBot, err := client.NewProcessBot(ctx, args[0], args[1:]...)
		if err != nil {
			log.Error("Failed to start bot: %v", err)
			os.Exit(1)
		}
		bot = processBot
	}
	defer bot.Close()

	c := client.NewWSClient(client.NewWSClientOptions{
		ServerURL: *serverURL,
		Key:       *key,
		Name:      *name,
		Bot:       bot,
	})
	if err := c.Connect(ctx); err != nil {
		log.Error("Failed to connect: %v", err)
		os.Exit(1)
	}

	final, err := c.Run(ctx)
	if err != nil {
		log.Error("Game ended early: %v", err)
		os.Exit(1)
	}

	// the final state goes to stdout for scripts driving the client
	if err := json.NewEncoder(os.Stdout).Encode(final); err != nil {
		log.Error("Failed to write final state: %v", err)
	}
}
