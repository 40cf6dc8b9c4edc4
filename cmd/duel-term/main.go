package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Garsondee/jab/internal/config"
	"github.com/Garsondee/jab/internal/logging"
	"github.com/Garsondee/jab/internal/session"
	"github.com/Garsondee/jab/internal/storage"
	"github.com/Garsondee/jab/internal/term"
	"github.com/gdamore/tcell/v2"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file with JAB_* settings")
	logFile := flag.String("log", "duel-term.log", "process log file; the terminal is taken by the game")
	flag.Parse()

	if f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	settings, err := config.Load(*envFile)
	if err != nil {
		logging.Fatal("Invalid configuration", err, logging.Fields{"env_file": *envFile})
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		logging.Fatal("Failed to create terminal screen", err, nil)
	}
	if err := screen.Init(); err != nil {
		logging.Fatal("Failed to initialize terminal screen", err, nil)
	}

	s, closeFn := session.Open(settings, storage.SourceTerm)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runErr := term.New(screen, s).Run(ctx)
	stop()
	screen.Fini()
	closeFn()

	if runErr != nil {
		logging.Fatal("Game loop failed", runErr, nil)
	}
}
