package main

import (
	"flag"

	"github.com/Garsondee/jab/internal/config"
	"github.com/Garsondee/jab/internal/logging"
	"github.com/Garsondee/jab/internal/screen"
	"github.com/Garsondee/jab/internal/session"
	"github.com/Garsondee/jab/internal/storage"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file with JAB_* settings")
	flag.Parse()

	settings, err := config.Load(*envFile)
	if err != nil {
		logging.Fatal("Invalid configuration", err, logging.Fields{"env_file": *envFile})
	}

	s, closeFn := session.Open(settings, storage.SourceGUI)
	defer closeFn()

	g := screen.New(s)
	w, h := g.Layout(0, 0)
	ebiten.SetWindowTitle("I Jab At Thee")
	ebiten.SetWindowSize(w, h)
	ebiten.SetTPS(settings.Tuning.TicksPerSecond)
	if err := ebiten.RunGame(g); err != nil {
		closeFn()
		logging.Fatal("Game loop failed", err, nil)
	}
}
