package cli

import (
	"context"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Lyadalachanchu/voice4evs/config"
	"github.com/Lyadalachanchu/voice4evs/pkg/simulator"
)

type SimulateHandler struct {
	c *config.Config
}

func newSimulateHandler(c *config.Config) *SimulateHandler {
	return &SimulateHandler{c: c}
}

// Simulate runs one simulated charge point until interrupted.
func (h *SimulateHandler) Simulate(cmd *cobra.Command, args []string) {
	cfg := simulator.DefaultConfig()
	if len(args) > 0 {
		cfg.ServerURL = args[0]
	}
	if len(args) > 1 {
		cfg.DeviceID = args[1]
	}
	if h.c.HeartbeatInterval > 0 {
		cfg.HeartbeatInterval = time.Duration(h.c.HeartbeatInterval) * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quitCh := make(chan os.Signal, 1)
		signal.Notify(quitCh, os.Interrupt)
		<-quitCh
		cancel()
	}()

	if err := simulator.New(cfg).Run(ctx); err != nil && err != context.Canceled {
		log.Error("simulator exited: ", err)
		os.Exit(1)
	}
}
