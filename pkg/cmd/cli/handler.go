package cli

import "github.com/Lyadalachanchu/voice4evs/config"

type Handler struct {
	Migration  *MigrateHandler
	Simulation *SimulateHandler
}

func NewHandler(c *config.Config) *Handler {
	return &Handler{
		Migration:  newMigrateHandler(c),
		Simulation: newSimulateHandler(c),
	}
}
