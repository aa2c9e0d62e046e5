package engine

import (
	"fmt"

	"github.com/mmr-tortoise/cardpunch/internal/calibrate"
	"github.com/mmr-tortoise/cardpunch/internal/encoder"
	"github.com/mmr-tortoise/cardpunch/internal/machine"
	"github.com/mmr-tortoise/cardpunch/internal/model"
	"github.com/mmr-tortoise/cardpunch/internal/render"
)

// Engine runs the generate and calibrate pipelines against one registry.
type Engine struct {
	registry *machine.Registry
}

// New returns an Engine over the given registry.
func New(registry *machine.Registry) (*Engine, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, model.InvalidRequest("engine", "machines", "machine table is empty")
	}
	return &Engine{registry: registry}, nil
}

// Registry returns the registry the engine resolves against.
func (e *Engine) Registry() *machine.Registry {
	return e.registry
}

// Resolve looks up a machine profile.
func (e *Engine) Resolve(machineID string) (model.MachineProfile, error) {
	return e.registry.Resolve(machineID)
}

// Generate encodes the request payload and renders it.
func (e *Engine) Generate(req model.EncodingRequest) (*render.Document, error) {
	profile, err := e.registry.Resolve(req.MachineID)
	if err != nil {
		return nil, err
	}

	matrix, err := encoder.Encode(req.Payload, profile, req.VerticalRepeat, req.Blank)
	if err != nil {
		return nil, err
	}

	return render.Render(profile, matrix, req.VerticalRepeat, req.SolidFill)
}

// Calibrate renders the calibration pattern. An empty machineID selects
// the fixed reference card; otherwise the pattern is drawn on that
// machine's card.
func (e *Engine) Calibrate(machineID string) (*render.Document, error) {
	if machineID == "" {
		return calibrate.Calibrate(), nil
	}

	profile, err := e.registry.Resolve(machineID)
	if err != nil {
		return nil, err
	}
	return calibrate.ForMachine(profile)
}

// Estimate is the capacity calculator's answer for one payload size.
type Estimate struct {
	MachineID    string `json:"machineId"`
	Encoding     string `json:"encoding"`
	Bytes        int    `json:"bytes"`
	BytesPerCard int    `json:"bytesPerCard"`
	Cards        int    `json:"cards"`
}

// String returns a one-line summary such as "100 bytes on ibm-80: 2 cards".
func (est Estimate) String() string {
	unit := "cards"
	if est.Cards == 1 {
		unit = "card"
	}
	return fmt.Sprintf("%d bytes on %s: %d %s (%d bytes per card)", est.Bytes, est.MachineID, est.Cards, unit, est.BytesPerCard)
}

// Estimate reports how many cards a payload of the given length needs.
func (e *Engine) Estimate(machineID string, length int) (Estimate, error) {
	profile, err := e.registry.Resolve(machineID)
	if err != nil {
		return Estimate{}, err
	}

	perCard, err := encoder.BytesPerCard(profile)
	if err != nil {
		return Estimate{}, err
	}
	cards, err := encoder.CardsNeeded(length, profile)
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{
		MachineID:    profile.ID,
		Encoding:     profile.Encoding.String(),
		Bytes:        length,
		BytesPerCard: perCard,
		Cards:        cards,
	}, nil
}
