package core

import (
	"context"
	"fmt"
	"strings"

	"plantkeeper/internal/logging"
	"plantkeeper/internal/types"
)

// GardenOptions are the user-editable fields of a garden plant.
type GardenOptions struct {
	Nickname string
	Location string
	Notes    string
}

// GardenUpdate changes the non-nil fields of a garden plant.
type GardenUpdate struct {
	Nickname *string
	Location *string
	Notes    *string
}

// AddToGarden adds the plant from an existing identification to the garden.
func (a *App) AddToGarden(ctx context.Context, identificationID string, opts GardenOptions) (types.UserPlant, error) {
	ident, ok := a.Store.Identifications.Get(ctx, identificationID)
	if !ok {
		return types.UserPlant{}, fmt.Errorf("identification %s: %w", identificationID, ErrNotFound)
	}

	nickname := strings.TrimSpace(opts.Nickname)
	if nickname == "" {
		nickname = ident.PlantName
	}
	p := types.UserPlant{
		ID:               a.nextID(),
		IdentificationID: ident.ID,
		Nickname:         nickname,
		Location:         strings.TrimSpace(opts.Location),
		Notes:            strings.TrimSpace(opts.Notes),
		DateAdded:        a.now().UTC(),
	}
	saved, err := a.Store.Garden.Save(ctx, p)
	if err != nil {
		return types.UserPlant{}, err
	}
	logging.Core("added %q to garden as %s", saved.Nickname, saved.ID)
	return saved, nil
}

// RemoveFromGarden deletes a garden plant.
func (a *App) RemoveFromGarden(ctx context.Context, plantID string) error {
	return a.Store.Garden.Remove(ctx, plantID)
}

// UpdateGardenPlant applies u to the garden plant and saves it.
func (a *App) UpdateGardenPlant(ctx context.Context, plantID string, u GardenUpdate) (types.UserPlant, error) {
	p, err := a.gardenPlant(ctx, plantID)
	if err != nil {
		return types.UserPlant{}, err
	}
	if u.Nickname != nil {
		p.Nickname = strings.TrimSpace(*u.Nickname)
	}
	if u.Location != nil {
		p.Location = strings.TrimSpace(*u.Location)
	}
	if u.Notes != nil {
		p.Notes = strings.TrimSpace(*u.Notes)
	}
	return a.Store.Garden.Save(ctx, p)
}

// WaterPlant records a watering now.
func (a *App) WaterPlant(ctx context.Context, plantID string) (types.UserPlant, error) {
	p, err := a.gardenPlant(ctx, plantID)
	if err != nil {
		return types.UserPlant{}, err
	}
	now := a.now().UTC()
	p.LastWatered = &now
	saved, err := a.Store.Garden.Save(ctx, p)
	if err != nil {
		return types.UserPlant{}, err
	}
	logging.Core("watered %s", plantID)
	return saved, nil
}

func (a *App) gardenPlant(ctx context.Context, plantID string) (types.UserPlant, error) {
	p, ok := a.Store.Garden.Get(ctx, plantID)
	if !ok {
		return types.UserPlant{}, fmt.Errorf("garden plant %s: %w", plantID, ErrNotFound)
	}
	return p, nil
}

// Garden lists garden plants, newest first.
func (a *App) Garden(ctx context.Context) []types.UserPlant {
	return a.Store.Garden.List(ctx)
}

// Identifications lists identification history, newest first.
func (a *App) Identifications(ctx context.Context) []types.PlantIdentification {
	return a.Store.Identifications.List(ctx)
}

// Identification looks up one identification.
func (a *App) Identification(ctx context.Context, id string) (types.PlantIdentification, bool) {
	return a.Store.Identifications.Get(ctx, id)
}

// HealthRecords lists health analyses, newest first.
func (a *App) HealthRecords(ctx context.Context) []types.PlantHealth {
	return a.Store.HealthRecords.List(ctx)
}

// HealthFor lists the health analyses of one garden plant.
func (a *App) HealthFor(ctx context.Context, plantID string) []types.PlantHealth {
	return a.Store.HealthFor(ctx, plantID)
}
