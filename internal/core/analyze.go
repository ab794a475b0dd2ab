package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"plantkeeper/internal/logging"
	"plantkeeper/internal/normalize"
	"plantkeeper/internal/perception"
	"plantkeeper/internal/types"
)

// HealthRequest carries the optional inputs of a health analysis.
type HealthRequest struct {
	PlantID string // garden plant the analysis belongs to, if any
	Context string // grower notes forwarded to the model
}

// IdentifyPlant identifies the plant in the image at imagePath and saves the
// result. AI transport failures and backend write failures are returned;
// unparseable model output still yields a fully defaulted record.
func (a *App) IdentifyPlant(ctx context.Context, imagePath string) (types.PlantIdentification, error) {
	data, err := readImage(imagePath)
	if err != nil {
		return types.PlantIdentification{}, err
	}
	return a.IdentifyImage(ctx, data)
}

// IdentifyImage is IdentifyPlant for in-memory image bytes.
func (a *App) IdentifyImage(ctx context.Context, data []byte) (types.PlantIdentification, error) {
	if len(data) == 0 {
		return types.PlantIdentification{}, ErrNoImage
	}
	if a.analyzer == nil {
		return types.PlantIdentification{}, ErrAnalyzerUnavailable
	}
	a.identifying.Store(true)
	defer a.identifying.Store(false)
	timer := logging.StartTimer(logging.CategoryCore, "identify")
	defer timer.Stop()

	raw, err := a.analyzer.Identify(ctx, base64.StdEncoding.EncodeToString(data))
	if err != nil {
		logging.CoreError("identify: AI gateway failed: %v", err)
		return types.PlantIdentification{}, fmt.Errorf("plant identification failed: %w", err)
	}

	p := normalize.ParseIdentification(raw)
	p.ID = a.nextID()
	p.Timestamp = a.now().UTC()
	p.ImageURI = perception.DataURI(data)

	saved, err := a.Store.Identifications.Save(ctx, p)
	if err != nil {
		return types.PlantIdentification{}, err
	}
	logging.Core("identified %q (%s) with confidence %.2f", saved.PlantName, saved.ScientificName, saved.Confidence)
	return saved, nil
}

// AnalyzeHealth assesses the plant in the image at imagePath and saves the result.
func (a *App) AnalyzeHealth(ctx context.Context, imagePath string, req HealthRequest) (types.PlantHealth, error) {
	data, err := readImage(imagePath)
	if err != nil {
		return types.PlantHealth{}, err
	}
	return a.AnalyzeImage(ctx, data, req)
}

// AnalyzeImage is AnalyzeHealth for in-memory image bytes.
func (a *App) AnalyzeImage(ctx context.Context, data []byte, req HealthRequest) (types.PlantHealth, error) {
	if len(data) == 0 {
		return types.PlantHealth{}, ErrNoImage
	}
	if a.analyzer == nil {
		return types.PlantHealth{}, ErrAnalyzerUnavailable
	}
	a.analyzing.Store(true)
	defer a.analyzing.Store(false)
	timer := logging.StartTimer(logging.CategoryCore, "analyze_health")
	defer timer.Stop()

	raw, err := a.analyzer.AnalyzeHealth(ctx, base64.StdEncoding.EncodeToString(data), req.Context)
	if err != nil {
		logging.CoreError("analyze: AI gateway failed: %v", err)
		return types.PlantHealth{}, fmt.Errorf("health analysis failed: %w", err)
	}

	h := normalize.ParseHealth(raw)
	h.ID = a.nextID()
	h.PlantID = strings.TrimSpace(req.PlantID)
	h.Timestamp = a.now().UTC()
	h.ImageURI = perception.DataURI(data)

	saved, err := a.Store.HealthRecords.Save(ctx, h)
	if err != nil {
		return types.PlantHealth{}, err
	}
	logging.Core("health analysis %s: %s (%s)", saved.ID, saved.HealthStatus, saved.Severity)
	return saved, nil
}

func readImage(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoImage
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	return data, nil
}
