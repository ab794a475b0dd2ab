package main

import (
	"plantkeeper/internal/core"

	"github.com/spf13/cobra"
)

var (
	diagnosePlantID string
	diagnoseContext string
)

var identifyCmd = &cobra.Command{
	Use:   "identify <image>",
	Short: "Identify the plant in a photo",
	Long: `Sends the photo to the AI gateway, normalizes the answer into a complete
identification record and saves it to your collection.`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

var diagnoseCmd = &cobra.Command{
	Use:     "diagnose <image>",
	Aliases: []string{"health"},
	Short:   "Diagnose plant health from a photo",
	Long: `Analyzes the photo for disease, pests, nutrient problems and watering
issues, then saves the health record. Use --plant to attach the record to a
garden plant and --context to pass your own observations to the model.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVarP(&diagnosePlantID, "plant", "p", "", "Garden plant ID the diagnosis belongs to")
	diagnoseCmd.Flags().StringVar(&diagnoseContext, "context", "", "Notes for the model (symptoms, recent changes)")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	app, ctx, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := app.IdentifyPlant(ctx, args[0])
	if err != nil {
		return writeFailed("identify", err)
	}
	return printRecord(cmd.OutOrStdout(), p, func() string { return identificationMarkdown(p) })
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	app, ctx, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	h, err := app.AnalyzeHealth(ctx, args[0], core.HealthRequest{
		PlantID: diagnosePlantID,
		Context: diagnoseContext,
	})
	if err != nil {
		return writeFailed("diagnose", err)
	}
	return printRecord(cmd.OutOrStdout(), h, func() string { return healthMarkdown(h) })
}
