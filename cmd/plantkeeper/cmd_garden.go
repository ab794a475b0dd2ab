package main

import (
	"fmt"

	"plantkeeper/internal/core"
	"plantkeeper/internal/types"

	"github.com/spf13/cobra"
)

var (
	gardenNickname string
	gardenLocation string
	gardenNotes    string
	listPlantID    string
)

var listCmd = &cobra.Command{
	Use:       "list [identifications|health|garden]",
	Short:     "List saved records",
	Long:      `Lists records for the active identity. Served from the local cache when the backend is unreachable.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"identifications", "health", "garden"},
	RunE:      runList,
}

// gardenCmd is the parent for garden plant management
var gardenCmd = &cobra.Command{
	Use:   "garden",
	Short: "Manage the plants in your garden",
}

var gardenAddCmd = &cobra.Command{
	Use:   "add <identification-id>",
	Short: "Add an identified plant to the garden",
	Args:  cobra.ExactArgs(1),
	RunE:  runGardenAdd,
}

var gardenRemoveCmd = &cobra.Command{
	Use:     "remove <plant-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a plant from the garden",
	Args:    cobra.ExactArgs(1),
	RunE:    runGardenRemove,
}

var gardenWaterCmd = &cobra.Command{
	Use:   "water <plant-id>",
	Short: "Record that a plant was watered now",
	Args:  cobra.ExactArgs(1),
	RunE:  runGardenWater,
}

var gardenUpdateCmd = &cobra.Command{
	Use:   "update <plant-id>",
	Short: "Change a garden plant's nickname, location or notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runGardenUpdate,
}

func init() {
	listCmd.Flags().StringVarP(&listPlantID, "plant", "p", "", "Only health records of this garden plant")

	for _, c := range []*cobra.Command{gardenAddCmd, gardenUpdateCmd} {
		c.Flags().StringVarP(&gardenNickname, "nickname", "n", "", "Display name")
		c.Flags().StringVarP(&gardenLocation, "location", "l", "", "Where the plant lives")
		c.Flags().StringVar(&gardenNotes, "notes", "", "Free-form notes")
	}

	gardenCmd.AddCommand(gardenAddCmd, gardenRemoveCmd, gardenWaterCmd, gardenUpdateCmd)
}

// listing is the --json shape of list without a kind argument.
type listing struct {
	Identifications []types.PlantIdentification `json:"identifications"`
	HealthRecords   []types.PlantHealth         `json:"healthRecords"`
	Garden          []types.UserPlant           `json:"garden"`
}

func runList(cmd *cobra.Command, args []string) error {
	app, ctx, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	kind := ""
	if len(args) == 1 {
		kind = args[0]
	}

	health := func() []types.PlantHealth {
		if listPlantID != "" {
			return app.HealthFor(ctx, listPlantID)
		}
		return app.HealthRecords(ctx)
	}

	switch kind {
	case "identifications":
		items := app.Identifications(ctx)
		if jsonOutput {
			return printJSON(out, items)
		}
		printIdentifications(out, items)
	case "health":
		items := health()
		if jsonOutput {
			return printJSON(out, items)
		}
		printHealthRecords(out, items)
	case "garden":
		items := app.Garden(ctx)
		if jsonOutput {
			return printJSON(out, items)
		}
		printGarden(out, items)
	default:
		all := listing{
			Identifications: app.Identifications(ctx),
			HealthRecords:   health(),
			Garden:          app.Garden(ctx),
		}
		if jsonOutput {
			return printJSON(out, all)
		}
		printIdentifications(out, all.Identifications)
		printHealthRecords(out, all.HealthRecords)
		printGarden(out, all.Garden)
	}
	return nil
}

func runGardenAdd(cmd *cobra.Command, args []string) error {
	app, ctx, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	plant, err := app.AddToGarden(ctx, args[0], core.GardenOptions{
		Nickname: gardenNickname,
		Location: gardenLocation,
		Notes:    gardenNotes,
	})
	if err != nil {
		return writeFailed("add to garden", err)
	}
	return printPlant(cmd, "Added", plant)
}

func runGardenRemove(cmd *cobra.Command, args []string) error {
	app, ctx, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := app.RemoveFromGarden(ctx, args[0]); err != nil {
		return writeFailed("remove from garden", err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{"id": args[0], "removed": true})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("Removed"), args[0])
	return nil
}

func runGardenWater(cmd *cobra.Command, args []string) error {
	app, ctx, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	plant, err := app.WaterPlant(ctx, args[0])
	if err != nil {
		return writeFailed("water", err)
	}
	return printPlant(cmd, "Watered", plant)
}

func runGardenUpdate(cmd *cobra.Command, args []string) error {
	var u core.GardenUpdate
	if cmd.Flags().Changed("nickname") {
		u.Nickname = &gardenNickname
	}
	if cmd.Flags().Changed("location") {
		u.Location = &gardenLocation
	}
	if cmd.Flags().Changed("notes") {
		u.Notes = &gardenNotes
	}
	if u.Nickname == nil && u.Location == nil && u.Notes == nil {
		return fmt.Errorf("nothing to update: pass --nickname, --location or --notes")
	}

	app, ctx, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	plant, err := app.UpdateGardenPlant(ctx, args[0], u)
	if err != nil {
		return writeFailed("update garden plant", err)
	}
	return printPlant(cmd, "Updated", plant)
}

func printPlant(cmd *cobra.Command, verb string, p types.UserPlant) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), p)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", okStyle.Render(verb), p.Nickname, idStyle.Render(p.ID))
	return nil
}
