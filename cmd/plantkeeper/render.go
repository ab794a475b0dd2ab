package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"plantkeeper/internal/types"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	leafGreen   = lipgloss.Color("#8BC34A")
	alertRed    = lipgloss.Color("#e53935")
	warnYellow  = lipgloss.Color("#FFC107")
	mutedSlate  = lipgloss.Color("#7a8699")
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(leafGreen)
	idStyle     = lipgloss.NewStyle().Foreground(mutedSlate)
	okStyle     = lipgloss.NewStyle().Foreground(leafGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(warnYellow)
	badStyle    = lipgloss.NewStyle().Bold(true).Foreground(alertRed)
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecord writes v as JSON with --json, or renders markdown otherwise.
func printRecord(w io.Writer, v interface{}, markdown func() string) error {
	if jsonOutput {
		return printJSON(w, v)
	}
	_, err := fmt.Fprint(w, renderMarkdown(markdown()))
	return err
}

// renderMarkdown falls back to the raw text when no renderer is available.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func identificationMarkdown(p types.PlantIdentification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.PlantName)
	fmt.Fprintf(&b, "*%s* · %s · confidence %.0f%%\n\n", p.ScientificName, p.Family, p.Confidence*100)
	if len(p.CommonNames) > 0 {
		fmt.Fprintf(&b, "Also known as: %s\n\n", strings.Join(p.CommonNames, ", "))
	}
	fmt.Fprintf(&b, "%s\n\n", p.Description)

	b.WriteString("## Care\n\n")
	care := [][2]string{
		{"Watering", p.Care.Watering},
		{"Sunlight", p.Care.Sunlight},
		{"Soil", p.Care.Soil},
		{"Temperature", p.Care.Temperature},
		{"Humidity", p.Care.Humidity},
		{"Fertilizer", p.Care.Fertilizer},
	}
	for _, c := range care {
		fmt.Fprintf(&b, "- **%s:** %s\n", c[0], c[1])
	}

	b.WriteString("\n## Safety\n\n")
	if p.IsToxic {
		fmt.Fprintf(&b, "**Toxic.** %s\n\n", p.ToxicityInfo)
	} else {
		fmt.Fprintf(&b, "%s\n\n", p.ToxicityInfo)
	}
	if p.IsEdible {
		b.WriteString("Edible.\n\n")
	}
	bullets(&b, "Common pests", p.CommonPests)
	bullets(&b, "Common diseases", p.CommonDiseases)
	bullets(&b, "Fun facts", p.FunFacts)

	fmt.Fprintf(&b, "\n`id %s`\n", p.ID)
	return b.String()
}

func healthMarkdown(h types.PlantHealth) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", h.Diagnosis.Condition)
	fmt.Fprintf(&b, "**%s** · severity %s · stage %s · confidence %.0f%%\n\n",
		h.HealthStatus, h.Severity, h.Diagnosis.Stage, h.Confidence*100)
	fmt.Fprintf(&b, "%s\n\n", h.Diagnosis.Description)

	bullets(&b, "Symptoms", h.Symptoms.Visual)
	bullets(&b, "Do now", h.Treatment.Immediate)
	bullets(&b, "Next weeks", h.Treatment.ShortTerm)
	bullets(&b, "Long term", h.Treatment.LongTerm)
	bullets(&b, "Organic options", h.Treatment.Organic)
	bullets(&b, "Prevention", h.Prevention)

	fmt.Fprintf(&b, "\n**Primary cause:** %s\n\n", h.Causes.Primary)
	fmt.Fprintf(&b, "**Check:** %s · **Recovery:** %s · **Prognosis:** %s\n",
		h.Monitoring.CheckFrequency, h.Monitoring.RecoveryTimeline, h.Monitoring.Prognosis)

	fmt.Fprintf(&b, "\n`id %s`\n", h.ID)
	return b.String()
}

func bullets(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func statusStyle(s types.HealthStatus) lipgloss.Style {
	switch s {
	case types.HealthHealthy:
		return okStyle
	case types.HealthDiseased, types.HealthPest:
		return badStyle
	default:
		return warnStyle
	}
}

func printIdentifications(w io.Writer, items []types.PlantIdentification) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Identifications (%d)", len(items))))
	for _, p := range items {
		fmt.Fprintf(w, "  %s  %s  %s\n", idStyle.Render(p.ID), p.PlantName, idStyle.Render(p.ScientificName))
	}
}

func printHealthRecords(w io.Writer, items []types.PlantHealth) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Health records (%d)", len(items))))
	for _, h := range items {
		plant := ""
		if h.PlantID != "" {
			plant = idStyle.Render("plant " + h.PlantID)
		}
		fmt.Fprintf(w, "  %s  %s  %s  %s\n", idStyle.Render(h.ID), statusStyle(h.HealthStatus).Render(string(h.HealthStatus)), h.Diagnosis.Condition, plant)
	}
}

func printGarden(w io.Writer, items []types.UserPlant) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Garden (%d)", len(items))))
	for _, p := range items {
		watered := "never watered"
		if p.LastWatered != nil {
			watered = "watered " + p.LastWatered.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "  %s  %s  %s  %s\n", idStyle.Render(p.ID), p.Nickname, p.Location, idStyle.Render(watered))
	}
}
