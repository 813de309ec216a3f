// Package setup implements the terminal configuration wizard behind
// `tracker setup`. It walks through the tracker settings and writes a yaml
// config the daemon can start from.
package setup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/soulSw0rd/business-reporting/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes config.gen.yaml.
func RunTUI() error {
	cfg := config.Default()

	listenAddr := cfg.ListenAddr
	dataDir := cfg.DataDir
	modelDir := cfg.ModelDir
	schedule := cfg.CollectSchedule
	topTradersStr := strconv.Itoa(cfg.TopTraders)
	retrainThresholdStr := strconv.Itoa(cfg.RetrainThreshold)
	horizonChoice := "both"
	tlsDomain := ""
	var confirm bool

	clearAndHeader := func(step string) {
		fmt.Print("\033[H\033[2J")
		fmt.Println(headerStyle.Render("TRACKER CONFIG WIZARD"))
		fmt.Println(stepStyle.Render(step))
	}

	clearAndHeader("STEP 1: STORAGE")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Where the snapshot history and models live.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Snapshot WAL directory").
				Value(&dataDir).
				Validate(notEmpty),
			huh.NewInput().
				Title("Model artifact directory").
				Value(&modelDir).
				Validate(notEmpty),
		),
	).Run()
	if err != nil {
		return err
	}

	clearAndHeader("STEP 2: COLLECTION")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cron schedule").
				Description("When the daily collection runs (e.g. 0 6 * * *)").
				Value(&schedule).
				Validate(notEmpty),
			huh.NewInput().
				Title("Top traders per pass").
				Value(&topTradersStr).
				Validate(validatePositiveInt),
			huh.NewSelect[string]().
				Title("Prediction horizons").
				Options(
					huh.NewOption("7 and 30 days", "both"),
					huh.NewOption("7 days only", "7"),
					huh.NewOption("30 days only", "30"),
				).
				Value(&horizonChoice),
			huh.NewInput().
				Title("Retrain threshold").
				Description("New labels needed before a horizon retrains").
				Value(&retrainThresholdStr).
				Validate(validatePositiveInt),
		),
	).Run()
	if err != nil {
		return err
	}

	clearAndHeader("STEP 3: DASHBOARD")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Value(&listenAddr).
				Validate(notEmpty),
			huh.NewInput().
				Title("TLS domain").
				Description("Leave empty for plain HTTP").
				Value(&tlsDomain),
		),
	).Run()
	if err != nil {
		return err
	}

	cfg.ListenAddr = listenAddr
	cfg.Domain = tlsDomain
	cfg.DataDir = dataDir
	cfg.ModelDir = modelDir
	cfg.CollectSchedule = schedule
	cfg.TopTraders, _ = strconv.Atoi(topTradersStr)
	cfg.RetrainThreshold, _ = strconv.Atoi(retrainThresholdStr)
	switch horizonChoice {
	case "7":
		cfg.Horizons = []int{7}
	case "30":
		cfg.Horizons = []int{30}
	default:
		cfg.Horizons = []int{7, 30}
	}

	clearAndHeader("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Listen: %s\nData dir: %s\nModel dir: %s\nSchedule: %s\nTop traders: %d\nHorizons: %v\n",
		cfg.ListenAddr, cfg.DataDir, cfg.ModelDir, cfg.CollectSchedule, cfg.TopTraders, cfg.Horizons,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\nConfiguration saved to %s", filename)))
	time.Sleep(1500 * time.Millisecond)
	return nil
}

func notEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}
