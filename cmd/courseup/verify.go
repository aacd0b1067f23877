package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coursetools/courseup/internal/editor"
	"github.com/coursetools/courseup/internal/execx"
	"github.com/coursetools/courseup/internal/logger"
	"github.com/coursetools/courseup/internal/model"
	"github.com/coursetools/courseup/internal/provision"
	"github.com/coursetools/courseup/internal/pyenv"
)

type verifyOptions struct {
	ManifestPath string
	Verbose      bool
	JSON         bool
}

var verifyCmdRunner = runVerify

func newVerifyCmd(root *rootFlags) *cobra.Command {
	opts := verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check which capabilities are already satisfied without making changes",
		Long: `Verify performs the read-only detection pass over every capability in the
manifest. Exit code 0 means everything is satisfied, 1 means acquisitions are
needed, 2 means some detections could not run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose

			return verifyCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ManifestPath, "manifest", "c", "", "Path to manifest file (default: built-in course manifest)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output results in JSON format")

	return cmd
}

func runVerify(opts verifyOptions) error {
	manifest, err := loadManifest(opts.ManifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing manifest: %v\n", err)
		os.Exit(2)
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: !opts.JSON})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(2)
	}

	ctx := context.Background()
	runner := execx.NewSystemRunner()
	probeTimeout := manifest.Settings.ProbeTimeoutDuration()

	// Verify tolerates a missing editor: its extensions simply report blocked.
	var editorCLI *editor.CLI
	if hasEnabledType(manifest, "extension") {
		if cli, err := editor.Locate(ctx, runner, probeTimeout); err == nil {
			editorCLI = &cli
		}
	}

	env := &provision.Env{
		Runner:       runner,
		Venv:         pyenv.NewVenv(manifest.Environment.Root),
		Editor:       editorCLI,
		ProbeTimeout: probeTimeout,
	}
	provisioner := provision.New(env, provision.DefaultRegistry(env), 0, log)

	log.WithFields(map[string]any{
		"manifest":     manifest.Name,
		"capabilities": len(manifest.Capabilities),
	}).Info("starting detection pass")

	summary := provisioner.VerifyAll(ctx, manifest.Capabilities)

	if opts.JSON {
		printJSONSummary(summary)
	} else {
		printTableSummary(summary)
	}

	os.Exit(summary.ExitCode())
	return nil
}

func printTableSummary(summary *model.DetectionSummary) {
	fmt.Println("\nDetection Results:")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("%-28s %-12s %s\n", "Capability", "Status", "Detail")
	fmt.Println(strings.Repeat("-", 72))

	for _, det := range summary.Results {
		fmt.Printf("%-28s %-12s %s\n",
			truncate(det.CapabilityID, 28),
			string(det.Status),
			truncate(det.Message, 40),
		)
	}

	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("\n  Satisfied: %d   Missing: %d   Blocked: %d   Duration: %s\n",
		summary.Satisfied, summary.Missing, summary.Blocked, summary.Duration.Round(defaultDurationPrecision))

	if summary.AllSatisfied() {
		fmt.Println("\n✅ Everything is in place — nothing to acquire.")
	} else {
		fmt.Println("\n❌ Acquisitions needed — run 'courseup provision' to fix.")
	}
}

func printJSONSummary(summary *model.DetectionSummary) {
	type jsonResult struct {
		CapabilityID string  `json:"capability_id"`
		Status       string  `json:"status"`
		Message      string  `json:"message"`
		DurationSec  float64 `json:"duration_seconds"`
	}
	type jsonSummary struct {
		Total     int          `json:"total"`
		Satisfied int          `json:"satisfied"`
		Missing   int          `json:"missing"`
		Blocked   int          `json:"blocked"`
		Results   []jsonResult `json:"results"`
	}

	out := jsonSummary{
		Total:     summary.Total(),
		Satisfied: summary.Satisfied,
		Missing:   summary.Missing,
		Blocked:   summary.Blocked,
	}
	for _, det := range summary.Results {
		out.Results = append(out.Results, jsonResult{
			CapabilityID: det.CapabilityID,
			Status:       string(det.Status),
			Message:      det.Message,
			DurationSec:  det.Duration.Seconds(),
		})
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(out)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
