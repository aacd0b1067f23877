package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coursetools/courseup/internal/config"
	"github.com/coursetools/courseup/internal/editor"
	"github.com/coursetools/courseup/internal/execx"
	"github.com/coursetools/courseup/internal/logger"
	"github.com/coursetools/courseup/internal/model"
	"github.com/coursetools/courseup/internal/provision"
	"github.com/coursetools/courseup/internal/pyenv"
	"github.com/coursetools/courseup/internal/tui"
)

type provisionOptions struct {
	ManifestPath   string
	DryRun         bool
	Verbose        bool
	NonInteractive bool
}

var provisionCmdRunner = runProvision

func newProvisionCmd(root *rootFlags) *cobra.Command {
	opts := provisionOptions{}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision the course environment described by a manifest",
		Long: `Provision walks the manifest's capability list in order: each capability is
probed first and acquired only when missing, then re-verified. A single
capability's failure never aborts the run; failures are collected into the
final summary with manual-remediation suggestions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DryRun = root.dryRun
			opts.Verbose = root.verbose
			opts.NonInteractive = !term.IsTerminal(int(os.Stdout.Fd()))

			return provisionCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ManifestPath, "manifest", "c", "", "Path to manifest file (default: built-in course manifest)")

	return cmd
}

func runProvision(opts provisionOptions) error {
	manifest, err := loadManifest(opts.ManifestPath)
	if err != nil {
		return err
	}

	level := "info"
	if opts.Verbose || manifest.Settings.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := execx.NewSystemRunner()
	probeTimeout := manifest.Settings.ProbeTimeoutDuration()
	acquireTimeout := manifest.Settings.AcquireTimeoutDuration()

	// Prerequisite checks run before any acquisition; a failure here aborts
	// the whole run with a nonzero exit.
	base, err := pyenv.FindSystem(ctx, runner, probeTimeout)
	if err != nil {
		return err
	}
	if err := base.CheckMinVersion(ctx, runner, probeTimeout, manifest.Environment.MinPython); err != nil {
		return err
	}

	var editorCLI *editor.CLI
	if hasEnabledType(manifest, "extension") {
		cli, err := editor.Locate(ctx, runner, probeTimeout)
		if err != nil {
			return err
		}
		editorCLI = &cli
		log.WithFields(map[string]any{"path": cli.Path}).Debug("editor CLI located")
	}

	venv := pyenv.NewVenv(manifest.Environment.Root)
	if needsInterpreter(manifest) && !opts.DryRun {
		if err := venv.Create(ctx, runner, base, acquireTimeout, manifest.Environment.Recreate); err != nil {
			return err
		}
		if err := venv.UpgradePip(ctx, runner, acquireTimeout); err != nil {
			log.Error(err, "pip upgrade failed, continuing with current version")
		}
	}

	env := &provision.Env{
		Runner:       runner,
		Venv:         venv,
		Editor:       editorCLI,
		ProbeTimeout: probeTimeout,
	}
	provisioner := provision.New(env, provision.DefaultRegistry(env), acquireTimeout, log)

	if opts.DryRun {
		summary := provisioner.VerifyAll(ctx, manifest.Capabilities)
		printDryRun(summary)
		return nil
	}

	report := executeRun(ctx, cancel, provisioner, manifest, !opts.NonInteractive)

	var remediation []string
	if manifest.Environment.KernelName != "" {
		display := manifest.Environment.KernelDisplay
		if display == "" {
			display = manifest.Environment.KernelName
		}
		if err := venv.RegisterKernel(ctx, runner, acquireTimeout, manifest.Environment.KernelName, display); err != nil {
			log.Error(err, "kernel registration failed")
			remediation = append(remediation, fmt.Sprintf("register the kernel manually: %s -m ipykernel install --user --name %s", venv.Python(), manifest.Environment.KernelName))
		} else {
			log.WithFields(map[string]any{"kernel": manifest.Environment.KernelName}).Info("notebook kernel registered")
		}
	}

	if editorCLI != nil {
		settingsFile, err := editor.WriteWorkspaceSettings(manifest.Editor.SettingsDir, venv.Python())
		if err != nil {
			log.Error(err, "workspace settings update failed")
			remediation = append(remediation, fmt.Sprintf("point the editor at %s in %s/settings.json", venv.Python(), manifest.Editor.SettingsDir))
		} else {
			log.WithFields(map[string]any{"file": settingsFile}).Info("workspace settings updated")
		}
	}

	printSummary(report, remediation)

	// Per-item acquisition failures are reported but do not force a nonzero
	// exit; only prerequisite failures do, and those returned earlier.
	return nil
}

// executeRun drives the provisioner, with a live progress view when stdout is
// a terminal and plain sequential logging otherwise. The engine itself runs
// strictly sequentially either way.
func executeRun(ctx context.Context, cancel context.CancelFunc, provisioner *provision.Provisioner, manifest *config.Manifest, interactive bool) *model.RunReport {
	if !interactive {
		return provisioner.Run(ctx, manifest.Capabilities)
	}

	modelState := tui.NewModel(manifest)
	program := tea.NewProgram(modelState)

	provisioner.SetNotifier(func(result model.ProvisioningResult) {
		program.Send(tui.ResultMsg{Result: result})
	})

	done := make(chan *model.RunReport, 1)
	go func() {
		report := provisioner.Run(ctx, manifest.Capabilities)
		program.Send(tui.DoneMsg{})
		done <- report
	}()

	// Bubbletea traps SIGINT and surfaces it as a key press, so a Ctrl-C quit
	// must cancel the run context or the engine would keep acquiring.
	if final, err := program.Run(); err == nil {
		if m, ok := final.(tui.Model); ok && m.Cancelled() {
			cancel()
		}
	}
	return <-done
}

func printDryRun(summary *model.DetectionSummary) {
	fmt.Println("\nDry run — no acquisition commands were executed:")
	for _, det := range summary.Results {
		switch det.Status {
		case model.StatusSatisfied:
			fmt.Printf("  ✓ %-30s %s\n", det.CapabilityID, det.Message)
		case model.StatusMissing:
			fmt.Printf("  → %-30s would acquire: %s\n", det.CapabilityID, det.Message)
		default:
			fmt.Printf("  ? %-30s %s\n", det.CapabilityID, det.Message)
		}
	}
	fmt.Printf("\n%d satisfied, %d to acquire, %d blocked\n", summary.Satisfied, summary.Missing, summary.Blocked)
}

func printSummary(report *model.RunReport, remediation []string) {
	fmt.Println("\nProvisioning Summary")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("  Total:             %d\n", report.Total())
	fmt.Printf("  Already satisfied: %d\n", report.AlreadySatisfied)
	fmt.Printf("  Newly satisfied:   %d\n", report.NewlySatisfied)
	fmt.Printf("  Failed:            %d\n", report.Failed)
	fmt.Printf("  Skipped:           %d\n", report.Skipped)
	fmt.Printf("  Duration:          %s\n", report.Duration.Round(defaultDurationPrecision))

	failed := report.FailedResults()
	if len(failed) == 0 && len(remediation) == 0 {
		fmt.Println("\n✅ Environment is ready.")
		return
	}

	if len(failed) > 0 {
		fmt.Println("\nFailed capabilities:")
		for _, res := range failed {
			fmt.Printf("  ✗ %s: %s\n", res.CapabilityID, res.Message)
			if res.Diagnostic != "" {
				fmt.Printf("      %s\n", res.Diagnostic)
			}
		}
		fmt.Println("\nThese can be installed manually; re-running provision retries only what is missing.")
	}

	for _, hint := range remediation {
		fmt.Printf("  • %s\n", hint)
	}
}
