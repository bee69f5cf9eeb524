// Command soa-check loads a canonical SOA rule document and checks operating
// scenarios and transient profiles against it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"soacore/internal/core"
)

var exitFunc = os.Exit

const (
	exitOK         = 0
	exitViolations = 1
	exitError      = 2
)

// deviceScenario is one entry of the -scenarios file.
type deviceScenario struct {
	Device       string             `json:"device"`
	Tmaxfrac     float64            `json:"tmaxfrac"`
	Observations map[string]float64 `json:"observations"`
}

// deviceProfile is one entry of the -profiles file. Profiles maps parameter
// keys to transient samples.
type deviceProfile struct {
	Device   string          `json:"device"`
	Profiles core.ProfileSet `json:"profiles"`
}

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("soa-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		rulesPath     string
		scenariosPath string
		profilesPath  string
		listDevices   bool
		jsonOutput    bool
		tracePath     string
	)
	fs.StringVar(&rulesPath, "rules", "", "path to canonical SOA rules JSON (required)")
	fs.StringVar(&scenariosPath, "scenarios", "", "path to JSON array of {device,tmaxfrac,observations}")
	fs.StringVar(&profilesPath, "profiles", "", "path to JSON array of {device,profiles}")
	fs.BoolVar(&listDevices, "devices", false, "list device keys and exit")
	fs.BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON instead of text")
	fs.StringVar(&tracePath, "trace", "", "write an operation trace to this file")
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if rulesPath == "" {
		fmt.Fprintln(stderr, "soa-check: -rules is required")
		fs.Usage()
		return exitError
	}

	ctx := context.Background()
	var opts []core.ServiceOption
	var tracer *core.JSONTraceTracer
	var traceFile *os.File
	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			fmt.Fprintf(stderr, "soa-check: create trace file: %v\n", err)
			return exitError
		}
		traceFile = f
		tracer = core.NewJSONTracer(f)
		opts = append(opts, core.WithTracer(tracer))
	}
	service := core.NewService(core.NewRegistry(), opts...)

	doc, err := readDocumentFile(rulesPath)
	if err != nil {
		fmt.Fprintf(stderr, "soa-check: %v\n", err)
		return exitError
	}
	if err := service.LoadDocument(ctx, doc); err != nil {
		fmt.Fprintf(stderr, "soa-check: load rules: %v\n", err)
		return exitError
	}

	if listDevices {
		code := printDevices(stdout, service.Registry(), jsonOutput)
		closeTrace(traceFile, stderr)
		return code
	}

	violated := false

	if scenariosPath != "" {
		scenarios, err := readScenariosFile(scenariosPath)
		if err != nil {
			fmt.Fprintf(stderr, "soa-check: %v\n", err)
			closeTrace(traceFile, stderr)
			return exitError
		}
		reports, err := runScenarios(ctx, service, scenarios)
		if err != nil {
			fmt.Fprintf(stderr, "soa-check: %v\n", err)
			closeTrace(traceFile, stderr)
			return exitError
		}
		for _, report := range reports {
			if report.Summary.Failed > 0 {
				violated = true
			}
		}
		if jsonOutput {
			if err := writeJSON(stdout, reports); err != nil {
				fmt.Fprintf(stderr, "soa-check: %v\n", err)
				closeTrace(traceFile, stderr)
				return exitError
			}
		} else {
			printReports(stdout, reports)
		}
	}

	if profilesPath != "" {
		profiles, err := readProfilesFile(profilesPath)
		if err != nil {
			fmt.Fprintf(stderr, "soa-check: %v\n", err)
			closeTrace(traceFile, stderr)
			return exitError
		}
		reports := make([]core.TransientReport, 0, len(profiles))
		for _, dp := range profiles {
			report, err := service.ValidateTransient(ctx, dp.Device, dp.Profiles)
			if err != nil {
				fmt.Fprintf(stderr, "soa-check: %v\n", err)
				closeTrace(traceFile, stderr)
				return exitError
			}
			if !report.Compliant {
				violated = true
			}
			reports = append(reports, report)
		}
		if jsonOutput {
			if err := writeJSON(stdout, reports); err != nil {
				fmt.Fprintf(stderr, "soa-check: %v\n", err)
				closeTrace(traceFile, stderr)
				return exitError
			}
		} else {
			printTransientReports(stdout, reports)
		}
	}

	closeTrace(traceFile, stderr)
	if violated {
		return exitViolations
	}
	return exitOK
}

func closeTrace(f *os.File, stderr io.Writer) {
	if f == nil {
		return
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(stderr, "soa-check: close trace file: %v\n", err)
	}
}

func readDocumentFile(path string) (core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Document{}, fmt.Errorf("read rules: %w", err)
	}
	return core.DecodeDocument(data)
}

func readScenariosFile(path string) ([]deviceScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	var scenarios []deviceScenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("decode scenarios: %w", err)
	}
	return scenarios, nil
}

func readProfilesFile(path string) ([]deviceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var profiles []deviceProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return profiles, nil
}

// runScenarios groups scenarios per device, preserving file order within
// each device, and produces one report per device in first-seen order.
func runScenarios(ctx context.Context, service *core.Service, scenarios []deviceScenario) ([]core.Report, error) {
	order := make([]string, 0)
	grouped := make(map[string][]core.Scenario)
	for _, sc := range scenarios {
		if _, seen := grouped[sc.Device]; !seen {
			order = append(order, sc.Device)
		}
		grouped[sc.Device] = append(grouped[sc.Device], core.Scenario{Tmaxfrac: sc.Tmaxfrac, Observations: sc.Observations})
	}
	reports := make([]core.Report, 0, len(order))
	for _, device := range order {
		report, err := service.GenerateValidationReport(ctx, device, grouped[device])
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func printDevices(w io.Writer, registry *core.Registry, jsonOutput bool) int {
	keys := registry.DeviceKeys()
	if jsonOutput {
		if err := writeJSON(w, keys); err != nil {
			return exitError
		}
		return exitOK
	}
	for _, key := range keys {
		rs, _ := registry.Device(key)
		fmt.Fprintf(w, "%s\t%s/%s\t%d parameters\n", key, rs.DeviceType, rs.Subcategory, len(rs.Parameters))
	}
	return exitOK
}

func printReports(w io.Writer, reports []core.Report) {
	for _, report := range reports {
		fmt.Fprintf(w, "device %s: %d scenarios, %d passed, %d failed\n",
			report.Device, report.Summary.Total, report.Summary.Passed, report.Summary.Failed)
		for i, result := range report.Results {
			status := "PASS"
			if !result.Compliant {
				status = "FAIL"
			}
			fmt.Fprintf(w, "  [%d] tmaxfrac=%g %s\n", i, result.Tmaxfrac, status)
			for _, v := range result.Violations {
				fmt.Fprintf(w, "      %s (severity %s)\n", v.Message, v.Severity)
			}
			if len(result.Unvalidated) > 0 {
				params := append([]string(nil), result.Unvalidated...)
				sort.Strings(params)
				for _, p := range params {
					fmt.Fprintf(w, "      %s has no numeric limit; needs review\n", p)
				}
			}
		}
	}
}

func printTransientReports(w io.Writer, reports []core.TransientReport) {
	for _, report := range reports {
		status := "PASS"
		if !report.Compliant {
			status = "FAIL"
		}
		fmt.Fprintf(w, "device %s transient: %s\n", report.Device, status)
		for _, v := range report.Violations {
			fmt.Fprintf(w, "  %s (severity %s)\n", v.Message, v.Severity)
		}
		for _, warning := range report.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warning)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
