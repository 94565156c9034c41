// The application provides a custom Go static analysis tool that combines
// standard analyzers from the Go toolchain, third-party analyzers, and project-specific
// analyzers into a single `multichecker.Main` invocation.
//
// The staticcheck, simple and stylecheck analyzers to enable are read from a JSON
// config file. Its path is taken from the STATICLINT_CONFIG environment variable,
// otherwise config.json next to the binary is used. A name ending with "*"
// enables every analyzer with that prefix, e.g. "SA*".
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/patric-chuzhbe/usrsvc/cmd/staticlint/noosexit"
)

const (
	configFileName = `config.json`
	configEnv      = `STATICLINT_CONFIG`
)

// ConfigData describes the structure of the configuration file.
type ConfigData struct {
	Staticcheck []string `json:"staticcheck"`
	Simple      []string `json:"simple"`
	Stylecheck  []string `json:"stylecheck"`
}

func configPath() (string, error) {
	if path := os.Getenv(configEnv); path != "" {
		return path, nil
	}

	appfile, err := os.Executable()
	if err != nil {
		return "", err
	}

	return filepath.Join(filepath.Dir(appfile), configFileName), nil
}

func readConfig(path string) (*ConfigData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("in cmd/staticlint/main.go/readConfig(): error while `os.ReadFile()` calling: %w", err)
	}

	cfg := &ConfigData{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("in cmd/staticlint/main.go/readConfig(): error while `json.Unmarshal()` calling: %w", err)
	}

	return cfg, nil
}

func isEnabled(name string, enabled []string) bool {
	for _, pattern := range enabled {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(name, prefix) {
				return true
			}
			continue
		}
		if pattern == name {
			return true
		}
	}

	return false
}

func selectAnalyzers(available []*lint.Analyzer, enabled []string) []*analysis.Analyzer {
	var result []*analysis.Analyzer
	for _, v := range available {
		if isEnabled(v.Analyzer.Name, enabled) {
			result = append(result, v.Analyzer)
		}
	}

	return result
}

func buildChecks(cfg *ConfigData) []*analysis.Analyzer {
	// Standard and custom analyzers that are always run.
	checks := []*analysis.Analyzer{
		copylock.Analyzer,     // Checks for copying of locks by value.
		errorsas.Analyzer,     // Checks the second argument of errors.As.
		httpresponse.Analyzer, // Checks for using the response before checking the error.
		loopclosure.Analyzer,  // Detects references to loop variables inside closures.
		lostcancel.Analyzer,   // Finds contexts that are not canceled.
		printf.Analyzer,       // Verifies format strings.
		structtag.Analyzer,    // Checks for incorrect struct field tags.
		unmarshal.Analyzer,    // Checks unmarshal targets are pointers.
		unreachable.Analyzer,  // Detects unreachable code.

		ineffassign.Analyzer, // Detects ineffective assignments.
		nilerr.Analyzer,      // Flags returning nil after an error was checked.

		noosexit.Analyzer, // Forbids os.Exit in main.main.
	}

	checks = append(checks, selectAnalyzers(staticcheck.Analyzers, cfg.Staticcheck)...)
	checks = append(checks, selectAnalyzers(simple.Analyzers, cfg.Simple)...)
	checks = append(checks, selectAnalyzers(stylecheck.Analyzers, cfg.Stylecheck)...)

	return checks
}

func main() {
	path, err := configPath()
	if err != nil {
		panic(err)
	}

	cfg, err := readConfig(path)
	if err != nil {
		panic(err)
	}

	multichecker.Main(buildChecks(cfg)...)
}
