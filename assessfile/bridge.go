package assessfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Bridge invokes the external assessment binary for one stock, following
// original_source/atlantis/atSS3Link/atSS3LinkIO.c's working-directory
// convention: the bundle (starter/data/control/forecast) is written into a
// per-stock working directory, the tool is run from that directory, and
// the caller's working directory is restored afterward regardless of
// outcome (§4.7 "supplemented from original_source").
type Bridge struct {
	BinaryPath string
	Args       []string
}

// Run changes into workDir, invokes the configured binary, restores the
// original working directory, and parses Report.sso/ss3.par for the
// estimates the management engine needs.
func (br *Bridge) Run(ctx context.Context, workDir string) (BridgeResult, error) {
	orig, err := os.Getwd()
	if err != nil {
		return BridgeResult{}, fmt.Errorf("assessfile: getwd: %w", err)
	}
	if err := os.Chdir(workDir); err != nil {
		return BridgeResult{}, fmt.Errorf("assessfile: chdir %s: %w", workDir, err)
	}
	defer os.Chdir(orig)

	cmd := exec.CommandContext(ctx, br.BinaryPath, br.Args...)
	if err := cmd.Run(); err != nil {
		return BridgeResult{}, fmt.Errorf("assessfile: run %s: %w", br.BinaryPath, err)
	}

	report, err := ReadSS3Report("Report.sso")
	if err != nil {
		return BridgeResult{}, fmt.Errorf("assessfile: read Report.sso: %w", err)
	}
	par, err := readSS3Par("ss3.par")
	if err != nil {
		return BridgeResult{}, fmt.Errorf("assessfile: read ss3.par: %w", err)
	}
	report.Convergence = par.Convergence
	return report, nil
}

// BridgeResult is what the bridge extracts from the external tool's
// output files (§4.5 "extracts estimated Bcurr, depletion, RBC,
// convergence metric").
type BridgeResult struct {
	Bcurr       float64
	Depletion   float64
	RBC         float64
	Convergence float64
}

// ReadSS3Report scans a Report.sso-style file for its marker lines rather
// than parsing it as a structured format — original_source never treats
// this file as anything but line-oriented text with known prefixes, so
// this keeps that same brittle-by-design scan (§4.7 supplement).
func ReadSS3Report(path string) (BridgeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return BridgeResult{}, err
	}
	defer f.Close()

	var res BridgeResult
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "SPB_Virgin"), strings.HasPrefix(line, "Bcurr"):
			res.Bcurr = lastField(line)
		case strings.HasPrefix(line, "Depletion"):
			res.Depletion = lastField(line)
		case strings.HasPrefix(line, "OFLCatch"), strings.HasPrefix(line, "RBC"):
			res.RBC = lastField(line)
		}
	}
	return res, sc.Err()
}

type ss3Par struct {
	Convergence float64
}

func readSS3Par(path string) (ss3Par, error) {
	f, err := os.Open(path)
	if err != nil {
		return ss3Par{}, err
	}
	defer f.Close()

	var p ss3Par
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "# Maximum_gradient_component:") {
			p.Convergence = lastField(line)
		}
	}
	return p, sc.Err()
}

func lastField(line string) float64 {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return 0
	}
	return v
}
