package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// probeTimeout bounds each version probe.
const probeTimeout = 5 * time.Second

// Requirement names an external binary and how to ask it for a version.
// VersionArgs may be empty, in which case only PATH resolution is checked.
type Requirement struct {
	Name        string
	Command     string
	Description string
	VersionArgs []string
	Optional    bool
}

// Status is the result of checking one Requirement.
type Status struct {
	Requirement
	Path      string
	Version   string
	Available bool
	Detail    string
}

// CheckBinaries resolves every requirement on PATH and probes its version.
// A binary that resolves but fails the probe is still reported available;
// the failure lands in Detail.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		status := Status{Requirement: req}

		if req.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			results = append(results, status)
			continue
		}
		status.Path = path
		status.Available = true

		if len(req.VersionArgs) > 0 {
			version, err := probeVersion(ctx, path, req.VersionArgs)
			if err != nil {
				status.Detail = "version probe failed: " + err.Error()
			} else {
				status.Version = version
			}
		}
		results = append(results, status)
	}
	return results
}

func probeVersion(ctx context.Context, path string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return "", err
	}
	return parseVersion(out), nil
}

// parseVersion returns the token after "version" on the first line, or the
// whole first line when no such token exists.
func parseVersion(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if !scanner.Scan() {
		return ""
	}
	line := strings.TrimSpace(scanner.Text())
	fields := strings.Fields(line)
	for i, field := range fields {
		if strings.EqualFold(field, "version") && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return line
}

// MissingRequired returns the statuses of required binaries that are unavailable.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
