package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/value"
)

// Snapshot renders the scenario trace as canonical JSON. Identical runs
// produce identical bytes.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		entry := map[string]any{
			"seq": ev.Seq,
			"op":  ev.Op,
		}
		if len(ev.Args) > 0 {
			entry["args"] = ev.Args
		}
		if ev.Result != nil {
			entry["result"] = ev.Result
		}
		if ev.Error != "" {
			entry["error"] = ev.Error
		}
		trace[i] = entry
	}

	v, err := bridge.FromHost(map[string]any{
		"scenario_name": scenarioName,
		"trace":         trace,
	})
	if err != nil {
		return nil, err
	}
	return value.MarshalCanonical(v)
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
