package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecusim/internal/testsupport"
)

func TestCalibShowTableReportsSourcesAndFindings(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCalibration("rev_soft_limit_rpm = 1960\nidle_target_rpm = 650\nbogus = 1\n"))

	stdout, _, err := runCLI(t, []string{"calib", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("calib show failed: %v", err)
	}
	for _, want := range []string{"idle_target_rpm", "650", "file", "default", "Rev Limiter", "Corrected", "1960 -> 1949", "Ignored", "bogus"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in output:\n%s", want, stdout)
		}
	}
}

func TestCalibShowStructuredFormats(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"calib", "show", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("calib show json failed: %v", err)
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(stdout), &values); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if values["max_engine_speed"] != float64(2000) {
		t.Fatalf("expected default max speed, got %v", values["max_engine_speed"])
	}

	stdout, _, err = runCLI(t, []string{"calib", "show", "-f", "toml"}, env.configPath)
	if err != nil {
		t.Fatalf("calib show toml failed: %v", err)
	}
	if !strings.Contains(stdout, "idle_target_rpm = 600") {
		t.Fatalf("unexpected toml:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"calib", "show", "-f", "yaml"}, env.configPath)
	if err != nil {
		t.Fatalf("calib show yaml failed: %v", err)
	}
	if !strings.Contains(stdout, "idle_target_rpm: 600") {
		t.Fatalf("unexpected yaml:\n%s", stdout)
	}

	if _, _, err := runCLI(t, []string{"calib", "show", "-f", "xml"}, env.configPath); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestCalibInitWritesDefaults(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"calib", "init"}, env.configPath)
	if err != nil {
		t.Fatalf("calib init failed: %v", err)
	}
	if !strings.Contains(stdout, env.cfg.Paths.CalibrationFile) {
		t.Fatalf("expected target path in output, got %q", stdout)
	}
	data, err := os.ReadFile(env.cfg.Paths.CalibrationFile)
	if err != nil {
		t.Fatalf("read calibration: %v", err)
	}
	if !strings.Contains(string(data), "max_engine_speed = 2000") {
		t.Fatalf("unexpected calibration contents:\n%s", data)
	}

	if _, _, err := runCLI(t, []string{"calib", "init"}, env.configPath); err == nil {
		t.Fatal("expected error when calibration already exists")
	}
	if _, _, err := runCLI(t, []string{"calib", "init", "--overwrite"}, env.configPath); err != nil {
		t.Fatalf("calib init --overwrite failed: %v", err)
	}
}

func TestRunsListShowClear(t *testing.T) {
	env := setupCLITestEnv(t)
	input := testsupport.WriteInput(t, env.baseDir, "in.csv", "ignition_switch,acc_pedal_position", "1,20")
	output := filepath.Join(env.baseDir, "out.csv")
	if _, _, err := runCLI(t, []string{"run", "-q", input, output}, env.configPath); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"runs", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list failed: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(stdout), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Rows != 1 || runs[0].Status != "completed" {
		t.Fatalf("unexpected runs %+v", runs)
	}

	stdout, _, err = runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list table failed: %v", err)
	}
	if !strings.Contains(stdout, runs[0].ID[:8]) || !strings.Contains(stdout, "Completed") {
		t.Fatalf("expected run in table:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"runs", "show", runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("runs show failed: %v", err)
	}
	if !strings.Contains(stdout, runs[0].ID) || !strings.Contains(stdout, "40 rpm") {
		t.Fatalf("unexpected runs show output:\n%s", stdout)
	}

	if _, _, err := runCLI(t, []string{"runs", "show", "zzzzzzzz"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown run")
	}

	stdout, _, err = runCLI(t, []string{"runs", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("runs clear failed: %v", err)
	}
	if !strings.Contains(stdout, "Cleared 1 run(s)") {
		t.Fatalf("unexpected clear output %q", stdout)
	}

	stdout, _, err = runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list after clear failed: %v", err)
	}
	if !strings.Contains(stdout, "No runs recorded") {
		t.Fatalf("expected empty history, got:\n%s", stdout)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "new", "config.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("expected target in output, got %q", stdout)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config written: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}

	stdout, _, err = runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	if !strings.Contains(stdout, "Configuration valid") || !strings.Contains(stdout, env.configPath) {
		t.Fatalf("unexpected validate output:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(stdout, "[paths]") || !strings.Contains(stdout, env.cfg.Paths.StateDir) {
		t.Fatalf("unexpected show output:\n%s", stdout)
	}
}

func TestConfigValidateRejectsBadLevel(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[logging]\nlevel = \"chatty\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDoctorReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, stdout)
	}
	for _, want := range []string{"State directory", "Calibration", "not found, defaults in use", "Run history", "Run lock", "[OK]"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in output:\n%s", want, stdout)
		}
	}
}

func TestDoctorFailsOnBrokenCalibration(t *testing.T) {
	env := setupCLITestEnv(t)
	broken := filepath.Join(env.baseDir, "broken.yaml")
	testsupport.WriteText(t, broken, "idle_kp: [unterminated\n")
	env.cfg.Paths.CalibrationFile = broken
	writeTestConfig(t, env.configPath, env.cfg)

	stdout, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil {
		t.Fatalf("expected doctor to fail:\n%s", stdout)
	}
	if !strings.Contains(stdout, "[ERROR]") {
		t.Fatalf("expected error status line:\n%s", stdout)
	}
}

func TestLogsShowsRunRecords(t *testing.T) {
	env := setupCLITestEnv(t)
	input := testsupport.WriteInput(t, env.baseDir, "in.csv", "ignition_switch", "1")
	output := filepath.Join(env.baseDir, "out.csv")
	for i := 0; i < 2; i++ {
		if _, _, err := runCLI(t, []string{"run", "-q", input, output}, env.configPath); err != nil {
			t.Fatalf("run failed: %v", err)
		}
	}

	stdout, _, err := runCLI(t, []string{"runs", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list failed: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(stdout), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	newest := runs[0].ID

	stdout, _, err = runCLI(t, []string{"logs", "--run", newest[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(stdout, "run complete") || !strings.Contains(stdout, newest[:8]) {
		t.Fatalf("expected run records, got:\n%s", stdout)
	}
	if strings.Contains(stdout, runs[1].ID[:8]) {
		t.Fatalf("expected other run filtered out:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"logs", "--raw", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --raw failed: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(stdout), "{") {
		t.Fatalf("expected raw JSON line, got %q", stdout)
	}
}

func TestConfigInitWithCalibration(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "fresh", "ecusim.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target, "--with-calibration"}, "")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	calPath := filepath.Join(os.Getenv("HOME"), ".config", "ecusim", "calibration.txt")
	if !strings.Contains(stdout, calPath) {
		t.Fatalf("expected calibration path in output, got %q", stdout)
	}
	data, err := os.ReadFile(calPath)
	if err != nil {
		t.Fatalf("expected calibration written: %v", err)
	}
	if !strings.Contains(string(data), "max_engine_speed = 2000") {
		t.Fatalf("unexpected calibration contents:\n%s", data)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target + ".2", "--with-calibration"}, ""); err == nil {
		t.Fatal("expected error when calibration already exists")
	}
}
