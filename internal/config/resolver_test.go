package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePrecedenceConfigEnvCLI(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `db_path: ~/.klausel/from-config.db
policy_path: /etc/klausel/policies.yml
extractors:
  - contract
  - money
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("KLAUSEL_DB", "~/from-env.db")
	t.Setenv("KLAUSEL_POLICY", "/env/policies.yml")

	resolved, err := Resolve(ResolveOptions{
		ConfigPath: cfgPath,
		CLIDBPath:  "~/from-cli.db",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resolved.DBPath.Source != SourceCLI {
		t.Fatalf("expected db path source cli, got %s", resolved.DBPath.Source)
	}
	if resolved.PolicyPath.Source != SourceEnv || resolved.PolicyPath.Value != "/env/policies.yml" {
		t.Fatalf("expected policy path from env, got %+v", resolved.PolicyPath)
	}
	if resolved.Extractors.Source != SourceConfig || resolved.Extractors.Value != "contract,money" {
		t.Fatalf("expected extractors from config, got %+v", resolved.Extractors)
	}
}

func TestResolveExpandsUserPaths(t *testing.T) {
	resolved, err := Resolve(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "absent.yaml"),
		CLIDBPath:  "~/db/klausel.db",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	home, _ := os.UserHomeDir()
	want := filepath.Join(home, "db", "klausel.db")
	if resolved.DBPath.Value != want {
		t.Fatalf("db path = %q, want %q", resolved.DBPath.Value, want)
	}
}

func TestResolveMissingConfigFileIsNotError(t *testing.T) {
	resolved, err := Resolve(ResolveOptions{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.DBPath.Value != "" {
		t.Fatalf("unexpected db path: %+v", resolved.DBPath)
	}
}

func TestResolveMalformedConfigFails(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(": : :"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(ResolveOptions{ConfigPath: cfgPath}); err == nil {
		t.Fatal("malformed yaml should fail")
	}
}

func TestAllowList(t *testing.T) {
	r := ResolvedConfig{Extractors: ResolvedValue{Value: " contract, money ,sla "}}
	got := r.AllowList()
	want := []string{"contract", "money", "sla"}
	if len(got) != len(want) {
		t.Fatalf("allow list = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("allow[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if (ResolvedConfig{}).AllowList() != nil {
		t.Error("empty allow-list should be nil")
	}
}
