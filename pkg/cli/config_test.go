package cli

import (
	"path/filepath"
	"testing"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfigWithPath("ticosrt", path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.AddContext("dev", &Context{APIKey: "sk-test", Model: "stardust-2.5-turbo"}); err != nil {
		t.Fatal(err)
	}
	if err := cfg.AddContext("prod", &Context{APIKey: "sk-prod", Provider: "openai"}); err != nil {
		t.Fatal(err)
	}

	// The first added context becomes current.
	if cfg.CurrentContext != "dev" {
		t.Fatalf("unexpected current context %q", cfg.CurrentContext)
	}

	reloaded, err := LoadConfigWithPath("ticosrt", path)
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := reloaded.ResolveContext("")
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Name != "dev" || ctx.APIKey != "sk-test" || ctx.Model != "stardust-2.5-turbo" {
		t.Fatalf("unexpected context %+v", ctx)
	}

	if err := reloaded.UseContext("prod"); err != nil {
		t.Fatal(err)
	}
	ctx, err = reloaded.ResolveContext("")
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Provider != "openai" {
		t.Fatalf("unexpected context %+v", ctx)
	}

	names := reloaded.ListContexts()
	if len(names) != 2 || names[0] != "dev" || names[1] != "prod" {
		t.Fatalf("unexpected context names %v", names)
	}
}

func TestConfigDeleteContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfigWithPath("ticosrt", path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.AddContext("only", &Context{APIKey: "k"}); err != nil {
		t.Fatal(err)
	}
	if err := cfg.DeleteContext("only"); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentContext != "" {
		t.Fatal("deleting the current context must clear the selection")
	}
	if err := cfg.DeleteContext("only"); err == nil {
		t.Fatal("deleting twice must fail")
	}
	if _, err := cfg.ResolveContext(""); err == nil {
		t.Fatal("resolving with no contexts must fail")
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := MaskAPIKey("sk-0123456789"); got != "sk-0...6789" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := MaskAPIKey("short"); got != "*****" {
		t.Fatalf("unexpected mask %q", got)
	}
}
