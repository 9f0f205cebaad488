package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/sdr"
	sdryaml "github.com/fwojciec/sdr/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its standard output.
func execute(t *testing.T, env environment, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(env)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestConfigCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints defaults when the file is missing", func(t *testing.T) {
		t.Parallel()
		missing := filepath.Join(t.TempDir(), "missing.yaml")
		out, err := execute(t, environment{}, "config", "--config", missing)
		require.NoError(t, err)
		assert.Contains(t, out, "trigger: QUERO COMPRAR JA")
		assert.Contains(t, out, sdr.DefaultModel)
	})

	t.Run("model flag overrides the file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "sdr.yaml")
		writeFile(t, path, "version: 1\nsession:\n  model: gemini-2.0-flash\n")
		out, err := execute(t, environment{}, "config", "--config", path, "--model", "gemini-2.5-pro")
		require.NoError(t, err)
		assert.Contains(t, out, "model: gemini-2.5-pro")
	})

	t.Run("invalid file is rejected", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "sdr.yaml")
		writeFile(t, path, "version: 1\nsession:\n  temperature: 7\n")
		_, err := execute(t, environment{}, "config", "--config", path)
		require.ErrorIs(t, err, sdr.ErrValidation)
	})

	t.Run("write saves a loadable file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dst := filepath.Join(dir, "out.yaml")
		out, err := execute(t, environment{}, "config", "--config", filepath.Join(dir, "missing.yaml"), "--write", dst)
		require.NoError(t, err)
		assert.Empty(t, out)

		cfg, err := sdryaml.Load(dst)
		require.NoError(t, err)
		assert.Equal(t, sdr.PhrasePurchase, cfg.Policy.Trigger)
	})
}

func TestLeadsImportCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints leads from every matched file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.csv"), "name,company,segment,lines\nAna Lima,Rota Sul,quente,80\n")
		writeFile(t, filepath.Join(dir, "sub", "b.csv"), "nome;empresa;segmento\nBeto Reis;Via Norte;fria\n")

		out, err := execute(t, environment{}, "leads", "import", filepath.Join(dir, "**", "*.csv"))
		require.NoError(t, err)
		assert.Contains(t, out, "Ana Lima")
		assert.Contains(t, out, "Via Norte")
		assert.Contains(t, out, "80")
		assert.Contains(t, out, "2 leads")
	})

	t.Run("no match is an error", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, environment{}, "leads", "import", filepath.Join(t.TempDir(), "*.csv"))
		require.ErrorIs(t, err, sdr.ErrValidation)
	})

	t.Run("requires a glob", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, environment{}, "leads", "import")
		require.Error(t, err)
	})
}

func TestChatCmd_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := execute(t, environment{}, "chat", "--config", missing)
	require.ErrorContains(t, err, "no API key found")
}

func TestOutreachCmd_BadLeadsFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "leads.csv"), "name,company,segment\nAna,Rota Sul,morno\n")
	_, err := execute(t, environment{geminiKey: "gk-test"}, "outreach", "--config", filepath.Join(dir, "missing.yaml"), "--leads", filepath.Join(dir, "*.csv"))
	require.ErrorIs(t, err, sdr.ErrValidation)
}

func TestLoadRoster(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "leads.csv"), "name,company,segment\nAna Lima,Rota Sul,quente\n")
	cmd := newOutreachCmd(&options{})
	cmd.SetContext(context.Background())

	roster, err := loadRoster(cmd, filepath.Join(dir, "*.csv"), nil)
	require.NoError(t, err)

	leads := roster.List()
	require.Len(t, leads, len(sdr.DefaultLeads())+1)
	assert.Equal(t, "Ana Lima", leads[0].Name)
	assert.NotEmpty(t, leads[0].ID)
}

func TestLoadRoster_ManualLeads(t *testing.T) {
	t.Parallel()

	cmd := newOutreachCmd(&options{})
	cmd.SetContext(context.Background())

	t.Run("added in front of the demo leads", func(t *testing.T) {
		t.Parallel()
		roster, err := loadRoster(cmd, "", []string{
			"Ana Lima,Rota Sul,,quente",
			"Bruno Reis,Frota Norte,(11) 91234-5678,morna,30",
		})
		require.NoError(t, err)

		leads := roster.List()
		require.Len(t, leads, len(sdr.DefaultLeads())+2)
		assert.Equal(t, "Bruno Reis", leads[0].Name)
		assert.Equal(t, 30, leads[0].Lines)
		assert.Equal(t, "Ana Lima", leads[1].Name)
		assert.NotEmpty(t, leads[1].ID)
	})

	t.Run("invalid lead fails", func(t *testing.T) {
		t.Parallel()
		_, err := loadRoster(cmd, "", []string{"Ana Lima,,,quente"})
		require.ErrorIs(t, err, sdr.ErrValidation)
		assert.Contains(t, err.Error(), "--lead")
	})
}

func TestOutreachCmd_BadManualLeadFails(t *testing.T) {
	t.Parallel()

	_, err := execute(t, environment{geminiKey: "key"}, "outreach",
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--lead", "Ana Lima,Rota Sul,,gelada")
	require.ErrorIs(t, err, sdr.ErrValidation)
}
