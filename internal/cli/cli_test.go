package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/colmap/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("COLMAP_RULES_FILE", "")
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "colmap.log"))

	cmd := NewRootCmd(Version{Version: "test", Commit: "abc", Date: "today"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const rulesYAML = `rule_sets:
  - name: "A社"
    columns:
      - no: 1
        output: "顧客名"
        source: "氏名"
        action: "passthrough"
      - no: 2
        output: "金額"
        source: "単価"
        action: "multiply"
        argument: "10"
`

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "colmap test")
	assert.Contains(t, out, "commit: abc")
}

func TestRulesInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")

	out, err := execute(t, "rules", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "rules", "init", "-o", path)
	require.Error(t, err, "refuses to overwrite")

	out, err = execute(t, "rules", "show", "-r", path)
	require.NoError(t, err)
	assert.Contains(t, out, rules.DefaultSetName)
	assert.Contains(t, out, "列10")
	assert.Contains(t, out, "そのまま")

	_, err = execute(t, "rules", "show", "-r", path, "-s", "missing")
	require.ErrorIs(t, err, rules.ErrNotFound)
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	input := filepath.Join(dir, "input.csv")
	output := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(rulesPath, []byte(rulesYAML), 0o644))
	require.NoError(t, os.WriteFile(input, []byte("氏名,単価\n田中太郎,100\n"), 0o644))

	out, err := execute(t, "convert", "-r", rulesPath, "-i", input, "-o", output, "-e", "utf-8")
	require.NoError(t, err)
	assert.Contains(t, out, `rule set "A社": 1 rows, 2 columns`)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "顧客名,金額\n田中太郎,1000.0\n", string(got))
}

func TestConvertCommandReportsFailedColumns(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(input, []byte("単価\n100\n"), 0o644))

	csvPath := filepath.Join(dir, "set.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("No,項目名,元列,処理,引数1\n1,金額,単価,乗算,abc\n"), 0o644))
	rulesPath := filepath.Join(dir, "rules.yaml")

	_, err := execute(t, "rules", "import-csv", "-r", rulesPath, "-i", csvPath, "-s", "B社")
	require.NoError(t, err)

	out, err := execute(t, "convert", "-r", rulesPath, "-s", "B社", "-i", input, "--sentinel", "NG")
	require.NoError(t, err)
	assert.Contains(t, out, `failed columns (filled with "NG"): 金額`)

	got, err := os.ReadFile(filepath.Join(dir, "input_converted.csv"))
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBF金額\nNG\n", string(got))
}

func TestConvertCommandUnknownRuleSet(t *testing.T) {
	_, err := execute(t, "convert", "-i", "in.csv", "-s", "nope")
	require.ErrorIs(t, err, rules.ErrNotFound)
}

func TestRulesExportImportCSV(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(rulesYAML), 0o644))

	csvPath := filepath.Join(dir, "a.csv")
	_, err := execute(t, "rules", "export-csv", "-r", rulesPath, "-s", "A社", "-o", csvPath)
	require.NoError(t, err)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "No,項目名,元列,処理,引数1\n1,顧客名,氏名,そのまま,\n2,金額,単価,乗算,10\n", string(data))

	_, err = execute(t, "rules", "import-csv", "-r", rulesPath, "-i", csvPath, "-s", "コピー")
	require.NoError(t, err)

	s, err := rules.ReadFile(rulesPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"A社", "コピー"}, s.Names())
	a, _ := s.Get("A社")
	b, _ := s.Get("コピー")
	assert.Equal(t, a, b)
}

func TestRulesExportCSVWriteFailure(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(rulesYAML), 0o644))

	out, err := execute(t, "rules", "export-csv", "-r", rulesPath, "-s", "A社", "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "1,顧客名,氏名,そのまま,")

	_, err = execute(t, "rules", "export-csv", "-r", rulesPath, "-s", "A社", "-o", filepath.Join(t.TempDir(), "missing", "a.csv"))
	require.Error(t, err)

	if _, statErr := os.Stat("/dev/full"); statErr == nil {
		_, err = execute(t, "rules", "export-csv", "-r", rulesPath, "-s", "A社", "-o", "/dev/full")
		require.Error(t, err, "write errors are reported")
	}
}

func TestImportCSVNeedsRulesFile(t *testing.T) {
	_, err := execute(t, "rules", "import-csv", "-i", "x.csv", "-s", "x")
	require.ErrorIs(t, err, ErrNoRulesFile)
}
