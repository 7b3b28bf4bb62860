package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmate/internal/parser"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportThenExport(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")

	input := filepath.Join(dir, "stock.csv")
	content := "N° SERIE,MARQUE,MODELE ou DESCRIPTION,TYPE MATERIEL,DATE ENTREE,PRIX ACHAT HT,FOURNISSEUR,STATUT\n" +
		"3514C008,CANON,Imprimante,Imprimante,17/01/22,329.00,Bureau Vallée,EN_STOCK\n" +
		"PF3ABC,LENOVO,ThinkPad,PC PORTABLE,15/01/25,,,SAV\n"
	require.NoError(t, os.WriteFile(input, []byte(content), 0o644))

	out, err := run(t, "import", input, "--data-dir", dataDir, "--log-level", "error")
	require.NoError(t, err, out)
	assert.Contains(t, out, "成功: 2")
	assert.Contains(t, out, "新增供应商: 1")

	// 同一文件再次导入：序列号重复的行自动改名，仍全部成功
	out, err = run(t, "import", input, "--data-dir", dataDir, "--log-level", "error")
	require.NoError(t, err, out)
	assert.Contains(t, out, "成功: 2")
	assert.Contains(t, out, "新增供应商: 0")

	target := filepath.Join(dir, "sav.xlsx")
	out, err = run(t, "export", target, "--status", "sav", "--data-dir", dataDir, "--log-level", "error")
	require.NoError(t, err, out)

	parsed, err := parser.ParseFile(target)
	require.NoError(t, err)
	assert.Len(t, parsed.Records, 2)

	// 每次导入前各备份一次
	backups, err := filepath.Glob(filepath.Join(dataDir, "backups", "stockmate_*.db"))
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestImport_Errors(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")

	_, err := run(t, "import", filepath.Join(dir, "missing.csv"), "--data-dir", dataDir, "--log-level", "error")
	assert.Error(t, err)

	_, err = run(t, "import", "--data-dir", dataDir)
	assert.Error(t, err)

	_, err = run(t, "export", filepath.Join(dir, "x.xlsx"), "--status", "LOST", "--data-dir", dataDir, "--log-level", "error")
	assert.Error(t, err)
}
