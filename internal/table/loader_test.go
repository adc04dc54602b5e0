package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
)

func encodeSJIS(t *testing.T, s string) []byte {
	t.Helper()
	out, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoadCSV(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"UTF-8", []byte("氏名,単価\n山田,100\n佐藤,250\n")},
		{"UTF-8 with BOM", append([]byte{0xEF, 0xBB, 0xBF}, []byte("氏名,単価\n山田,100\n佐藤,250\n")...)},
		{"CP932", encodeSJIS(t, "氏名,単価\r\n山田,100\r\n佐藤,250\r\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Load(tt.data, "input.csv")
			require.NoError(t, err)

			assert.Equal(t, []string{"氏名", "単価"}, tbl.Columns())
			require.Equal(t, 2, tbl.Len())
			assert.Equal(t, []string{"山田", "100"}, tbl.Row(0))
			assert.Equal(t, []string{"佐藤", "250"}, tbl.Row(1))
		})
	}
}

func TestLoadCSVKeepsCellsAsText(t *testing.T) {
	tbl, err := Load([]byte("code,amount\n007,1.50\n"), "DATA.CSV")
	require.NoError(t, err)
	assert.Equal(t, []string{"007", "1.50"}, tbl.Row(0))
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"Empty", []byte{}, ErrEmptyFile},
		{"BOM only", []byte{0xEF, 0xBB, 0xBF}, ErrEmptyFile},
		{"Undecodable", []byte{'a', ',', 'b', '\n', 0x80, 0xFD, '\n'}, ErrUndecodable},
		{"Ragged", []byte("a,b\n1,2,3\n"), ErrRaggedRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.data, "dir/broken.csv")
			require.ErrorIs(t, err, tt.wantErr)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, "dir/broken.csv", loadErr.Filename)
			assert.Contains(t, err.Error(), "reading broken.csv: ")
		})
	}
}

func TestDecodeText(t *testing.T) {
	got, err := DecodeText(encodeSJIS(t, "ｶﾀｶﾅと漢字"))
	require.NoError(t, err)
	assert.Equal(t, "ｶﾀｶﾅと漢字", got)

	got, err = DecodeText([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", got)
}

func TestLoadWorkbook(t *testing.T) {
	data := workbook(t, [][]any{
		{"氏名", "単価", "入社日"},
		{"山田", 100, "2024/01/05"},
		{},
		{"佐藤", 2.5, "", "extra"},
	})

	tbl, err := Load(data, "input.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"氏名", "単価", "入社日", "Unnamed: 3"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len(), "blank rows are dropped")
	assert.Equal(t, []string{"山田", "100", "2024/01/05", ""}, tbl.Row(0))
	assert.Equal(t, []string{"佐藤", "2.5", "", "extra"}, tbl.Row(1))
}

func TestLoadWorkbookStoredNumbers(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"金額", "率", "入社日", "有効"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{1234.5, 0.25, 45296, true}))

	for cell, numFmt := range map[string]int{"A2": 4, "B2": 9, "C2": 14} {
		style, err := f.NewStyle(&excelize.Style{NumFmt: numFmt})
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle("Sheet1", cell, cell, style))
	}

	shown, err := f.GetCellValue("Sheet1", "A2")
	require.NoError(t, err)
	require.Equal(t, "1,234.50", shown)
	date, err := f.GetCellValue("Sheet1", "C2")
	require.NoError(t, err)
	require.NotEqual(t, "45296", date)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Load(buf.Bytes(), "input.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"1234.5", "0.25", date, "TRUE"}, tbl.Row(0))
}

func TestIsDateFormat(t *testing.T) {
	custom := func(code string) *excelize.Style { return &excelize.Style{NumFmt: 164, CustomNumFmt: &code} }

	assert.True(t, isDateFormat(&excelize.Style{NumFmt: 14}))
	assert.True(t, isDateFormat(&excelize.Style{NumFmt: 22}))
	assert.True(t, isDateFormat(custom("yyyy/mm/dd")))
	assert.True(t, isDateFormat(custom(`[$-411]ggge"年"m"月"d"日"`)))
	assert.False(t, isDateFormat(&excelize.Style{NumFmt: 4}))
	assert.False(t, isDateFormat(&excelize.Style{NumFmt: 9}))
	assert.False(t, isDateFormat(custom(`#,##0"円"`)))
	assert.False(t, isDateFormat(nil))
}

func TestLoadWorkbookEmptySheet(t *testing.T) {
	tbl, err := Load(workbook(t, nil), "empty.xlsm")
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Width())
	assert.Equal(t, 0, tbl.Len())
}

func TestLoadWorkbookInvalid(t *testing.T) {
	_, err := Load([]byte("not a zip"), "bad.xlsx")

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "reading bad.xlsx: opening workbook")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	tbl, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, tbl.Columns())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
