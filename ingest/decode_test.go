package ingest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sampleCSV = "标题,点赞\n早八通勤穿搭,1.2万\n"

func TestDecodeUTF8StripsBOM(t *testing.T) {
	text, err := Decode("posts.csv", append([]byte("\xef\xbb\xbf"), sampleCSV...), 0)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, text)
}

func TestDecodeGB18030(t *testing.T) {
	gbk, _, err := transform.Bytes(simplifiedchinese.GBK.NewEncoder(), []byte(sampleCSV))
	require.NoError(t, err)

	text, err := Decode("posts.csv", gbk, 0)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, text)
}

func TestDecodeUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	utf16, _, err := transform.Bytes(enc, []byte(sampleCSV))
	require.NoError(t, err)

	text, err := Decode("posts.csv", utf16, 0)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, text)
}

func TestDecodeTooLarge(t *testing.T) {
	_, err := Decode("posts.csv", []byte(sampleCSV), 4)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecodeSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"title", "likes", "link"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Post A", "1.5万", "urlA"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Post B", 200, "urlB"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	text, err := Decode("export.XLSX", buf.Bytes(), 0)
	require.NoError(t, err)
	assert.Equal(t, "title,likes,link\nPost A,1.5万,urlA\nPost B,200,urlB", text)
}

func TestDecodeSpreadsheetRejectsGarbage(t *testing.T) {
	_, err := Decode("broken.xlsx", []byte("not a zip"), 0)
	assert.Error(t, err)
}
