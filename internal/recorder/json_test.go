package recorder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"Finansle/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRecorder_Record(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "daily.json")
	r, err := NewJSONRecorder(path)
	require.NoError(t, err)

	rec := &model.StockRecord{CompanyName: "Equinor ASA", Ticker: "EQNR.OL", CurrentPrice: 271.5}
	require.NoError(t, r.Record(rec))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "EQNR.OL", got["ticker"])
	assert.Equal(t, 271.5, got["current_price"])

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive a successful write")
}

func TestJSONRecorder_ReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily.json")
	r, err := NewJSONRecorder(path)
	require.NoError(t, err)

	require.NoError(t, r.Record(&model.StockRecord{Ticker: "DNB.OL"}))
	require.NoError(t, r.Record(&model.StockRecord{Ticker: "MOWI.OL"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "MOWI.OL")
	assert.NotContains(t, string(data), "DNB.OL")
}

func TestJSONRecorder_RecordAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	r, err := NewJSONRecorder(path)
	require.NoError(t, err)

	require.NoError(t, r.RecordAll([]*model.StockRecord{{Ticker: "A.OL"}, {Ticker: "B.OL"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "B.OL", got[1]["ticker"])
}

func TestJSONRecorder_FailedRenameCleansUp(t *testing.T) {
	dir := t.TempDir()
	// A directory at the target path makes the rename fail.
	path := filepath.Join(dir, "daily.json")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0o755))

	r, err := NewJSONRecorder(path)
	require.NoError(t, err)
	assert.Error(t, r.Record(&model.StockRecord{Ticker: "EQNR.OL"}))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestJSONRecorder_NilRecord(t *testing.T) {
	r, err := NewJSONRecorder(filepath.Join(t.TempDir(), "daily.json"))
	require.NoError(t, err)
	assert.Error(t, r.Record(nil))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.Record(&model.StockRecord{}))
	assert.NoError(t, r.RecordAll(nil))
	assert.NoError(t, r.Close())
}
