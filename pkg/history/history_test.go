package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossroute/pkg/types"
)

func testRecord(trackingID string, createdAt time.Time) *Record {
	return &Record{
		TrackingID: trackingID,
		FromChain:  1,
		ToChain:    56,
		TokenIn:    "WETH",
		TokenOut:   "USDC",
		AmountIn:   "1",
		CreatedAt:  createdAt,
		Result: &types.CrossChainSwapResult{
			BridgeResult: &types.BridgeResult{TrackingID: trackingID, Status: types.BridgePending},
		},
	}
}

func TestStoreAddGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	record := testRecord("meson_0xabc", time.Now().UTC())
	require.NoError(t, store.Add(record))

	got, err := store.Get("meson_0xabc")
	require.NoError(t, err)
	assert.Equal(t, "WETH", got.TokenIn)
	assert.Equal(t, 1, store.Count())

	_, err = store.Get("missing")
	assert.Error(t, err)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Add(testRecord("meson_0xabc", time.Now().UTC())))

	reopened, err := NewStore(path)
	require.NoError(t, err)

	got, err := reopened.Get("meson_0xabc")
	require.NoError(t, err)
	assert.Equal(t, types.BridgePending, got.Result.BridgeResult.Status)
}

func TestStoreUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	record := testRecord("meson_0xabc", time.Now().UTC())
	require.NoError(t, store.Add(record))

	record.Result.BridgeResult.Status = types.BridgeCompleted
	require.NoError(t, store.Update(record))

	got, err := store.Get("meson_0xabc")
	require.NoError(t, err)
	assert.Equal(t, types.BridgeCompleted, got.Result.BridgeResult.Status)

	assert.Error(t, store.Update(testRecord("unknown_0x1", time.Now())))
}

func TestStoreListNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	base := time.Now().UTC()
	require.NoError(t, store.Add(testRecord("meson_old", base.Add(-time.Hour))))
	require.NoError(t, store.Add(testRecord("meson_new", base)))

	records := store.List()
	require.Len(t, records, 2)
	assert.Equal(t, "meson_new", records[0].TrackingID)
	assert.Equal(t, "meson_old", records[1].TrackingID)
}

func TestStoreRejectsEmptyTrackingID(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)
	assert.Error(t, store.Add(&Record{}))
}
