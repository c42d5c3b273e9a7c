package models

import (
	"encoding/json"
	"errors"
	"io/fs"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsDeep(t *testing.T) {
	pid := "sim-1"
	owner := "alice"
	art := &Artwork{
		ID:           "a1",
		PaymentID:    &pid,
		CurrentOwner: &owner,
		PaymentMeta:  &PaymentMeta{Memo: "m", Metadata: map[string]string{"artId": "a1"}},
		History:      []SaleEvent{{Type: SaleEventSold, Tx: "tx-1"}},
	}

	c := art.Clone()
	*c.PaymentID = "other"
	*c.CurrentOwner = "bob"
	c.PaymentMeta.Metadata["artId"] = "zz"
	c.History[0].Tx = "changed"
	c.History = append(c.History, SaleEvent{Type: SaleEventResell})

	assert.Equal(t, "sim-1", *art.PaymentID)
	assert.Equal(t, "alice", *art.CurrentOwner)
	assert.Equal(t, "a1", art.PaymentMeta.Metadata["artId"])
	assert.Equal(t, "tx-1", art.History[0].Tx)
	assert.Len(t, art.History, 1)
}

func TestBoundTo(t *testing.T) {
	pid := "pay-1"
	art := &Artwork{PaymentID: &pid}

	assert.True(t, art.BoundTo("pay-1"))
	assert.False(t, art.BoundTo("pay-2"))
	assert.False(t, art.BoundTo(""))
	assert.False(t, (&Artwork{}).BoundTo("pay-1"))
}

func TestPurchasable(t *testing.T) {
	assert.True(t, StatusPending.Purchasable())
	assert.True(t, StatusResale.Purchasable())
	assert.False(t, StatusSold.Purchasable())
}

func TestArtworkJSONShape(t *testing.T) {
	art := Artwork{
		ID:      "a1",
		Status:  StatusPending,
		Price:   decimal.RequireFromString("2.5"),
		History: []SaleEvent{{Type: SaleEventSold, Price: decimal.NewFromInt(2)}},
	}

	raw, err := json.Marshal(art)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "pending", out["status"])
	assert.Nil(t, out["paymentId"])
	assert.Nil(t, out["currentOwner"])
	assert.Equal(t, 2.5, out["pricePi"])
	history := out["history"].([]any)
	require.Len(t, history, 1)
	assert.Equal(t, 2.0, history[0].(map[string]any)["price"])

	var back Artwork
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Price.Equal(art.Price))
	assert.NotContains(t, out, "paymentMeta")
}

func TestStorageErrorUnwraps(t *testing.T) {
	err := &StorageError{Op: "write", Err: fs.ErrPermission}
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.Contains(t, err.Error(), "write")
}
