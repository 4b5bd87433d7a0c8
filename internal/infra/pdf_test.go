package infra

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBalanceReport(t *testing.T) {
	products := []model.Product{
		{ID: 1, Name: "Manta 01 Açaí", Model: "Cinza", Balance: 70},
		{ID: 2, Name: "Blanket 02", Model: "Blue", Balance: 3},
	}
	var buf bytes.Buffer

	err := WriteBalanceReport(&buf, products, time.Date(2024, 3, 9, 10, 0, 0, 0, time.Local), "admin")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteBalanceReport_ManyPages(t *testing.T) {
	var products []model.Product
	for i := 1; i <= 120; i++ {
		products = append(products, model.Product{ID: i, Name: fmt.Sprintf("Blanket %d", i), Model: "Grey", Balance: i})
	}
	var buf bytes.Buffer

	require.NoError(t, WriteBalanceReport(&buf, products, time.Now(), "admin"))
	assert.Greater(t, buf.Len(), 1000)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdefgh", 4))
}
