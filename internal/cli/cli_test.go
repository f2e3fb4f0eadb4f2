package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-pos/internal/application/usecase"
	"github.com/jhoicas/tienda-pos/internal/infrastructure/memory"
	"github.com/jhoicas/tienda-pos/pkg/config"
)

const catalogYAML = `
products:
  - name: Arroz Diana 500g
    category: abarrotes
    barcode: "7702511000014"
    price: "3.50"
    cost: "2.10"
    stock: 40
    min_stock: 5
  - name: Leche Entera
    category: lácteos
    price: "1.20"
    cost: "0.80"
    stock: 12
`

func TestParseCatalog(t *testing.T) {
	items, err := ParseCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Arroz Diana 500g", items[0].Name)
	require.NotNil(t, items[0].Barcode)
	assert.Equal(t, "7702511000014", *items[0].Barcode)
	assert.Equal(t, "3.5", items[0].Price.String())
	assert.Nil(t, items[1].Barcode)
	assert.Equal(t, 12, items[1].Stock)
}

func TestParseCatalog_Errores(t *testing.T) {
	_, err := ParseCatalog(strings.NewReader(""))
	assert.ErrorContains(t, err, "vacío")

	_, err = ParseCatalog(strings.NewReader("products:\n  - name: X\n    price: abc\n    cost: \"1\"\n"))
	assert.ErrorContains(t, err, "price inválido")

	_, err = ParseCatalog(strings.NewReader("products:\n  - name: X\n    precio: \"1\"\n"))
	assert.Error(t, err)
}

func TestSeed_OmiteDuplicados(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewProductUseCase(memory.NewProductRepository(store), memory.NewTxRunner(store), zerolog.Nop())
	items, err := ParseCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	res, err := Seed(context.Background(), uc, items)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Created: 2}, res)

	// el segundo no tiene barcode: se vuelve a crear
	res, err = Seed(context.Background(), uc, items)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Created: 1, Skipped: 1}, res)
}

func TestSeedCommand_SQLite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(file, []byte(catalogYAML), 0o600))

	opts := &RootOptions{loadConfig: func() (*config.Config, error) {
		return &config.Config{
			App: config.AppConfig{LogLevel: "error"},
			DB:  config.DBConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(dir, "pos.db")},
		}, nil
	}}
	var out bytes.Buffer
	cmd := newRootCommand(opts)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"seed", "--file", file})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "productos creados: 2, omitidos: 0")

	out.Reset()
	cmd = newRootCommand(opts)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "esquema aplicado (sqlite)")
}
