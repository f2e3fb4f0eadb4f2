package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/tienda-pos/internal/application/dto"
	"github.com/jhoicas/tienda-pos/internal/application/usecase"
	"github.com/jhoicas/tienda-pos/internal/bootstrap"
	"github.com/jhoicas/tienda-pos/internal/domain"
)

// catalogFile formato YAML del catálogo inicial.
//
//	products:
//	  - name: Arroz Diana 500g
//	    category: abarrotes
//	    barcode: "7702511000014"
//	    price: "3.50"
//	    cost: "2.10"
//	    stock: 40
//	    min_stock: 5
type catalogFile struct {
	Products []catalogItem `yaml:"products"`
}

type catalogItem struct {
	Name     string  `yaml:"name"`
	Category string  `yaml:"category"`
	Barcode  *string `yaml:"barcode"`
	Price    string  `yaml:"price"`
	Cost     string  `yaml:"cost"`
	Stock    int     `yaml:"stock"`
	MinStock int     `yaml:"min_stock"`
}

// ParseCatalog lee el YAML y lo convierte en peticiones de alta. Campos desconocidos son error.
func ParseCatalog(r io.Reader) ([]dto.CreateProductRequest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catálogo vacío")
		}
		return nil, fmt.Errorf("leer catálogo: %w", err)
	}
	out := make([]dto.CreateProductRequest, 0, len(f.Products))
	for i, it := range f.Products {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, fmt.Errorf("producto %d (%s): price inválido %q", i, it.Name, it.Price)
		}
		cost, err := decimal.NewFromString(it.Cost)
		if err != nil {
			return nil, fmt.Errorf("producto %d (%s): cost inválido %q", i, it.Name, it.Cost)
		}
		out = append(out, dto.CreateProductRequest{
			Name: it.Name, Category: it.Category, Barcode: it.Barcode,
			Price: price, Cost: cost, Stock: it.Stock, MinStock: it.MinStock,
		})
	}
	return out, nil
}

// SeedResult conteo de la carga.
type SeedResult struct {
	Created int
	Skipped int // código de barras ya existente
}

// Seed da de alta cada producto; los duplicados por código de barras se omiten.
func Seed(ctx context.Context, uc *usecase.ProductUseCase, items []dto.CreateProductRequest) (SeedResult, error) {
	var res SeedResult
	for i, in := range items {
		_, err := uc.Create(ctx, in)
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, domain.ErrDuplicate):
			res.Skipped++
		default:
			return res, fmt.Errorf("producto %d (%s): %w", i, in.Name, err)
		}
	}
	return res, nil
}

func newSeedCommand(opts *RootOptions) *cobra.Command {
	var file string
	var migrate bool
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Carga el catálogo inicial desde un YAML",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()
			items, err := ParseCatalog(fh)
			if err != nil {
				return err
			}

			cfg, err := opts.config()
			if err != nil {
				return err
			}
			log := opts.logger(cmd, cfg)
			st, err := bootstrap.OpenStorage(cmd.Context(), cfg.DB, migrate, log)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := Seed(cmd.Context(), usecase.NewProductUseCase(st.Products, st.TxRunner, log), items)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "productos creados: %d, omitidos: %d\n", res.Created, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "catalog.yaml", "archivo YAML del catálogo")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "aplicar el esquema antes de cargar")
	return cmd
}
