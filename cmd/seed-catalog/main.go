// Command seed-catalog loads sample products into an empty catalog through
// the catalog service, so images are uploaded and the featured snapshot is
// rebuilt exactly as the API would do it.
package main

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appkg "github.com/xenking/storefront/internal/app"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/product"
)

type seedProduct struct {
	catalog.CreateRequest
	Featured bool
}

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}
		deps, err := appkg.Open(ctx, lg, m.MeterProvider(), cfg)
		if err != nil {
			return err
		}
		defer deps.Close()

		return run(ctx, lg, deps.Catalog, cfg.Seed)
	})
}

func run(ctx context.Context, lg *zap.Logger, svc *catalog.Service, cfg appkg.SeedConfig) error {
	existing, err := svc.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	if len(existing) > 0 {
		lg.Info("Catalog is not empty, skipping seed", zap.Int("products", len(existing)))
		return nil
	}

	lg.Info("Reading products file", zap.String("path", cfg.ProductsFile))
	data, err := os.ReadFile(cfg.ProductsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}
	seeds, err := decodeSeeds(jx.DecodeBytes(data))
	if err != nil {
		return errors.Wrap(err, "parse products file")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Concurrency, 1))
	for _, s := range seeds {
		g.Go(func() error {
			p, err := svc.CreateProduct(gctx, s.CreateRequest)
			if err != nil {
				return errors.Wrapf(err, "create %q", s.Name)
			}
			if s.Featured {
				if _, err := svc.ToggleFeatured(gctx, p.ID); err != nil {
					return errors.Wrapf(err, "feature %q", s.Name)
				}
			}
			lg.Debug("Created product", zap.String("id", p.ID), zap.String("name", p.Name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := svc.RefreshFeatured(ctx); err != nil {
		return errors.Wrap(err, "refresh featured")
	}
	lg.Info("Seed completed", zap.Int("products", len(seeds)))
	return nil
}

func decodeSeeds(d *jx.Decoder) ([]seedProduct, error) {
	var out []seedProduct
	err := d.Arr(func(d *jx.Decoder) error {
		var s seedProduct
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "name":
				s.Name, err = d.Str()
			case "description":
				s.Description, err = d.Str()
			case "price":
				s.Price, err = product.DecodeDecimal(d)
			case "image":
				s.Image, err = d.Str()
			case "category":
				s.Category, err = d.Str()
			case "isFeatured":
				s.Featured, err = d.Bool()
			default:
				err = d.Skip()
			}
			if err != nil {
				return errors.Wrapf(err, "field %q", key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}
