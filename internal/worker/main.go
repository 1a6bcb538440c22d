package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shaiso/chunkplan/internal/catalog"
	"github.com/shaiso/chunkplan/internal/chunks"
	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/layout"
	"github.com/shaiso/chunkplan/internal/store"
	"github.com/shaiso/chunkplan/internal/telemetry"
)

// Deps — внешние зависимости worker'а.
//
// Пустые поля заполняются по DBSpec дескриптора: хранилище выбирается по
// схеме удалённого корня, каталог — PostgreSQL при заданном CatalogDSN
// (или CATALOG_DB_URL), иначе genomes.tsv из хранилища.
type Deps struct {
	Store      store.Store
	Source     catalog.RepresentativeSource
	Registry   *chunks.Registry
	CatalogDSN string
	Logger     *slog.Logger
}

// Main — точка входа worker'а.
//
// Дескриптор проверяется до сборки каталога: вызов не в режиме worker'а
// отклоняется раньше любого обращения к каталогу.
func Main(ctx context.Context, desc domain.JobDescriptor, deps Deps) error {
	if !desc.IsWorker() {
		return domain.ErrNotWorkerInvocation
	}
	// Worker работает в своей рабочей директории: относительный корень
	// указал бы внутрь неё, и артефакт исчез бы вместе с ней.
	if !store.IsAbsRoot(desc.DB.RemoteRoot) {
		return fmt.Errorf("%w: %q", ErrRelativeRemoteRoot, desc.DB.RemoteRoot)
	}

	logger := deps.Logger
	if logger == nil {
		logger = telemetry.FromContext(ctx)
	}

	l := layout.FromDB(desc.DB)

	s := deps.Store
	if s == nil {
		var err error
		s, err = store.New(desc.DB.RemoteRoot)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
	}

	source := deps.Source
	if source == nil {
		dsn := deps.CatalogDSN
		if dsn == "" {
			dsn = os.Getenv("CATALOG_DB_URL")
		}
		if dsn != "" {
			pool, err := catalog.NewPool(ctx, dsn)
			if err != nil {
				return fmt.Errorf("open catalog db: %w", err)
			}
			defer pool.Close()
			source = catalog.NewPGSource(pool, desc.DB.Name)
		} else {
			source = catalog.NewTSVSource(s, l)
		}
	}

	w := New(Config{
		Catalog:  catalog.New(source, s, l),
		Store:    s,
		Layout:   l,
		Registry: deps.Registry,
		Logger:   logger,
	})
	return w.Run(ctx, desc)
}
