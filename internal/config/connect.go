package config

import (
	"context"
	"fmt"

	"tempstore/internal/core"
	"tempstore/internal/datasource"
	"tempstore/internal/logctx"
	"tempstore/internal/store"
	"tempstore/internal/store/mem"
	"tempstore/internal/store/mongo"
)

// Connect dials the backend named by c, builds the Session the rest of
// the CLI and library callers operate against, and returns a cleanup
// function the caller must defer. An empty DatasetName resolves to the
// root sentinel directly; a non-empty name is looked up as a top-level
// dataset immediately under the root.
func (c *Config) Connect(ctx context.Context) (*core.Session, func(context.Context) error, error) {
	st, closeStore, err := c.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	log, err := logctx.NewDevelopment(c.Verbosity)
	if err != nil {
		_ = closeStore(ctx)
		return nil, nil, fmt.Errorf("config: building log: %w", err)
	}

	ds := datasource.New(st, store.NewGenerator(), log, c.ReadOnly, c.Cutoff)

	datasetID := core.EmptyTemporalId
	if c.DatasetName != "" {
		datasetID, err = ds.DataSetOf(ctx, c.DatasetName, core.EmptyTemporalId)
		if err != nil {
			_ = closeStore(ctx)
			return nil, nil, fmt.Errorf("config: resolving dataset %q: %w", c.DatasetName, err)
		}
	}

	session := &core.Session{Source: ds, Dataset: datasetID, Log: log}
	return session, closeStore, nil
}

// DropDatabase drops c's database outright, gated the way `tstore db drop`
// requires (§6.4): refused for a PROD/UAT DbName, and always refused
// against a read-only data source. It dials the store directly rather
// than going through a Session, since dropping a whole database is not
// part of the core.DataSource contract.
func (c *Config) DropDatabase(ctx context.Context) error {
	if !c.DbName.CanDelete() {
		return core.NewError(core.KindReadOnly, "refusing to drop %s database %s", c.DbName.InstanceType, c.DbName)
	}
	if c.ReadOnly {
		return core.NewError(core.KindReadOnly, "refusing to drop database %s: data source is read-only", c.DbName)
	}

	st, closeStore, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeStore(ctx)
	}()

	return st.DropDatabase(ctx)
}

func (c *Config) openStore(ctx context.Context) (store.Store, func(context.Context) error, error) {
	switch c.Backend {
	case store.BackendMongo:
		st, closeFn, err := mongo.Connect(ctx, c.URI, c.DbName.String())
		if err != nil {
			return nil, nil, fmt.Errorf("config: connecting to mongo: %w", err)
		}
		return st, closeFn, nil
	case store.BackendMem:
		return mem.NewStore(), func(context.Context) error { return nil }, nil
	default:
		return nil, nil, core.NewError(core.KindValidation, "config: unrecognized backend %q", c.Backend)
	}
}
