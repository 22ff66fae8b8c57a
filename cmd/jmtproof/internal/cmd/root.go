package cmd

import (
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/spf13/cobra"

	"github.com/forestrie/go-merklelog/jmt"
	"github.com/forestrie/go-merklelog/jmt/jmtdb"
)

const (
	flagConfig  = "config"
	flagDB      = "db"
	flagVersion = "version"
	flagOut     = "out"
	flagDir     = "dir"
	flagForce   = "force"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "jmtproof",
		Short:        "Commit keys to a versioned Merkle tree and prove membership",
		SilenceUsage: true,
	}
	root.PersistentFlags().String(flagConfig, defaultConfigFile, "path to the TOML config file")
	root.PersistentFlags().String(flagDB, "", "leveldb directory, overrides db_path")

	root.AddCommand(newInitCmd(), newCommitCmd(), newProveCmd(), newRootHashCmd())
	return root
}

// env is what every command that touches the tree needs.
type env struct {
	conf   *Config
	log    logger.Logger
	hasher *jmt.Hasher
	store  *jmtdb.Store
}

func openEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString(flagConfig)
	conf, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if db, _ := cmd.Flags().GetString(flagDB); db != "" {
		conf.DBPath = db
	}

	logger.New(conf.LogLevel)
	log := logger.Sugar.WithServiceName("jmtproof")

	hasher, err := jmt.HasherByName(conf.Hash)
	if err != nil {
		return nil, err
	}
	store, err := jmtdb.Open(log, conf.DBPath, jmtdb.WithCacheSize(conf.CacheSize))
	if err != nil {
		return nil, err
	}
	return &env{conf: conf, log: log, hasher: hasher, store: store}, nil
}

func (e *env) Close() error { return e.store.Close() }

// resolveVersion maps 0 to the latest committed version.
func (e *env) resolveVersion(v uint64) (jmt.Version, error) {
	if v != 0 {
		return jmt.Version(v), nil
	}
	latest, ok := e.store.LatestVersion()
	if !ok {
		return 0, jmt.ErrVersionNotFound
	}
	return latest, nil
}
