package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forestrie/go-merklelog/jmt"
)

func newCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit key=value...",
		Short: "Commit key/value pairs as the next version.",
		Long: `Each application key is digested to a tree key and each value is hashed
before it is written. Committing no pairs still creates a version.`,
		RunE: runCommit,
	}
}

func runCommit(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	updates := make([]jmt.LeafUpdate, 0, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return fmt.Errorf("expected key=value, got %q", arg)
		}
		key, err := e.hasher.KeyDigest([]byte(k), e.conf.KeyBits)
		if err != nil {
			return err
		}
		updates = append(updates, jmt.LeafUpdate{Key: key, ValueHash: e.hasher.HashValue([]byte(v))})
	}

	version, root, err := jmt.NewCommitter(e.log, e.store, e.hasher, e.conf.KeyBits).Commit(updates)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version %d root %s\n", version, root)
	return nil
}
