package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forestrie/go-merklelog/jmt"
)

func newRootHashCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "root",
		Short: "Print the root hash of a version.",
		Args:  cobra.NoArgs,
		RunE:  runRootHash,
	}
	c.Flags().Uint64(flagVersion, 0, "version, 0 for the latest")
	return c
}

func runRootHash(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	v, _ := cmd.Flags().GetUint64(flagVersion)
	version, err := e.resolveVersion(v)
	if err != nil {
		return err
	}
	snap, err := jmt.OpenSnapshot(e.store, version)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version %d root %s\n", version, snap.RootHash())
	return nil
}
