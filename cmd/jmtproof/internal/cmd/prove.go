package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forestrie/go-merklelog/jmt"
	"github.com/forestrie/go-merklelog/jmt/keybits"
)

func newProveCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "prove key...",
		Short: "Prove the presence or absence of application keys.",
		Long: `Prints one line per key: the proof kind, the root hash of the version and the
hex encoded ICS-23 commitment proof.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProve,
	}
	c.Flags().Uint64(flagVersion, 0, "version to prove against, 0 for the latest")
	c.Flags().String(flagOut, "", "write the raw proof of a single key to this file")
	return c
}

func runProve(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString(flagOut)
	if out != "" && len(args) != 1 {
		return fmt.Errorf("--%s takes exactly one key", flagOut)
	}

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

	keys := make([]keybits.BitArray, 0, len(args))
	for _, arg := range args {
		key, err := e.hasher.KeyDigest([]byte(arg), e.conf.KeyBits)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	prover := jmt.NewProver(e.log, e.store,
		jmt.WithKeyBits(e.conf.KeyBits),
		jmt.WithConcurrency(e.conf.Concurrency))
	proofs, err := prover.ProveMany(cmd.Context(), version, keys)
	if err != nil {
		return err
	}

	codec := jmt.NewCodec(e.hasher, e.conf.KeyBits)
	for i, cp := range proofs {
		data, err := codec.Marshal(cp)
		if err != nil {
			return err
		}
		if out != "" {
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s version %d root %s proof %s\n",
			args[i], proofKind(cp), version, snap.RootHash(), hex.EncodeToString(data))
	}
	return nil
}

func proofKind(cp jmt.CommitmentProof) string {
	if jmt.IsExistence(cp) {
		return "present"
	}
	return "absent"
}
