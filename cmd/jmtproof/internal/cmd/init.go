package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file for jmtproof.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
	c.Flags().StringP(flagDir, "d", ".", "directory for the generated config file")
	c.Flags().Bool(flagForce, false, "overwrite an existing config file")
	return c
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString(flagDir)
	force, _ := cmd.Flags().GetBool(flagForce)

	file := filepath.Join(dir, defaultConfigFile)
	if _, err := os.Stat(file); err == nil && !force {
		return fmt.Errorf("%s already exists, use --%s to replace it", file, flagForce)
	}
	conf := DefaultConfig()
	conf.DBPath = filepath.Join(dir, conf.DBPath)
	if err := SaveConfig(file, conf); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", file)
	return nil
}
