package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Huy1073hello/jbundle/internal/jdk"
	"github.com/Huy1073hello/jbundle/internal/service"
)

func newCleanCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove every cached runtime and download",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(global)
			if err != nil {
				return err
			}

			svc := service.NewCacheService(jdk.NewCache(settings.CacheDir), nil)
			freed, err := svc.Clean()
			if err != nil {
				return err
			}

			if freed == 0 {
				fmt.Fprintln(os.Stderr, "Cache is already empty")
				return nil
			}
			fmt.Fprintf(os.Stderr, "Cleaned %s of cached data\n", humanize.Bytes(uint64(freed)))
			return nil
		},
	}
}
