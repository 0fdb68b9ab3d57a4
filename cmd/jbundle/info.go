package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Huy1073hello/jbundle/internal/jdk"
	"github.com/Huy1073hello/jbundle/internal/platform"
	"github.com/Huy1073hello/jbundle/internal/service"
)

func newInfoCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache contents and the host platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(global)
			if err != nil {
				return err
			}

			svc := service.NewCacheService(jdk.NewCache(settings.CacheDir), platform.NewDetector())
			info, err := svc.Info(cmd.Context())
			if err != nil {
				return err
			}

			printInfo(os.Stderr, info)
			return nil
		},
	}
}

func printInfo(w io.Writer, info *service.InfoResult) {
	fmt.Fprintf(w, "Cache directory: %s\n", info.CacheDir)

	if len(info.Entries) == 0 {
		fmt.Fprintln(w, "Cache is empty")
	} else {
		fmt.Fprintf(w, "Cache size:      %s\n", humanize.Bytes(uint64(info.Size)))
		fmt.Fprintf(w, "Cached items:    %d\n", len(info.Entries))
		for _, e := range info.Entries {
			fmt.Fprintf(w, "  %s (%s)\n", e.Name, humanize.Bytes(uint64(e.Size)))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Current platform: %s\n", info.Host)
	if info.Platform != nil {
		if distro := info.Platform.GetDistro(); distro != nil {
			fmt.Fprintf(w, "Distribution:     %s %s (%s family)\n", distro.ID, distro.Version, distro.Family)
		}
		if info.Platform.Musl {
			fmt.Fprintln(w, "Note: musl libc host; downloaded glibc runtimes will not run here")
		}
	}
}
