package cmd

import (
	"fmt"

	"nfsh/pkg/rfs/nfs"

	"github.com/spf13/cobra"
)

var nfsCmd = &cobra.Command{
	Use:   "nfs",
	Short: "Opens a shell on an NFSv3 export",
	Long: `Connects to an NFSv3 server over TCP and opens an interactive shell
on one of its exports. The mount protocol handshake happens in-process,
so no local mount or elevated privileges are required.`,
	Args:         cobra.NoArgs,
	RunE:         runNFS,
	SilenceUsage: true,
}

// NFS flags
var (
	nHost        string
	nExport      string
	nPortmapPort int
	nNFSPort     int
	nMountPort   int
	nUID         uint32
	nGID         uint32
)

func init() {
	nfsCmd.Flags().StringVar(&nHost, "host", "", "NFS server hostname or address")
	nfsCmd.Flags().StringVar(&nExport, "export", "", "Export path to attach to")
	nfsCmd.Flags().IntVar(&nPortmapPort, "portmap-port", 0, "Portmapper port (default 111)")
	nfsCmd.Flags().IntVar(&nNFSPort, "nfs-port", 0, "NFS port, skips portmapper discovery")
	nfsCmd.Flags().IntVar(&nMountPort, "mount-port", 0, "Mount protocol port, skips portmapper discovery")
	nfsCmd.Flags().Uint32Var(&nUID, "uid", 0, "UID to present in AUTH_UNIX credentials")
	nfsCmd.Flags().Uint32Var(&nGID, "gid", 0, "GID to present in AUTH_UNIX credentials")
}

func runNFS(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		cfg.NFS.Host = nHost
	}
	if cmd.Flags().Changed("export") {
		cfg.NFS.Export = nExport
	}
	if cmd.Flags().Changed("portmap-port") {
		cfg.NFS.PortmapPort = nPortmapPort
	}
	if cmd.Flags().Changed("nfs-port") {
		cfg.NFS.NFSPort = nNFSPort
	}
	if cmd.Flags().Changed("mount-port") {
		cfg.NFS.MountPort = nMountPort
	}
	if cmd.Flags().Changed("uid") {
		cfg.NFS.UID = nUID
	}
	if cmd.Flags().Changed("gid") {
		cfg.NFS.GID = nGID
	}

	if cfg.NFS.Host == "" {
		return fmt.Errorf("an NFS server host is required")
	}

	engine := nfs.New(nfs.Config{
		Host:        cfg.NFS.Host,
		Export:      cfg.NFS.Export,
		PortmapPort: cfg.NFS.PortmapPort,
		NFSPort:     cfg.NFS.NFSPort,
		MountPort:   cfg.NFS.MountPort,
		UID:         cfg.NFS.UID,
		GID:         cfg.NFS.GID,
	})
	return runSession(engine, cfg)
}
