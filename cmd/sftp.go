package cmd

import (
	"fmt"
	"os"

	"nfsh/pkg/rfs/sftpfs"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"
)

var sftpCmd = &cobra.Command{
	Use:   "sftp",
	Short: "Opens a shell on an SFTP server",
	Long: `Connects to an SFTP server and opens an interactive shell on its
tree. The ssh transport runs over plain TCP, or through a websocket
tunnel when the address is a ws:// or wss:// URL.`,
	Args:         cobra.NoArgs,
	RunE:         runSFTP,
	SilenceUsage: true,
}

// SFTP flags
var (
	fAddress  string
	fExport   string
	fUser     string
	fPassword string
	fKeyFile  string
)

func init() {
	sftpCmd.Flags().StringVar(&fAddress, "address", "", "Server \"host:port\" or ws(s):// URL")
	sftpCmd.Flags().StringVar(&fExport, "export", "", "Remote directory used as the session root")
	sftpCmd.Flags().StringVar(&fUser, "user", "", "Login user")
	sftpCmd.Flags().StringVar(&fPassword, "password", "", "Login password")
	sftpCmd.Flags().StringVar(&fKeyFile, "key", "", "Path to a private key for public key authentication")
}

func runSFTP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("address") {
		cfg.SFTP.Address = fAddress
	}
	if cmd.Flags().Changed("export") {
		cfg.SFTP.Export = fExport
	}
	if cmd.Flags().Changed("user") {
		cfg.SFTP.User = fUser
	}
	if cmd.Flags().Changed("password") {
		cfg.SFTP.Password = fPassword
	}

	if cfg.SFTP.Address == "" {
		return fmt.Errorf("an SFTP server address is required")
	}

	var signer ssh.Signer
	if fKeyFile != "" {
		keyBytes, rErr := os.ReadFile(fKeyFile)
		if rErr != nil {
			return fmt.Errorf("read key file: %w", rErr)
		}
		signer, rErr = ssh.ParsePrivateKey(keyBytes)
		if rErr != nil {
			return fmt.Errorf("parse key file: %w", rErr)
		}
	}

	engine := sftpfs.New(sftpfs.Config{
		Address:  cfg.SFTP.Address,
		Export:   cfg.SFTP.Export,
		User:     cfg.SFTP.User,
		Password: cfg.SFTP.Password,
		Signer:   signer,
	})
	return runSession(engine, cfg)
}
