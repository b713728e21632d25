// Package conf holds shell-wide defaults and the optional configuration
// file. Flags override file values, file values override defaults.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Version is stamped at build time.
var Version = "development"

const (
	// DefaultUmask masks permission bits on remote file creation.
	DefaultUmask = 0o022

	// DefaultLogLevel is the starting logger verbosity.
	DefaultLogLevel = "warn"

	// ConfigFileName is looked up in the user's home directory.
	ConfigFileName = ".nfsh"
)

// NFSConfig selects an NFSv3 endpoint.
type NFSConfig struct {
	Host        string `mapstructure:"host"`
	Export      string `mapstructure:"export"`
	PortmapPort int    `mapstructure:"portmap_port"`
	NFSPort     int    `mapstructure:"nfs_port"`
	MountPort   int    `mapstructure:"mount_port"`
	UID         uint32 `mapstructure:"uid"`
	GID         uint32 `mapstructure:"gid"`
}

// SFTPConfig selects an SFTP endpoint.
type SFTPConfig struct {
	Address  string `mapstructure:"address"`
	Export   string `mapstructure:"export"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Config is the merged startup configuration. The remote protocol itself
// is picked by the subcommand, not the file.
type Config struct {
	LogLevel  string     `mapstructure:"log_level"`
	Colorless bool       `mapstructure:"colorless"`
	Umask     uint32     `mapstructure:"umask"`
	NFS       NFSConfig  `mapstructure:"nfs"`
	SFTP      SFTPConfig `mapstructure:"sftp"`
}

// Load reads the optional config file. An explicit path must exist; the
// default home-directory file is allowed to be missing.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("colorless", false)
	v.SetDefault("umask", DefaultUmask)
	v.SetDefault("nfs.export", "/")
	v.SetDefault("sftp.export", "/")

	v.SetEnvPrefix("NFSH")
	v.AutomaticEnv()

	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.SetConfigFile(filepath.Join(home, ConfigFileName+".yaml"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// PrintVersion writes build information to stdout.
func PrintVersion() {
	fmt.Printf("nfsh %s\n", Version)
}
