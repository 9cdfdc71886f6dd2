package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonwraymond/ttlrenew/config"
)

// app carries state shared by every subcommand.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"redis-host":     "store.host",
	"redis-port":     "store.port",
	"redis-username": "store.username",
	"redis-password": "store.password",
	"redis-db":       "store.database",
	"redis-tls":      "store.tls",
	"log-level":      "observe.logging.level",
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:          "ttlrenew",
		Short:        "Renew the TTL of Redis keys that are close to expiry",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v, a.configPath)
			if err != nil {
				return err
			}
			cfg.Observe.Logging.Output = cmd.ErrOrStderr()
			a.cfg = cfg
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "config file (yaml, json or toml)")
	f.String("redis-host", "", "Redis host")
	f.Int("redis-port", 0, "Redis port")
	f.String("redis-username", "", "Redis ACL username")
	f.String("redis-password", "", "Redis password, ${ENV} or secretref:<provider>:<ref>")
	f.Int("redis-db", 0, "Redis database index")
	f.Bool("redis-tls", false, "connect with TLS")
	f.String("log-level", "", "log level: debug, info, warn, error")
	for name, key := range flagKeys {
		_ = a.v.BindPFlag(key, f.Lookup(name))
	}

	cmd.AddCommand(newRunCmd(a), newServeCmd(a), newCheckCmd(a))
	return cmd
}
