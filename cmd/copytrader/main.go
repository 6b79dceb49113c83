// Command copytrader copies large Solana buys through a Telegram trading bot.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"whale-copytrader/internal/cli"
	"whale-copytrader/internal/config"
	"whale-copytrader/internal/logging"
	"whale-copytrader/internal/security"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(cli.ConfigDirFromArgs(args))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", security.MaskError(err))
		return 1
	}
	for _, path := range cfg.Templates {
		fmt.Fprintf(os.Stderr, "Wrote template %s\n", path)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.File = cfg.Log.File
	logCfg.FilePath = filepath.Join(cfg.Dir, "logs", "copytrader.log")

	root := cli.NewRootCmd(cfg, logCfg)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", security.MaskError(err))
		return 1
	}
	return 0
}
