package common

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/config"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

// NewCommandDeps creates CommandDeps by loading config and creating the
// logger. This consolidates the common initialization code every command
// would otherwise repeat. The config path and debug flag come from the root
// command's persistent flags.
func NewCommandDeps(cmd *cobra.Command) (CommandDeps, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return CommandDeps{}, fmt.Errorf("read config flag: %w", err)
	}
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return CommandDeps{}, fmt.Errorf("read debug flag: %w", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}

	logCfg := cfg.Log
	if debug {
		logCfg.Level = "debug"
		logCfg.Development = true
	}

	log, err := logger.New(&logCfg)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	deps := CommandDeps{
		Logger: log,
		Config: cfg,
	}

	if validateErr := deps.Validate(); validateErr != nil {
		return CommandDeps{}, fmt.Errorf("validate deps: %w", validateErr)
	}

	return deps, nil
}
