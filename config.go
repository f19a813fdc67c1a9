package complianced

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/raphi011/complianced/internal/catalog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Port used by the HTTP server. 0 picks a free port.
	Port int `yaml:"port"`
	// SuitesDir is scanned (non-recursively) for suite definition
	// files.
	SuitesDir string `yaml:"suitesDir"`
	// ResultsDir is the root of the per-suite report output
	// directories.
	ResultsDir string `yaml:"resultsDir"`
	// RobotBinary is the engine executable.
	RobotBinary string `yaml:"robotBinary"`
	// ExecutionTimeout is the hard per-run limit after which the engine
	// subprocess is killed.
	ExecutionTimeout time.Duration `yaml:"executionTimeout"`
	// BusyWait bounds how long a run queues behind an in-flight run of
	// the same suite before failing with Busy.
	BusyWait time.Duration `yaml:"busyWait"`
	// DatabaseFile is the run-history sqlite db. Empty means in-memory.
	DatabaseFile string `yaml:"databaseFile"`

	// ElasticAddresses enables the log-indexing hook when set.
	ElasticAddresses []string `yaml:"elasticAddresses"`
	ElasticIndex     string   `yaml:"elasticIndex"`

	// SlackToken/SlackChannelID enable failure notifications when set.
	SlackToken     string `yaml:"slackToken"`
	SlackChannelID string `yaml:"slackChannelId"`

	// MCPMode serves the operations as MCP tools over stdio instead of
	// HTTP.
	MCPMode bool `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		Port:             1337,
		SuitesDir:        "tests",
		ResultsDir:       "results",
		RobotBinary:      "robot",
		ExecutionTimeout: 5 * time.Minute,
		BusyWait:         10 * time.Second,
		DatabaseFile:     "complianced.db",
		ElasticIndex:     "complianced-logs",
	}
}

func (s *Server) parseFlags() {
	if flag.Parsed() {
		return
	}

	var (
		configFile = flag.String("c", "", "path to a yaml config file")
		port       = flag.Int("p", s.config.Port, "port used by the http server")
		suitesDir  = flag.String("tests", s.config.SuitesDir, "directory containing the suite definition files")
		resultsDir = flag.String("results", s.config.ResultsDir, "root directory for execution reports")
		robotBin   = flag.String("robot", s.config.RobotBinary, "robot engine binary")
		timeout    = flag.Duration("timeout", s.config.ExecutionTimeout, "hard execution timeout per run")
		dbFile     = flag.String("d", s.config.DatabaseFile, "run history database file (empty for in-memory)")
		mcpMode    = flag.Bool("mcp", false, "serve mcp tools over stdio instead of http")
		listSuites = flag.Bool("l", false, "list all discovered suites and exit")
	)

	flag.Parse()

	if *configFile != "" {
		if err := loadConfigFile(*configFile, &s.config); err != nil {
			s.log.Warn("could not load config file", "path", *configFile, "error", err)
		}
	}

	// Flags override config file values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			s.config.Port = *port
		case "tests":
			s.config.SuitesDir = *suitesDir
		case "results":
			s.config.ResultsDir = *resultsDir
		case "robot":
			s.config.RobotBinary = *robotBin
		case "timeout":
			s.config.ExecutionTimeout = *timeout
		case "d":
			s.config.DatabaseFile = *dbFile
		}
	})

	s.config.MCPMode = *mcpMode

	if *listSuites {
		s.printSuites()
	}
}

func loadConfigFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(b, cfg)
}

func (s *Server) printSuites() {
	for _, suite := range catalog.New(s.config.SuitesDir, s.log).Discover() {
		fmt.Printf("suite: %q\n", suite.Name)
		if suite.Description != "" {
			fmt.Printf("\t%s\n", suite.Description)
		}
	}

	os.Exit(0)
}
