package cliapp

import "flag"

const versionString = "1.0.0"
const defaultConfigPath = "./opsboard.toml"

type cliOptions struct {
	configPath string
	once       bool
	ui         bool
	verbose    bool
	version    bool
	args       []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("opsboard", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.once, "once", false, "Run single build and exit")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
