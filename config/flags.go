package config

import (
	"flag"
	"fmt"
)

// Flags command-line switches.
type Flags struct {
	ConfigPath string
	// Setup runs the interactive wizard before starting.
	Setup bool
	// Once prints every widget for the current instant and exits.
	Once bool
}

// ParseFlags parses helios command-line arguments.
func ParseFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("helios", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	setup := fs.Bool("setup", false, "run the configuration wizard and write config.gen.yaml")
	once := fs.Bool("once", false, "print all widgets for the current instant and exit")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	if fs.NArg() > 0 {
		return Flags{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return Flags{ConfigPath: *configPath, Setup: *setup, Once: *once}, nil
}
