package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/itohio/autito/pkg/config"
)

const defaultConfigFile = "autito.yaml"

type Options struct {
	Config  string `short:"c" long:"config" default:"autito.yaml" description:"Configuration file"`
	Verbose bool   `short:"v" long:"verbose" description:"Log every command and reply"`

	Robot RobotCommand `command:"robot" description:"Run the car: connect to the pilot and drive the motors"`
	Pilot PilotCommand `command:"pilot" description:"Wait for the car and drive it from the keyboard"`
	Ports PortsCommand `command:"ports" description:"List serial ports"`
	Init  InitCommand  `command:"init" description:"Write the default configuration file"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "autito - two motor Wi-Fi robot car"
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if opts.Verbose {
			log.SetLevel(log.DebugLevel)
		}
		if cmd == nil {
			return nil
		}
		return cmd.Execute(args)
	}

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	name := opts.Config
	if name == "" {
		name = defaultConfigFile
	}
	cfg, err := config.Load(name)
	if err != nil {
		return nil, err
	}
	log.Debugf("Loaded configuration from %s", name)
	return cfg, nil
}
