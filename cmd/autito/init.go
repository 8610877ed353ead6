package main

import (
	"fmt"
	"os"

	"github.com/itohio/autito/pkg/config"
)

type InitCommand struct {
	Force bool `short:"f" long:"force" description:"Overwrite an existing file"`
}

func (c *InitCommand) Execute(args []string) error {
	if _, err := os.Stat(opts.Config); err == nil && !c.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", opts.Config)
	}
	if err := config.Default().Save(opts.Config); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", opts.Config)
	return nil
}
