package main

import (
	"fmt"

	"github.com/itohio/autito/pkg/link"
)

type PortsCommand struct{}

func (c *PortsCommand) Execute(args []string) error {
	ports, err := link.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		if p.Description == p.Name {
			fmt.Println(p.Name)
			continue
		}
		fmt.Printf("%-20s %s\n", p.Name, p.Description)
	}
	return nil
}
