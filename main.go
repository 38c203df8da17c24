// Package main provides a convenience entry point for mr32sim.
// mr32sim is an MRISC32 CPU simulator.
//
// For the full CLI, use: go run ./cmd/mr32sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("mr32sim - An MRISC32 CPU simulator")
	fmt.Println("")
	fmt.Println("Usage: mr32sim [options] bin-file")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -v              Print stats")
	fmt.Println("  -g              Enable graphics")
	fmt.Println("  -R N            Set the RAM size (in bytes)")
	fmt.Println("  -A ADDR         Set the program load address")
	fmt.Println("  -c CYCLES       Maximum number of CPU cycles to simulate")
	fmt.Println("  -t FILE         Enable debug trace")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/mr32sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/mr32sim' instead.")
	}
}
