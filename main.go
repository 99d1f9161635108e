package main

import (
	"log"
	"os"
	"strconv"

	"github.com/ZeroXClem/locutus/cmd"
)

func main() {
	// Enters the command line interface
	argsWithoutProg := os.Args[1:]

	if len(argsWithoutProg) == 0 {
		log.Fatalf("Run the program as `go run . $config_file` for normal mode or " +
			"`go run . simu $num_of_nodes` for simulation mode")
	}

	if argsWithoutProg[0] == "simu" {
		// Run in simulation mode
		if len(argsWithoutProg) > 1 {
			nbNodes, err := strconv.Atoi(argsWithoutProg[1])
			if err != nil {
				log.Fatalf("Run the program as `go run . $config_file` for normal mode or " +
					"`go run . simu $num_of_nodes` for simulation mode")
			}
			cmd.SimuUserInterface(nbNodes)
		} else {
			defaultNbNodes := 6
			cmd.SimuUserInterface(defaultNbNodes)
		}
		return
	}

	// Normal node over UDP, configured from file
	cmd.UserInterface(argsWithoutProg[0])
}
