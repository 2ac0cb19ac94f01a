/*package kspace computes static structure factors S(k) of particle
configurations from molecular simulation trajectories.*/
package main

import (
	"fmt"
	"os"

	"github.com/mfrenkel/kspace/correlate"
)

var helpStrings = map[string]string{
	"sk": `The sk mode averages the static structure factor S(k) over a
range of trajectory configurations and writes it as "k S(k)" columns.
It is configured by a TOML file; type 'kspace help config' for an
example.`,

	"config": correlate.ExampleConfig(),
}

var modeDescriptions = `My help modes are:
kspace help
kspace help [ sk | config ]

My analysis mode is:
kspace sk ____.toml`

func main() {
	args := os.Args
	if len(args) <= 1 {
		fmt.Fprintf(
			os.Stderr, "I was not supplied with a mode.\nFor help, type "+
				"'kspace help'.\n",
		)
		os.Exit(1)
	}

	switch args[1] {
	case "help":
		switch len(args) - 2 {
		case 0:
			fmt.Println(modeDescriptions)
		case 1:
			text, ok := helpStrings[args[2]]
			if !ok {
				fmt.Printf("I don't recognize the help target '%s'\n", args[2])
				os.Exit(1)
			}
			fmt.Println(text)
		default:
			fmt.Println("The help mode can only take a single argument.")
			os.Exit(1)
		}
	case "sk":
		if len(args) != 3 {
			fmt.Fprintf(
				os.Stderr, "The sk mode takes exactly one argument, a TOML "+
					"config file.\nFor help, type 'kspace help sk'.\n",
			)
			os.Exit(1)
		}
		s, err := correlate.New(args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %s\n", args[2], err)
			os.Exit(1)
		}
		if err := s.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(
			os.Stderr, "I don't recognize the mode '%s'.\nFor help, type "+
				"'kspace help'.\n", args[1],
		)
		os.Exit(1)
	}
}
