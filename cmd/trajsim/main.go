// Package main is trajsim, a command line tool that plays motion scripts against the trajectory
// planner and records what it does.
package main

import (
	"log"
	"os"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
