// Package main is a command line tool that loads a trajectory optimization problem, prints its variables,
// residuals and constraint jacobian, and checks the analytic jacobian against finite differences.
package main

import (
	"log"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
