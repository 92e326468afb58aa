// replctl is the command-line client for a replbridge server.
package main

import (
	"os"

	"github.com/GriffinCanCode/replbridge/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
