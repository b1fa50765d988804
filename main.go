// Framehue as a command line tool (CLI) is documented in the project's README:
// https://github.com/BitPonyLLC/framehue#readme
package main

import (
	"os"

	"github.com/BitPonyLLC/framehue/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
