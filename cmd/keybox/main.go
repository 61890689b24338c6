// keybox is an offline secret store: a single local file holds a set of
// records (site, user, password, ...), encrypted and authenticated with
// a master passphrase.
package main

import (
	"os"

	"keybox/internal/cli"
)

const version = "0.1.0"

func main() {
	os.Exit(cli.Execute(version))
}
