// DNS Switcher - menu bar utility for switching DNS server profiles
package main

import (
	"fmt"

	"github.com/user/dns-switcher/internal/ui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	fmt.Println("DNS Switcher starting...")
	ui.Run(version)
}
