package main

import (
	"precoradar/cmd/precoradar/commands"
	"precoradar/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
