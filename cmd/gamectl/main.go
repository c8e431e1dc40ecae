package main

import (
	"github.com/omgplatform/gameserver/internal/cli"
)

func main() {
	cli.Execute()
}
