package main

import (
	"os"

	arenacmder "github.com/manroop79/coding-arena/cmd/arena"
)

func main() {
	cmd := arenacmder.NewArenaCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
