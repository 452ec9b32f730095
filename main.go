package main

import (
	// zone data for TIMEZONE on hosts without tzdata
	_ "time/tzdata"

	"github.com/yjchoi-grove/vibe-coding/cmd"
)

func main() {
	cmd.Execute()
}
