package main

import (
	_ "time/tzdata"

	"github.com/oshokin/next-alarm/cmd/next-alarm-server/cmd"
)

func main() {
	cmd.Execute()
}
