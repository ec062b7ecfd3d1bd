package main

import (
	_ "time/tzdata"

	"github.com/oshokin/next-alarm/cmd/next-alarm-sensor/cmd"
)

func main() {
	cmd.Execute()
}
