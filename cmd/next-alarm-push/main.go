package main

import (
	_ "time/tzdata"

	"github.com/oshokin/next-alarm/cmd/next-alarm-push/cmd"
)

func main() {
	cmd.Execute()
}
