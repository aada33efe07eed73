package main

import (
	"github.com/osada/npcmind/cmd"
)

func main() {
	cmd.Execute()
}
