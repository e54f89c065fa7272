package main

import (
	"github.com/postflow/postflow/cmd"
)

func main() {
	cmd.Execute()
}
