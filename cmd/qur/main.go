package main

import (
	"log"

	"quantusur/cmd/qur/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Fatal(err)
	}
}
