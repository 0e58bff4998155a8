package main

import "github.com/MeKo-Tech/reefcraft/internal/cmd"

func main() {
	cmd.Execute()
}
