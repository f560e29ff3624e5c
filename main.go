package main

import (
	"game-release-tracker/cmd"
	_ "game-release-tracker/docs"
)

var version = "1.0.0"

// @title Game Release Tracker API
// @version 1.0.0
// @description API for tracking upcoming video game releases using IGDB data
// @BasePath /api
func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
