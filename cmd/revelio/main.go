package main

import (
	"os"

	"revelio-finance/internal/commands"
)

// @title Revelio Finance API
// @version 1.0
// @description Parses OFX/QFX bank statements and enriches transactions with AI-suggested merchant, category and city.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
