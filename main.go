package main

import "panellicense/cli"

// @title Panel License Server API
// @version 1.0
// @description Generates, activates and validates hosting panel licenses.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT bearer token. Format: Bearer {token}

func main() {
	cli.Execute()
}
