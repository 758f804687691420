package main

import "table-sync/cmd"

//go:generate swag init --output docs/swagger --outputTypes go --parseDependency

// @title Table Sync API
// @version 1.0
// @description Syncs CSV sources into Feishu bitable tables and records every run.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	cmd.Execute()
}
