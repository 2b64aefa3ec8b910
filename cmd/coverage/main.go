package main

// Analyse a team against the sample catalog:
//   go run ./cmd/coverage gap --care-setting cs-med-surg --team occ-hca

import "teambuilder-backend/internal/cli"

func main() {
	cli.Execute()
}
