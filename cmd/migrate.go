/*
Copyright 2024 Costline Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/costline/porecon/config"
	"github.com/costline/porecon/database"
)

// migrateCommands creates the command that bootstraps the database schema.
// Table creation is idempotent, so re-running it against an existing
// database is safe.
func migrateCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "create the engine's database tables",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Fetch()
			if err != nil {
				log.Fatalf("Error getting config: %v\n", err)
			}

			db, err := database.ConnectDB(cfg.DataSource.Dns)
			if err != nil {
				log.Fatalf("Error connecting to database: %v\n", err)
			}
			defer db.Close()

			fmt.Println("database schema is up to date ✅")
		},
	}
	return cmd
}
